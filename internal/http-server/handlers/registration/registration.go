package registration

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"ticketdesk/entity"
	"ticketdesk/impl/core"
	"ticketdesk/lib/api/response"
	"ticketdesk/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.Registration, error)
	TicketsLeft(ctx context.Context) (*entity.TicketsLeft, error)
}

func Register(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.registration")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.RegisterRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request"))
			return
		}
		logger = logger.With(sl.Phone(req.Phone))

		registration, err := handler.Register(r.Context(), &req)
		if err != nil {
			status, message := statusOf(err)
			if status == http.StatusInternalServerError {
				logger.Error("register", sl.Err(err))
			} else {
				logger.Debug("register refused", sl.Err(err))
			}
			render.Status(r, status)
			render.JSON(w, r, response.Error(message))
			return
		}
		logger.Debug("registered", slog.String("ticket", registration.TicketCode))

		render.JSON(w, r, registration)
	}
}

func TicketsLeft(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.registration")

		left, err := handler.TicketsLeft(r.Context())
		if err != nil {
			log.With(
				mod,
				slog.String("request_id", middleware.GetReqID(r.Context())),
			).Error("tickets left", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to fetch ticket info"))
			return
		}

		render.JSON(w, r, left)
	}
}

// statusOf maps workflow errors to a status; only user errors expose their text.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrDuplicate):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrSoldOut):
		return http.StatusGone, err.Error()
	default:
		return http.StatusInternalServerError, "Server error, please try again or contact support"
	}
}
