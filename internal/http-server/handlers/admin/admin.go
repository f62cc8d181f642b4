package admin

import (
	"context"
	"log/slog"
	"net/http"
	"ticketdesk/lib/api/cont"
	"ticketdesk/lib/api/response"
	"ticketdesk/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Reset(ctx context.Context, by string) (int64, error)
}

func Reset(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admin")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		by := "unknown"
		if operator := cont.GetOperator(r.Context()); operator != nil {
			by = operator.Username
		}
		logger = logger.With(slog.String("operator", by))

		deleted, err := handler.Reset(r.Context(), by)
		if err != nil {
			logger.Error("reset", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Reset failed"))
			return
		}
		logger.Info("reset done", slog.Int64("deleted", deleted))

		render.JSON(w, r, response.Message("Test data cleared, counter reset"))
	}
}
