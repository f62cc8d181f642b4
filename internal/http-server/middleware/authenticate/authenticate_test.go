package authenticate

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"ticketdesk/entity"
	"ticketdesk/lib/api/cont"

	"github.com/stretchr/testify/assert"
)

type staticAuth map[string]string

func (a staticAuth) AuthenticateByToken(token string) (*entity.Operator, error) {
	name, ok := a[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &entity.Operator{Username: name, Token: token}, nil
}

func TestAuthenticate(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if operator := cont.GetOperator(r.Context()); operator != nil {
			seen = operator.Username
		}
		w.WriteHeader(http.StatusNoContent)
	})
	handler := New(log, staticAuth{"secret-token-123456": "door"})(next)

	for _, tc := range []struct {
		header string
		status int
	}{
		{header: "", status: http.StatusUnauthorized},
		{header: "Bearer", status: http.StatusUnauthorized},
		{header: "Bearer ", status: http.StatusUnauthorized},
		{header: "Basic c2VjcmV0", status: http.StatusUnauthorized},
		{header: "Bearer wrong-token", status: http.StatusUnauthorized},
		{header: "Bearer secret-token-123456", status: http.StatusNoContent},
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/reset-test", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.header)
	}
	assert.Equal(t, "door", seen)
}

func TestAuthenticate_NilAuth(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := New(log, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next must not be called")
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
