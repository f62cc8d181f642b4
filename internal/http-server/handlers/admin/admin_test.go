package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"ticketdesk/entity"
	"ticketdesk/lib/api/cont"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCore struct {
	mock.Mock
}

func (m *mockCore) Reset(ctx context.Context, by string) (int64, error) {
	args := m.Called(ctx, by)
	return args.Get(0).(int64), args.Error(1)
}

func TestReset(t *testing.T) {
	c := new(mockCore)
	c.On("Reset", mock.Anything, "door").Return(int64(3), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/reset-test", nil)
	req = req.WithContext(cont.PutOperator(req.Context(), &entity.Operator{Username: "door"}))
	rec := httptest.NewRecorder()
	Reset(slog.New(slog.NewTextHandler(io.Discard, nil)), c)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	c.AssertExpectations(t)
}

func TestReset_Failure(t *testing.T) {
	c := new(mockCore)
	c.On("Reset", mock.Anything, "unknown").Return(int64(0), errors.New("not primary"))

	rec := httptest.NewRecorder()
	Reset(slog.New(slog.NewTextHandler(io.Discard, nil)), c)(rec, httptest.NewRequest(http.MethodPost, "/api/reset-test", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reset failed")
}
