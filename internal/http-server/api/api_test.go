package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"ticketdesk/entity"
	"ticketdesk/impl/auth"
	"ticketdesk/impl/core"
	"ticketdesk/impl/tickets"
	"ticketdesk/internal/config"
	"ticketdesk/internal/database"
	"ticketdesk/internal/metrics"
	"ticketdesk/lib/phone"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operatorToken = "operator-token-0123456789"

func newTestServer(t *testing.T, total int, staticDir string) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	conf := &config.Config{
		Listen: config.Listen{RequestTimeout: 5 * time.Second, StaticDir: staticDir},
	}

	store := database.NewMemory()
	normalizer, err := phone.New("233", nil)
	require.NoError(t, err)
	c := core.New(store, tickets.New(store, "ticket", total, log), normalizer, log)
	c.SetAuthService(auth.New([]entity.Operator{{Username: "door", Token: operatorToken}}))

	server := New(conf, log, c, metrics.New(prometheus.NewRegistry()), nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func register(t *testing.T, ts *httptest.Server, body string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func ticketsLeft(t *testing.T, ts *httptest.Server) entity.TicketsLeft {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/tickets-left")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var left entity.TicketsLeft
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&left))
	return left
}

func TestRegistrationFlow(t *testing.T) {
	ts := newTestServer(t, 2, "")

	assert.Equal(t, entity.TicketsLeft{Left: 2, Total: 2}, ticketsLeft(t, ts))

	status, body := register(t, ts, `{"name":"","phone":"0244123456"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "All fields are required", body["error"])

	status, body = register(t, ts, `{"name":"Ama","phone":"0244123456","email":"ama@example.com"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ROS-0001", body["ticketCode"])
	assert.Equal(t, true, body["success"])

	status, _ = register(t, ts, `{"name":"Ama","phone":"0244123456","email":"ama@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = register(t, ts, `{"name":"Kofi","phone":"+233 24 412 3457"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ROS-0002", body["ticketCode"])

	status, _ = register(t, ts, `{"name":"Esi","phone":"0244123458"}`)
	assert.Equal(t, http.StatusGone, status)

	assert.Equal(t, entity.TicketsLeft{Left: 0, Total: 2}, ticketsLeft(t, ts))
}

func TestConcurrentRegistrations(t *testing.T) {
	ts := newTestServer(t, 10, "")

	var wg sync.WaitGroup
	var mu sync.Mutex
	statuses := map[int]int{}
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/api/register", "application/json",
				strings.NewReader(`{"name":"Guest","phone":"0244123456"}`))
			if !assert.NoError(t, err) {
				return
			}
			resp.Body.Close()
			mu.Lock()
			statuses[resp.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, statuses[http.StatusOK])
	assert.Equal(t, 30, statuses[http.StatusGone])
}

func TestResetRequiresOperator(t *testing.T) {
	ts := newTestServer(t, 1, "")

	status, _ := register(t, ts, `{"name":"Ama","phone":"0244123456"}`)
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Post(ts.URL+"/api/reset-test", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ts.URL+"/api/reset-test", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+operatorToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, entity.TicketsLeft{Left: 1, Total: 1}, ticketsLeft(t, ts))
	status, body := register(t, ts, `{"name":"Kofi","phone":"0244123457"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ROS-0001", body["ticketCode"])
}

func TestErrorsAndInfrastructureRoutes(t *testing.T) {
	ts := newTestServer(t, 1, "")

	resp, err := http.Get(ts.URL + "/api/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/register")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_ = ticketsLeft(t, ts)
	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ticketdesk_http_requests_total{method="GET",route="/api/tickets-left",status="200"}`)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Roses of Sharon</h1>"), 0o644))
	ts := newTestServer(t, 1, dir)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Roses of Sharon")

	assert.Equal(t, entity.TicketsLeft{Left: 1, Total: 1}, ticketsLeft(t, ts))
}
