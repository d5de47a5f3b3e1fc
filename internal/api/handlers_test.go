package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consultorios/booking-chat/internal/clinics"
	"github.com/consultorios/booking-chat/internal/fallback"
	"github.com/consultorios/booking-chat/internal/funnel"
	"github.com/consultorios/booking-chat/pkg/logging"
)

type fallbackMock struct {
	resp *fallback.Response
	err  error

	calls      int
	gotMensaje string
	gotConv    funnel.Context
}

func (m *fallbackMock) Send(_ context.Context, mensaje string, conv funnel.Context) (*fallback.Response, error) {
	m.calls++
	m.gotMensaje = mensaje
	m.gotConv = conv
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

// clinicsStub serves the specialty listing the resolver needs; everything
// else is an empty list.
func clinicsStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/specialties/" {
			_, _ = w.Write([]byte(`[{"id":1,"name":"Cardiología","description":"Corazón"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, clinicsURL string, fb Fallback) http.Handler {
	t.Helper()
	logger := logging.New("error")
	client := clinics.NewClient(clinicsURL, 2*time.Second)
	return NewRouter(RouterConfig{
		Resolver: funnel.NewResolver(client, logger),
		Fallback: fb,
		Clinics:  client,
		Logger:   logger,
		Env:      "test",
		Version:  "test",
	})
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) ChatResponse {
	t.Helper()
	var out ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestChat_HandledByFunnel(t *testing.T) {
	srv := clinicsStub(t)
	fb := &fallbackMock{}
	h := newTestRouter(t, srv.URL, fb)

	rec := postChat(t, h, `{"mensaje":"Ver especialidades"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeChat(t, rec)
	assert.Contains(t, out.Respuesta, "Cardiología")
	assert.NotEmpty(t, out.Sugerencias)
	assert.Len(t, out.ContextoActualizado.Especialidades, 1)
	assert.Zero(t, fb.calls, "locally handled turns must not reach the backend")
}

func TestChat_InvalidJSON(t *testing.T) {
	h := newTestRouter(t, clinicsStub(t).URL, nil)

	rec := postChat(t, h, `{"mensaje":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var out ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "invalid_request_body", out.Error)
}

func TestChat_EmptyMessage(t *testing.T) {
	h := newTestRouter(t, clinicsStub(t).URL, nil)

	for _, body := range []string{`{"mensaje":""}`, `{"mensaje":"   "}`, `{}`} {
		rec := postChat(t, h, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		var out ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
		assert.Equal(t, "empty_message", out.Error)
	}
}

func TestChat_UnhandledDelegatesToBackend(t *testing.T) {
	srv := clinicsStub(t)
	backendCtx := funnel.Context{DoctorID: 99, DoctorNombre: "Backend Doc"}
	fb := &fallbackMock{resp: &fallback.Response{
		Respuesta:           "Claro, te cuento un chiste.",
		Sugerencias:         []string{"Otro chiste"},
		ContextoActualizado: &backendCtx,
	}}
	h := newTestRouter(t, srv.URL, fb)

	rec := postChat(t, h, `{"mensaje":"cuéntame un chiste"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeChat(t, rec)
	assert.Equal(t, "Claro, te cuento un chiste.", out.Respuesta)
	assert.Equal(t, []string{"Otro chiste"}, out.Sugerencias)
	assert.Equal(t, 99, out.ContextoActualizado.DoctorID, "backend context replaces the funnel's")
	assert.Equal(t, 1, fb.calls)
	assert.Equal(t, "cuéntame un chiste", fb.gotMensaje)
}

func TestChat_BackendWithoutContextKeepsFunnelContext(t *testing.T) {
	srv := clinicsStub(t)
	fb := &fallbackMock{resp: &fallback.Response{Respuesta: "No entendí."}}
	h := newTestRouter(t, srv.URL, fb)

	rec := postChat(t, h, `{"mensaje":"hola"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeChat(t, rec)
	assert.Equal(t, "No entendí.", out.Respuesta)
	// The resolver lazily cached the specialty list while failing to
	// match; that cache must survive the round trip.
	assert.Len(t, out.ContextoActualizado.Especialidades, 1)
	assert.Len(t, fb.gotConv.Especialidades, 1, "the backend sees the advanced context too")
}

func TestChat_BackendDown(t *testing.T) {
	srv := clinicsStub(t)
	fb := &fallbackMock{err: fallback.ErrBackendUnavailable}
	h := newTestRouter(t, srv.URL, fb)

	rec := postChat(t, h, `{"mensaje":"hola"}`)

	require.Equal(t, http.StatusOK, rec.Code, "a dead backend is not a server error for the widget")
	out := decodeChat(t, rec)
	assert.Equal(t, funnel.ServiceUnavailableReply().Text, out.Respuesta)
	assert.NotEmpty(t, out.Sugerencias)
}

func TestChat_NoBackendConfigured(t *testing.T) {
	srv := clinicsStub(t)
	h := newTestRouter(t, srv.URL, nil)

	rec := postChat(t, h, `{"mensaje":"hola"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeChat(t, rec)
	assert.Equal(t, funnel.ServiceUnavailableReply().Text, out.Respuesta)
}

func TestChat_RateLimit(t *testing.T) {
	srv := clinicsStub(t)
	logger := logging.New("error")
	client := clinics.NewClient(srv.URL, 2*time.Second)
	h := NewRouter(RouterConfig{
		Resolver:      funnel.NewResolver(client, logger),
		Clinics:       client,
		Logger:        logger,
		ChatRateLimit: 2,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := postChat(t, h, `{"mensaje":"ver especialidades"}`)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// The greeting route sits outside the limited group.
	req := httptest.NewRequest(http.MethodGet, "/chat/greeting", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGreeting(t *testing.T) {
	h := newTestRouter(t, clinicsStub(t).URL, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat/greeting", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeChat(t, rec)
	assert.Equal(t, funnel.Greeting().Text, out.Respuesta)
	assert.Equal(t, funnel.Greeting().Suggestions, out.Sugerencias)
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestRouter(t, clinicsStub(t).URL, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestHealthLiveness(t *testing.T) {
	h := newTestRouter(t, clinicsStub(t).URL, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out LivenessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
}

func TestHealthReadiness(t *testing.T) {
	h := newTestRouter(t, clinicsStub(t).URL, &fallbackMock{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "ok", out.Dependencies["clinics_api"])
	assert.Equal(t, "configured", out.Dependencies["fallback_chat"])
}

func TestHealthReadiness_ClinicsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore
	h := newTestRouter(t, srv.URL, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var out ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "error", out.Status)
	assert.Equal(t, "down", out.Dependencies["clinics_api"])
	assert.Equal(t, "disabled", out.Dependencies["fallback_chat"])
}
