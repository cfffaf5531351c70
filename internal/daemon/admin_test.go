package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeController struct {
	snap      StatusSnapshot
	err       error
	triggered []Trigger
}

func (f *fakeController) Snapshot() StatusSnapshot { return f.snap }

func (f *fakeController) TriggerPass(trigger Trigger) error {
	if f.err != nil {
		return f.err
	}
	f.triggered = append(f.triggered, trigger)
	return nil
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestAdmin_Health(t *testing.T) {
	h := NewAdminServer(&fakeController{}, nil, nil).Handler()
	rec := serve(t, h, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestAdmin_Status(t *testing.T) {
	ctrl := &fakeController{snap: StatusSnapshot{
		Status:   StatusRunning,
		Version:  "test",
		Busy:     true,
		LastPass: &PassReport{ID: "pass-1", Trigger: TriggerSchedule, Succeeded: 2},
	}}
	rec := serve(t, NewAdminServer(ctrl, nil, nil).Handler(), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got StatusSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, StatusRunning, got.Status)
	require.True(t, got.Busy)
	require.NotNil(t, got.LastPass)
	require.Equal(t, "pass-1", got.LastPass.ID)
	require.Equal(t, 2, got.LastPass.Succeeded)
}

func TestAdmin_TriggerPass(t *testing.T) {
	ctrl := &fakeController{}
	h := NewAdminServer(ctrl, nil, nil).Handler()

	rec := serve(t, h, http.MethodPost, "/passes")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []Trigger{TriggerManual}, ctrl.triggered)

	require.Equal(t, http.StatusMethodNotAllowed, serve(t, h, http.MethodGet, "/passes").Code)
}

func TestAdmin_TriggerWhileBusyConflicts(t *testing.T) {
	h := NewAdminServer(&fakeController{err: ErrPassInProgress}, nil, nil).Handler()
	rec := serve(t, h, http.MethodPost, "/passes")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "pass already in progress")
}

func TestAdmin_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pinningd_passes_total 1\n"))
	})
	rec := serve(t, NewAdminServer(&fakeController{}, metrics, nil).Handler(), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "pinningd_passes_total")

	rec = serve(t, NewAdminServer(&fakeController{}, nil, nil).Handler(), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
