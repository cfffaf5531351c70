package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pinningd/internal/drive"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/notify"
	"git.home.luguber.info/inful/pinningd/internal/retry"
)

type recordingRegistrar struct {
	drive.NoopRegistrar
	logins   int
	failures int
}

func (r *recordingRegistrar) Login(context.Context, string, string) error {
	r.logins++
	if r.logins <= r.failures {
		return errors.NetworkError("store unreachable").Build()
	}
	return nil
}

type closeCounter struct {
	notify.Noop
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestNew_RequiresConfigAndRunner(t *testing.T) {
	_, err := New(nil, Components{}, nil)
	require.Error(t, err)
	_, err = New(newFixture(t).config(), Components{}, nil)
	require.Error(t, err)
}

func TestDaemon_RunOnce(t *testing.T) {
	f := newFixture(t, "one.example")
	cfg := f.config()
	cfg.Drive.Store.Server = "http://store.invalid"
	reg := &recordingRegistrar{}
	notifier := &closeCounter{}

	d, err := New(cfg, Components{Runner: f.runner, Registrar: reg, Notifier: notifier}, nil)
	require.NoError(t, err)

	report, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Equal(t, TriggerManual, report.Trigger)
	require.Equal(t, 1, reg.logins)
	require.Equal(t, 1, notifier.closed)
	require.Equal(t, []string{"_dnslink"}, f.dns.get("one.example"))
}

func TestDaemon_RunServesAdminAndStops(t *testing.T) {
	f := newFixture(t, "one.example", "two.example")
	cfg := f.config()
	cfg.Admin.Listen = "127.0.0.1:0"
	notifier := &closeCounter{}

	d, err := New(cfg, Components{Runner: f.runner, Notifier: notifier}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.GetStatus() == StatusRunning }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return f.runner.Last() != nil }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, TriggerSchedule, f.runner.Last().Trigger)

	d.mu.Lock()
	addr := d.admin.Addr().String()
	d.mu.Unlock()

	resp, err := http.Get(fmt.Sprintf("http://%s/status", addr))
	require.NoError(t, err)
	var snap StatusSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	_ = resp.Body.Close()
	require.Equal(t, StatusRunning, snap.Status)
	require.NotNil(t, snap.NextPass)
	require.NotNil(t, snap.LastPass)

	resp, err = http.Post(fmt.Sprintf("http://%s/passes", addr), "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Contains(t, []int{http.StatusAccepted, http.StatusConflict}, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	require.Equal(t, StatusStopped, d.GetStatus())
	require.Equal(t, 1, notifier.closed)
}

func TestDaemon_InvalidScheduleFailsStart(t *testing.T) {
	f := newFixture(t)
	cfg := f.config()
	cfg.Schedule.Interval = ""

	d, err := New(cfg, Components{Runner: f.runner}, nil)
	require.NoError(t, err)
	require.Error(t, d.Run(context.Background()))
	require.Equal(t, StatusStopped, d.GetStatus())
}

func TestDaemon_TriggerPassWhileBusy(t *testing.T) {
	f := newFixture(t, "one.example")
	f.store.gate = make(chan struct{})
	d, err := New(f.config(), Components{Runner: f.runner}, nil)
	require.NoError(t, err)

	require.NoError(t, d.TriggerPass(TriggerManual))
	require.Eventually(t, f.runner.Busy, time.Second, 5*time.Millisecond)
	require.ErrorIs(t, d.TriggerPass(TriggerRegistry), ErrPassInProgress)

	close(f.store.gate)
	require.Eventually(t, func() bool { return f.runner.Last() != nil && !f.runner.Busy() }, 2*time.Second, 5*time.Millisecond)
	require.True(t, f.runner.Last().OK())
}

func TestDaemon_LoginRetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	cfg := f.config()
	cfg.Drive.Store.Server = "http://store.invalid"
	reg := &recordingRegistrar{failures: 2}

	d, err := New(cfg, Components{Runner: f.runner, Registrar: reg}, nil)
	require.NoError(t, err)
	d.loginPolicy = retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 3)

	d.loginRegistrar(context.Background())
	require.Equal(t, 3, reg.logins)
}
