// File: evloop/host_test.go
// Author: momentics <momentics@gmail.com>
//
// Grounded on original_source/tests/test_async_context.cpp's
// AsyncServiceTest/StartTwiceTest/TestUser1Signal scenarios (P6, P7, P8).

package evloop

import (
	"sync"
	"testing"
	"time"

	"github.com/momentics/evcore/control"
)

type recordingService struct {
	mu      sync.Mutex
	started bool
	signals []uint
	started1x chan struct{}
	signalCh  chan uint
}

func newRecordingService() *recordingService {
	return &recordingService{
		started1x: make(chan struct{}, 1),
		signalCh:  make(chan uint, 8),
	}
}

func (s *recordingService) Start(ctx *Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	select {
	case s.started1x <- struct{}{}:
	default:
	}
	return nil
}

func (s *recordingService) HandleSignal(bit uint) {
	s.mu.Lock()
	s.signals = append(s.signals, bit)
	s.mu.Unlock()
	s.signalCh <- bit
}

// TestStartStopLifecycle exercises P6 and P8: Start blocks until the
// service has run to completion, and after Stop the host reaches Stopped.
func TestStartStopLifecycle(t *testing.T) {
	svc := newRecordingService()
	h := NewHost(control.NopLogger(), nil)

	if err := h.Start(func(ctx *Context) (Service, error) { return svc, nil }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h.State() != Started {
		t.Fatalf("expected Started, got %v", h.State())
	}

	h.Stop()
	if h.State() != Stopped {
		t.Fatalf("expected Stopped, got %v", h.State())
	}
}

// TestStartTwiceFails exercises P7: a second Start fails with
// ErrAlreadyStarted; the first instance remains valid.
func TestStartTwiceFails(t *testing.T) {
	svc := newRecordingService()
	h := NewHost(control.NopLogger(), nil)

	if err := h.Start(func(ctx *Context) (Service, error) { return svc, nil }); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer h.Stop()

	err := h.Start(func(ctx *Context) (Service, error) { return svc, nil })
	if err == nil {
		t.Fatalf("expected second Start to fail")
	}
	if h.State() != Started {
		t.Fatalf("first instance must remain valid, got state %v", h.State())
	}
}

// TestConfiguredNudgePeriodSpeedsUpDrain exercises Control().SetConfig:
// a host configured with a short terminate_nudge_period drains well
// under the one-second default, proving the config store actually
// drives the loop thread rather than sitting unread.
func TestConfiguredNudgePeriodSpeedsUpDrain(t *testing.T) {
	svc := newRecordingService()
	h := NewHost(control.NopLogger(), nil)
	if err := h.Control().SetConfig(map[string]any{"terminate_nudge_period": 20 * time.Millisecond}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	if err := h.Start(func(ctx *Context) (Service, error) { return svc, nil }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	start := time.Now()
	h.Stop()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("expected configured nudge period to speed up drain, took %v", elapsed)
	}
	if h.State() != Stopped {
		t.Fatalf("expected Stopped, got %v", h.State())
	}
}

// TestControlDebugProbe exercises Control().RegisterDebugProbe and
// DumpState: a probe registered before Start is visible in the dump,
// alongside the recorder's own "recent_events" probe.
func TestControlDebugProbe(t *testing.T) {
	svc := newRecordingService()
	h := NewHost(control.NopLogger(), nil)
	h.Control().RegisterDebugProbe("answer", func() any { return 42 })

	if err := h.Start(func(ctx *Context) (Service, error) { return svc, nil }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.Stop()

	dump := h.Control().DumpState()
	if v, ok := dump["answer"]; !ok || v != 42 {
		t.Fatalf("expected probe %q == 42 in dump, got %v", "answer", dump)
	}
	if _, ok := dump["recent_events"]; !ok {
		t.Fatalf("expected recorder's recent_events probe in dump, got %v", dump)
	}
}

// TestUser1SignalDelivered exercises P5: a signal sent before the ISR
// next runs is observed by the service's signal handler.
func TestUser1SignalDelivered(t *testing.T) {
	svc := newRecordingService()
	h := NewHost(control.NopLogger(), nil)

	if err := h.Start(func(ctx *Context) (Service, error) { return svc, nil }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.Stop()

	h.Context().Signal(BitUser1)

	select {
	case bit := <-svc.signalCh:
		if bit != BitUser1 {
			t.Fatalf("expected BitUser1, got %d", bit)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal delivery")
	}
}
