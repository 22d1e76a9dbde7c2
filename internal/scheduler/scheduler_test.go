package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestService_StartRunsImmediatelyWithoutBlocking(t *testing.T) {
	var runs atomic.Int32
	release := make(chan struct{})
	s := New(func(ctx context.Context) {
		runs.Add(1)
		<-release
	}, time.Hour, nil)

	start := time.Now()
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("Start blocked on the first run")
	}
	waitFor(t, func() bool { return runs.Load() == 1 })
	close(release)

	if next, ok := s.NextRun(); !ok || next.Before(start.Add(59*time.Minute)) {
		t.Errorf("unexpected next run %v (ok=%v)", next, ok)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestService_Recurring(t *testing.T) {
	var runs atomic.Int32
	// cron.Every rounds intervals below one second up to one second.
	s := New(func(ctx context.Context) { runs.Add(1) }, time.Second, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if runs.Load() < 2 {
		t.Fatalf("expected at least 2 runs, got %d", runs.Load())
	}
}

func TestService_PanicDoesNotKillScheduler(t *testing.T) {
	var runs atomic.Int32
	s := New(func(ctx context.Context) {
		runs.Add(1)
		panic("scrape exploded")
	}, time.Hour, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return runs.Load() == 1 })

	if !s.TriggerNow() {
		t.Fatal("TriggerNow returned false on a running scheduler")
	}
	waitFor(t, func() bool { return runs.Load() == 2 })
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestService_StopCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	s := New(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}, time.Hour, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.TriggerNow() {
		t.Error("TriggerNow should report false after Stop")
	}
}

func TestService_DoubleStart(t *testing.T) {
	s := New(func(ctx context.Context) {}, time.Hour, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())
	if err := s.Start(); err == nil {
		t.Error("expected error on second Start")
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(func(ctx context.Context) {}, 0, nil)
	if s.interval != DefaultInterval {
		t.Errorf("interval: got %v, want %v", s.interval, DefaultInterval)
	}
}
