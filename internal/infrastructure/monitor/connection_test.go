package monitor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMonitorRefresh(t *testing.T) {
	m := New(time.Minute, nil)
	if m.IsOnline() {
		t.Fatal("monitor must not report online before the first check")
	}

	failing := true
	m.Register("store", func(context.Context) error { return nil })
	m.Register("cache", func(context.Context) error {
		if failing {
			return errors.New("connection refused")
		}
		return nil
	})

	m.Refresh(context.Background())
	status := m.GetStatus()
	if !status.Services["store"] || status.Services["cache"] {
		t.Fatalf("unexpected services %v", status.Services)
	}
	if m.IsOnline() {
		t.Fatal("expected degraded status")
	}

	failing = false
	m.Refresh(context.Background())
	if !m.IsOnline() {
		t.Fatalf("expected healthy status, got %v", m.GetStatus().Services)
	}
}

func TestMonitorProbeTimeout(t *testing.T) {
	m := New(time.Minute, nil)
	m.timeout = 10 * time.Millisecond
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	m.Refresh(context.Background())
	if m.GetStatus().Services["slow"] {
		t.Fatal("expected timed out probe to be unhealthy")
	}
}

func TestMonitorStartStop(t *testing.T) {
	m := New(time.Second, nil)
	m.Register("store", func(context.Context) error { return nil })
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.IsOnline() {
		t.Fatal("expected initial check to run synchronously")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Stop(ctx)
}
