package api

import "testing"

type stubScheduler struct {
	running bool
}

func (s *stubScheduler) Running() bool { return s.running }

func TestMonitorState(t *testing.T) {
	if got := monitorState(nil); got != "disabled" {
		t.Fatalf("nil scheduler: got %q, want disabled", got)
	}
	if got := monitorState(&stubScheduler{running: true}); got != "running" {
		t.Fatalf("running scheduler: got %q, want running", got)
	}
	if got := monitorState(&stubScheduler{}); got != "stopped" {
		t.Fatalf("stopped scheduler: got %q, want stopped", got)
	}
}
