package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantumdesk/quantum-backend/internal/monitor"
	"github.com/quantumdesk/quantum-backend/internal/notifications"
)

type MonitorSchedulerConfig struct {
	Interval   time.Duration // e.g. 30*time.Second
	RunTimeout time.Duration
}

// MonitorScheduler drives the position monitor on a fixed interval and
// pushes webhook alerts for positions it closed.
type MonitorScheduler struct {
	monitor *monitor.Monitor
	notify  *notifications.Sender
	cfg     MonitorSchedulerConfig
	log     *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewMonitorScheduler(m *monitor.Monitor, notify *notifications.Sender, cfg MonitorSchedulerConfig, log *zap.Logger) *MonitorScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 60 * time.Second
	}
	return &MonitorScheduler{
		monitor: m,
		notify:  notify,
		cfg:     cfg,
		log:     log.Named("scheduler"),
	}
}

func (s *MonitorScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Initial run on startup (fire-and-forget)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
		defer cancel()
		if _, err := s.runOnce(ctx); err != nil {
			s.log.Error("initial monitor run failed", zap.Error(err))
		}
	}()

	// Recurring ticker
	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
				if _, err := s.runOnce(ctx); err != nil {
					s.log.Error("monitor run failed", zap.Error(err))
				}
				cancel()
			}
		}
	}()

	s.log.Info("started", zap.Duration("interval", s.cfg.Interval))
}

func (s *MonitorScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	s.log.Info("stopped")
}

func (s *MonitorScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow triggers a monitor run outside the normal schedule.
func (s *MonitorScheduler) RunNow(ctx context.Context) (*monitor.Report, error) {
	return s.runOnce(ctx)
}

func (s *MonitorScheduler) runOnce(ctx context.Context) (*monitor.Report, error) {
	report, err := s.monitor.Run(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range report.ClosedPositions {
		reason := ""
		if p.CloseReason != nil {
			reason = string(*p.CloseReason)
		}
		s.notify.Send(fmt.Sprintf("%s %s %s closed at $%.2f (P&L $%.2f)",
			reason, p.Side, p.Symbol, p.CurrentPrice, p.RealizedPnL))
	}

	return report, nil
}
