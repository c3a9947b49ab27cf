// Package server runs long-lived services with ordered, signal-aware shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component driven by a context.
type Service interface {
	// Run blocks until ctx is cancelled or the service has nothing left to do.
	Run(ctx context.Context) error
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context) error

// Run calls f.
func (f ServiceFunc) Run(ctx context.Context) error { return f(ctx) }

// Lifecycle runs services concurrently and stops them in reverse order.
type Lifecycle struct {
	logger   *zap.Logger
	services []namedService
	signals  []os.Signal
	mu       sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

type running struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

type exit struct {
	name string
	err  error
}

// NewLifecycle creates a Lifecycle that shuts down on SIGINT or SIGTERM.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		logger:  logger,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// Add registers a named service. Services start in the order they are added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every service and blocks until a termination signal arrives,
// ctx is cancelled, or any service returns. The remaining services are then
// cancelled one at a time in reverse order, each awaited before the next.
//
// Postcondition: every service has returned. The result is the first service
// error, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	exits := make(chan exit, len(services))
	procs := make([]running, len(services))
	for i, ns := range services {
		svcCtx, cancel := context.WithCancel(ctx)
		procs[i] = running{name: ns.name, cancel: cancel, done: make(chan struct{})}
		l.logger.Info("starting service", zap.String("service", ns.name))
		go func(ns namedService, done chan struct{}) {
			defer close(done)
			svcStart := time.Now()
			err := ns.service.Run(svcCtx)
			if err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				err = fmt.Errorf("service %s: %w", ns.name, err)
			}
			exits <- exit{name: ns.name, err: err}
		}(ns, procs[i].done)
	}
	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, l.signals...)
	defer signal.Stop(sigCh)

	var firstErr error
	if len(services) > 0 {
		select {
		case sig := <-sigCh:
			l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		case ex := <-exits:
			firstErr = ex.err
			l.logger.Info("service exited, shutting down", zap.String("service", ex.name))
		case <-ctx.Done():
			l.logger.Info("context cancelled, shutting down")
		}
	}

	l.shutdown(procs)
	for len(exits) > 0 {
		if ex := <-exits; firstErr == nil {
			firstErr = ex.err
		}
	}
	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return firstErr
}

func (l *Lifecycle) shutdown(procs []running) {
	shutdownStart := time.Now()
	for i := len(procs) - 1; i >= 0; i-- {
		p := procs[i]
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", p.name))
		p.cancel()
		<-p.done
		l.logger.Info("service stopped",
			zap.String("service", p.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(shutdownStart)))
}
