package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type blockingService struct {
	started atomic.Bool
	stopped atomic.Bool
	order   *stopOrder
	name    string
}

type stopOrder struct {
	mu    sync.Mutex
	names []string
}

func (o *stopOrder) add(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.names = append(o.names, name)
}

func (s *blockingService) Run(ctx context.Context) error {
	s.started.Store(true)
	<-ctx.Done()
	s.stopped.Store(true)
	if s.order != nil {
		s.order.add(s.name)
	}
	return nil
}

func waitStarted(t *testing.T, svcs ...*blockingService) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		all := true
		for _, s := range svcs {
			all = all && s.started.Load()
		}
		if all {
			return
		}
		select {
		case <-deadline:
			t.Fatal("services did not start in time")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestLifecycle_StopsInReverseOrderOnCancel(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	order := &stopOrder{}
	svc1 := &blockingService{order: order, name: "svc1"}
	svc2 := &blockingService{order: order, name: "svc2"}
	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	waitStarted(t, svc1, svc2)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}
	assert.True(t, svc1.stopped.Load())
	assert.True(t, svc2.stopped.Load())
}

func TestLifecycle_ServiceCompletionStopsOthers(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	order := &stopOrder{}
	first := &blockingService{order: order, name: "first"}
	second := &blockingService{order: order, name: "second"}
	lc.Add("first", first)
	lc.Add("second", second)
	lc.Add("finite", ServiceFunc(func(context.Context) error { return nil }))

	require.NoError(t, lc.Run(context.Background()))
	assert.Equal(t, []string{"second", "first"}, order.names)
}

func TestLifecycle_ReturnsServiceError(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	boom := errors.New("boom")
	other := &blockingService{}
	lc.Add("other", other)
	lc.Add("broken", ServiceFunc(func(context.Context) error { return boom }))

	err := lc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service broken")
	assert.True(t, other.stopped.Load())
}

func TestLifecycle_NoServices(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	assert.NoError(t, lc.Run(context.Background()))
}

func TestServiceFunc(t *testing.T) {
	var got context.Context
	svc := ServiceFunc(func(ctx context.Context) error {
		got = ctx
		return nil
	})
	ctx := context.Background()
	require.NoError(t, svc.Run(ctx))
	assert.Equal(t, ctx, got)
}
