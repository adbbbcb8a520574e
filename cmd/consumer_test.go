package cmd

import (
	"context"
	"testing"
	"time"

	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

type fakeSubscriber struct {
	started chan struct{}
	stopped chan struct{}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context) error {
	close(f.started)
	<-ctx.Done()
	close(f.stopped)
	return ctx.Err()
}

func (f *fakeSubscriber) Publish(data []byte) error { return nil }

func TestPubSubConsumerLifecycle(t *testing.T) {
	sub := &fakeSubscriber{
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}

	lc := fxtest.NewLifecycle(t)
	RegisterPubSubConsumerLifecycle(lc, sub, zap.NewNop())

	lc.RequireStart()
	select {
	case <-sub.started:
	case <-time.After(time.Second):
		t.Fatal("subscriber never started")
	}

	lc.RequireStop()
	select {
	case <-sub.stopped:
	case <-time.After(time.Second):
		t.Fatal("subscriber never saw cancellation")
	}
}
