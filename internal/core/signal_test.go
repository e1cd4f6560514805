//go:build unix

package core

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

func TestNotifyContext_Signal(t *testing.T) {
	ctx, stop := NotifyContext(context.Background(), nil, syscall.SIGUSR1)
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not canceled by signal")
	}
	cause := context.Cause(ctx)
	if !errors.Is(cause, ErrSignalReceived) {
		t.Fatalf("Cause() = %v, want ErrSignalReceived", cause)
	}
}

func TestNotifyContext_Stop(t *testing.T) {
	ctx, stop := NotifyContext(context.Background(), nil, syscall.SIGUSR2)
	stop()
	stop()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("stop must cancel the context")
	}
	if errors.Is(context.Cause(ctx), ErrSignalReceived) {
		t.Fatal("stop is not a signal")
	}
}

func TestNotifyContext_ParentCanceled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := NotifyContext(parent, nil, syscall.SIGUSR2)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("parent cancellation not propagated")
	}
}
