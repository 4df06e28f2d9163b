package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunInvokesTickAndStopsOnCancel(t *testing.T) {
	s := New(Options{Interval: 5 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	ticked := make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, now time.Time) error {
			select {
			case ticked <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("tick never fired")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

func TestRunSurvivesTickErrors(t *testing.T) {
	s := New(Options{Interval: 5 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := make(chan int, 4)
	count := 0

	go func() {
		_ = s.Run(ctx, func(ctx context.Context, now time.Time) error {
			count++
			select {
			case ticks <- count:
			default:
			}
			return errors.New("transient failure")
		})
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatal("scheduler stopped after a tick error")
		}
	}
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a zero interval")
		}
	}()
	New(Options{}, zerolog.Nop())
}
