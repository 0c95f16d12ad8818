package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"igcollect/pkg/logger"
)

func TestPacerPerUnitDelay(t *testing.T) {
	p := NewPacer(10*time.Millisecond, 0, 0, logger.NewTestLogger())

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Wait returned after %v, want at least 10ms", elapsed)
	}
	if p.Count() != 1 {
		t.Errorf("Count = %d, want 1", p.Count())
	}
}

func TestPacerLongPauseEveryN(t *testing.T) {
	p := NewPacer(time.Millisecond, 3, 20*time.Millisecond, logger.NewTestLogger())

	// Units 1 and 2: short delay only
	for i := 0; i < 2; i++ {
		start := time.Now()
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
		if elapsed := time.Since(start); elapsed >= 20*time.Millisecond {
			t.Errorf("unit %d: took %v, long pause applied too early", i+1, elapsed)
		}
	}

	// Unit 3: long pause owed
	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("unit 3: took %v, want at least the 20ms pause", elapsed)
	}
}

func TestPacerCancellation(t *testing.T) {
	p := NewPacer(time.Hour, 0, 0, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait on cancelled context returned %v", err)
	}
}

func TestPacerZeroDelay(t *testing.T) {
	p := NewPacer(0, 0, 0, logger.NewTestLogger())

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("zero-delay pacer took %v", elapsed)
	}
	if p.Count() != 100 {
		t.Errorf("Count = %d, want 100", p.Count())
	}
}

func TestPacerReset(t *testing.T) {
	p := NewPacer(0, 5, time.Hour, logger.NewTestLogger())

	for i := 0; i < 4; i++ {
		_ = p.Wait(context.Background())
	}
	p.Reset()
	if p.Count() != 0 {
		t.Errorf("Count after Reset = %d, want 0", p.Count())
	}

	// After reset the long pause counter restarts, so the next Wait is short
	start := time.Now()
	_ = p.Wait(context.Background())
	if time.Since(start) > 100*time.Millisecond {
		t.Error("long pause applied immediately after Reset")
	}
}
