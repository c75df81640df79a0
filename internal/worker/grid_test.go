package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ppiankov/lagna/internal/model"
)

// stubBuilder returns a snapshot carrying the requested instant
type stubBuilder struct {
	calls  int32
	failAt time.Time
	delay  time.Duration
}

func (b *stubBuilder) Build(instant time.Time, lat, lon float64, opts model.ChartOptions) (model.ChartSnapshot, error) {
	atomic.AddInt32(&b.calls, 1)
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	if !b.failAt.IsZero() && !instant.Before(b.failAt) {
		return model.ChartSnapshot{}, &model.OutOfSupportedRangeError{Instant: instant}
	}
	return model.ChartSnapshot{Kind: opts.Division, Instant: instant, Latitude: lat, Longitude: lon}, nil
}

func grid(n int) []time.Time {
	start := time.Date(1985, 10, 24, 8, 30, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Minute)
	}
	return out
}

func TestGridBuilder_PreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := &stubBuilder{}
	g := NewGridBuilder(b, 4)

	var observed int
	g.OnBuilt(func(n int, _ time.Duration) { observed = n })

	instants := grid(181)
	snaps, err := g.Build(context.Background(), instants, 18.5, 73.8, model.ChartOptions{Division: model.D1})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(snaps) != len(instants) {
		t.Fatalf("expected %d snapshots, got %d", len(instants), len(snaps))
	}
	for i, s := range snaps {
		if !s.Instant.Equal(instants[i]) {
			t.Fatalf("snapshot %d out of order: %s", i, s.Instant)
		}
	}
	if got := atomic.LoadInt32(&b.calls); got != int32(len(instants)) {
		t.Errorf("expected %d builds, got %d", len(instants), got)
	}
	if observed != len(instants) {
		t.Errorf("observer saw %d candidates", observed)
	}
}

func TestGridBuilder_ReportsEarliestFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	instants := grid(60)
	b := &stubBuilder{failAt: instants[25]}
	_, err := NewGridBuilder(b, 3).Build(context.Background(), instants, 0, 0, model.ChartOptions{})

	var outOfRange *model.OutOfSupportedRangeError
	if !errors.As(err, &outOfRange) {
		t.Fatalf("expected OutOfSupportedRangeError, got %v", err)
	}
	if !outOfRange.Instant.Equal(instants[25]) {
		t.Errorf("expected failure at candidate 25, got %s", outOfRange.Instant)
	}
}

func TestGridBuilder_Cancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := &stubBuilder{delay: 2 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	instants := grid(500)
	snaps, err := NewGridBuilder(b, 2).Build(ctx, instants, 0, 0, model.ChartOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if snaps != nil {
		t.Error("no partial grid may be returned")
	}
	if got := atomic.LoadInt32(&b.calls); got >= int32(len(instants)) {
		t.Errorf("expected shards to stop early, built %d", got)
	}
}

func TestGridBuilder_Empty(t *testing.T) {
	snaps, err := NewGridBuilder(&stubBuilder{}, 2).Build(context.Background(), nil, 0, 0, model.ChartOptions{})
	if err != nil || len(snaps) != 0 {
		t.Errorf("expected empty grid, got %d snapshots, err %v", len(snaps), err)
	}
}
