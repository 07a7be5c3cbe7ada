package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jraargz/ofertasworker/internal/offer"
)

type fakePipeline struct {
	runs atomic.Int32
}

func (f *fakePipeline) Run(ctx context.Context) (offer.Offer, bool) {
	f.runs.Add(1)
	return offer.Offer{Title: "ganadora"}, true
}

func TestNextRun(t *testing.T) {
	slots := []string{"00:00", "08:00", "16:00"}
	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	// Mid-morning maps to the afternoon slot
	next := NextRun(base.Add(10*time.Hour), slots)
	assert.Equal(t, base.Add(16*time.Hour), next)

	// Evening rolls over to midnight tomorrow
	next = NextRun(base.Add(17*time.Hour), slots)
	assert.Equal(t, base.Add(24*time.Hour), next)

	// A slot exactly at now is already past
	next = NextRun(base.Add(16*time.Hour), slots)
	assert.Equal(t, base.Add(24*time.Hour), next)

	// Just before a slot picks that slot
	next = NextRun(base.Add(16*time.Hour-time.Minute), slots)
	assert.Equal(t, base.Add(16*time.Hour), next)
}

func TestNextRunNoParsableSlots(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	next := NextRun(now, []string{"mediodia"})
	assert.Equal(t, now.Add(24*time.Hour), next)
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pipeline := &fakePipeline{}

	w := NewWorker(ctx, pipeline, []string{"00:00"})

	done := make(chan error, 1)
	go func() {
		done <- w.Start()
	}()

	// The startup run happens before the first scheduled sleep
	assert.Eventually(t, func() bool {
		return pipeline.runs.Load() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}
