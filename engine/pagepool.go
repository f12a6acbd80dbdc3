package engine

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Retirement thresholds for pooled pages.
const (
	retireErrScore = 3.0
	retireUses     = 50
	retireAge      = 50 * time.Minute
)

// pageHealth tracks how a pooled page has fared.
//
// Scoring rules:
//   - Success: errScore -= 0.5 (min 0)
//   - Failure: errScore += 1.0
//
// A page is retired when any of errScore, uses or age reaches its
// threshold.
type pageHealth struct {
	errScore float64
	uses     int
	created  time.Time
}

func (h *pageHealth) record(success bool) {
	h.uses++
	if success {
		h.errScore = math.Max(0, h.errScore-0.5)
	} else {
		h.errScore += 1.0
	}
}

func (h *pageHealth) shouldRetire(now time.Time) bool {
	return h.errScore >= retireErrScore ||
		h.uses >= retireUses ||
		now.Sub(h.created) >= retireAge
}

// pooled is a pool entry: the resource and its health.
type pooled[T any] struct {
	item   T
	health pageHealth
}

// pagePool bounds how many pages are open at once and reuses healthy
// ones. Pages that keep failing, or have served many loads, are closed
// and replaced lazily by the next Get.
type pagePool[T any] struct {
	slots   chan struct{}
	idle    chan *pooled[T]
	create  func() (T, error)
	destroy func(T)
	now     func() time.Time
}

func newPagePool[T any](size int, create func() (T, error), destroy func(T)) *pagePool[T] {
	if size < 1 {
		size = 1
	}
	return &pagePool[T]{
		slots:   make(chan struct{}, size),
		idle:    make(chan *pooled[T], size),
		create:  create,
		destroy: destroy,
		now:     time.Now,
	}
}

// Get checks out a page, waiting for a free slot until ctx is done.
func (p *pagePool[T]) Get(ctx context.Context) (*pooled[T], error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case e := <-p.idle:
		return e, nil
	default:
	}

	item, err := p.create()
	if err != nil {
		<-p.slots
		return nil, err
	}
	return &pooled[T]{item: item, health: pageHealth{created: p.now()}}, nil
}

// Put returns a checked-out page, scoring it by whether its load
// succeeded.
func (p *pagePool[T]) Put(e *pooled[T], success bool) {
	defer func() { <-p.slots }()

	e.health.record(success)
	if e.health.shouldRetire(p.now()) {
		slog.Debug("page_pool: retiring page",
			"errScore", e.health.errScore,
			"uses", e.health.uses,
		)
		p.destroy(e.item)
		return
	}
	p.idle <- e
}

// InUse reports how many pages are checked out.
func (p *pagePool[T]) InUse() int {
	return len(p.slots)
}

// Cleanup closes every idle page. Checked-out pages are closed when
// the browser process exits.
func (p *pagePool[T]) Cleanup() {
	for {
		select {
		case e := <-p.idle:
			p.destroy(e.item)
		default:
			return
		}
	}
}
