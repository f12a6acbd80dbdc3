package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Dispatcher races engines with staged escalation. The cheapest engine
// starts first and heavier ones join after their delay if no engine has
// succeeded yet. The first success cancels the rest.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *DomainMemory
}

// NewDispatcher creates a Dispatcher. engines[i] starts escalationDelays[i]
// after the race begins; missing delays are zero. memory may be nil.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *DomainMemory) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
	}
}

// Engines returns the engine names in escalation order.
func (d *Dispatcher) Engines() []string {
	names := make([]string, len(d.engines))
	for i, e := range d.engines {
		names[i] = e.Name()
	}
	return names
}

// Dispatch returns the first successful fetch. A remembered engine for the
// domain is tried alone first. If every engine fails the last error is
// returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 0 {
		return nil, fmt.Errorf("dispatcher: no engines configured")
	}
	domain := extractDomain(req.URL)

	if remembered := d.remembered(domain); remembered != nil {
		slog.Debug("domain memory hit", "domain", domain, "engine", remembered.Name())
		result, err := remembered.Fetch(ctx, req)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		slog.Info("remembered engine failed, running full race",
			"domain", domain, "engine", remembered.Name(), "error", err)
		d.memory.Delete(domain)
	}

	return d.race(ctx, req, domain)
}

func (d *Dispatcher) remembered(domain string) Engine {
	if d.memory == nil {
		return nil
	}
	name := d.memory.Get(domain)
	if name == "" {
		return nil
	}
	for _, e := range d.engines {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, domain string) (*FetchResult, error) {
	type raceResult struct {
		result *FetchResult
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup

	for i, eng := range d.engines {
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-raceCtx.Done():
					return
				case <-timer.C:
				}
			}
			if raceCtx.Err() != nil {
				return
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{result: result, err: err}
		}(eng, d.escalationDelays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs []string
	var lastErr error
	for rr := range results {
		if rr.err != nil {
			lastErr = rr.err
			errs = append(errs, rr.err.Error())
			continue
		}
		raceCancel()
		slog.Info("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		if d.memory != nil {
			d.memory.Set(domain, rr.result.EngineName)
		}
		return rr.result, nil
	}

	if lastErr == nil {
		// Every engine was cancelled before it started.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	if len(errs) > 1 {
		return nil, fmt.Errorf("dispatcher: all engines failed for %s (%s): %w",
			req.URL, strings.Join(errs, "; "), lastErr)
	}
	return nil, lastErr
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
