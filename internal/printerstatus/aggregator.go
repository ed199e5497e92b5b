// Package printerstatus implements the Printer Status Aggregator (spec
// §4.4): reachability + toner + paper, combined into a PrinterStatus with
// a bounded-age cache.
package printerstatus

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/innohassle/printhub/internal/optional"
	"github.com/innohassle/printhub/internal/registry"
)

// TTL is how long a cached status is considered fresh (spec §3/§5).
const TTL = 5 * time.Minute

// Deadline is the soft per-printer deadline the aggregator must answer
// within (spec §4.4).
const Deadline = 2 * time.Second

// Status is the printer status surfaced to callers.
type Status struct {
	Printer   string
	Offline   bool
	TonerPct  optional.Val[int]
	PaperPct  optional.Val[int]
	UpdatedAt time.Time
}

// Prober is the subset of the Print Backend Port the aggregator needs.
// Implemented by internal/printbackend.Backend.
type Prober interface {
	ProbeReachable(ctx context.Context, ippURL string) bool
	PaperPct(ctx context.Context, statusPageURL string) (int, bool)
}

type cacheEntry struct {
	status    Status
	expiresAt time.Time
}

// Aggregator answers PrinterStatus queries with TTL caching and at most
// one in-flight probe per printer (Testable Property 9), using
// singleflight the way a request-coalescing cache typically would.
type Aggregator struct {
	prober Prober
	reg    *registry.Registry

	mu    sync.RWMutex
	cache map[string]cacheEntry

	group singleflight.Group
}

// New returns an Aggregator.
func New(prober Prober, reg *registry.Registry) *Aggregator {
	return &Aggregator{
		prober: prober,
		reg:    reg,
		cache:  make(map[string]cacheEntry),
	}
}

// Status returns the current PrinterStatus for cupsName. It never returns
// an error into its caller: backend failures collapse into absent fields
// (spec §4.4).
func (a *Aggregator) Status(ctx context.Context, cupsName string) Status {
	v, _, _ := a.group.Do(cupsName, func() (any, error) {
		return a.refresh(ctx, cupsName), nil
	})
	return v.(Status)
}

// StatusAll returns statuses for every registered printer, probing in
// parallel; a slow or failing printer never blocks the others (spec §4.4:
// "may return partially-populated statuses").
func (a *Aggregator) StatusAll(ctx context.Context) []Status {
	printers := a.reg.Printers()
	out := make([]Status, len(printers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range printers {
		i, p := i, p
		g.Go(func() error {
			out[i] = a.Status(gctx, p.CupsName)
			return nil
		})
	}
	_ = g.Wait() // Status never errors; Wait only joins the goroutines.

	return out
}

func (a *Aggregator) refresh(ctx context.Context, cupsName string) Status {
	a.mu.RLock()
	cached, ok := a.cache[cupsName]
	a.mu.RUnlock()

	if ok && time.Now().Before(cached.expiresAt) {
		return cached.status
	}

	p, err := a.reg.Printer(cupsName)
	if err != nil {
		return Status{Printer: cupsName, Offline: true}
	}

	probeCtx, cancel := context.WithTimeout(ctx, Deadline)
	defer cancel()

	var reachable bool
	var paper int
	var paperOK bool

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		reachable = a.prober.ProbeReachable(probeCtx, p.IPPEndpoint)
	}()

	if !ok || cached.status.Offline == false {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paper, paperOK = a.prober.PaperPct(probeCtx, p.IPPEndpoint)
		}()
	}
	wg.Wait()

	status := Status{Printer: cupsName, Offline: !reachable, UpdatedAt: time.Now()}

	switch {
	case !reachable:
		// Offline: paper comes from cache if we have one, never a fresh
		// probe (spec §4.4 step 2).
		if ok {
			status.PaperPct = cached.status.PaperPct
		}
	case paperOK:
		status.PaperPct = optional.New(paper)
	case ok:
		status.PaperPct = cached.status.PaperPct
	}

	// Toner is sourced from cache only — the device-reported value is
	// unreliable (spec §4.4 step 3, §9).
	if ok {
		status.TonerPct = cached.status.TonerPct
	}

	a.mu.Lock()
	a.cache[cupsName] = cacheEntry{status: status, expiresAt: time.Now().Add(TTL)}
	a.mu.Unlock()

	return status
}
