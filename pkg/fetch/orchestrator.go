package fetch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/matst80/jobboard/pkg/types"
)

const DefaultDebounce = 300 * time.Millisecond

// Fetcher is the data layer: one call per source and window.
type Fetcher interface {
	Fetch(ctx context.Context, source types.Source, params types.FetchParams) (types.JobCollection, error)
}

type FetcherFunc func(ctx context.Context, source types.Source, params types.FetchParams) (types.JobCollection, error)

func (f FetcherFunc) Fetch(ctx context.Context, source types.Source, params types.FetchParams) (types.JobCollection, error) {
	return f(ctx, source, params)
}

// UpdateListener is called after a response or failure has been applied to a source.
type UpdateListener func(source types.Source, state SourceState)

type Option func(*Orchestrator)

func WithClock(clock clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

func WithDebounce(delay time.Duration) Option {
	return func(o *Orchestrator) {
		if delay >= 0 {
			o.delay = delay
		}
	}
}

func WithUpdateListener(fn UpdateListener) Option {
	return func(o *Orchestrator) { o.listeners = append(o.listeners, fn) }
}

type sourceEntry struct {
	state  SourceState
	timer  clockwork.Timer
	cancel context.CancelFunc
}

type Orchestrator struct {
	fetcher   Fetcher
	clock     clockwork.Clock
	delay     time.Duration
	listeners []UpdateListener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	sources map[types.Source]*sourceEntry
}

func NewOrchestrator(fetcher Fetcher, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		fetcher: fetcher,
		clock:   clockwork.NewRealClock(),
		delay:   DefaultDebounce,
		ctx:     ctx,
		cancel:  cancel,
		sources: make(map[types.Source]*sourceEntry),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) entry(source types.Source) *sourceEntry {
	e, ok := o.sources[source]
	if !ok {
		e = &sourceEntry{state: NewSourceState()}
		o.sources[source] = e
	}
	return e
}

// OnCriteriaChange (re)starts the quiet period of source with the merged params.
func (o *Orchestrator) OnCriteriaChange(source types.Source, params types.FetchParams) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	e := o.entry(source)
	e.state = e.state.Trigger(params, o.clock.Now(), o.delay)
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = o.clock.AfterFunc(o.delay, func() {
		o.fire(source)
	})
}

// Flush issues a pending trigger immediately, skipping the rest of the quiet period.
func (o *Orchestrator) Flush(source types.Source) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	e := o.entry(source)
	if e.state.Pending != nil {
		e.state.Deadline = o.clock.Now()
	}
	o.mu.Unlock()
	o.fire(source)
}

func (o *Orchestrator) fire(source types.Source) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	e := o.entry(source)
	next, req, deduplicated := e.state.Fire(o.clock.Now())
	e.state = next
	if deduplicated {
		fetchDeduplicated.WithLabelValues(string(source)).Inc()
	}
	if req == nil {
		o.mu.Unlock()
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(o.ctx)
	e.cancel = cancel
	o.wg.Add(1)
	o.mu.Unlock()

	fetchIssued.WithLabelValues(string(source)).Inc()
	go o.run(ctx, cancel, source, *req)
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, source types.Source, req Request) {
	defer o.wg.Done()
	defer cancel()

	result, err := o.fetcher.Fetch(ctx, source, req.Params)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	e := o.entry(source)
	next, applied := e.state.Resolve(req.Seq, result, err)
	if !applied {
		o.mu.Unlock()
		fetchStale.WithLabelValues(string(source)).Inc()
		return
	}
	e.state = next
	e.cancel = nil
	listeners := o.listeners
	o.mu.Unlock()

	if err != nil {
		fetchFailed.WithLabelValues(string(source)).Inc()
		if !errors.Is(err, context.Canceled) {
			log.Printf("fetch %s page %d failed: %v", source, req.Params.Page, err)
		}
	}
	for _, l := range listeners {
		l(source, next)
	}
}

// State returns a snapshot of one source.
func (o *Orchestrator) State(source types.Source) SourceState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.sources[source]; ok {
		return e.state
	}
	return NewSourceState()
}

// Wait blocks until every issued fetch has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close stops pending timers and cancels in-flight requests. Late responses are discarded.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	for _, e := range o.sources {
		if e.timer != nil {
			e.timer.Stop()
		}
		e.state.Pending = nil
	}
	o.mu.Unlock()
	o.cancel()
}
