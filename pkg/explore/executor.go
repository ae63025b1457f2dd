package explore

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/houndview/pkg/cache"
	"github.com/matzehuels/houndview/pkg/graph"
	"github.com/matzehuels/houndview/pkg/httputil"
	"github.com/matzehuels/houndview/pkg/observability"
)

// DefaultRetryDelay is the first backoff between fetch attempts.
const DefaultRetryDelay = time.Second

// Executor runs descriptors against a Transport.
//
// Only the most recently requested key is live. Executing a descriptor
// with a new key cancels every in-flight fetch for the previous key, and
// a fetch that finishes after its key was replaced returns
// [ErrSuperseded] instead of its result. Concurrent calls for the live
// key share one fetch.
//
// Cache, Keyer, TTL and RetryDelay may be changed before first use.
type Executor struct {
	Transport  Transport
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger
	TTL        time.Duration
	RetryDelay time.Duration

	group singleflight.Group

	mu      sync.Mutex
	current string
	gen     uint64
	nextID  uint64
	cancels map[uint64]context.CancelFunc
}

// NewExecutor creates an executor. A nil cache disables caching, a nil
// keyer uses [cache.DefaultKeyer] and a nil logger discards output.
func NewExecutor(t Transport, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Executor {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Executor{
		Transport:  t,
		Cache:      c,
		Keyer:      keyer,
		Logger:     logger,
		RetryDelay: DefaultRetryDelay,
		cancels:    make(map[uint64]context.CancelFunc),
	}
}

// Execute runs d. A disabled descriptor cancels whatever is in flight and
// returns the zero Result without error.
//
// Errors are either cancellations ([ErrSuperseded], context.Canceled),
// which callers should drop silently, or a [*QueryError] carrying the
// user message from d.ErrorMessage.
func (e *Executor) Execute(ctx context.Context, d Descriptor) (Result, error) {
	mode := modeLabel(d.Mode)
	if !d.Enabled {
		e.switchKey("")
		return Result{}, nil
	}

	runCtx, gen, done := e.begin(ctx, d.Key.String())
	defer done()

	res, err := e.run(runCtx, d)
	if IsCancellation(err) && ctx.Err() == nil && e.live(gen) {
		// A shared fetch was cancelled by its first caller. This caller
		// still wants the result.
		res, err = e.run(runCtx, d)
	}

	if !e.live(gen) {
		observability.Query().OnQueryCancelled(ctx, mode)
		e.Logger.Debug("discarded superseded query", "mode", mode)
		return Result{}, ErrSuperseded
	}
	if err != nil {
		if IsCancellation(err) {
			observability.Query().OnQueryCancelled(ctx, mode)
			return Result{}, err
		}
		msg := Message{Text: UnknownErrorMessage, Key: "UnknownError"}
		if d.ErrorMessage != nil {
			msg = d.ErrorMessage(err)
		}
		e.Logger.Warn("query failed", "mode", mode, "key", msg.Key, "err", err)
		return Result{}, &QueryError{Mode: d.Mode, Key: d.Key, Message: msg, Err: err}
	}
	return res, nil
}

// Current returns the canonical form of the live key, or "" when none.
func (e *Executor) Current() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Cancel aborts every in-flight fetch and clears the live key.
func (e *Executor) Cancel() { e.switchKey("") }

// begin registers a call for key. When key differs from the live key the
// previous fetches are cancelled first.
func (e *Executor) begin(ctx context.Context, key string) (context.Context, uint64, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if key != e.current {
		e.cancelAllLocked()
		e.current = key
		e.gen++
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.nextID++
	id := e.nextID
	e.cancels[id] = cancel
	return runCtx, e.gen, func() {
		cancel()
		e.mu.Lock()
		delete(e.cancels, id)
		e.mu.Unlock()
	}
}

func (e *Executor) switchKey(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if key == e.current {
		return
	}
	e.cancelAllLocked()
	e.current = key
	e.gen++
}

func (e *Executor) cancelAllLocked() {
	for id, cancel := range e.cancels {
		cancel()
		delete(e.cancels, id)
	}
}

func (e *Executor) live(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen == gen
}

func (e *Executor) run(ctx context.Context, d Descriptor) (Result, error) {
	mode := modeLabel(d.Mode)
	ck := e.Keyer.QueryKey(d.Key...)

	if data, hit, err := e.Cache.Get(ctx, ck); err == nil && hit {
		var r Result
		if err := json.Unmarshal(data, &r); err == nil {
			observability.Cache().OnCacheHit(ctx, mode)
			e.Logger.Debug("query cache hit", "mode", mode)
			r.Cached = true
			return r, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, mode)

	v, err, shared := e.group.Do(d.Key.String(), func() (any, error) {
		return e.fetch(ctx, d)
	})
	if err != nil {
		return Result{}, err
	}
	res := v.(Result)
	if !shared {
		e.store(ctx, ck, mode, res)
	}
	return res, nil
}

func (e *Executor) fetch(ctx context.Context, d Descriptor) (Result, error) {
	mode := modeLabel(d.Mode)
	start := time.Now()
	observability.Query().OnQueryStart(ctx, mode)

	var res Result
	err := httputil.Retry(ctx, d.Retry+1, e.RetryDelay, func() error {
		r, err := d.Fetch(ctx, e.Transport)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if IsCancellation(err) {
		return Result{}, err
	}

	stats := graph.Stats(res.Graph)
	observability.Query().OnQueryComplete(ctx, mode, stats.Nodes, stats.Edges, time.Since(start), err)
	if err != nil {
		return Result{}, err
	}
	res.Key = d.Key
	res.Mode = d.Mode
	e.Logger.Debug("query complete",
		"mode", mode,
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"duration", time.Since(start))
	return res, nil
}

func (e *Executor) store(ctx context.Context, ck, mode string, res Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := e.Cache.Set(ctx, ck, data, e.TTL); err != nil {
		e.Logger.Warn("query cache write failed", "mode", mode, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, mode, len(data))
}
