package explorer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ptrack/pkg/metrics"
	"ptrack/pkg/models"
	"ptrack/pkg/state"
)

// DataSource is the upstream capability the explorer fetches from.
type DataSource interface {
	GetNativeBalance(ctx context.Context, network models.Network, address string) ([]models.AssetBalance, error)
	GetTokenBalances(ctx context.Context, network models.Network, address string) ([]models.AssetBalance, error)
	GetNftHoldings(ctx context.Context, network models.Network, address string) ([]models.NftRecord, error)
}

// Mode selects how the three lookups of a cycle are scheduled.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeConcurrent Mode = "concurrent"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSequential:
		return ModeSequential, nil
	case ModeConcurrent:
		return ModeConcurrent, nil
	default:
		return "", fmt.Errorf("unknown fetch mode %q", s)
	}
}

const (
	DefaultTimeout = 30 * time.Second
	historySize    = 60
	subscriberBuf  = 100
)

// Options configures an Explorer.
type Options struct {
	Mode Mode
	// Timeout bounds each individual fetch. Zero means DefaultTimeout.
	Timeout        time.Duration
	DefaultNetwork models.Network
}

// Explorer runs fetch cycles and publishes their progress.
type Explorer struct {
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics
	store   *state.Store
	cycles  atomic.Uint64

	subscribers []Subscriber
	latency     []time.Duration
	dataSource  DataSource
	mu          sync.RWMutex
}

// New creates an Explorer reading from ds. logger and m may be nil.
func New(ds DataSource, opts Options, logger *zap.Logger, m *metrics.Metrics) *Explorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = ModeSequential
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.DefaultNetwork == "" {
		opts.DefaultNetwork = models.DefaultNetwork
	}
	return &Explorer{
		opts:       opts,
		logger:     logger.Named("explorer"),
		metrics:    m,
		store:      state.NewStore(opts.DefaultNetwork),
		dataSource: ds,
	}
}

// SetDataSource replaces the upstream client.
func (e *Explorer) SetDataSource(ds DataSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dataSource = ds
}

func (e *Explorer) source() DataSource {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dataSource
}

func (e *Explorer) Mode() Mode { return e.opts.Mode }

// Snapshot returns the shared view state.
func (e *Explorer) Snapshot() state.ViewState {
	return e.store.Snapshot()
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (e *Explorer) Subscribe() Subscriber {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(Subscriber, subscriberBuf)
	e.subscribers = append(e.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (e *Explorer) Unsubscribe(ch Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.subscribers {
		if sub == ch {
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (e *Explorer) notify(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, sub := range e.subscribers {
		select {
		case sub <- event:
		default:
			e.logger.Warn("dropping event for slow subscriber", zap.String("type", string(event.Type)))
		}
	}
}

// publish applies event to the shared store, then fans it out.
func (e *Explorer) publish(event Event) {
	e.store.Update(event.Apply)
	e.notify(event)
}

// LatencyHistory returns the durations of the most recent finished cycles, oldest first.
func (e *Explorer) LatencyHistory() []time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]time.Duration, len(e.latency))
	copy(out, e.latency)
	return out
}

func (e *Explorer) recordLatency(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latency = append(e.latency, d)
	if len(e.latency) > historySize {
		e.latency = e.latency[len(e.latency)-historySize:]
	}
}

// Explore validates the input and runs one fetch cycle. A validation
// failure returns a *state.ValidationError and leaves every resource as it
// was. Fetch failures never return an error; they are recorded as failed
// resources in the returned state.
func (e *Explorer) Explore(ctx context.Context, address, network string) (state.ViewState, error) {
	q, err := state.Validate(address, network)
	if err != nil {
		e.metrics.ValidationFailed()
		e.logger.Debug("query rejected", zap.Error(err))
		return e.store.Snapshot(), err
	}

	cycle := e.cycles.Add(1)
	log := e.logger.With(zap.Uint64("cycle", cycle), zap.String("network", string(q.Network)))
	log.Info("cycle started", zap.String("address", q.Address), zap.String("mode", string(e.opts.Mode)))

	e.metrics.CycleStarted()
	e.publish(Event{Type: EventCycleStarted, Cycle: cycle, Query: q})
	start := time.Now()

	if e.opts.Mode == ModeConcurrent {
		e.runConcurrent(ctx, cycle, q)
	} else {
		e.runSequential(ctx, cycle, q)
	}

	elapsed := time.Since(start)
	e.recordLatency(elapsed)
	e.metrics.CycleFinished(elapsed)
	e.publish(Event{Type: EventCycleFinished, Cycle: cycle, Query: q, Elapsed: elapsed})
	log.Info("cycle finished", zap.Duration("elapsed", elapsed))

	return e.store.Snapshot(), nil
}

func (e *Explorer) runSequential(ctx context.Context, cycle uint64, q models.WalletQuery) {
	e.fetchNative(ctx, cycle, q)
	e.fetchTokens(ctx, cycle, q)
	e.fetchNFTs(ctx, cycle, q)
}

func (e *Explorer) runConcurrent(ctx context.Context, cycle uint64, q models.WalletQuery) {
	var g errgroup.Group
	g.Go(func() error { e.fetchNative(ctx, cycle, q); return nil })
	g.Go(func() error { e.fetchTokens(ctx, cycle, q); return nil })
	g.Go(func() error { e.fetchNFTs(ctx, cycle, q); return nil })
	_ = g.Wait()
}

func (e *Explorer) fetchNative(ctx context.Context, cycle uint64, q models.WalletQuery) {
	r := fetchResource(ctx, e, "native", q, e.source().GetNativeBalance)
	e.publish(Event{Type: EventNativeUpdated, Cycle: cycle, Query: q, Data: r})
}

func (e *Explorer) fetchTokens(ctx context.Context, cycle uint64, q models.WalletQuery) {
	r := fetchResource(ctx, e, "tokens", q, e.source().GetTokenBalances)
	e.publish(Event{Type: EventTokensUpdated, Cycle: cycle, Query: q, Data: r})
}

func (e *Explorer) fetchNFTs(ctx context.Context, cycle uint64, q models.WalletQuery) {
	r := fetchResource(ctx, e, "nfts", q, e.source().GetNftHoldings)
	e.publish(Event{Type: EventNFTsUpdated, Cycle: cycle, Query: q, Data: r})
}

func fetchResource[T any](ctx context.Context, e *Explorer, name string, q models.WalletQuery,
	fn func(context.Context, models.Network, string) ([]T, error)) models.Resource[T] {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	start := time.Now()
	data, err := fn(ctx, q.Network, q.Address)
	elapsed := time.Since(start)
	e.metrics.ObserveFetch(name, string(q.Network), err, elapsed)

	if err != nil {
		e.logger.Error("fetch failed",
			zap.String("resource", name),
			zap.String("network", string(q.Network)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return models.Failed[T](err)
	}
	return models.Succeeded(data)
}
