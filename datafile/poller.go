package datafile

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jonboulle/clockwork"

	"github.com/flagkit/flagkit/backoff"
	"github.com/flagkit/flagkit/store"
)

// DefaultPollInterval is how often a Poller rereads its file.
const DefaultPollInterval = 30 * time.Second

// Poller periodically reloads a datafile into a store. A new version is
// applied when its revision differs from the last applied one; unversioned
// files are applied on every load.
type Poller struct {
	path     string
	target   store.Replacer
	interval time.Duration
	clock    clockwork.Clock
	backoff  *backoff.ExponentialBackoff
	logger   log.Logger

	mu      sync.Mutex
	applied bool
	last    int64
}

// PollerOption sets an optional parameter for pollers.
type PollerOption func(*Poller)

// PollerInterval sets the reload interval.
func PollerInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// PollerClock sets the clock that drives the reload ticker.
func PollerClock(c clockwork.Clock) PollerOption {
	return func(p *Poller) { p.clock = c }
}

// PollerBackoff sets the backoff used between failed loads.
func PollerBackoff(b *backoff.ExponentialBackoff) PollerOption {
	return func(p *Poller) { p.backoff = b }
}

// PollerLogger sets the logger.
func PollerLogger(logger log.Logger) PollerOption {
	return func(p *Poller) { p.logger = logger }
}

// NewPoller returns a Poller loading path into target.
func NewPoller(path string, target store.Replacer, options ...PollerOption) *Poller {
	p := &Poller{
		path:     path,
		target:   target,
		interval: DefaultPollInterval,
		clock:    clockwork.NewRealClock(),
		backoff:  backoff.New(),
		logger:   log.NewNopLogger(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Reload loads the file once and applies it if it is new. It reports
// whether the store was updated.
func (p *Poller) Reload() (bool, error) {
	df, err := Load(p.path)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.applied && df.Revision != 0 && df.Revision == p.last {
		return false, nil
	}
	df.Apply(p.target)
	p.applied, p.last = true, df.Revision
	level.Info(p.logger).Log("msg", "datafile applied", "path", p.path, "revision", df.Revision, "variables", len(df.Variables))
	return true, nil
}

// Run reloads immediately and then on every tick until ctx is done. Failed
// loads are logged and retried with backoff; they never clear the store.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.reloadWithRetry(ctx); err != nil {
		return err
	}
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := p.reloadWithRetry(ctx); err != nil {
				return err
			}
		}
	}
}

// reloadWithRetry only returns an error once ctx is done.
func (p *Poller) reloadWithRetry(ctx context.Context) error {
	for {
		_, err := p.Reload()
		if err == nil {
			p.backoff.Reset()
			return nil
		}
		level.Warn(p.logger).Log("msg", "datafile load failed", "path", p.path, "err", err)
		if err := p.backoff.Wait(ctx); err != nil {
			return err
		}
	}
}
