// Package monitor polls volume usage on a fixed interval and fans snapshots out to
// subscribers.
package monitor

import (
	"context"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/logger"
	"github.com/tphakala/filetools/internal/volumes"
)

// DefaultInterval is the polling cadence used when none is configured
const DefaultInterval = time.Second

// GetLogger returns the module logger for the volume poller
func GetLogger() logger.Logger {
	return logger.Global().Module("monitor")
}

// ErrAlreadyStarted is returned by Start on a running Poller
var ErrAlreadyStarted = errors.NewStd("poller already started")

// Lister enumerates volumes. *volumes.Enumerator implements it.
type Lister interface {
	Enumerate() ([]volumes.VolumeInfo, error)
}

// Snapshot is the result of one poll
type Snapshot struct {
	Taken   time.Time
	Volumes []volumes.VolumeInfo
	Err     error
}

// Poller refreshes a volume snapshot every interval. Subscribers receive every
// snapshot unless they fall behind, in which case they only see the newest one.
type Poller struct {
	lister   Lister
	interval time.Duration
	clock    clock.Clock
	log      logger.Logger

	mu     sync.RWMutex
	latest Snapshot
	subs   map[int]chan Snapshot
	nextID int
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Poller
type Option func(*Poller)

// WithInterval sets the polling interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock sets the clock driving the ticker
func WithClock(c clock.Clock) Option {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPoller creates a stopped Poller
func NewPoller(lister Lister, opts ...Option) *Poller {
	p := &Poller{
		lister:   lister,
		interval: DefaultInterval,
		clock:    clock.NewClock(),
		subs:     make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = GetLogger()
	}
	return p
}

// Start polls once immediately and then every interval until ctx is done or Stop is
// called. Either way the poller returns to the stopped state, closes all subscriber
// channels and may be started again.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.loop(ctx, cancel, done)

	p.log.Debug("Volume poller started", logger.Duration("interval", p.interval))
	return nil
}

// Stop halts polling and waits until the loop has exited and closed all subscriber
// channels. It is safe to call more than once.
func (p *Poller) Stop() {
	p.mu.RLock()
	cancel, done := p.cancel, p.done
	p.mu.RUnlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) loop(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer p.finish(cancel, done)

	p.Poll()

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			p.Poll()
		case <-ctx.Done():
			return
		}
	}
}

// finish runs when the loop exits, whether through Stop or the parent context
func (p *Poller) finish(cancel context.CancelFunc, done chan struct{}) {
	cancel()

	p.mu.Lock()
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
	if p.done == done {
		p.cancel = nil
		p.done = nil
	}
	p.mu.Unlock()

	close(done)
	p.log.Debug("Volume poller stopped")
}

// Poll enumerates once, stores the snapshot and publishes it to subscribers
func (p *Poller) Poll() Snapshot {
	vols, err := p.lister.Enumerate()
	snap := Snapshot{Taken: p.clock.Now(), Volumes: vols, Err: err}
	if err != nil {
		p.log.Warn("Volume poll failed", logger.Error(err))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest = snap
	for _, ch := range p.subs {
		offer(ch, snap)
	}
	return snap
}

// offer sends snap without blocking, replacing an unread older snapshot
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Latest returns the most recent snapshot; its Taken is zero before the first poll
func (p *Poller) Latest() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Subscribe returns a channel receiving future snapshots and a function that
// unsubscribes and closes it. The channel is also closed by Stop.
func (p *Poller) Subscribe() (<-chan Snapshot, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	ch := make(chan Snapshot, 1)
	p.subs[id] = ch

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if existing, ok := p.subs[id]; ok {
			close(existing)
			delete(p.subs, id)
		}
	}
}
