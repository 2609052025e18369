// Package pacer implements an exponential-backoff rate limiter for calls
// against a remote backend, in the shape the sftp and s3 backends in the
// teacher repository instantiate per host/bucket (see
// backend/seafile/pacer.go for the call pattern this is grounded on:
// pacer.NewDefault(pacer.MinSleep(...), pacer.MaxSleep(...), pacer.DecayConstant(...))).
package pacer

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Option configures a Pacer.
type Option func(*Pacer)

// MinSleep sets the minimum sleep between calls.
func MinSleep(d time.Duration) Option {
	return func(p *Pacer) { p.minSleep = d }
}

// MaxSleep caps the sleep a backoff can grow to.
func MaxSleep(d time.Duration) Option {
	return func(p *Pacer) { p.maxSleep = d }
}

// DecayConstant controls how quickly the sleep interval decays back down
// after a run of successes; bigger values decay slower.
func DecayConstant(n uint) Option {
	return func(p *Pacer) { p.decayConstant = n }
}

// MaxRetries bounds how many times Call will retry a retriable error before
// giving up and returning it to the caller.
func MaxRetries(n int) Option {
	return func(p *Pacer) { p.maxRetries = n }
}

// Pacer paces calls to a single remote endpoint, retrying retriable errors
// with exponential backoff plus jitter. Calls are not serialized: concurrent
// callers each sleep for the current interval and then run in parallel.
type Pacer struct {
	mu            sync.Mutex
	sleepTime     time.Duration
	minSleep      time.Duration
	maxSleep      time.Duration
	decayConstant uint
	maxRetries    int
}

// New builds a Pacer with sane defaults, overridden by opts.
func New(opts ...Option) *Pacer {
	p := &Pacer{
		minSleep:      100 * time.Millisecond,
		maxSleep:      10 * time.Second,
		decayConstant: 2,
		maxRetries:    10,
	}
	for _, o := range opts {
		o(p)
	}
	p.sleepTime = p.minSleep
	return p
}

// Call invokes fn, retrying with backoff while retriable reports true for
// the returned error, up to MaxRetries attempts or until ctx is cancelled.
func (p *Pacer) Call(ctx context.Context, fn func() error, retriable func(error) bool) error {
	var err error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		p.beginCall(ctx)
		err = fn()
		if err == nil {
			p.reduceSleep()
			return nil
		}
		if retriable == nil || !retriable(err) {
			return err
		}
		p.increaseSleep()
	}
	return err
}

// beginCall sleeps for the current pacing interval before letting a call
// proceed, respecting ctx cancellation.
func (p *Pacer) beginCall(ctx context.Context) {
	p.mu.Lock()
	sleep := p.sleepTime
	p.mu.Unlock()
	if sleep <= 0 {
		return
	}
	jitter := time.Duration(rand.Int63n(int64(sleep) + 1))
	select {
	case <-time.After(sleep + jitter):
	case <-ctx.Done():
	}
}

func (p *Pacer) increaseSleep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sleepTime *= 2
	if p.sleepTime > p.maxSleep {
		p.sleepTime = p.maxSleep
	}
}

func (p *Pacer) reduceSleep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.decayConstant == 0 {
		p.sleepTime = p.minSleep
		return
	}
	p.sleepTime = p.sleepTime - p.sleepTime/time.Duration(1<<p.decayConstant)
	if p.sleepTime < p.minSleep {
		p.sleepTime = p.minSleep
	}
}
