// Package cache owns the daily coach context refresh cycle. A context
// is served from cache while its fingerprint is unchanged and its TTL
// has not lapsed; signal writes, answered questions and pull-to-refresh
// all force reassembly. Concurrent requesters share one in-flight
// assembly instead of duplicating work.
package cache

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/nadavital/pulse/internal/coach"
)

// ErrUnavailable reports that the signal store failed and no previous
// context exists to fall back on. The presentation layer shows a retry
// affordance; it never crashes.
var ErrUnavailable = errors.New("coach context unavailable")

const (
	DefaultTTL = 2 * time.Hour

	contextKey = "daily" // one active entry per context kind
)

// Entry is one cached context with the bookkeeping needed to decide
// freshness without rebuilding.
type Entry struct {
	Fingerprint string
	Context     *coach.DailyCoachContext
	CreatedAt   time.Time
	Revision    int64
	Hour        int
}

// Manager serves DailyCoachContext snapshots. Reads are cheap checks
// against the cached entry; assembly happens at most once per
// fingerprint at a time.
type Manager struct {
	assembler *coach.Assembler
	clock     clockwork.Clock
	ttl       time.Duration

	entries *gocache.Cache
	group   singleflight.Group

	mu       sync.Mutex
	dirty    bool
	lastGood *coach.DailyCoachContext
}

func NewManager(assembler *coach.Assembler, clock clockwork.Clock, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		assembler: assembler,
		clock:     clock,
		ttl:       ttl,
		entries:   gocache.New(ttl, 10*time.Minute),
	}
}

// Invalidate marks the cached context stale. Called on answered
// questions and any other mutation the store cannot observe.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

// Get returns the current context and whether it came from cache.
//
// The fast path compares the entry's revision and hour against the
// store without assembling. When that check fails the context is
// reassembled under singleflight; if the fresh fingerprint still
// matches the cached one the cached instance is kept (a write occurred
// but changed nothing the coach cares about). A stale in-flight result
// never overwrites a newer entry: the entry is replaced only while its
// revision still matches the store.
func (m *Manager) Get(force bool) (*coach.DailyCoachContext, bool, error) {
	m.mu.Lock()
	force = force || m.dirty
	m.dirty = false
	m.mu.Unlock()

	in, err := m.assembler.Gather()
	if err != nil {
		return m.degrade(err)
	}

	if !force {
		if entry, ok := m.lookup(); ok && entry.Revision == in.Revision && entry.Hour == in.Now.Hour() {
			return entry.Context, true, nil
		}
	}

	v, err, _ := m.group.Do(fmt.Sprintf("%s:%d", contextKey, in.Revision), func() (interface{}, error) {
		return m.rebuild(in, force)
	})
	if err != nil {
		return m.degrade(err)
	}

	res := v.(getResult)
	return res.ctx, res.hit, nil
}

type getResult struct {
	ctx *coach.DailyCoachContext
	hit bool
}

func (m *Manager) rebuild(in *coach.Inputs, force bool) (getResult, error) {
	ctx := m.assembler.Build(in)
	fingerprint := ctx.Fingerprint(in.Gate)

	if !force {
		if entry, ok := m.lookup(); ok && entry.Fingerprint == fingerprint {
			// A write happened but nothing coach-relevant changed; keep
			// the cached instance and refresh its bookkeeping.
			m.storeEntry(&Entry{
				Fingerprint: entry.Fingerprint,
				Context:     entry.Context,
				CreatedAt:   entry.CreatedAt,
				Revision:    in.Revision,
				Hour:        in.Now.Hour(),
			})
			return getResult{ctx: entry.Context, hit: true}, nil
		}
	}

	m.mu.Lock()
	m.lastGood = ctx
	m.mu.Unlock()

	// Last-writer-wins only while this build is still current: a
	// fresher write during assembly means this result may be stale, so
	// it is served to the caller but not cached.
	if current, err := m.assemblerRevision(); err == nil && current == in.Revision {
		m.storeEntry(&Entry{
			Fingerprint: fingerprint,
			Context:     ctx,
			CreatedAt:   in.Now,
			Revision:    in.Revision,
			Hour:        in.Now.Hour(),
		})
	} else {
		log.Printf("cache: discarding superseded assembly (revision %d)", in.Revision)
	}

	return getResult{ctx: ctx, hit: false}, nil
}

func (m *Manager) lookup() (*Entry, bool) {
	v, ok := m.entries.Get(contextKey)
	if !ok {
		return nil, false
	}
	entry := v.(*Entry)
	if m.clock.Now().Sub(entry.CreatedAt) >= m.ttl {
		return nil, false
	}
	return entry, true
}

func (m *Manager) storeEntry(e *Entry) {
	m.entries.Set(contextKey, e, gocache.DefaultExpiration)
}

// degrade serves the last good context when the store fails. Stale
// recommendations beat a crashed coach screen.
func (m *Manager) degrade(cause error) (*coach.DailyCoachContext, bool, error) {
	m.mu.Lock()
	last := m.lastGood
	m.mu.Unlock()

	if last != nil {
		log.Printf("cache: serving stale context, assembly failed: %v", cause)
		return last, true, nil
	}
	return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, cause)
}

// Sweep drops the cached entry when its TTL lapsed. The scheduler runs
// it hourly so a dormant app does not hold a stale context in memory.
func (m *Manager) Sweep() {
	if _, ok := m.lookup(); !ok {
		m.entries.Delete(contextKey)
	}
}

func (m *Manager) assemblerRevision() (int64, error) {
	return m.assembler.Revision()
}
