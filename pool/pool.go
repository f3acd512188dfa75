package pool

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/telegate/telegate/telegram"
)

const (
	anonymousKey     = "anonymous"
	sessionKeyPrefix = "session_"

	// Only a bounded prefix of the session material participates in the key,
	// so key size never tracks secret length.
	keyMaterialLength = 32

	// validationWindow is how long a successful authorization check is
	// trusted before the pool re-queries the provider.
	validationWindow = 5 * time.Minute
)

type entry struct {
	client    telegram.Client
	lastUsed  time.Time
	validated bool
}

// Pool owns the process-wide set of live protocol clients, keyed by session
// identity. It is safe for concurrent use: operations on one key serialize
// against each other, operations on distinct keys do not block one another.
type Pool struct {
	factory telegram.Factory
	creds   telegram.Credentials
	log     zerolog.Logger
	nowTime func() time.Time

	lock     sync.Mutex
	entries  map[string]*entry
	keyLocks map[string]*sync.Mutex
}

// Option configures a Pool.
type Option func(*Pool)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(p *Pool) {
		p.nowTime = now
	}
}

// WithLogger sets a scoped logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pool) {
		p.log = logger
	}
}

// New creates an empty pool. The factory and credentials are fixed for the
// pool's lifetime.
func New(factory telegram.Factory, creds telegram.Credentials, options ...Option) *Pool {
	p := &Pool{
		factory:  factory,
		creds:    creds,
		log:      log.With().Str("component", "pool").Logger(),
		nowTime:  time.Now,
		entries:  make(map[string]*entry),
		keyLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Key derives the pool key for a piece of session material. Empty material
// maps to the shared anonymous key.
func Key(sessionString string) string {
	if sessionString == "" {
		return anonymousKey
	}
	if len(sessionString) > keyMaterialLength {
		sessionString = sessionString[:keyMaterialLength]
	}
	return sessionKeyPrefix + sessionString
}

// Acquire returns a live client for the given session material, reusing a
// pooled one when possible. forceNew evicts any existing entry for the key
// before creating a replacement.
//
// The per-key critical section covers only the reuse-vs-create decision; the
// handshake for a new connection runs outside it and the entry is published
// atomically afterwards (last writer wins).
func (p *Pool) Acquire(ctx context.Context, sessionString string, forceNew bool) (telegram.Client, error) {
	key := Key(sessionString)

	keyLock := p.lockFor(key)
	keyLock.Lock()
	if forceNew {
		p.log.Debug().Str("key", key).Msg("force new client requested, evicting existing entry")
		p.evict(ctx, key)
	} else if client := p.reuseExisting(ctx, key); client != nil {
		keyLock.Unlock()
		return client, nil
	}
	keyLock.Unlock()

	client, authorized, err := p.create(ctx, sessionString)
	if err != nil {
		return nil, err
	}

	// Anonymous pre-auth clients are pooled too, so the multi-step login flow
	// doesn't pay for a handshake per request.
	if client.Connected() && (authorized || sessionString == "") {
		p.publish(key, client, authorized)
	}
	return client, nil
}

// Evict removes the entry for the given session material, disconnecting it
// best-effort.
func (p *Pool) Evict(ctx context.Context, sessionString string) {
	key := Key(sessionString)
	keyLock := p.lockFor(key)
	keyLock.Lock()
	defer keyLock.Unlock()
	p.evict(ctx, key)
}

// EvictAll empties the pool, tolerating individual disconnect failures. It
// exists as an emergency recovery hook and is not part of any normal flow.
func (p *Pool) EvictAll(ctx context.Context) {
	p.lock.Lock()
	keys := make([]string, 0, len(p.entries))
	for key := range p.entries {
		keys = append(keys, key)
	}
	p.lock.Unlock()

	for _, key := range keys {
		keyLock := p.lockFor(key)
		keyLock.Lock()
		p.evict(ctx, key)
		keyLock.Unlock()
	}
	p.log.Info().Int("count", len(keys)).Msg("cleared all clients from pool")
}

// Len reports the number of pooled clients.
func (p *Pool) Len() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.entries)
}

func (p *Pool) lockFor(key string) *sync.Mutex {
	p.lock.Lock()
	defer p.lock.Unlock()
	keyLock, ok := p.keyLocks[key]
	if !ok {
		keyLock = &sync.Mutex{}
		p.keyLocks[key] = keyLock
	}
	return keyLock
}

// reuseExisting returns a pooled client when it is still usable, evicting it
// otherwise. Must be called with the key's lock held.
func (p *Pool) reuseExisting(ctx context.Context, key string) telegram.Client {
	p.lock.Lock()
	e, ok := p.entries[key]
	p.lock.Unlock()
	if !ok {
		return nil
	}

	if !e.client.Connected() {
		p.log.Debug().Str("key", key).Msg("pooled client no longer connected, evicting")
		p.evict(ctx, key)
		return nil
	}

	now := p.nowTime()

	p.lock.Lock()
	fresh := e.validated && now.Sub(e.lastUsed) < validationWindow
	if fresh {
		e.lastUsed = now
	}
	p.lock.Unlock()
	if fresh {
		return e.client
	}

	authorized, err := e.client.IsAuthorized(ctx)
	if err != nil {
		p.log.Debug().Str("key", key).Err(err).Msg("pooled client failed revalidation, evicting")
		p.evict(ctx, key)
		return nil
	}
	// The anonymous entry is expected to be unauthorized mid-login; it stays
	// reusable as long as it answers at all. Session-keyed entries that lost
	// authorization are dead weight.
	if !authorized && key != anonymousKey {
		p.log.Debug().Str("key", key).Msg("pooled client no longer authorized, evicting")
		p.evict(ctx, key)
		return nil
	}

	p.lock.Lock()
	e.lastUsed = now
	e.validated = authorized
	p.lock.Unlock()
	return e.client
}

func (p *Pool) create(ctx context.Context, sessionString string) (telegram.Client, bool, error) {
	client, err := p.factory(ctx, sessionString, p.creds)
	if err != nil {
		return nil, false, errors.Wrap(err, "[Pool.Acquire] create client")
	}
	if err := client.Connect(ctx); err != nil {
		return nil, false, errors.Wrap(err, "[Pool.Acquire] connect")
	}
	authorized, err := client.IsAuthorized(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "[Pool.Acquire] authorization check")
	}
	return client, authorized, nil
}

func (p *Pool) publish(key string, client telegram.Client, validated bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.entries[key] = &entry{
		client:    client,
		lastUsed:  p.nowTime(),
		validated: validated,
	}
}

// evict removes an entry and disconnects it best-effort; disconnect failures
// never block replacement.
func (p *Pool) evict(ctx context.Context, key string) {
	p.lock.Lock()
	e, ok := p.entries[key]
	delete(p.entries, key)
	p.lock.Unlock()
	if !ok {
		return
	}

	if e.client.Connected() {
		if err := e.client.Disconnect(ctx); err != nil {
			p.log.Warn().Str("key", key).Err(err).Msg("error disconnecting client during eviction")
		}
	}
}
