package hxstore

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Store owns one combined state tree and serialises every transition of it.
//
// A Store is what a Provider publishes: mount it once near the root of a
// page with Provider, or hand it to components directly as a StoreHandle.
//
//	store, err := hxstore.New(models, hxstore.WithLogger(logger))
//	page := hxstore.Provider(store, layout())
//
// All methods are safe for concurrent use.
type Store struct {
	models    Models
	actions   Dispatch
	observer  observers
	encoder   *Encoder
	sensitive bool
	path      string
	maxBody   int64

	mu      sync.Mutex
	current atomic.Pointer[snapshot]
	seq     uint64 // guarded by mu

	subMu      sync.Mutex
	subs       map[uint64]func(State)
	nextSub    uint64
	pending    State
	pendingSeq uint64
	delivered  uint64
	delivering bool
}

// snapshot pairs a state with the Value published for it, so the Value is
// only rebuilt when the state changes.
type snapshot struct {
	state State
	value Value
}

// Option configures New.
type Option func(*options)

type options struct {
	observers []Observer
	key       []byte
	sensitive bool
	path      string
	maxBody   int64
}

// DefaultMaxBodySize caps dispatch request bodies unless WithMaxBodySize
// says otherwise. It matches the cap net/http applies to form bodies.
const DefaultMaxBodySize = 10 << 20

// WithObserver adds observers that are notified after every dispatch.
func WithObserver(obs ...Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs...)
	}
}

// WithLogger adds a LogObserver writing the dispatch trace to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithObserver(LogObserver(logger))
}

// WithKey sets the key used to sign wire payloads.
// If not provided, a random key is generated, which only works while a
// single process serves both the page and the dispatch requests.
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// Sensitive encrypts wire payloads instead of only signing them.
func Sensitive() Option {
	return func(o *options) {
		o.sensitive = true
	}
}

// WithPath sets the URL prefix the dispatch handler is mounted at.
// Defaults to "/_s/". A missing leading or trailing slash is added.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithMaxBodySize caps the size of dispatch request bodies. Larger bodies
// are rejected with 413.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		o.maxBody = n
	}
}

// New validates the registry and creates a store seeded with its combined
// initial state. The registry is copied; later changes to models do not
// affect the store.
func New(models Models, opts ...Option) (*Store, error) {
	if err := models.Validate(); err != nil {
		return nil, err
	}

	o := &options{path: "/_s/", maxBody: DefaultMaxBodySize}
	for _, opt := range opts {
		opt(o)
	}

	key := o.key
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("hxstore: failed to generate random key: %w", err)
		}
	}
	enc, err := NewEncoder(key)
	if err != nil {
		return nil, fmt.Errorf("hxstore: failed to create encoder: %w", err)
	}

	s := &Store{
		models:    models.clone(),
		observer:  observers(o.observers),
		encoder:   enc,
		sensitive: o.sensitive,
		path:      normalizePath(o.path),
		maxBody:   o.maxBody,
		subs:      make(map[uint64]func(State)),
	}
	s.actions = Rematchify(s.models, s.Dispatch)
	s.current.Store(s.snapshot(Combine(s.models)))
	return s, nil
}

// MustNew is like New but panics if the registry is invalid.
func MustNew(models Models, opts ...Option) *Store {
	s, err := New(models, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func (s *Store) snapshot(state State) *snapshot {
	return &snapshot{
		state: state,
		value: Value{State: state, Dispatch: s.actions, Raw: s.Dispatch},
	}
}

// Models returns the store's registry. It must not be modified.
func (s *Store) Models() Models {
	return s.models
}

// State returns the current snapshot.
func (s *Store) State() State {
	return s.current.Load().state
}

// Actions returns the generated action functions. The mapping is built
// once per store, so the functions are stable for its lifetime.
func (s *Store) Actions() Dispatch {
	return s.actions
}

// Value returns what a Provider publishes for the current state. The same
// Value is returned until a dispatch changes the state.
func (s *Store) Value() Value {
	return s.current.Load().value
}

// Path returns the URL prefix of the dispatch handler.
func (s *Store) Path() string {
	return s.path
}

// Dispatch runs one action through the root reducer and publishes the
// resulting state. Dispatches are applied one at a time, in call order.
//
// Unregistered actions return an error wrapping ErrUnknownDomain or
// ErrUnknownAction. A reducer error is returned wrapped. In both cases the
// state is left unchanged. Observers see every dispatch, failed or not;
// subscribers only see successful ones.
func (s *Store) Dispatch(a Action) error {
	next, seq, err := s.apply(a)
	if err != nil {
		return err
	}
	s.notify(next, seq)
	return nil
}

func (s *Store) apply(a Action) (State, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load().state
	start := time.Now()
	next, err := Reduce(s.models, prev, a)
	t := Transition{
		ID:       uuid.NewString(),
		At:       start,
		Duration: time.Since(start),
		Prev:     prev,
		Action:   a,
		Next:     next,
		Err:      err,
	}
	if err == nil {
		s.seq++
		s.current.Store(s.snapshot(next))
	}
	s.observer.Observe(t)
	return next, s.seq, err
}

// Subscribe registers fn to be called with the new state after every
// successful dispatch. Call the returned function to unsubscribe.
//
// Subscribers run after the dispatch lock is released and may dispatch.
// Calls are serialised: fn never runs on two goroutines at once, and it
// never sees a state older than one it has already seen. When dispatches
// outpace a subscriber, intermediate states are skipped and only the
// latest is delivered.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// notify hands state to the subscribers. Only one goroutine delivers at a
// time; a dispatch that arrives meanwhile leaves its state as pending and
// returns, and the delivering goroutine picks up the newest pending state
// before it stops.
func (s *Store) notify(state State, seq uint64) {
	s.subMu.Lock()
	if seq > s.pendingSeq {
		s.pending, s.pendingSeq = state, seq
	}
	if s.delivering {
		s.subMu.Unlock()
		return
	}
	s.delivering = true

	for s.pendingSeq > s.delivered {
		next := s.pending
		s.delivered = s.pendingSeq
		fns := make([]func(State), 0, len(s.subs))
		for _, fn := range s.subs {
			fns = append(fns, fn)
		}
		s.subMu.Unlock()

		s.deliver(fns, next)

		s.subMu.Lock()
	}
	s.pending = nil
	s.delivering = false
	s.subMu.Unlock()
}

// deliver calls fns with state. A panicking subscriber releases delivery
// before the panic propagates, so later dispatches still notify.
func (s *Store) deliver(fns []func(State), state State) {
	defer func() {
		if r := recover(); r != nil {
			s.subMu.Lock()
			s.pending = nil
			s.delivering = false
			s.subMu.Unlock()
			panic(r)
		}
	}()
	for _, fn := range fns {
		fn(state)
	}
}
