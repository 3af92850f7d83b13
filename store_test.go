package hxstore

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	N int
}

type todos struct {
	Items []string
}

var errEmptyTitle = errors.New("empty title")

// testModels returns two independent domains. Slices are pointers so tests
// can check reference identity.
func testModels() Models {
	return Models{
		"counter": {
			InitialState: &counter{},
			Reducers: map[string]Reducer{
				"inc": Handle(func(s *counter, n int) *counter {
					return &counter{N: s.N + n}
				}),
				"reset": Handle(func(_ *counter, _ any) *counter {
					return &counter{}
				}),
			},
		},
		"todos": {
			InitialState: &todos{},
			Reducers: map[string]Reducer{
				"add": HandleErr(func(s *todos, title string) (*todos, error) {
					if title == "" {
						return nil, errEmptyTitle
					}
					items := append(append([]string(nil), s.Items...), title)
					return &todos{Items: items}, nil
				}),
			},
		},
	}
}

func statePtr(s State) uintptr {
	return reflect.ValueOf(s).Pointer()
}

func TestNewCombinesInitialState(t *testing.T) {
	models := testModels()
	store, err := New(models)
	require.NoError(t, err)

	state := store.State()
	assert.Len(t, state, 2)
	assert.Same(t, models["counter"].InitialState, state["counter"])
	assert.Same(t, models["todos"].InitialState, state["todos"])
}

func TestNewRejectsInvalidModels(t *testing.T) {
	_, err := New(Models{"a/b": {}})
	assert.ErrorIs(t, err, ErrInvalidModel)

	assert.PanicsWithError(t,
		`hxstore: invalid model: action "x" in domain "d" has a nil reducer`,
		func() { MustNew(Models{"d": {Reducers: map[string]Reducer{"x": nil}}}) },
	)
}

func TestNewEmptyRegistry(t *testing.T) {
	store, err := New(Models{})
	require.NoError(t, err)

	assert.Empty(t, store.State())
	assert.Empty(t, store.Actions())
	assert.ErrorIs(t, store.Dispatch(Action{Domain: "any", Name: "thing"}), ErrUnknownDomain)
}

func TestCounterScenario(t *testing.T) {
	store := MustNew(testModels())

	c, ok := Slice[*counter](store.State(), "counter")
	require.True(t, ok)
	assert.Equal(t, 0, c.N)

	require.NoError(t, store.Actions()["counter"]["inc"](5))

	c, _ = Slice[*counter](store.State(), "counter")
	assert.Equal(t, 5, c.N)
}

func TestDispatchKeepsSiblingSlices(t *testing.T) {
	store := MustNew(testModels())
	before := store.State()

	require.NoError(t, store.Dispatch(Action{Domain: "counter", Name: "inc", Payload: 1}))
	after := store.State()

	assert.Same(t, before["todos"], after["todos"])
	assert.NotSame(t, before["counter"], after["counter"])
	assert.Equal(t, 0, before["counter"].(*counter).N, "previous snapshot must not change")
}

func TestDispatchFailureLeavesState(t *testing.T) {
	rec := &Recorder{}
	store := MustNew(testModels(), WithObserver(rec))
	before := store.State()

	err := store.Dispatch(Action{Domain: "todos", Name: "add", Payload: ""})
	assert.ErrorIs(t, err, errEmptyTitle)
	assert.Equal(t, statePtr(before), statePtr(store.State()))

	err = store.Dispatch(Action{Domain: "counter", Name: "missing"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	transitions := rec.Transitions()
	require.Len(t, transitions, 2)
	for _, tr := range transitions {
		assert.Error(t, tr.Err)
		assert.Equal(t, statePtr(tr.Prev), statePtr(tr.Next))
	}
}

func TestActionsAreStable(t *testing.T) {
	store := MustNew(testModels())
	first := store.Actions()

	require.NoError(t, first["counter"]["inc"](1))

	second := store.Actions()
	assert.Equal(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(second).Pointer())
	assert.Equal(t, reflect.ValueOf(first["counter"]).Pointer(), reflect.ValueOf(second["counter"]).Pointer())
}

func TestValueMemoizedOnState(t *testing.T) {
	store := MustNew(testModels())

	v1 := store.Value()
	v2 := store.Value()
	assert.Equal(t, statePtr(v1.State), statePtr(v2.State))

	require.NoError(t, v1.Raw(Action{Domain: "counter", Name: "inc", Payload: 2}))

	v3 := store.Value()
	assert.NotEqual(t, statePtr(v1.State), statePtr(v3.State))
	assert.Equal(t, 2, v3.State["counter"].(*counter).N)
}

func TestRegistryIsCopied(t *testing.T) {
	models := testModels()
	store := MustNew(models)

	delete(models["counter"].Reducers, "inc")
	models["extra"] = Model{}

	assert.NoError(t, store.Dispatch(Action{Domain: "counter", Name: "inc", Payload: 1}))
	assert.NotContains(t, store.State(), "extra")
	assert.Equal(t, []string{"counter", "todos"}, store.Models().Domains())
}

func TestSubscribe(t *testing.T) {
	store := MustNew(testModels())

	var got []int
	cancel := store.Subscribe(func(s State) {
		got = append(got, s["counter"].(*counter).N)
	})

	require.NoError(t, store.Dispatch(Action{Domain: "counter", Name: "inc", Payload: 1}))
	require.Error(t, store.Dispatch(Action{Domain: "counter", Name: "nope"}))
	require.NoError(t, store.Dispatch(Action{Domain: "counter", Name: "inc", Payload: 2}))
	cancel()
	require.NoError(t, store.Dispatch(Action{Domain: "counter", Name: "inc", Payload: 3}))

	assert.Equal(t, []int{1, 3}, got)
}

func TestSubscriberMayDispatch(t *testing.T) {
	store := MustNew(testModels())

	fired := false
	store.Subscribe(func(s State) {
		if fired {
			return
		}
		fired = true
		_ = store.Dispatch(Action{Domain: "counter", Name: "inc", Payload: 10})
	})

	require.NoError(t, store.Dispatch(Action{Domain: "counter", Name: "inc", Payload: 1}))
	assert.Equal(t, 11, store.State()["counter"].(*counter).N)
}

func TestSubscriberNeverSeesStaleState(t *testing.T) {
	store := MustNew(testModels())
	inc := Action{Domain: "counter", Name: "inc", Payload: 1}

	entered := make(chan struct{})
	release := make(chan struct{})
	var seen []int
	store.Subscribe(func(s State) {
		n := s["counter"].(*counter).N
		seen = append(seen, n)
		if n == 1 {
			close(entered)
			<-release
		}
	})

	done := make(chan error, 1)
	go func() { done <- store.Dispatch(inc) }()
	<-entered

	// Delivery of the first state is still running; this one is queued.
	require.NoError(t, store.Dispatch(inc))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestSubscriberCallsAreSerialised(t *testing.T) {
	store := MustNew(testModels())

	var active, overlaps int32
	last, regressed := 0, false
	store.Subscribe(func(s State) {
		if atomic.AddInt32(&active, 1) > 1 {
			atomic.AddInt32(&overlaps, 1)
		}
		n := s["counter"].(*counter).N
		if n < last {
			regressed = true
		}
		last = n
		time.Sleep(10 * time.Microsecond)
		atomic.AddInt32(&active, -1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Actions()["counter"]["inc"](1)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlaps))
	assert.False(t, regressed)
	assert.Equal(t, 50, last)
}

func TestSubscriberPanicReleasesDelivery(t *testing.T) {
	store := MustNew(testModels())
	inc := Action{Domain: "counter", Name: "inc", Payload: 1}

	var seen []int
	store.Subscribe(func(s State) {
		n := s["counter"].(*counter).N
		if n == 1 {
			panic("boom")
		}
		seen = append(seen, n)
	})

	assert.Panics(t, func() { _ = store.Dispatch(inc) })
	require.NoError(t, store.Dispatch(inc))
	assert.Equal(t, []int{2}, seen)
}

func TestConcurrentDispatch(t *testing.T) {
	rec := &Recorder{}
	store := MustNew(testModels(), WithObserver(rec))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Actions()["counter"]["inc"](1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.State()["counter"].(*counter).N)

	// Observers see a gapless chain of transitions.
	transitions := rec.Transitions()
	require.Len(t, transitions, 50)
	for i := 1; i < len(transitions); i++ {
		assert.Equal(t, statePtr(transitions[i-1].Next), statePtr(transitions[i].Prev))
	}
}

func TestObserverOrderAndIDs(t *testing.T) {
	var order []string
	first := ObserverFunc(func(Transition) { order = append(order, "first") })
	second := ObserverFunc(func(Transition) { order = append(order, "second") })
	rec := &Recorder{}

	store := MustNew(testModels(), WithObserver(first, second), WithObserver(rec))
	require.NoError(t, store.Dispatch(Action{Domain: "counter", Name: "reset"}))
	require.NoError(t, store.Dispatch(Action{Domain: "todos", Name: "add", Payload: "milk"}))

	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
	assert.Equal(t, []string{"counter/reset", "todos/add"}, rec.Types())

	transitions := rec.Transitions()
	assert.NotEmpty(t, transitions[0].ID)
	assert.NotEqual(t, transitions[0].ID, transitions[1].ID)
	assert.False(t, transitions[0].At.IsZero())
}
