package authgate

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"brihaspati/internal/domain/auth"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeNotifier struct {
	mu        sync.Mutex
	listeners []auth.Listener
	unsubbed  int
}

func (f *fakeNotifier) OnSessionStateChange(l auth.Listener) func() {
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.unsubbed++
		f.mu.Unlock()
	}
}

func (f *fakeNotifier) fire(id *auth.Identity) {
	f.mu.Lock()
	ls := append([]auth.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range ls {
		l(id)
	}
}

func TestGate_PromptOnlyAfterResolution(t *testing.T) {
	n := &fakeNotifier{}
	g := New(zap.NewNop())
	require.NoError(t, g.Subscribe(n))

	assert.False(t, g.Resolved())
	assert.False(t, g.ShouldPromptLogin(auth.LocalFlags{}), "no prompt before the provider answered")

	n.fire(nil)

	assert.True(t, g.Resolved())
	assert.True(t, g.ShouldPromptLogin(auth.LocalFlags{}))
}

func TestGate_CachedFlagSuppressesPrompt(t *testing.T) {
	g := New(nil)
	g.Notify(nil)
	assert.False(t, g.ShouldPromptLogin(auth.LocalFlags{IsLoggedIn: true}))
}

func TestGate_PromptNeverShownWhileUnresolved(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trace := 0; trace < 200; trace++ {
		g := New(nil)
		fireAt := rng.Intn(20)
		for step := 0; step < 20; step++ {
			flags := auth.LocalFlags{IsLoggedIn: rng.Intn(2) == 0}
			if step == fireAt {
				var id *auth.Identity
				if rng.Intn(2) == 0 {
					id = &auth.Identity{UID: "u"}
				}
				g.Notify(id)
			}
			if !g.Resolved() {
				require.False(t, g.ShouldPromptLogin(flags), "trace %d step %d", trace, step)
			}
		}
	}
}

func TestGate_ResolvedNeverFlipsBack(t *testing.T) {
	g := New(nil)
	g.Notify(&auth.Identity{UID: "u1"})
	g.Notify(nil)
	g.Notify(&auth.Identity{UID: "u2"})

	assert.True(t, g.Resolved())
	assert.Equal(t, "u2", g.Identity().UID)
	assert.False(t, g.ShouldPromptLogin(auth.LocalFlags{}))
}

func TestGate_SubscribeTwice(t *testing.T) {
	n := &fakeNotifier{}
	g := New(nil)
	require.NoError(t, g.Subscribe(n))
	assert.ErrorIs(t, g.Subscribe(n), ErrAlreadySubscribed)

	g.Unsubscribe()
	assert.Equal(t, 1, n.unsubbed)
	require.NoError(t, g.Subscribe(n))
}

func TestGate_DependentsSeeFirstFlag(t *testing.T) {
	g := New(nil)
	var firsts []bool
	var uids []string
	g.OnChange(func(id *auth.Identity, first bool) {
		firsts = append(firsts, first)
		if id == nil {
			uids = append(uids, "")
		} else {
			uids = append(uids, id.UID)
		}
		// dependents may read the gate without deadlocking
		assert.True(t, g.Resolved())
	})

	g.Notify(nil)
	g.Notify(&auth.Identity{UID: "u"})

	assert.Equal(t, []bool{true, false}, firsts)
	assert.Equal(t, []string{"", "u"}, uids)
}

func TestGate_WaitWithoutResolution(t *testing.T) {
	g := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := g.Wait(ctx)
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, g.ShouldPromptLogin(auth.LocalFlags{}))
}

func TestGate_WaitReturnsOnResolution(t *testing.T) {
	g := New(nil)
	go g.Notify(nil)

	require.NoError(t, g.Wait(context.Background()))
	select {
	case <-g.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestGate_IdentityIsCopied(t *testing.T) {
	g := New(nil)
	id := &auth.Identity{UID: "u"}
	g.Notify(id)
	id.UID = "mutated"

	assert.Equal(t, "u", g.Snapshot().Identity.UID)
}
