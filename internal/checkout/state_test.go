package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guest-portal/internal/models"
	"guest-portal/internal/session"
)

func newTestStateStore(t *testing.T) (*StateStore, *session.MemoryBackend, context.Context) {
	t.Helper()
	backend := session.NewMemoryBackend(100, time.Hour)
	t.Cleanup(backend.Stop)
	return NewStateStore(backend), backend, session.WithID(context.Background(), "sess-1")
}

func TestState_Transitions(t *testing.T) {
	tests := []struct {
		from, to State
		allowed  bool
	}{
		{StateBrowsing, StateCartPopulated, true},
		{StateBrowsing, StateAwaitingPayment, false},
		{StateCartPopulated, StateAwaitingPayment, true},
		{StateCartPopulated, StateBrowsing, true},
		{StateCartPopulated, StatePaid, false},
		{StateAwaitingPayment, StatePaid, true},
		{StateAwaitingPayment, StateFailed, true},
		{StateFailed, StateAwaitingPayment, true},
		{StateFailed, StatePaid, false},
		{StatePaid, StateCartPopulated, false},
		{StatePaid, StateBrowsing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))

			_, err := Transition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, models.ErrInvalidTransition)
			}
		})
	}
}

func TestState_PaidIsTerminal(t *testing.T) {
	assert.True(t, StatePaid.IsTerminal())
	assert.False(t, StateFailed.IsTerminal())
}

func TestStateStore_DefaultsToBrowsing(t *testing.T) {
	store, backend, ctx := newTestStateStore(t)

	state, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateBrowsing, state)

	require.NoError(t, backend.Set(ctx, StateKey, "bogus"))
	state, err = store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateBrowsing, state)
}

func TestStateStore_Move(t *testing.T) {
	store, _, ctx := newTestStateStore(t)

	state, err := store.Move(ctx, StateCartPopulated)
	require.NoError(t, err)
	assert.Equal(t, StateCartPopulated, state)

	state, err = store.Move(ctx, StatePaid)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, StateCartPopulated, state)

	current, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateCartPopulated, current)
}

func TestStateStore_ItemsChanged(t *testing.T) {
	tests := []struct {
		name  string
		from  State
		count int
		want  State
	}{
		{"first item", StateBrowsing, 1, StateCartPopulated},
		{"more items", StateCartPopulated, 2, StateCartPopulated},
		{"emptied", StateCartPopulated, 0, StateBrowsing},
		{"edited while paying", StateAwaitingPayment, 1, StateCartPopulated},
		{"emptied while paying", StateAwaitingPayment, 0, StateBrowsing},
		{"edited after failure", StateFailed, 3, StateCartPopulated},
		{"cleared after payment", StatePaid, 0, StatePaid},
		{"new flow after payment", StatePaid, 1, StateCartPopulated},
		{"nothing to do", StateBrowsing, 0, StateBrowsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, ctx := newTestStateStore(t)
			require.NoError(t, backend.Set(ctx, StateKey, string(tt.from)))

			require.NoError(t, store.ItemsChanged(ctx, tt.count))

			state, err := store.Current(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestStateStore_ItemsChangedFollowsTransitions(t *testing.T) {
	for from := range transitions {
		for _, count := range []int{0, 1} {
			store, backend, ctx := newTestStateStore(t)
			require.NoError(t, backend.Set(ctx, StateKey, string(from)))

			require.NoError(t, store.ItemsChanged(ctx, count))
			got, err := store.Current(ctx)
			require.NoError(t, err)

			if got == from {
				continue
			}
			start := from
			if from.IsTerminal() {
				start = StateBrowsing
			}
			if got == start {
				continue
			}
			assert.True(t, start.CanTransitionTo(got), "%s -> %s after %d items", start, got, count)
		}
	}
}

func TestStateStore_ItemsChangedRewritesState(t *testing.T) {
	store, backend, ctx := newTestStateStore(t)
	require.NoError(t, store.ItemsChanged(ctx, 1))
	require.NoError(t, backend.Delete(ctx, StateKey))

	require.NoError(t, store.ItemsChanged(ctx, 2))

	raw, ok, err := backend.Get(ctx, StateKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, string(StateCartPopulated), raw)
}

func TestStateStore_Sync(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		count  int
		want   State
	}{
		{"expired state with items", "", 2, StateCartPopulated},
		{"browsing with items", string(StateBrowsing), 1, StateCartPopulated},
		{"pending payment kept", string(StateAwaitingPayment), 1, StateAwaitingPayment},
		{"failed payment kept", string(StateFailed), 1, StateFailed},
		{"paid with new items", string(StatePaid), 1, StateCartPopulated},
		{"empty cart", "", 0, StateBrowsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, ctx := newTestStateStore(t)
			if tt.stored != "" {
				require.NoError(t, backend.Set(ctx, StateKey, tt.stored))
			}

			state, err := store.Sync(ctx, tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.want, state)

			current, err := store.Current(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, current)
		})
	}
}
