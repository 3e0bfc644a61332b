// Package checkout tracks a guest's progress from cart to payment and drives
// the payment calls against the backend.
package checkout

import (
	"context"
	"fmt"

	"guest-portal/internal/models"
	"guest-portal/internal/session"
)

// State is the checkout stage of one browser session
type State string

const (
	StateBrowsing        State = "browsing"
	StateCartPopulated   State = "cart_populated"
	StateAwaitingPayment State = "awaiting_payment"
	StatePaid            State = "paid"
	StateFailed          State = "failed"
)

// StateKey is the session key holding the checkout state
const StateKey = "checkoutState"

// transitions lists every allowed move. Editing the cart while a payment is
// pending or has failed returns the flow to cart_populated, or to browsing when
// the edit empties the cart.
var transitions = map[State][]State{
	StateBrowsing:        {StateCartPopulated},
	StateCartPopulated:   {StateBrowsing, StateAwaitingPayment},
	StateAwaitingPayment: {StatePaid, StateFailed, StateCartPopulated, StateBrowsing},
	StateFailed:          {StateAwaitingPayment, StateCartPopulated, StateBrowsing},
	StatePaid:            {},
}

// Valid reports whether s is a known state
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s State) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Transition returns next, or ErrInvalidTransition when the move is not allowed
func Transition(from, next State) (State, error) {
	if !from.CanTransitionTo(next) {
		return from, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, next)
	}
	return next, nil
}

// StateStore persists the checkout state in the guest's session
type StateStore struct {
	backend session.Backend
}

// NewStateStore creates a state store over a session backend
func NewStateStore(backend session.Backend) *StateStore {
	return &StateStore{backend: backend}
}

// Current returns the stored state. Missing or unknown values read as browsing.
func (s *StateStore) Current(ctx context.Context) (State, error) {
	raw, ok, err := s.backend.Get(ctx, StateKey)
	if err != nil {
		return "", fmt.Errorf("failed to read checkout state: %w", err)
	}
	state := State(raw)
	if !ok || !state.Valid() {
		return StateBrowsing, nil
	}
	return state, nil
}

// Move applies one transition and persists the result
func (s *StateStore) Move(ctx context.Context, next State) (State, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	state, err := Transition(current, next)
	if err != nil {
		return current, err
	}
	if err := s.save(ctx, state); err != nil {
		return current, err
	}
	return state, nil
}

// ItemsChanged keeps the state in step with the cart size after a cart edit.
// A terminal state is left alone when the cart empties; a new item starts a
// fresh flow from browsing. The state is rewritten on every edit so it expires
// together with the cart.
func (s *StateStore) ItemsChanged(ctx context.Context, count int) error {
	current, err := s.Current(ctx)
	if err != nil {
		return err
	}
	next, err := afterEdit(current, count)
	if err != nil {
		return err
	}
	return s.save(ctx, next)
}

// Sync reconciles the stored state with a cart holding count items. A missing
// or expired state reads as browsing, so a non-empty cart lifts it to
// cart_populated while a pending or failed payment is kept.
func (s *StateStore) Sync(ctx context.Context, count int) (State, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return "", err
	}

	next := current
	if count > 0 && (current == StateBrowsing || current.IsTerminal()) {
		if next, err = Transition(StateBrowsing, StateCartPopulated); err != nil {
			return current, err
		}
	}
	if err := s.save(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

func afterEdit(current State, count int) (State, error) {
	if current.IsTerminal() {
		if count == 0 {
			return current, nil
		}
		current = StateBrowsing
	}

	want := StateBrowsing
	if count > 0 {
		want = StateCartPopulated
	}
	if current == want {
		return current, nil
	}
	return Transition(current, want)
}

func (s *StateStore) save(ctx context.Context, state State) error {
	if err := s.backend.Set(ctx, StateKey, string(state)); err != nil {
		return fmt.Errorf("failed to save checkout state: %w", err)
	}
	return nil
}
