package cart

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"guest-portal/internal/models"
)

// StateTracker is told how many items the cart holds after every change
type StateTracker interface {
	ItemsChanged(ctx context.Context, count int) error
}

// AddRequest describes one booking to append to the cart
type AddRequest struct {
	Upsell       models.Upsell
	GuestCount   int
	SelectedDate *time.Time
	MenuOptions  string
	SpecialNotes string
}

// Validate checks the booking fields a guest controls
func (r *AddRequest) Validate(now time.Time) error {
	errs := models.NewValidationError()

	if !ValidGuests(r.GuestCount) {
		errs.Add("guest_count", fmt.Sprintf("Guest count must be between %d and %d", MinGuests, MaxGuests))
	}
	if r.SelectedDate == nil {
		errs.Add("selected_date", "Please select a date")
	} else if r.SelectedDate.UTC().Before(startOfDay(now.UTC())) {
		errs.Add("selected_date", "Date cannot be in the past")
	}

	return errs.OrNil()
}

// View is the cart as returned to the guest
type View struct {
	Cart      models.Cart
	Recovered bool
}

// Service applies mutators to the persisted cart
type Service struct {
	store   *Store
	tracker StateTracker
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a cart service
func NewService(store *Store, tracker StateTracker, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		tracker: tracker,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the current cart
func (s *Service) Get(ctx context.Context) (View, error) {
	c, recovered, err := s.store.Load(ctx)
	if err != nil {
		return View{}, err
	}
	return View{Cart: c, Recovered: recovered}, nil
}

// Add validates and appends a booking
func (s *Service) Add(ctx context.Context, req AddRequest) (View, error) {
	if err := req.Validate(s.now()); err != nil {
		return View{}, err
	}

	date := req.SelectedDate.UTC()
	return s.mutate(ctx, func(c models.Cart) models.Cart {
		return AddItem(c, req.Upsell, req.GuestCount, &date, req.MenuOptions, req.SpecialNotes)
	})
}

// Remove drops the items for upsellID
func (s *Service) Remove(ctx context.Context, upsellID int) (View, error) {
	return s.mutate(ctx, func(c models.Cart) models.Cart {
		return RemoveItem(c, upsellID)
	})
}

// UpdateQuantity changes the guest count for upsellID
func (s *Service) UpdateQuantity(ctx context.Context, upsellID, guests int) (View, error) {
	return s.mutate(ctx, func(c models.Cart) models.Cart {
		return UpdateQuantity(c, upsellID, guests)
	})
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	return s.tracker.ItemsChanged(ctx, 0)
}

func (s *Service) mutate(ctx context.Context, fn func(models.Cart) models.Cart) (View, error) {
	c, recovered, err := s.store.Load(ctx)
	if err != nil {
		return View{}, err
	}

	next := fn(c)
	if err := s.store.Save(ctx, next); err != nil {
		return View{}, err
	}
	if err := s.tracker.ItemsChanged(ctx, len(next.Items)); err != nil {
		s.logger.Error("failed to update checkout state", zap.Error(err))
		return View{}, err
	}

	return View{Cart: next, Recovered: recovered}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
