package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"guest-portal/internal/models"
	"guest-portal/internal/session"
)

// StorageKey is the session key holding the serialized cart
const StorageKey = "cartItems"

// storedItem is the persisted layout of a line item. Dates travel as RFC 3339 text.
type storedItem struct {
	Upsell       storedUpsell    `json:"upsell"`
	GuestCount   int             `json:"guestCount"`
	SelectedDate *string         `json:"selectedDate"`
	MenuOptions  string          `json:"menuOptions"`
	SpecialNotes string          `json:"specialNotes"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

// storedUpsell keeps only what the cart needs so the record fits in a session
// cookie. Descriptions and vendors are reloaded from the backend when required.
type storedUpsell struct {
	ID         int             `json:"id"`
	PropertyID int             `json:"property_id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Category   string          `json:"category,omitempty"`
	ImageURL   string          `json:"image_url,omitempty"`
}

func newStoredUpsell(u models.Upsell) storedUpsell {
	return storedUpsell{
		ID:         u.ID,
		PropertyID: u.PropertyID,
		Title:      u.Title,
		Price:      u.Price,
		Category:   u.Category,
		ImageURL:   u.ImageURL,
	}
}

func (u storedUpsell) toUpsell() models.Upsell {
	return models.Upsell{
		ID:         u.ID,
		PropertyID: u.PropertyID,
		Title:      u.Title,
		Price:      u.Price,
		Category:   u.Category,
		ImageURL:   u.ImageURL,
		IsActive:   true,
	}
}

// Store persists the cart in the guest's session
type Store struct {
	backend session.Backend
	logger  *zap.Logger
}

// NewStore creates a cart store over a session backend
func NewStore(backend session.Backend, logger *zap.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

// Load reads the cart. A missing record yields an empty cart. A record that fails
// to decode or breaks the cart invariants is deleted and reported via recovered;
// the returned error is reserved for backend failures.
func (s *Store) Load(ctx context.Context) (c models.Cart, recovered bool, err error) {
	raw, ok, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		return models.Cart{}, false, fmt.Errorf("failed to read cart: %w", err)
	}
	if !ok || raw == "" {
		return models.Cart{}, false, nil
	}

	c, decodeErr := decode(raw)
	if decodeErr == nil {
		return c, false, nil
	}

	s.logger.Warn("discarding corrupt cart", zap.Error(decodeErr))
	if err := s.backend.Delete(ctx, StorageKey); err != nil {
		return models.Cart{}, true, fmt.Errorf("failed to discard corrupt cart: %w", err)
	}
	return models.Cart{}, true, nil
}

// Save overwrites the persisted cart
func (s *Store) Save(ctx context.Context, c models.Cart) error {
	raw, err := encode(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.backend.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Clear removes the persisted cart
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func encode(c models.Cart) (string, error) {
	items := make([]storedItem, 0, len(c.Items))
	for _, item := range c.Items {
		var date *string
		if item.SelectedDate != nil {
			s := item.SelectedDate.UTC().Format(time.RFC3339Nano)
			date = &s
		}
		items = append(items, storedItem{
			Upsell:       newStoredUpsell(item.Upsell),
			GuestCount:   item.GuestCount,
			SelectedDate: date,
			MenuOptions:  item.MenuOptions,
			SpecialNotes: item.SpecialNotes,
			TotalPrice:   item.TotalPrice,
		})
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decode(raw string) (models.Cart, error) {
	var stored []storedItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return models.Cart{}, fmt.Errorf("%w: %v", models.ErrCorruptCart, err)
	}

	items := make([]models.CartItem, 0, len(stored))
	for i, s := range stored {
		item, err := s.toItem()
		if err != nil {
			return models.Cart{}, fmt.Errorf("%w: item %d: %v", models.ErrCorruptCart, i, err)
		}
		items = append(items, item)
	}
	return models.Cart{Items: items}, nil
}

func (s storedItem) toItem() (models.CartItem, error) {
	if s.Upsell.ID <= 0 {
		return models.CartItem{}, errors.New("missing upsell id")
	}
	if s.Upsell.Price.IsNegative() {
		return models.CartItem{}, errors.New("negative unit price")
	}
	if !ValidGuests(s.GuestCount) {
		return models.CartItem{}, fmt.Errorf("guest count %d out of range", s.GuestCount)
	}
	if !s.TotalPrice.Equal(Price(s.Upsell.Price, s.GuestCount)) {
		return models.CartItem{}, fmt.Errorf("total %s does not match unit price × guests", s.TotalPrice)
	}

	item := models.CartItem{
		Upsell:       s.Upsell.toUpsell(),
		GuestCount:   s.GuestCount,
		MenuOptions:  s.MenuOptions,
		SpecialNotes: s.SpecialNotes,
		TotalPrice:   s.TotalPrice,
	}
	if s.SelectedDate != nil {
		date, err := time.Parse(time.RFC3339Nano, *s.SelectedDate)
		if err != nil {
			return models.CartItem{}, fmt.Errorf("invalid date: %v", err)
		}
		date = date.UTC()
		item.SelectedDate = &date
	}
	return item, nil
}
