package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"guest-portal/internal/models"
)

// PropertyBackend is the subset of the backend API used for property lookups
type PropertyBackend interface {
	GetPropertyByToken(ctx context.Context, accessToken string) (*models.Property, error)
	ListUpsells(ctx context.Context, propertyID int) ([]models.Upsell, error)
	GetUpsell(ctx context.Context, upsellID int) (*models.Upsell, error)
}

// Dashboard is the landing view for a guest
type Dashboard struct {
	Property *models.Property `json:"property"`
	Upsells  []models.Upsell  `json:"upsells"`
}

// PropertyService resolves access tokens and upsell catalogues. Results are cached
// briefly and concurrent misses for the same key share one backend call.
type PropertyService struct {
	backend    PropertyBackend
	properties *ccache.Cache[*models.Property]
	upsells    *ccache.Cache[[]models.Upsell]
	group      singleflight.Group
	ttl        time.Duration
	logger     *zap.Logger
}

// NewPropertyService creates a property service
func NewPropertyService(backend PropertyBackend, ttl time.Duration, maxEntries int64, logger *zap.Logger) *PropertyService {
	return &PropertyService{
		backend:    backend,
		properties: ccache.New(ccache.Configure[*models.Property]().MaxSize(maxEntries)),
		upsells:    ccache.New(ccache.Configure[[]models.Upsell]().MaxSize(maxEntries)),
		ttl:        ttl,
		logger:     logger,
	}
}

// ResolveToken returns the property an access token belongs to
func (s *PropertyService) ResolveToken(ctx context.Context, accessToken string) (*models.Property, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, models.ErrPropertyNotFound
	}

	if item := s.properties.Get(accessToken); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	// the shared call must not die with whichever caller started it
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("property:"+accessToken, func() (any, error) {
		property, err := s.backend.GetPropertyByToken(shared, accessToken)
		if err != nil {
			return nil, err
		}
		s.properties.Set(accessToken, property, s.ttl)
		return property, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Property), nil
}

// ActiveUpsells returns the bookable upsells of a property ordered by sort order
func (s *PropertyService) ActiveUpsells(ctx context.Context, propertyID int) ([]models.Upsell, error) {
	key := strconv.Itoa(propertyID)
	if item := s.upsells.Get(key); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("upsells:"+key, func() (any, error) {
		all, err := s.backend.ListUpsells(shared, propertyID)
		if err != nil {
			return nil, err
		}
		active := filterActive(all)
		s.upsells.Set(key, active, s.ttl)
		return active, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Upsell), nil
}

// Dashboard resolves the token and loads its active upsells
func (s *PropertyService) Dashboard(ctx context.Context, accessToken string) (*Dashboard, error) {
	property, err := s.ResolveToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	upsells, err := s.ActiveUpsells(ctx, property.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}

	return &Dashboard{Property: property, Upsells: upsells}, nil
}

// GetUpsell returns an active upsell that belongs to property
func (s *PropertyService) GetUpsell(ctx context.Context, property *models.Property, upsellID int) (*models.Upsell, error) {
	upsells, err := s.ActiveUpsells(ctx, property.ID)
	if err != nil {
		return nil, err
	}
	for i := range upsells {
		if upsells[i].ID == upsellID {
			u := upsells[i]
			return &u, nil
		}
	}

	// The catalogue may be stale; ask the backend directly before giving up
	upsell, err := s.backend.GetUpsell(ctx, upsellID)
	if err != nil {
		if errors.Is(err, models.ErrUpsellNotFound) {
			return nil, models.ErrUpsellNotFound
		}
		return nil, err
	}
	if upsell.PropertyID != property.ID || !upsell.IsActive {
		return nil, models.ErrUpsellNotFound
	}

	s.upsells.Delete(strconv.Itoa(property.ID))
	return upsell, nil
}

// Stop releases the caches' background workers
func (s *PropertyService) Stop() {
	s.properties.Stop()
	s.upsells.Stop()
}

func filterActive(upsells []models.Upsell) []models.Upsell {
	active := make([]models.Upsell, 0, len(upsells))
	for _, u := range upsells {
		if u.IsActive {
			active = append(active, u)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].SortOrder < active[j].SortOrder
	})
	return active
}
