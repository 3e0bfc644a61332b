package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"guest-portal/internal/models"
)

// CheckInBackend is the subset of the backend API used for check-in
type CheckInBackend interface {
	CheckInStatus(ctx context.Context, accessToken string) (*models.CheckIn, error)
	CheckInStatusForEmail(ctx context.Context, accessToken, email string) (*models.CheckIn, error)
	SubmitCheckIn(ctx context.Context, req models.CheckInRequest) (*models.CheckIn, error)
}

// PassportStore stores passport documents
type PassportStore interface {
	Upload(ctx context.Context, propertyID int, data []byte) (*StoredDocument, error)
	Delete(ctx context.Context, key string) error
}

// CheckInService handles guest check-in
type CheckInService struct {
	backend   CheckInBackend
	passports PassportStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckInService creates a check-in service
func NewCheckInService(backend CheckInBackend, passports PassportStore, logger *zap.Logger) *CheckInService {
	return &CheckInService{
		backend:   backend,
		passports: passports,
		logger:    logger,
		now:       time.Now,
	}
}

// Status returns the check-in recorded for an access token, or nil
func (s *CheckInService) Status(ctx context.Context, accessToken string) (*models.CheckIn, error) {
	return s.backend.CheckInStatus(ctx, accessToken)
}

// Submit checks a guest in. A guest whose email is already checked in gets
// AlreadyCheckedIn instead of an error and nothing is uploaded.
func (s *CheckInService) Submit(ctx context.Context, accessToken string, property *models.Property, form models.CheckInForm, passport []byte) (*models.CheckInResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(form.Email)

	existing, err := s.backend.CheckInStatusForEmail(ctx, accessToken, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing check-in: %w", err)
	}
	if existing != nil {
		return &models.CheckInResult{AlreadyCheckedIn: true, CheckIn: existing}, nil
	}

	var doc *StoredDocument
	if len(passport) > 0 {
		doc, err = s.passports.Upload(ctx, property.ID, passport)
		if err != nil {
			return nil, err
		}
	}

	req := models.CheckInRequest{
		AccessToken: accessToken,
		FullName:    strings.TrimSpace(form.FullName),
		Email:       email,
		PhoneNumber: strings.TrimSpace(form.PhoneNumber),
		CheckInTime: s.now().UTC(),
	}
	if doc != nil {
		req.PassportURL = doc.URL
	}

	checkIn, err := s.backend.SubmitCheckIn(ctx, req)
	if err != nil {
		s.discard(ctx, doc)
		if errors.Is(err, models.ErrConflict) {
			return &models.CheckInResult{AlreadyCheckedIn: true}, nil
		}
		return nil, fmt.Errorf("failed to submit check-in: %w", err)
	}

	s.logger.Info("guest checked in",
		zap.Int("property_id", property.ID),
		zap.Bool("passport", doc != nil),
	)

	return &models.CheckInResult{CheckIn: checkIn, PassportURL: req.PassportURL}, nil
}

func (s *CheckInService) discard(ctx context.Context, doc *StoredDocument) {
	if doc == nil {
		return
	}
	if err := s.passports.Delete(ctx, doc.Key); err != nil {
		s.logger.Warn("failed to remove orphaned passport", zap.String("key", doc.Key), zap.Error(err))
	}
}
