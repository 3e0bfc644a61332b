package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"guest-portal/internal/models"
)

const (
	// DefaultMaxPassportSize is the upload limit for passport documents
	DefaultMaxPassportSize = 5 << 20

	passportMaxDimension = 2000
	passportJPEGQuality  = 85
	passportMaxPixels    = 50_000_000
)

var pdfMagic = []byte("%PDF-")

// StoredDocument identifies an uploaded document
type StoredDocument struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// PassportService validates, normalises and stores passport scans
type PassportService struct {
	storage StorageService
	maxSize int64
	logger  *zap.Logger
}

// NewPassportService creates a passport service. maxSize <= 0 uses DefaultMaxPassportSize.
func NewPassportService(storage StorageService, maxSize int64, logger *zap.Logger) *PassportService {
	if maxSize <= 0 {
		maxSize = DefaultMaxPassportSize
	}
	return &PassportService{
		storage: storage,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Upload stores a passport for a property. PDFs are kept as they are; images are
// rotated upright, bounded to 2000px and re-encoded as JPEG.
func (s *PassportService) Upload(ctx context.Context, propertyID int, data []byte) (*StoredDocument, error) {
	body, contentType, ext, err := s.prepare(data)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("passports/%d/%s.%s", propertyID, uuid.New().String(), ext)
	size := int64(len(body))

	url, err := s.storage.Upload(ctx, key, bytes.NewReader(body), contentType, size)
	if err != nil {
		return nil, fmt.Errorf("failed to store passport: %w", err)
	}

	return &StoredDocument{Key: key, URL: url, ContentType: contentType, Size: size}, nil
}

// Delete removes a stored passport
func (s *PassportService) Delete(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

func (s *PassportService) prepare(data []byte) ([]byte, string, string, error) {
	if len(data) == 0 {
		return nil, "", "", passportError("Passport file is empty")
	}
	if int64(len(data)) > s.maxSize {
		return nil, "", "", passportError(fmt.Sprintf("File size must be less than %dMB", s.maxSize>>20))
	}

	if bytes.HasPrefix(data, pdfMagic) {
		return data, "application/pdf", "pdf", nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		s.logger.Debug("rejected passport upload", zap.Error(err))
		return nil, "", "", passportError("Please upload an image or PDF file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > passportMaxPixels {
		return nil, "", "", passportError("Image dimensions are too large")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		s.logger.Debug("rejected passport upload", zap.Error(err))
		return nil, "", "", passportError("Please upload an image or PDF file")
	}

	img = imaging.Fit(img, passportMaxDimension, passportMaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(passportJPEGQuality)); err != nil {
		return nil, "", "", fmt.Errorf("failed to encode passport image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", "jpg", nil
}

func passportError(message string) error {
	errs := models.NewValidationError()
	errs.Add("passport", message)
	return errs
}

// IsAllowedPassportType reports whether a declared content type may be a passport
func IsAllowedPassportType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	return contentType == "" ||
		contentType == "application/octet-stream" ||
		contentType == "application/pdf" ||
		strings.HasPrefix(contentType, "image/")
}
