package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"guest-portal/internal/models"
	"guest-portal/internal/services"
)

// CheckInService records guest check-ins
type CheckInService interface {
	Status(ctx context.Context, accessToken string) (*models.CheckIn, error)
	Submit(ctx context.Context, accessToken string, property *models.Property, form models.CheckInForm, passport []byte) (*models.CheckInResult, error)
}

// CheckInHandler handles the check-in page
type CheckInHandler struct {
	checkIns      CheckInService
	maxUploadSize int64
	logger        *zap.Logger
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(checkIns CheckInService, maxUploadSize int64, logger *zap.Logger) *CheckInHandler {
	return &CheckInHandler{
		checkIns:      checkIns,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// CheckInStatusResponse reports whether the stay is checked in
type CheckInStatusResponse struct {
	CheckedIn bool            `json:"checked_in"`
	CheckIn   *models.CheckIn `json:"check_in,omitempty"`
}

// Status returns the check-in recorded for the access token
func (h *CheckInHandler) Status(w http.ResponseWriter, r *http.Request) {
	_, token := propertyFromContext(r.Context())

	checkIn, err := h.checkIns.Status(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, CheckInStatusResponse{
		CheckedIn: checkIn != nil,
		CheckIn:   checkIn,
	})
}

// Submit handles the multipart check-in form with an optional passport file
func (h *CheckInHandler) Submit(w http.ResponseWriter, r *http.Request) {
	property, token := propertyFromContext(r.Context())

	// Form fields plus the passport itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writePassportError(w, r, h.logger, "Passport file must be smaller than the upload limit")
			return
		}
		writeBadRequest(w, r, "Invalid form data")
		return
	}

	form := models.CheckInForm{
		FullName:    strings.TrimSpace(r.FormValue("full_name")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		PhoneNumber: strings.TrimSpace(r.FormValue("phone_number")),
	}

	passport, ok := h.readPassport(w, r)
	if !ok {
		return
	}

	result, err := h.checkIns.Submit(r.Context(), token, property, form, passport)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyCheckedIn {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// readPassport returns the uploaded passport bytes, nil when no file was sent
func (h *CheckInHandler) readPassport(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	file, header, err := r.FormFile("passport")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		writeBadRequest(w, r, "Invalid passport upload")
		return nil, false
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		writePassportError(w, r, h.logger, "Passport file must be smaller than the upload limit")
		return nil, false
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && !services.IsAllowedPassportType(ct) {
		writePassportError(w, r, h.logger, "Passport must be an image or a PDF")
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeBadRequest(w, r, "Invalid passport upload")
		return nil, false
	}
	return data, true
}

func writePassportError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, message string) {
	errs := models.NewValidationError()
	errs.Add("passport", message)
	writeServiceError(w, r, logger, errs)
}
