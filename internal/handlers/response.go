package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"guest-portal/internal/middleware"
	"guest-portal/internal/models"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error     string              `json:"error"`
	Fields    map[string][]string `json:"fields,omitempty"`
	Redirect  string              `json:"redirect,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	resp.RequestID = middleware.GetRequestID(r.Context())
	writeJSON(w, status, resp)
}

// writeServiceError maps an error kind onto a status code and guest-facing message
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var verr *models.ValidationError
	var perr *models.PaymentError

	switch {
	case errors.As(err, &verr):
		writeErrorJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "Please correct the highlighted fields",
			Fields: verr.Fields,
		})
	case errors.Is(err, models.ErrPropertyNotFound):
		writeErrorJSON(w, r, http.StatusNotFound, ErrorResponse{
			Error:    "Invalid or expired access link",
			Redirect: "/",
		})
	case errors.Is(err, models.ErrAccessDenied):
		writeErrorJSON(w, r, http.StatusUnauthorized, ErrorResponse{
			Error:    "Access denied",
			Redirect: "/",
		})
	case errors.Is(err, models.ErrEmptyCart):
		resp := ErrorResponse{Error: "No items in cart", Redirect: dashboardPath(r)}
		if errors.Is(err, models.ErrCorruptCart) {
			resp.Error = corruptCartNotice
		}
		writeErrorJSON(w, r, http.StatusConflict, resp)
	case errors.As(err, &perr):
		logger.Warn("payment failed", zap.String("reason", perr.Reason), zap.Error(perr.Err))
		writeErrorJSON(w, r, http.StatusPaymentRequired, ErrorResponse{Error: perr.Reason})
	case errors.Is(err, models.ErrValidation):
		writeErrorJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{Error: "The request was rejected. Please check your details."})
	case errors.Is(err, models.ErrUpsellNotFound):
		writeErrorJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "Service not found"})
	case errors.Is(err, models.ErrOrderNotFound), errors.Is(err, models.ErrNotFound):
		writeErrorJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "Not found"})
	case errors.Is(err, models.ErrInvalidTransition):
		writeErrorJSON(w, r, http.StatusConflict, ErrorResponse{Error: "This action is not available at the current checkout step"})
	case errors.Is(err, models.ErrConflict):
		writeErrorJSON(w, r, http.StatusConflict, ErrorResponse{Error: "Conflict"})
	case errors.Is(err, models.ErrUpstream), errors.Is(err, models.ErrCorruptState):
		logger.Error("backend unavailable", zap.Error(err), zap.String("request_id", middleware.GetRequestID(r.Context())))
		writeErrorJSON(w, r, http.StatusBadGateway, ErrorResponse{Error: "The service is temporarily unavailable. Please try again."})
	default:
		logger.Error("request failed", zap.Error(err), zap.String("request_id", middleware.GetRequestID(r.Context())))
		writeErrorJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong. Please try again."})
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeErrorJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: message})
}
