package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Rrens/alap/internal/api/response"
	"github.com/Rrens/alap/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// Request body limits. JSON escaping can grow text several times over, so
// these sit well above the validated field lengths.
const (
	maxSendBody   = 256 << 10
	maxRenderBody = 2 << 20
)

// decodeBody reads a JSON body of at most limit bytes into v and writes the
// error response itself when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		response.BadRequest(w, "invalid request body")
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrNoPendingDelete):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProviderNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	response.Error(w, status, err.Error())
}
