package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Rrens/alap/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrEmptyInput, http.StatusBadRequest},
		{domain.ErrNoPendingDelete, http.StatusBadRequest},
		{fmt.Errorf("%w: abc", domain.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("failed to delete session: %w", domain.ErrSessionNotFound), http.StatusNotFound},
		{domain.ErrTurnInProgress, http.StatusConflict},
		{fmt.Errorf("%w: gemini", domain.ErrProviderNotReady), http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
