package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "no owner", err: domain.ErrNotAuthenticated, want: http.StatusUnauthorized},
		{name: "bad date", err: fmt.Errorf("%w: %q", domain.ErrMalformedDate, "x"), want: http.StatusBadRequest},
		{name: "wrong session date", err: domain.ErrSessionDate, want: http.StatusBadRequest},
		{name: "session closed", err: fmt.Errorf("navigation blocked: %w", domain.ErrSessionClosed), want: http.StatusConflict},
		{name: "store down", err: errors.Join(domain.ErrStoreUnavailable, errors.New("refused")), want: http.StatusServiceUnavailable},
		{name: "anything else", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
