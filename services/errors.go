package services

import (
	"errors"
	"fmt"

	"home-service-server/models"
)

var (
	// ErrNotFound means the referenced booking, partner or service does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor attempted an action outside their role,
	// rejected before any state mutation.
	ErrForbidden = errors.New("forbidden")

	// ErrPartnerNoLongerAvailable means the commit-time re-check lost the
	// double-booking race. The caller must re-rank and prompt re-selection,
	// not retry the same partner.
	ErrPartnerNoLongerAvailable = errors.New("partner no longer available")

	// ErrStoreUnavailable means a backing-store read failed. Availability is
	// then unknown and every caller must resolve toward "unavailable".
	ErrStoreUnavailable = errors.New("booking store unavailable")

	// ErrInvalidInput covers malformed booking requests (past slot, bad
	// coordinates) rejected before touching the store.
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidTransitionError reports a status change that violates the lifecycle
// graph, carrying both statuses so the caller can render a precise message.
type InvalidTransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition from %q to %q", e.From, e.To)
}

// AsInvalidTransition unwraps err into an InvalidTransitionError if it is one.
func AsInvalidTransition(err error) (*InvalidTransitionError, bool) {
	var ite *InvalidTransitionError
	if errors.As(err, &ite) {
		return ite, true
	}
	return nil, false
}
