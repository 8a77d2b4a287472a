package core

import (
	"errors"
	"fmt"

	"github.com/neroduckale/TestifyBoyfriend/internal/domain"
)

// Validation rejections: normal negative outcomes, no state was
// mutated. Surfaced to the operator as feedback, never logged as
// failures.
var (
	ErrAlreadyMuted       = errors.New("member already muted")
	ErrNotMuted           = errors.New("member not muted")
	ErrDurationOutOfRange = errors.New("native timeout duration must be within (0, 28d]")
	ErrBotTimeout         = errors.New("bot accounts cannot be natively timed out")
	ErrAlreadyBanned      = errors.New("member already banned")
	ErrNotBanned          = errors.New("member not banned")
	ErrRestrictionActive  = errors.New("restriction has not elapsed yet")
)

var validation = []error{
	ErrAlreadyMuted,
	ErrNotMuted,
	ErrDurationOutOfRange,
	ErrBotTimeout,
	ErrAlreadyBanned,
	ErrNotBanned,
	ErrRestrictionActive,
}

// IsValidation reports whether err is a user-facing rejection rather
// than a transient failure or an invariant violation.
func IsValidation(err error) bool {
	for _, v := range validation {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// InvariantError is a fatal programming-level fault: the upstream feed
// delivered something that cannot happen under a correct feed. It
// aborts handling of the one event it occurred in and must never be
// swallowed.
type InvariantError struct {
	Guild  domain.GuildID
	User   domain.UserID
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated for %s/%s: %s", e.Guild, e.User, e.Detail)
}

// IsInvariant reports whether err carries an InvariantError.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
