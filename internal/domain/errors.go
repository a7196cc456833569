package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user id does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrReferralCodeTaken signals a referral-code collision on insert.
	ErrReferralCodeTaken = errors.New("referral code already taken")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}
