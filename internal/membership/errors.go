package membership

import "errors"

// Input validation failures. No side effects; the caller can correct and
// resubmit.
var (
	ErrNameRequired   = errors.New("name is required")
	ErrMemberRequired = errors.New("member name is required")
	ErrTypeInvalid    = errors.New("redemption type must be Cash or Product")
	ErrQtyNotPositive = errors.New("quantity must be greater than zero")
)

// Business rule failures. No side effects either, but the fix is a state
// change rather than a different payload.
var (
	ErrDuplicateMember     = errors.New("member is already registered")
	ErrSponsorNotFound     = errors.New("sponsor not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
