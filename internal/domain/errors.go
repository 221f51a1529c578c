package domain

import "errors"

var (
	ErrVenueNotFound     = errors.New("venue not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingNotPending = errors.New("booking is not awaiting payment")
	ErrSlotNotFound      = errors.New("one or more slots do not exist")
	ErrSlotNotBookable   = errors.New("some slots are not bookable")
	ErrSlotConflict      = errors.New("one or more slots are not available")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrReviewNotAllowed  = errors.New("user has no confirmed booking for this venue")
	ErrForbidden         = errors.New("forbidden")
)
