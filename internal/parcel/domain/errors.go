package domain

import "errors"

var (
	ErrInvalidTransition     = errors.New("invalid_transition")
	ErrMissingRequiredField  = errors.New("missing_required_field")
	ErrPackageNotFound       = errors.New("package_not_found")
	ErrGuideNumberTaken      = errors.New("guide_number_taken")
	ErrNoFreeSlot            = errors.New("no_free_slot")
	ErrTrackingCodeExhausted = errors.New("tracking_code_exhausted")
)
