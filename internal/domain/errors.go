package domain

import (
	"errors"
	"fmt"
)

// Error categories. Ports map these to response codes with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrUpstream   = errors.New("upstream error")
)

var (
	ErrMissingEmail        = fmt.Errorf("%w: missing email", ErrValidation)
	ErrInvalidEmail        = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrEmptyUpdate         = fmt.Errorf("%w: no fields to update", ErrValidation)
	ErrInvalidCampaignType = fmt.Errorf("%w: invalid campaign type", ErrValidation)
	ErrInvalidAction       = fmt.Errorf("%w: invalid campaign action", ErrValidation)
	ErrInvalidYear         = fmt.Errorf("%w: invalid year", ErrValidation)

	ErrUserNotFound         = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: notification not found", ErrNotFound)

	ErrUserAlreadyExists = fmt.Errorf("%w: user already exists", ErrConflict)
)
