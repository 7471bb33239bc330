package domain

import "errors"

var (
	ErrNotFound                = errors.New("order not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrForbidden               = errors.New("operation not permitted for this actor")
	ErrRateLimited             = errors.New("order limit reached for this client")
	ErrValidation              = errors.New("validation failed")
)
