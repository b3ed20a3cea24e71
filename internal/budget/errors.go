package budget

import "errors"

var (
	ErrSalaryRequired = errors.New("salary is required")
	// ErrSalaryNotNumeric stops a plan for a non-numeric salary from being saved.
	ErrSalaryNotNumeric = errors.New("salary is not a number")
	// ErrProviderUnavailable is returned by the offline provider.
	ErrProviderUnavailable = errors.New("generation provider unavailable")
	ErrEmptyResponse       = errors.New("empty generation response")
)
