package driver

import "errors"

var (
	ErrInvalidDuration   = errors.New("invalid duration")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrUnknownProject    = errors.New("unknown project")
	ErrUnknownTask       = errors.New("unknown task")
	ErrMissingCredential = errors.New("missing credential")
	ErrNoSubDrivers      = errors.New("router requires at least one sub-driver")
	ErrUnknownPrefix     = errors.New("unknown driver prefix")
	ErrPrefixMismatch    = errors.New("project and task prefixes name different drivers")
	ErrNotSupported      = errors.New("operation not supported by this driver")
	ErrRangeRequired     = errors.New("both start and finish dates are required")
)
