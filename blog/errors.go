package blog

import "errors"

// Error kinds. Operations wrap one of these with fmt.Errorf("%w: ...") so
// callers classify failures with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication required")
	ErrConfiguration  = errors.New("configuration error")
	ErrUpstream       = errors.New("upstream error")
	ErrPersistence    = errors.New("persistence error")
	ErrNotFound       = errors.New("not found")
)
