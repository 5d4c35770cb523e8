package catalog

import "errors"

// Lookup misses. These are not transport errors: the catalog answered, the
// name simply is not in it.
var (
	ErrUnknownService  = errors.New("unknown service")
	ErrUnknownAction   = errors.New("unknown action")
	ErrUnknownResource = errors.New("unknown resource")
)

// ErrUpstream marks a catalog-unavailable failure: network error, non-2xx
// status, or an unparseable body. Callers match it with errors.Is.
var ErrUpstream = errors.New("catalog unavailable")

// IsNotFound reports whether err is one of the lookup-miss errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownService) ||
		errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrUnknownResource)
}
