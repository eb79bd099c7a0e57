package tensor

import (
	"errors"
	"fmt"

	"tensordep/internal/feature"
)

var (
	ErrInactiveCoordinate  = errors.New("coordinate outside the active range of its node")
	ErrMissingWeight       = errors.New("no learned weight for parameter id")
	ErrTopologyMismatch    = errors.New("code does not fit the tensor topology")
	ErrRegistryOpen        = errors.New("registry must be frozen before routing")
	ErrUnsupportedTopology = errors.New("unsupported tensor topology")
)

// RouteError reports the code and coordinate that stopped a routing pass.
type RouteError struct {
	Code     int64
	Template feature.Template
	Role     string
	Index    int
	Size     int
	Err      error
}

func (e *RouteError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("route code %d (%s): %v", e.Code, e.Template, e.Err)
	}
	return fmt.Sprintf("route code %d (%s): %s index %d of %d: %v", e.Code, e.Template, e.Role, e.Index, e.Size, e.Err)
}

func (e *RouteError) Unwrap() error {
	return e.Err
}
