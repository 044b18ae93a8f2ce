package catalog

import (
	"fmt"

	"sapsdispatch/internal/services"
)

// ErrNotFound reports a missing task or job.
var ErrNotFound = fmt.Errorf("catalog: %w", services.ErrNotFound)
