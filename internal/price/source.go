package price

import (
	"context"
	"time"
)

// Source answers a single-symbol price lookup. Implementations must respect
// the context deadline; a failure in one source never blocks the next in
// the fallback chain.
type Source interface {
	Name() string
	Quote(ctx context.Context, symbol string) (float64, time.Time, error)
}
