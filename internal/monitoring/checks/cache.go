package checks

import (
	"context"
	"time"

	"github.com/charlesng35/track/internal/monitoring"
)

// Pinger is implemented by cache backends that hold a remote connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache returns an optional probe for the rate-limit store. A nil pinger means
// the in-process store is in use.
func Cache(client Pinger, timeout time.Duration) monitoring.Check {
	return monitoring.Check{
		Name: "cache",
		Run: func(ctx context.Context) monitoring.ProbeResult {
			start := time.Now()
			if client == nil {
				return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "in-memory store"}
			}

			probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout))
			defer cancel()
			return monitoring.ResultFromError(client.Ping(probeCtx), time.Since(start))
		},
	}
}
