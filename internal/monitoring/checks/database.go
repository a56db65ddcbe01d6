package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/monitoring"
)

const defaultTimeout = 2 * time.Second

// Database returns a critical probe that pings the gorm connection pool.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.Check{
		Name:     "database",
		Critical: true,
		Run: func(ctx context.Context) monitoring.ProbeResult {
			start := time.Now()
			if db == nil {
				return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
			}
			sqlDB, err := db.DB()
			if err != nil {
				return monitoring.ResultFromError(err, time.Since(start))
			}

			probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout))
			defer cancel()
			return monitoring.ResultFromError(sqlDB.PingContext(probeCtx), time.Since(start))
		},
	}
}

func chooseTimeout(provided time.Duration) time.Duration {
	if provided <= 0 {
		return defaultTimeout
	}
	return provided
}
