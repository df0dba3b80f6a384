package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"
)

// WaitFor polls probe with a fixed delay until it succeeds or attempts are
// exhausted. Used by the ETL entrypoint to hold the run until both backing
// stores accept connections.
func WaitFor(ctx context.Context, name string, attempts int, delay time.Duration, probe func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = probe(ctx)
		if lastErr == nil {
			log.Printf("[info] %s is ready", name)
			return nil
		}

		if i < attempts {
			log.Printf("[warn] attempt %d/%d: %s not ready, retrying in %s", i, attempts, name, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("%s failed to become ready after %d attempts: %w", name, attempts, lastErr)
}
