// Package cache holds small in-process caches with expiry.
package cache

import (
	"context"
	"time"

	"expenses/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps expired entries from registered caches.
type Janitor struct {
	caches []Cleaner
	logger *log.Logger
}

func NewJanitor(logger *log.Logger, caches ...Cleaner) *Janitor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Janitor{caches: caches, logger: logger.WithComponent(log.ComponentCache)}
}

// Run sweeps every interval until ctx is done. It always returns nil so it
// can run inside an errgroup.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.Debug("Expired cache entries removed", log.FieldCount, n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Sweep cleans every registered cache once and returns the total removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}
