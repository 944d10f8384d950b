package common

import (
	"github.com/panjf2000/ants/v2"
)

type PoolConfig struct {
	MaxWorkers int
}

// NewPool creates a bounded goroutine pool for probe tasks.
func NewPool(config PoolConfig) (*ants.Pool, error) {
	pool, err := ants.NewPool(config.MaxWorkers)
	if err != nil {
		return nil, err
	}

	return pool, nil
}
