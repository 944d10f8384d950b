package validation

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/impulsebot-io/solana-rpc-validator/common"
	"github.com/impulsebot-io/solana-rpc-validator/config"
)

// Prober performs a single liveness check against one RPC address.
type Prober interface {
	Probe(address string) bool
}

// Validator drives probes over a candidate host list in fixed-size batches.
// Batches run strictly in sequence; probes within a batch run concurrently,
// so peak in-flight probes never exceed the batch size.
type Validator struct {
	prober    Prober
	batchSize int
}

func NewValidator(prober Prober, cfg *config.Config) *Validator {
	return &Validator{
		prober:    prober,
		batchSize: cfg.MaxConcurrentTests,
	}
}

// Validate probes every address and returns the ones that answered, in input
// order. Probe completion order never leaks into the result: each task writes
// only its own slot of the batch outcome slice, and slots are harvested in
// order once the whole batch has settled.
func (v *Validator) Validate(addresses []string) []string {
	if len(addresses) == 0 {
		return []string{}
	}

	pool, err := common.NewPool(common.PoolConfig{MaxWorkers: v.batchSize})
	if err != nil {
		log.Errorf("Failed to create probe pool: %v", err)
		return []string{}
	}
	defer pool.Release()

	total := len(addresses)
	log.Infof("Validating %d candidate hosts in batches of %d", total, v.batchSize)

	var (
		progressLock sync.Mutex
		settled      int
	)
	markSettled := func() int {
		progressLock.Lock()
		defer progressLock.Unlock()
		settled++
		return settled
	}

	validated := make([]string, 0, total)

	for start := 0; start < total; start += v.batchSize {
		end := start + v.batchSize
		if end > total {
			end = total
		}
		batch := addresses[start:end]

		outcomes := make([]bool, len(batch))
		var wg sync.WaitGroup

		for i, address := range batch {
			wg.Add(1)

			// Capture per task
			slot := i
			addressCopy := address

			if err := pool.Submit(func() {
				defer wg.Done()
				outcomes[slot] = v.prober.Probe(addressCopy)
				log.Infof("Probe progress: %d/%d", markSettled(), total)
			}); err != nil {
				// Submit failed — compensate wg and count the task as
				// settled-failed. This avoids wg.Wait deadlock.
				wg.Done()
				log.Warnf("Failed to submit probe task for %s: %v (%d/%d)",
					addressCopy, err, markSettled(), total)
			}
		}

		// Batch barrier: every probe in this batch settles before the next
		// batch starts.
		wg.Wait()

		for i, alive := range outcomes {
			if alive {
				validated = append(validated, batch[i])
			}
		}
	}

	log.Infof("Validation completed: %d total, %d alive, %d dead",
		total, len(validated), total-len(validated))

	return validated
}
