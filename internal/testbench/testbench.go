// Package testbench drives queues two ways: a timed throughput run (how many
// messages move in a fixed window) and the sentinel protocol (producers push
// a known range then a terminator; the summed payload proves conservation).
package testbench

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mutouyun/lock-free-queue/internal/queue"
)

// Config is only about concurrency: how many producers, how many consumers.
type Config struct {
	NumProducers int
	NumConsumers int
}

// Sentinel is the per-producer terminator of the sentinel protocol.
const Sentinel int64 = -1

// RunTimedTest spawns producers and consumers that run for the specified
// duration, measuring how many messages are actually pushed/popped in that
// window. Once the window expires, producers stop and each consumer returns
// at its first empty pop; after a short grace period the queue's Quit is
// invoked to release any consumers parked in a blocking Pop. Elements still
// queued at that point are not counted as consumed.
// Returns total produced, total consumed, and the actual elapsed time.
func RunTimedTest[T any, Q queue.Interface[T]](
	q Q,
	cfg Config,
	testDuration time.Duration,
	valueGenerator func(int) T,
) (producedCount int64, consumedCount int64, elapsed time.Duration) {

	ctx, cancel := context.WithTimeout(context.Background(), testDuration)
	defer cancel()

	var totalProduced int64
	var totalConsumed int64

	start := time.Now()

	var msgIndex int64
	var prodWg sync.WaitGroup
	prodWg.Add(cfg.NumProducers)

	var productionDone atomic.Bool

	go func() {
		<-ctx.Done()
		productionDone.Store(true)
	}()

	for i := 0; i < cfg.NumProducers; i++ {
		go func() {
			defer prodWg.Done()
			for !productionDone.Load() {
				idx := atomic.AddInt64(&msgIndex, 1) - 1
				msg := valueGenerator(int(idx))
				if q.Push(msg) {
					atomic.AddInt64(&totalProduced, 1)
				} else {
					// Bounded queue full; give consumers a turn.
					runtime.Gosched()
				}
			}
		}()
	}

	var consWg sync.WaitGroup
	consWg.Add(cfg.NumConsumers)
	for i := 0; i < cfg.NumConsumers; i++ {
		go func() {
			defer consWg.Done()
			for {
				if _, ok := q.Pop(); ok {
					atomic.AddInt64(&totalConsumed, 1)
					continue
				}
				if productionDone.Load() {
					return
				}
				runtime.Gosched()
			}
		}()
	}

	<-ctx.Done()
	prodWg.Wait()

	// Let consumers drain, then release any that are parked in a blocking
	// Pop; for the non-blocking variants Quit is a no-op.
	time.Sleep(100 * time.Millisecond)
	q.Quit()
	consWg.Wait()

	elapsed = time.Since(start)
	producedCount = atomic.LoadInt64(&totalProduced)
	consumedCount = atomic.LoadInt64(&totalConsumed)
	return producedCount, consumedCount, elapsed
}

// RunSentinelTest runs the sentinel protocol: each of cfg.NumProducers
// producers pushes 0..count-1 then Sentinel; consumers pop until all
// sentinels have been seen (a shared counter tracks them), the consumer that
// sees the last one calls Quit, and everyone exits once pops come back
// empty. Returns the sum of all non-sentinel values popped.
func RunSentinelTest[Q queue.Interface[int64]](
	q Q,
	cfg Config,
	count int,
) uint64 {
	var sentinels atomic.Int64
	var total atomic.Uint64

	var prodWg sync.WaitGroup
	prodWg.Add(cfg.NumProducers)
	for i := 0; i < cfg.NumProducers; i++ {
		go func() {
			defer prodWg.Done()
			for v := 0; v < count; v++ {
				for !q.Push(int64(v)) {
					runtime.Gosched()
				}
			}
			for !q.Push(Sentinel) {
				runtime.Gosched()
			}
		}()
	}

	var consWg sync.WaitGroup
	consWg.Add(cfg.NumConsumers)
	for i := 0; i < cfg.NumConsumers; i++ {
		go func() {
			defer consWg.Done()
			for {
				v, ok := q.Pop()
				if !ok {
					if sentinels.Load() >= int64(cfg.NumProducers) {
						return
					}
					runtime.Gosched()
					continue
				}
				if v == Sentinel {
					if sentinels.Add(1) == int64(cfg.NumProducers) {
						q.Quit()
					}
					continue
				}
				total.Add(uint64(v))
			}
		}()
	}

	prodWg.Wait()
	consWg.Wait()
	return total.Load()
}

// SentinelSum is the closed form RunSentinelTest must produce:
// producers × (0 + 1 + … + count-1).
func SentinelSum(numProducers, count int) uint64 {
	n := uint64(count)
	return uint64(numProducers) * (n * (n - 1) / 2)
}
