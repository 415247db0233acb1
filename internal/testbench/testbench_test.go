package testbench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mutouyun/lock-free-queue/pkg/lockedqueue"
	"github.com/mutouyun/lock-free-queue/pkg/mpmcring"
)

func TestSentinelSumClosedForm(t *testing.T) {
	assert.Equal(t, uint64(4999950000), SentinelSum(1, 100000))
	assert.Equal(t, uint64(0), SentinelSum(4, 0))
	assert.Equal(t, uint64(4*((10*9)/2)), SentinelSum(4, 10))
}

func TestRunSentinelTestUnbounded(t *testing.T) {
	q := lockedqueue.New[int64]()
	cfg := Config{NumProducers: 4, NumConsumers: 4}
	got := RunSentinelTest(q, cfg, 5000)
	assert.Equal(t, SentinelSum(4, 5000), got)
}

func TestRunSentinelTestBounded(t *testing.T) {
	q := mpmcring.New[int64]()
	cfg := Config{NumProducers: 4, NumConsumers: 4}
	got := RunSentinelTest(q, cfg, 5000)
	assert.Equal(t, SentinelSum(4, 5000), got)
}

func TestRunTimedTestConservesCounts(t *testing.T) {
	q := lockedqueue.New[int64]()
	cfg := Config{NumProducers: 2, NumConsumers: 2}
	produced, consumed, elapsed := RunTimedTest[int64](
		q, cfg, 200*time.Millisecond,
		func(i int) int64 { return int64(i) },
	)
	assert.Positive(t, produced)
	assert.LessOrEqual(t, consumed, produced)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
}
