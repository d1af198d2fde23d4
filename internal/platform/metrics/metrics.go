package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps coarse request and payroll counters. Everything is
// atomics, safe for concurrent use.
type Collector struct {
	totalRequests    uint64
	errorRequests    uint64
	totalDurationMs  uint64
	payrollsComputed uint64
	payrollsFailed   uint64
	runsProcessed    uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordRun accumulates the outcome of one batch run.
func (c *Collector) RecordRun(processed, failed int) {
	atomic.AddUint64(&c.runsProcessed, 1)
	atomic.AddUint64(&c.payrollsComputed, uint64(processed))
	atomic.AddUint64(&c.payrollsFailed, uint64(failed))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"payrollsComputed": atomic.LoadUint64(&c.payrollsComputed),
		"payrollsFailed":   atomic.LoadUint64(&c.payrollsFailed),
		"runsProcessed":    atomic.LoadUint64(&c.runsProcessed),
	}
}
