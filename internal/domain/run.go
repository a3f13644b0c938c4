/**
 * @description
 * This file defines the result types returned by one collections run. A run
 * always completes and reports a structured summary; per-invoice failures are
 * collected here rather than aborting the run.
 */

package domain

import (
	"sync"
	"time"
)

// RunError records one invoice that failed after exhausting retries.
type RunError struct {
	InvoiceID string `json:"invoice_id"`
	Error     string `json:"error"`
}

// RunSummary is the aggregated outcome of one collections run.
type RunSummary struct {
	RunID          string     `json:"run_id"`
	ScannedCount   int        `json:"scanned_count"`
	EscalatedCount int        `json:"escalated_count"`
	PausedCount    int        `json:"paused_count"`
	SkippedCount   int        `json:"skipped_count"`
	Errors         []RunError `json:"errors"`
	StartedAt      time.Time  `json:"started_at"`
	DurationMs     int64      `json:"duration_ms"`
}

// RunCounters accumulates per-invoice outcomes while sub-chunks of a batch
// run in parallel. It is the only mutable state shared between workers.
type RunCounters struct {
	mu        sync.Mutex
	escalated int
	paused    int
	skipped   int
	errors    []RunError
}

func (c *RunCounters) AddEscalated() {
	c.mu.Lock()
	c.escalated++
	c.mu.Unlock()
}

func (c *RunCounters) AddPaused() {
	c.mu.Lock()
	c.paused++
	c.mu.Unlock()
}

func (c *RunCounters) AddSkipped() {
	c.mu.Lock()
	c.skipped++
	c.mu.Unlock()
}

func (c *RunCounters) AddError(invoiceID string, err error) {
	c.mu.Lock()
	c.errors = append(c.errors, RunError{InvoiceID: invoiceID, Error: err.Error()})
	c.mu.Unlock()
}

// Snapshot copies the accumulated counts into a summary.
func (c *RunCounters) Snapshot(summary *RunSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	summary.EscalatedCount = c.escalated
	summary.PausedCount = c.paused
	summary.SkippedCount = c.skipped
	summary.Errors = c.errors
	if summary.Errors == nil {
		summary.Errors = []RunError{}
	}
}
