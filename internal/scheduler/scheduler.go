// Package scheduler encodes the queue item lifecycle policy: which statuses
// may be claimed, whether a claim consumes a retry, how retry delays grow,
// and when a command is given up on. The policy is pure; repositories apply
// its decisions.
package scheduler

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// Policy carries the retry knobs, threaded from configuration at start-up.
type Policy struct {
	MaxRetries     int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration

	// Jitter returns a uniform duration in [1s, span+1s] given the span
	// delay/10. Tests override it; nil uses the default source.
	Jitter func(span time.Duration) time.Duration
}

// DefaultPolicy returns the stock policy: five retries, 30 s base, one hour
// ceiling.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     5,
		BaseRetryDelay: 30 * time.Second,
		MaxRetryDelay:  3600 * time.Second,
	}
}

// Claimable reports whether an item in the given status may be claimed.
func Claimable(status string) bool {
	switch status {
	case constant.QueueItemPending, constant.QueueItemFailed, constant.QueueItemOCCTimeout:
		return true
	}

	return false
}

// ClaimIncrementsRetry reports whether claiming from the given status
// consumes a scheduler retry. Fresh pending claims do not.
func ClaimIncrementsRetry(status string) bool {
	return Claimable(status) && status != constant.QueueItemPending
}

// Backoff computes the delay before the next retry of an item that failed
// with the given retry_count: clamp(base * 2^retry_count, max) plus uniform
// jitter in [1s, delay/10 + 1s].
func (p Policy) Backoff(retryCount int) time.Duration {
	delay := p.MaxRetryDelay

	// 2^retryCount overflows fast; anything past 30 doublings is already
	// clamped.
	if retryCount >= 0 && retryCount < 31 {
		delay = p.BaseRetryDelay << uint(retryCount)
		if delay <= 0 || delay > p.MaxRetryDelay {
			delay = p.MaxRetryDelay
		}
	}

	return delay + p.jitter(delay/10)
}

// NextRetryAfter returns the wall-clock moment the item becomes ready again.
func (p Policy) NextRetryAfter(now time.Time, retryCount int) time.Time {
	return now.Add(p.Backoff(retryCount))
}

// ShouldDeadLetter reports whether a failing item has exhausted its
// scheduler retries.
func (p Policy) ShouldDeadLetter(retryCount int) bool {
	return retryCount >= p.MaxRetries
}

// DeadLetterMessage renders the terminal diagnostic recorded when the retry
// cap is reached.
func (p Policy) DeadLetterMessage(reason string) string {
	return fmt.Sprintf("Max retry count (%d) exceeded: %s", p.MaxRetries, reason)
}

func (p Policy) jitter(span time.Duration) time.Duration {
	if p.Jitter != nil {
		return p.Jitter(span)
	}

	if span <= 0 {
		return time.Second
	}

	return time.Second + rand.N(span)
}

// Ready reports whether the item is eligible for claiming at the given
// moment. Mirrors the SQL readiness predicate.
func Ready(item *mmodel.CommandQueueItem, now time.Time) bool {
	if !Claimable(item.Status) {
		return false
	}

	return item.NextRetryAfter == nil || !item.NextRetryAfter.After(now)
}

// Stalled reports whether a processing item has been held past the stall
// threshold without completing, meaning its processor died mid-claim.
func Stalled(item *mmodel.CommandQueueItem, now time.Time, threshold time.Duration) bool {
	if item.Status != constant.QueueItemProcessing || item.ProcessingCompletedAt != nil {
		return false
	}

	return item.ProcessingStartedAt != nil && now.Sub(*item.ProcessingStartedAt) > threshold
}
