package runcontext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyRunID        KeyContext = "run_id"
	keyStrategy     KeyContext = "strategy"
	keySource       KeyContext = "source"
	keyRunStartTime KeyContext = "run_start_time"
)

// RunMetadata holds metadata for a segmentation run
type RunMetadata struct {
	RunID     uuid.UUID
	Strategy  string
	Source    string
	StartTime time.Time
}

// RunBegin derives a run context carrying metadata and bounded by timeout.
// A non-positive timeout leaves the parent deadline in place.
func RunBegin(parentCtx context.Context, runID uuid.UUID, strategy, source string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := parentCtx, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, timeout)
	}

	ctx = context.WithValue(ctx, keyRunID, runID)
	ctx = context.WithValue(ctx, keyStrategy, strategy)
	ctx = context.WithValue(ctx, keySource, source)
	ctx = context.WithValue(ctx, keyRunStartTime, time.Now())

	return ctx, cancel
}

// RunEnd executes fn once, converting a panic into an error. Runs are never
// retried here; a failed run resumes from its checkpoints when invoked again.
func RunEnd(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before run execution: %w", ctx.Err())
	}
	return fn(ctx)
}

// GetRunID extracts run ID from context
func GetRunID(ctx context.Context) (uuid.UUID, bool) {
	runID, ok := ctx.Value(keyRunID).(uuid.UUID)
	return runID, ok
}

// GetStrategy extracts strategy name from context
func GetStrategy(ctx context.Context) (string, bool) {
	strategy, ok := ctx.Value(keyStrategy).(string)
	return strategy, ok
}

// GetSource extracts the run source name from context
func GetSource(ctx context.Context) (string, bool) {
	source, ok := ctx.Value(keySource).(string)
	return source, ok
}

// GetRunStartTime extracts run start time from context
func GetRunStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyRunStartTime).(time.Time)
	return startTime, ok
}

// GetRunMetadata extracts all run metadata from context
func GetRunMetadata(ctx context.Context) *RunMetadata {
	runID, _ := GetRunID(ctx)
	strategy, _ := GetStrategy(ctx)
	source, _ := GetSource(ctx)
	startTime, _ := GetRunStartTime(ctx)

	return &RunMetadata{
		RunID:     runID,
		Strategy:  strategy,
		Source:    source,
		StartTime: startTime,
	}
}

// IsTransientError reports whether an error looks like a temporary
// infrastructure failure: network errors, timeouts, rate limits, 5xx.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Context errors (timeout, cancelled)
	if strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "client.timeout exceeded") {
		return true
	}

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "status 429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
