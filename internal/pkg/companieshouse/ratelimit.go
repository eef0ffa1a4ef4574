package companieshouse

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"accounts/internal/metrics"

	"github.com/rs/zerolog"
)

const (
	HeaderRateLimitRemain = "X-Ratelimit-Remain"
	HeaderRateLimitReset  = "X-Ratelimit-Reset"

	DefaultRateLimitThreshold = 10
	DefaultRateLimitPause     = 360 * time.Second
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RateLimitState is what the registry reported about the current window.
type RateLimitState struct {
	Remaining int
	// ResetAt is zero when the reset header is missing or unreadable.
	ResetAt time.Time
}

// ParseRateLimit reads the rate limit headers. ok is false when the remaining
// header is absent or not a number.
func ParseRateLimit(headers http.Header) (state RateLimitState, ok bool) {
	remain, err := strconv.Atoi(headers.Get(HeaderRateLimitRemain))
	if err != nil {
		return RateLimitState{}, false
	}
	state.Remaining = remain

	if reset, err := strconv.ParseInt(headers.Get(HeaderRateLimitReset), 10, 64); err == nil {
		state.ResetAt = time.Unix(reset, 0)
	}

	return state, true
}

// RateLimiter pauses the caller for a fixed duration once the registry reports
// Threshold or fewer requests left in the window. It never retries anything;
// it only delays whatever the caller does next.
type RateLimiter struct {
	Threshold int
	Pause     time.Duration

	sleep  SleepFunc
	logger zerolog.Logger
}

func NewRateLimiter(threshold int, pause time.Duration, sleep SleepFunc) *RateLimiter {
	if sleep == nil {
		sleep = sleepContext
	}
	return &RateLimiter{
		Threshold: threshold,
		Pause:     pause,
		sleep:     sleep,
		logger:    zerolog.Nop(),
	}
}

// Observe inspects a response's headers and blocks for the pause when the
// window is nearly exhausted. It returns true if it paused.
func (l *RateLimiter) Observe(ctx context.Context, headers http.Header) (bool, error) {
	state, ok := ParseRateLimit(headers)
	if !ok {
		return false, nil
	}

	metrics.RateLimitRemaining.Set(float64(state.Remaining))
	if state.Remaining > l.Threshold {
		return false, nil
	}

	metrics.RateLimitPausesTotal.Inc()
	event := l.logger.Warn().
		Int("remaining", state.Remaining).
		Dur("pause", l.Pause)
	if !state.ResetAt.IsZero() {
		event = event.Time("reset_at", state.ResetAt)
	}
	event.Msg("hit the registry rate limit, pausing")

	if err := l.sleep(ctx, l.Pause); err != nil {
		return true, err
	}

	l.logger.Info().Msg("resuming after rate limit pause")
	return true, nil
}
