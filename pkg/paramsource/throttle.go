package paramsource

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// ThrottledSource caps the rate of Get calls against a remote source shared
// by many scorer processes. Waiting honours the caller's context.
type ThrottledSource struct {
	Source
	limiter *rate.Limiter
}

// Throttle wraps src so it serves at most rps reads per second with the given
// burst. A non-positive rps returns src unchanged.
func Throttle(src Source, rps float64, burst int) Source {
	if src == nil || rps <= 0 {
		return src
	}
	if burst < 1 {
		burst = 1
	}
	return &ThrottledSource{Source: src, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (s *ThrottledSource) Get(ctx context.Context, file string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limit: %w", s.Name(), err)
	}
	return s.Source.Get(ctx, file)
}

// Close closes the wrapped source.
func (s *ThrottledSource) Close() error {
	return Close(s.Source)
}

// Unwrap returns the wrapped source.
func (s *ThrottledSource) Unwrap() Source { return s.Source }
