package provision

import (
	"errors"
	"time"

	pkgErrors "rehook/internal/pkg/errors"
)

// Pacer keeps a minimum spacing between successive API calls and retries calls
// the API has rate limited. The clock functions are swappable so tests can run
// against a fake clock instead of sleeping for real.
type Pacer struct {
	maxRetries int
	now        func() time.Time
	sleep      func(time.Duration)
	last       time.Time
}

func NewPacer(maxRetries int) *Pacer {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Pacer{
		maxRetries: maxRetries,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// Call waits until at least spacing has passed since the previous call, then
// invokes fn. A rate-limit signal is not a failure: the pacer sleeps through
// the signaled cooldown and repeats the same call, up to maxRetries attempts.
func (p *Pacer) Call(spacing time.Duration, fn func() error) error {
	for attempt := 1; ; attempt++ {
		if !p.last.IsZero() {
			if wait := spacing - p.now().Sub(p.last); wait > 0 {
				p.sleep(wait)
			}
		}

		err := fn()
		p.last = p.now()
		if err == nil {
			return nil
		}

		var rl *pkgErrors.RateLimitError
		if !errors.As(err, &rl) || attempt >= p.maxRetries {
			return err
		}
		p.sleep(rl.RetryAfter)
	}
}
