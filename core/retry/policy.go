package retry

import "time"

const (
	DefaultInitialDelay = 2 * time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultMaxAttempts  = 3
)

// Policy bounds an exponential backoff. The delay before retry attempt n
// (1-based) is InitialDelay*2^(n-1), capped at MaxDelay.
type Policy struct {
	InitialDelay time.Duration `json:"initial_delay" mapstructure:"initial_delay" jsonschema:"type=string,default=2s"`
	MaxDelay     time.Duration `json:"max_delay" mapstructure:"max_delay" jsonschema:"type=string,default=10s"`
	MaxAttempts  int           `json:"max_attempts" mapstructure:"max_attempts" jsonschema:"minimum=0,default=3"`
}

func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

func (p Policy) withDefaults() Policy {
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	if p.MaxAttempts < 0 {
		p.MaxAttempts = 0
	}
	return p
}

// Delay returns the wait before the given retry attempt.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return min(delay, p.MaxDelay)
}
