package health

import "context"

// StorePinger checks persistence backend availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}
