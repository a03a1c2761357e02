package checkers

import (
	"context"
	"time"
)

// Pinger is implemented by model clients that can verify their credentials
// without generating anything.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ModelChecker struct {
	name   string
	client Pinger
}

// NewModelChecker reports readiness of a model provider under the given name.
func NewModelChecker(name string, client Pinger) *ModelChecker {
	return &ModelChecker{name: name, client: client}
}

func (c *ModelChecker) Name() string { return c.name }

func (c *ModelChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx)
}
