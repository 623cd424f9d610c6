package core

import "context"

// Worker is a long-running module component driven by cmd run. Run blocks
// until the context is canceled or the worker fails.
type Worker interface {
	Run(ctx context.Context) error
}
