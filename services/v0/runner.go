package v0

import (
	"context"
	"errors"
	"fmt"

	"github.com/hosting-systems/wash"
	"github.com/hosting-systems/wash/billing"
)

func init() {
	err := wash.RegisterWSMRunner(RunFunctionName, NewRunnerWithContext)
	if err != nil {
		panic(err)
	}
}

// Runner implements wash.Runner utilizing the WSM API v0.
//
// A Runner instantiates the WebAssembly Services Module once, bound to
// the user specified in the config, and invokes its entry function on
// Run.
type Runner struct {
	sm *ServicesModule

	wash.UnimplementedRunner // embedded to ensure forward compatibility
}

// NewRunner creates a new [wash.Runner] from the given [wash.Config].
//
// Deprecated: use [NewRunnerWithContext] instead.
func NewRunner(c *wash.Config) (wash.Runner, error) {
	return NewRunnerWithContext(context.Background(), c)
}

// NewRunnerWithContext creates a new [wash.Runner] from the given
// [wash.Config] with the given [context.Context].
//
// The context is passed to [wash.NewCoreWithContext] to control the
// lifetime of the function calls into the WebAssembly module.
func NewRunnerWithContext(ctx context.Context, c *wash.Config) (wash.Runner, error) {
	if c == nil {
		return nil, fmt.Errorf("wash: running with nil config is not allowed")
	}
	config := c.Clone()

	// The bound account must exist before the guest gets a chance to
	// call into the host.
	store := config.AccountStoreOrPanic()
	if _, err := store.Get(config.User); err != nil {
		if errors.Is(err, billing.ErrAccountNotFound) {
			return nil, fmt.Errorf("wash: user %d has no account in the store: %w", config.User, err)
		}
		return nil, err
	}

	core, err := wash.NewCoreWithContext(ctx, config)
	if err != nil {
		return nil, err
	}

	sm := UpgradeCore(core)
	if sm == nil {
		core.Close()
		return nil, fmt.Errorf("wash: failed to upgrade core to a v0 services module")
	}

	if err := sm.Initialize(); err != nil {
		sm.Close()
		return nil, err
	}

	return &Runner{sm: sm}, nil
}

// Run implements [wash.Runner].
func (r *Runner) Run() (int64, error) {
	if r.sm == nil {
		return 0, fmt.Errorf("wash: running with nil services module is not allowed")
	}

	return r.sm.Run()
}

// Close implements [wash.Runner].
func (r *Runner) Close() error {
	if r.sm == nil {
		return nil
	}

	return r.sm.Close()
}
