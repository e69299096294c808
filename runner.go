package wash

import (
	"context"
	"errors"
)

// Runner drives one instance of a WebAssembly Services Module: it
// invokes the guest's entry function and hands its result back to the
// caller.
//
// The structure of a Runner is as follows:
//
//	       run  +------------------+ balance / order_hosting
//	      ----->|      invoke      |------------------------>
//	Caller      |    WebAssembly   |                          Accounts
//	      <-----|      return      |<------------------------
//	            +------------------+
//	                   Runner
type Runner interface {
	// Run invokes the entry function of the WebAssembly Services
	// Module once and returns its result, the final balance of the
	// bound user in cents.
	Run() (int64, error)

	// Close releases the WebAssembly instance driven by this Runner.
	// A Runner is single-use: it cannot be run again after Close.
	Close() error

	mustEmbedUnimplementedRunner()
}

type newRunnerFunc func(context.Context, *Config) (Runner, error)

var (
	knownRunnerVersions = make(map[string]newRunnerFunc)

	ErrRunnerAlreadyRegistered = errors.New("wash: runner already registered")
	ErrRunnerVersionNotFound   = errors.New("wash: runner version not found")
	ErrUnimplementedRunner     = errors.New("wash: unimplemented runner")

	_ Runner = (*UnimplementedRunner)(nil) // type guard
)

// UnimplementedRunner is a Runner that always returns errors.
//
// It is used to ensure forward compatibility of the Runner interface.
type UnimplementedRunner struct{}

// Run implements Runner.Run().
func (*UnimplementedRunner) Run() (int64, error) {
	return 0, ErrUnimplementedRunner
}

// Close implements Runner.Close().
func (*UnimplementedRunner) Close() error {
	return ErrUnimplementedRunner
}

// mustEmbedUnimplementedRunner is a function that developers cannot
// manually implement. It is used to ensure forward compatibility of
// the Runner interface.
func (*UnimplementedRunner) mustEmbedUnimplementedRunner() {} //nolint:unused

// RegisterWSMRunner is used by services module drivers (e.g.,
// `services/v0`) to register a function that spawns a new [Runner]
// from a given [Config] for a specific version.
//
// This is not a part of the WASH API and should not be used by
// developers wishing to integrate WASH into their applications.
func RegisterWSMRunner(version string, runner newRunnerFunc) error {
	if _, ok := knownRunnerVersions[version]; ok {
		return ErrRunnerAlreadyRegistered
	}
	knownRunnerVersions[version] = runner
	return nil
}

// NewRunner creates a new [Runner] from the given [Config].
//
// It automatically detects the version of the WebAssembly Services
// Module specified in the config.
//
// Deprecated: use NewRunnerWithContext instead.
func NewRunner(c *Config) (Runner, error) {
	return NewRunnerWithContext(context.Background(), c)
}

// NewRunnerWithContext creates a new [Runner] from the [Config] with
// the given [context.Context].
//
// It automatically detects the version of the WebAssembly Services
// Module specified in the config.
//
// The context is passed to [NewCoreWithContext] and the registered
// versioned runner creation function to control the lifetime of the
// calls into the WebAssembly module.
// If the context is canceled or reaches its deadline, any current and
// future function call will return with an error.
// Call [WazeroRuntimeConfigFactory.SetCloseOnContextDone] with false to
// disable this behavior.
func NewRunnerWithContext(ctx context.Context, c *Config) (Runner, error) {
	core, err := NewCoreWithContext(ctx, c)
	if err != nil {
		return nil, err
	}
	defer core.Close() // this Core is only used to scan the exports

	// Search through all exported names and match them to potential
	// Runner versions.
	for exportName := range core.Exports() {
		if f, ok := knownRunnerVersions[exportName]; ok {
			return f(ctx, c)
		}
	}

	return nil, ErrRunnerVersionNotFound
}
