// Package v0 implements the version 0 API of the WebAssembly Services
// Module: a guest importing the `host` module's billing functions and
// exporting a single `run` entry function.
package v0

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/hosting-systems/wash"
	"github.com/hosting-systems/wash/billing"
	"github.com/hosting-systems/wash/internal/log"
	"github.com/hosting-systems/wash/money"
)

const (
	// HostModuleName is the import module namespace under which the
	// billing host functions are exposed to the guest.
	HostModuleName = "host"

	// RunFunctionName is the entry function a v0 services module must
	// export. It is invoked by the host instead of a conventional
	// start function.
	RunFunctionName = "run"
)

// ServicesModule acts like a "managed core". It provides the
// WebAssembly Services Module API-facing functions and utilities
// that are exclusive to version 0.
type ServicesModule struct {
	core      wash.Core
	coreMutex sync.RWMutex

	// _run invokes the guest's entry function once.
	//
	// The guest is expected to order services through the imported
	// host functions and return the final balance of its user, in
	// cents, as an i64.
	_run func() (int64, error) // run() -> (balance i64)

	// the billing state this instance operates on, resolved from the
	// config at upgrade time.
	store       *billing.Store
	user        billing.UserID
	pricePerDay money.Unit

	closeOnce sync.Once
}

// UpgradeCore upgrades a wash.Core to a v0 ServicesModule.
func UpgradeCore(core wash.Core) *ServicesModule {
	wasm := &ServicesModule{
		core:        core,
		store:       core.Config().AccountStore,
		user:        core.Config().User,
		pricePerDay: core.Config().PricePerDayOrDefault(),
	}

	if wasm.store == nil {
		log.LErrorf(core.Logger(), "wash: no account store is provided in config")
		return nil
	}

	if err := core.WASIPreview1(); err != nil {
		log.LErrorf(core.Logger(), "wash: WASI preview 1 is not supported: %v", err)
		return nil
	}

	// SetFinalizer, so Go GC automatically cleans up the WASM runtime
	// associated with this ServicesModule when it is garbage
	// collected.
	runtime.SetFinalizer(wasm, func(sm *ServicesModule) {
		sm.Close()
	})

	return wasm
}

// Initialize initializes the v0 services module by linking the billing
// host functions, instantiating the WebAssembly module, and resolving
// its entry function.
//
// All other imports must be set before calling this function.
func (sm *ServicesModule) Initialize() error {
	if sm.Core() == nil {
		return fmt.Errorf("wash: core is not initialized")
	}

	if err := sm.linkHostFunctions(); err != nil {
		return err
	}

	// instantiate the WASM module
	if err := sm.Core().Instantiate(); err != nil {
		return err
	}

	coreCtx := sm.Core().Context()

	// run
	run := sm.Core().ExportedFunction(RunFunctionName)
	if run == nil {
		return fmt.Errorf("wash: WebAssembly module does not export %s: %w",
			RunFunctionName, wash.ErrExportNotFound)
	}

	// check signature:
	//  run() -> (balance i64)
	if len(run.Definition().ParamTypes()) != 0 {
		return fmt.Errorf("wash: %s function expects 0 argument, got %d",
			RunFunctionName, len(run.Definition().ParamTypes()))
	}

	if len(run.Definition().ResultTypes()) != 1 {
		return fmt.Errorf("wash: %s function expects 1 result, got %d",
			RunFunctionName, len(run.Definition().ResultTypes()))
	} else if run.Definition().ResultTypes()[0] != api.ValueTypeI64 {
		return fmt.Errorf("wash: %s function expects result type i64, got %s",
			RunFunctionName, api.ValueTypeName(run.Definition().ResultTypes()[0]))
	}

	sm._run = func() (int64, error) {
		ret, err := run.Call(coreCtx)
		if err != nil {
			return 0, fmt.Errorf("wash: calling %s function returned error: %w",
				RunFunctionName, err)
		}

		return int64(ret[0]), nil
	}

	return nil
}

// linkHostFunctions registers the v0 billing host functions with the
// core. A guest is free to import only a subset of them, so
// ErrFuncNotImported is tolerated.
func (sm *ServicesModule) linkHostFunctions() error {
	core := sm.Core()

	// host.balance() -> (balance i64)
	//
	// Returns the balance of the bound user in cents. The account is
	// validated at Runner creation; a lookup failure here means the
	// store was mutated behind our back, which is logged and surfaces
	// as a zero balance.
	balanceFunc := func() int64 {
		balance, err := sm.store.Balance(sm.user)
		if err != nil {
			log.LErrorf(core.Logger(), "wash: balance lookup for user %d: %v", sm.user, err)
			return 0
		}
		return balance.Cents()
	}

	if err := core.ImportFunction(HostModuleName, "balance", balanceFunc); err != nil {
		if !errors.Is(err, wash.ErrFuncNotImported) {
			return fmt.Errorf("wash: linking balance function, (wash.Core).ImportFunction: %w", err)
		}
	}

	// host.order_hosting(days i32) -> (err i32)
	//
	// Orders days of hosting for the bound user and returns a
	// billing.Code: 0 on success, the ABI error code otherwise.
	orderHostingFunc := func(days int32) int32 {
		err := sm.store.OrderHosting(sm.user, days, sm.pricePerDay)
		if err != nil {
			log.LDebugf(core.Logger(), "wash: order_hosting(%d) for user %d: %v", days, sm.user, err)
		}
		return int32(billing.CodeOf(err))
	}

	if err := core.ImportFunction(HostModuleName, "order_hosting", orderHostingFunc); err != nil {
		if !errors.Is(err, wash.ErrFuncNotImported) {
			return fmt.Errorf("wash: linking order_hosting function, (wash.Core).ImportFunction: %w", err)
		}
	}

	return nil
}

// Run invokes the guest's entry function once and returns its result.
func (sm *ServicesModule) Run() (int64, error) {
	if sm._run == nil {
		return 0, fmt.Errorf("wash: services module is not initialized")
	}

	return sm._run()
}

// User returns the user this instance acts on behalf of.
func (sm *ServicesModule) User() billing.UserID {
	return sm.user
}

// Cleanup clears the saved entry function.
func (sm *ServicesModule) Cleanup() {
	sm._run = nil
}

func (sm *ServicesModule) Close() error {
	var err error

	sm.closeOnce.Do(func() {
		sm.Cleanup()
		sm.coreMutex.Lock()
		if sm.core != nil {
			err = sm.core.Close()
			sm.core = nil
		}
		sm.coreMutex.Unlock()
	})

	return err
}

func (sm *ServicesModule) Core() wash.Core {
	sm.coreMutex.RLock()
	defer sm.coreMutex.RUnlock()
	return sm.core
}
