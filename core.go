package wash

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/karelbilek/wazero-fs-tools/memfs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/hosting-systems/wash/internal/log"
)

const (
	// GuestConfDir is the guest path where the services module config
	// filesystem is preopened.
	GuestConfDir = "/conf"

	// GuestConfFile is the name of the services module config file
	// inside GuestConfDir.
	GuestConfFile = "wsm.json"
)

// Core provides the WASM runtime base and is an interface
// of a certain set of essential functionalities.
//
// Core is not versioned and not subject to breaking changes
// unless a severe bug needs to be fixed in a breaking way.
type Core interface {
	// Config returns the Config used to create the Core.
	//
	// Practically, this function is not supposed to be used
	// to retrieve the Config to be reused, but rather to
	// read the fields of the Config, or call its methods.
	Config() *Config

	// Context returns the base context used by the Core.
	Context() context.Context

	// Exports returns all export names and their function definitions
	// declared by the WebAssembly Services Module.
	Exports() map[string]api.FunctionDefinition

	// ExportedFunction returns the exported function with the given
	// name, or nil if the module is not instantiated yet or does not
	// export it.
	ExportedFunction(name string) api.Function

	// ImportFunction registers a host function f under the given
	// module and function name, to be linked when the module is
	// instantiated.
	//
	// It returns ErrFuncNotImported if the WebAssembly Services
	// Module does not import the named function,
	// ErrDuplicateHostFunction if a host function is already
	// registered under the name, and ErrAlreadyInstantiated if the
	// module is already instantiated.
	ImportFunction(module, name string, f any) error

	// Instantiate links all registered host functions and WASI (if
	// enabled) into the WebAssembly Services Module and instantiates
	// it.
	//
	// Unless FEATURE_TOLERANT_IMPORTS is set, every import of the
	// module must be satisfiable or Instantiate fails with an error
	// wrapping ErrUnknownImport.
	Instantiate() error

	// Invoke calls an exported function of the instantiated module by
	// name with raw wazero-encoded arguments.
	//
	// It returns an error wrapping ErrExportNotFound if the module
	// does not export the name.
	Invoke(name string, args ...uint64) ([]uint64, error)

	// WASIPreview1 enables the WASI preview1 host module
	// (wasi_snapshot_preview1) for the module to be instantiated.
	WASIPreview1() error

	// Logger returns the logger used by the Core.
	Logger() *log.Logger

	// Close closes the Core and releases all the resources
	// associated with it.
	Close() error
}

// core implements Core.
type core struct {
	// config
	config *Config

	ctx      context.Context
	runtime  wazero.Runtime
	module   wazero.CompiledModule
	instance api.Module

	// hostFuncs maps module name to function name to the registered
	// host function. Populated by ImportFunction, frozen by
	// Instantiate.
	hostFuncs map[string]map[string]any

	wasiEnabled  bool
	instantiated bool

	closeOnce sync.Once
	closeErr  error
}

// NewCore creates a new Core with the given Config.
//
// It uses the default implementation of interface.Core as
// defined in this file.
//
// Deprecated: use NewCoreWithContext instead.
func NewCore(config *Config) (Core, error) {
	return NewCoreWithContext(context.Background(), config)
}

// NewCoreWithContext creates a new Core with the given Config and
// context.Context.
//
// The context is used to control the lifetime of the calls into the
// WebAssembly module. If the context expires, any ongoing and future
// call into the WebAssembly module will fail, unless
// [WazeroRuntimeConfigFactory.SetCloseOnContextDone] was called with
// false.
func NewCoreWithContext(ctx context.Context, config *Config) (Core, error) {
	c := &core{
		config:    config,
		ctx:       ctx,
		hostFuncs: make(map[string]map[string]any),
	}

	c.runtime = wazero.NewRuntimeWithConfig(ctx, config.RuntimeConfig().GetConfig())

	var err error
	c.module, err = c.runtime.CompileModule(ctx, config.WSMBinOrPanic())
	if err != nil {
		return nil, fmt.Errorf("wash: (wazero.Runtime).CompileModule returned error: %w", err)
	}

	if config.ServicesModuleConfig != nil {
		if err := c.preopenServicesModuleConfig(); err != nil {
			return nil, fmt.Errorf("wash: preopening services module config: %w", err)
		}
	}

	return c, nil
}

// preopenServicesModuleConfig copies the services module config into
// an in-memory filesystem preopened for the guest at GuestConfDir.
func (c *core) preopenServicesModuleConfig() error {
	f, err := c.config.ServicesModuleConfig.AsFile()
	if err != nil {
		return fmt.Errorf("(ServicesModuleConfig).AsFile returned error: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading services module config: %w", err)
	}

	confFS := memfs.New()
	if errno := confFS.WriteFile("/"+GuestConfFile, content); errno != 0 {
		return fmt.Errorf("writing services module config to memfs: %w", errno)
	}

	c.config.ModuleConfig().SetPreopenFS(confFS, GuestConfDir)
	return nil
}

// Config implements Core.
func (c *core) Config() *Config {
	return c.config
}

// Context implements Core.
func (c *core) Context() context.Context {
	return c.ctx
}

// Exports implements Core.
func (c *core) Exports() map[string]api.FunctionDefinition {
	return c.module.ExportedFunctions()
}

// ExportedFunction implements Core.
func (c *core) ExportedFunction(name string) api.Function {
	if c.instance == nil {
		return nil
	}

	return c.instance.ExportedFunction(name)
}

// ImportFunction implements Core.
func (c *core) ImportFunction(module, name string, f any) error {
	if c.instantiated {
		return ErrAlreadyInstantiated
	}

	// The host function is registered only if the module actually
	// imports it, otherwise wazero would reject the host module
	// containing a function the guest never asked for.
	if !c.moduleImports(module, name) {
		return ErrFuncNotImported
	}

	if _, ok := c.hostFuncs[module][name]; ok {
		return fmt.Errorf("wash: importing %s.%s: %w", module, name, ErrDuplicateHostFunction)
	}

	if c.hostFuncs[module] == nil {
		c.hostFuncs[module] = make(map[string]any)
	}
	c.hostFuncs[module][name] = f

	log.LDebugf(c.Logger(), "wash: registered host function %s.%s", module, name)

	return nil
}

// moduleImports reports whether the compiled module imports the named
// function.
func (c *core) moduleImports(module, name string) bool {
	for _, def := range c.module.ImportedFunctions() {
		impModule, impName, isImport := def.Import()
		if isImport && impModule == module && impName == name {
			return true
		}
	}
	return false
}

// WASIPreview1 implements Core.
func (c *core) WASIPreview1() error {
	if c.instantiated {
		return ErrAlreadyInstantiated
	}
	if c.wasiEnabled {
		return nil
	}

	if _, err := wasi_snapshot_preview1.Instantiate(c.ctx, c.runtime); err != nil {
		return fmt.Errorf("wash: wasi_snapshot_preview1.Instantiate returned error: %w", err)
	}

	c.wasiEnabled = true
	return nil
}

// Instantiate implements Core.
func (c *core) Instantiate() error {
	if c.instantiated {
		return ErrAlreadyInstantiated
	}

	if c.config.Feature&FEATURE_TOLERANT_IMPORTS == 0 {
		if err := c.checkImports(); err != nil {
			return err
		}
	}

	// Register all host functions with the runtime, one host module
	// per imported module namespace.
	for module, funcs := range c.hostFuncs {
		builder := c.runtime.NewHostModuleBuilder(module)
		for name, f := range funcs {
			builder = builder.NewFunctionBuilder().WithFunc(f).Export(name)
		}
		if _, err := builder.Instantiate(c.ctx); err != nil {
			return fmt.Errorf("wash: instantiating host module %q: %w", module, err)
		}
	}

	instance, err := c.runtime.InstantiateModule(c.ctx, c.module, c.config.ModuleConfig().GetConfig())
	if err != nil {
		return fmt.Errorf("wash: (wazero.Runtime).InstantiateModule returned error: %w", err)
	}

	c.instance = instance
	c.instantiated = true
	return nil
}

// checkImports fails up front on any import of the module that is
// neither an enabled WASI function nor a registered host function.
func (c *core) checkImports() error {
	for _, def := range c.module.ImportedFunctions() {
		module, name, isImport := def.Import()
		if !isImport {
			continue
		}

		if module == wasi_snapshot_preview1.ModuleName {
			if !c.wasiEnabled {
				return fmt.Errorf("wash: %s.%s requires WASI which is not enabled: %w",
					module, name, ErrUnknownImport)
			}
			continue
		}

		if _, ok := c.hostFuncs[module][name]; !ok {
			return fmt.Errorf("wash: %s.%s: %w", module, name, ErrUnknownImport)
		}
	}
	return nil
}

// Invoke implements Core.
func (c *core) Invoke(name string, args ...uint64) ([]uint64, error) {
	if !c.instantiated {
		return nil, ErrNotInstantiated
	}

	fn := c.instance.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("wash: invoking %q: %w", name, ErrExportNotFound)
	}

	ret, err := fn.Call(c.ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("wash: calling %q returned error: %w", name, err)
	}

	return ret, nil
}

// Logger implements Core.
func (c *core) Logger() *log.Logger {
	return c.config.Logger()
}

// Close implements Core.
func (c *core) Close() error {
	c.closeOnce.Do(func() {
		if c.instance != nil {
			if err := c.instance.Close(c.ctx); err != nil {
				c.closeErr = fmt.Errorf("wash: closing module instance: %w", err)
			}
			c.instance = nil
		}

		if err := c.runtime.Close(c.ctx); err != nil && c.closeErr == nil {
			c.closeErr = fmt.Errorf("wash: closing wazero runtime: %w", err)
		}
	})

	return c.closeErr
}
