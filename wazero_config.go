package wash

import (
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
)

// WazeroRuntimeConfigFactory is used to spawn wazero.RuntimeConfig.
type WazeroRuntimeConfigFactory struct {
	runtimeConfig    wazero.RuntimeConfig
	compilationCache wazero.CompilationCache
}

// NewWazeroRuntimeConfigFactory creates a new WazeroRuntimeConfigFactory.
func NewWazeroRuntimeConfigFactory() *WazeroRuntimeConfigFactory {
	return &WazeroRuntimeConfigFactory{
		runtimeConfig:    wazero.NewRuntimeConfig().WithCloseOnContextDone(true),
		compilationCache: nil,
	}
}

// Clone returns a copy of the WazeroRuntimeConfigFactory.
func (wrcf *WazeroRuntimeConfigFactory) Clone() *WazeroRuntimeConfigFactory {
	if wrcf == nil {
		return nil
	}

	return &WazeroRuntimeConfigFactory{
		runtimeConfig:    wrcf.runtimeConfig,
		compilationCache: wrcf.compilationCache,
	}
}

// GetConfig returns the latest wazero.RuntimeConfig.
func (wrcf *WazeroRuntimeConfigFactory) GetConfig() wazero.RuntimeConfig {
	if wrcf == nil {
		panic("wash: GetConfig: wrcf is nil")
	}

	if wrcf.compilationCache != nil {
		return wrcf.runtimeConfig.WithCompilationCache(wrcf.compilationCache)
	}
	return wrcf.runtimeConfig.WithCompilationCache(getGlobalCompilationCache())
}

// Interpreter sets the WebAssembly module to run in the interpreter
// mode. In this mode, the WebAssembly module will run slower but it is
// available on all architectures/platforms.
//
// If no mode is set, the WebAssembly module will run in the compiler
// mode if supported, otherwise it will run in the interpreter mode.
func (wrcf *WazeroRuntimeConfigFactory) Interpreter() {
	wrcf.runtimeConfig = wazero.NewRuntimeConfigInterpreter()
}

// Compiler sets the WebAssembly module to run in the compiler mode.
// It may bring performance improvements, but meanwhile it will cause
// the program to panic if the architecture/platform is not supported.
//
// If no mode is set, the WebAssembly module will run in the compiler
// mode if supported, otherwise it will run in the interpreter mode.
func (wrcf *WazeroRuntimeConfigFactory) Compiler() {
	wrcf.runtimeConfig = wazero.NewRuntimeConfigCompiler()
}

// SetCloseOnContextDone sets the closeOnContextDone for the WebAssembly
// module. It closes the module when the context is done and prevents
// any further calls to the module, including all exported functions.
//
// By default it is set to true.
func (wrcf *WazeroRuntimeConfigFactory) SetCloseOnContextDone(close bool) {
	wrcf.runtimeConfig = wrcf.runtimeConfig.WithCloseOnContextDone(close)
}

// SetCompilationCache sets the CompilationCache for the WebAssembly
// module.
//
// Calling this function will not update the global CompilationCache and
// therefore disable the automatic sharing of the cache between multiple
// WebAssembly modules.
func (wrcf *WazeroRuntimeConfigFactory) SetCompilationCache(cache wazero.CompilationCache) {
	wrcf.compilationCache = cache
}

var globalCompilationCache wazero.CompilationCache
var globalCompilationCacheMutex = new(sync.Mutex)

func getGlobalCompilationCache() wazero.CompilationCache {
	globalCompilationCacheMutex.Lock()
	defer globalCompilationCacheMutex.Unlock()

	if globalCompilationCache == nil {
		var err error
		globalCompilationCache, err = wazero.NewCompilationCacheWithDir(fmt.Sprintf("%s%c%s", os.TempDir(), os.PathSeparator, "washwazerocache"))
		if err != nil {
			panic(err)
		}
	}
	return globalCompilationCache
}

// SetGlobalCompilationCache sets the global CompilationCache for the
// WebAssembly runtime. This is useful for sharing the cache between
// multiple WebAssembly modules and should be called before any
// WebAssembly module is instantiated.
func SetGlobalCompilationCache(cache wazero.CompilationCache) {
	globalCompilationCacheMutex.Lock()
	globalCompilationCache = cache
	globalCompilationCacheMutex.Unlock()
}
