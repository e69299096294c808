package wash

import "errors"

var (
	// ErrDuplicateHostFunction is returned by [Core.ImportFunction]
	// when a host function is registered twice under the same
	// (module, name) pair.
	ErrDuplicateHostFunction = errors.New("wash: host function already registered under this name")

	// ErrFuncNotImported is returned by [Core.ImportFunction] when the
	// WebAssembly Services Module does not import the named function,
	// i.e. registering it would have no effect.
	ErrFuncNotImported = errors.New("wash: function not imported by the WebAssembly module")

	// ErrUnknownImport is returned by [Core.Instantiate] when the
	// WebAssembly Services Module imports a function that is neither
	// WASI nor a registered host function.
	ErrUnknownImport = errors.New("wash: unknown import requested by the WebAssembly module")

	// ErrExportNotFound is returned when a named export is absent from
	// the instantiated WebAssembly Services Module.
	ErrExportNotFound = errors.New("wash: export not found in the WebAssembly module")

	// ErrNotInstantiated is returned when an operation requires the
	// module to be instantiated first.
	ErrNotInstantiated = errors.New("wash: WebAssembly module is not instantiated")

	// ErrAlreadyInstantiated is returned when mutating operations,
	// such as registering host functions, are attempted after
	// instantiation.
	ErrAlreadyInstantiated = errors.New("wash: WebAssembly module is already instantiated")
)
