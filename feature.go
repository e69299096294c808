package wash

// Feature is a bit mask of experimental features of WASH.
//
// Each feature flag is bit-masked and version-dependent, and flags are
// independent of each other. A feature flag not recognized by the
// runtime is silently ignored.
type Feature uint64

const (
	// FEATURE_TOLERANT_IMPORTS disables the strict import check
	// performed by [Core.Instantiate]. With this feature set, an
	// import that is neither WASI nor a registered host function no
	// longer fails instantiation up front; instead the runtime fails
	// lazily if the guest ever reaches the missing function.
	FEATURE_TOLERANT_IMPORTS Feature = 1 << iota

	FEATURE_NONE Feature = 0 // NONE = No Experimental Features
)
