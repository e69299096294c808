package wash

import (
	"io"
	"os"

	rand "crypto/rand"

	"github.com/tetratelabs/wazero"
	expsys "github.com/tetratelabs/wazero/experimental/sys"
	"github.com/tetratelabs/wazero/experimental/sysfs"
)

// WazeroModuleConfigFactory is used to spawn wazero.ModuleConfig.
type WazeroModuleConfigFactory struct {
	moduleConfig wazero.ModuleConfig
	fsconfig     wazero.FSConfig
}

// NewWazeroModuleConfigFactory creates a new WazeroModuleConfigFactory.
func NewWazeroModuleConfigFactory() *WazeroModuleConfigFactory {
	return &WazeroModuleConfigFactory{
		moduleConfig: wazero.NewModuleConfig().WithSysWalltime().WithSysNanotime().WithSysNanosleep().WithRandSource(rand.Reader),
		fsconfig:     wazero.NewFSConfig(),
	}
}

func (wmcf *WazeroModuleConfigFactory) Clone() *WazeroModuleConfigFactory {
	if wmcf == nil {
		return nil
	}

	return &WazeroModuleConfigFactory{
		moduleConfig: wmcf.moduleConfig,
		fsconfig:     wmcf.fsconfig,
	}
}

// GetConfig returns the latest wazero.ModuleConfig.
func (wmcf *WazeroModuleConfigFactory) GetConfig() wazero.ModuleConfig {
	if wmcf == nil {
		panic("wash: GetConfig: wmcf is nil")
	}

	return wmcf.moduleConfig.WithFSConfig(wmcf.fsconfig)
}

// SetArgv sets the arguments for the WebAssembly module.
func (wmcf *WazeroModuleConfigFactory) SetArgv(argv []string) {
	wmcf.moduleConfig = wmcf.moduleConfig.WithArgs(argv...)
}

// SetEnv sets the environment variables for the WebAssembly module.
func (wmcf *WazeroModuleConfigFactory) SetEnv(keys, values []string) {
	if len(keys) != len(values) {
		panic("wash: SetEnv: keys and values must have the same length")
	}

	for i := range keys {
		wmcf.moduleConfig = wmcf.moduleConfig.WithEnv(keys[i], values[i])
	}
}

// SetStdin sets the standard input for the WebAssembly module.
func (wmcf *WazeroModuleConfigFactory) SetStdin(r io.Reader) {
	wmcf.moduleConfig = wmcf.moduleConfig.WithStdin(r)
}

// InheritStdin sets the standard input for the WebAssembly module to
// os.Stdin.
func (wmcf *WazeroModuleConfigFactory) InheritStdin() {
	wmcf.moduleConfig = wmcf.moduleConfig.WithStdin(os.Stdin)
}

// SetStdout sets the standard output for the WebAssembly module.
func (wmcf *WazeroModuleConfigFactory) SetStdout(w io.Writer) {
	wmcf.moduleConfig = wmcf.moduleConfig.WithStdout(w)
}

// InheritStdout sets the standard output for the WebAssembly module to
// os.Stdout.
func (wmcf *WazeroModuleConfigFactory) InheritStdout() {
	wmcf.moduleConfig = wmcf.moduleConfig.WithStdout(os.Stdout)
}

// SetStderr sets the standard error for the WebAssembly module.
func (wmcf *WazeroModuleConfigFactory) SetStderr(w io.Writer) {
	wmcf.moduleConfig = wmcf.moduleConfig.WithStderr(w)
}

// InheritStderr sets the standard error for the WebAssembly module to
// os.Stderr.
func (wmcf *WazeroModuleConfigFactory) InheritStderr() {
	wmcf.moduleConfig = wmcf.moduleConfig.WithStderr(os.Stderr)
}

// SetPreopenDir sets the preopened directory for the WebAssembly module.
func (wmcf *WazeroModuleConfigFactory) SetPreopenDir(path string, guestPath string) {
	wmcf.fsconfig = wmcf.fsconfig.WithDirMount(path, guestPath)
}

// SetPreopenFS preopens an experimental sys.FS, e.g. an in-memory
// filesystem carrying the services module config, at guestPath.
func (wmcf *WazeroModuleConfigFactory) SetPreopenFS(fs expsys.FS, guestPath string) {
	wmcf.fsconfig = wmcf.fsconfig.(sysfs.FSConfig).WithSysFSMount(fs, guestPath)
}
