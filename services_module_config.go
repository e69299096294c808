package wash

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// ServicesModuleConfig defines the configuration file made available
// to the WebAssembly Services Module.
//
// It is optional to WASH, but may be mandatory according to the
// WebAssembly Services Module implementation.
type ServicesModuleConfig interface {
	// AsFile returns the ServicesModuleConfig as a file, which then
	// can be loaded into the WebAssembly Services Module.
	//
	// If the returned error is nil, the *os.File MUST be valid
	// and in a readable state.
	AsFile() (*os.File, error)
}

// servicesModuleConfigFile provides a config file on the local file
// system to the WebAssembly Services Module by specifying the path to
// the config file.
//
// Implements ServicesModuleConfig.
type servicesModuleConfigFile string

// ServicesModuleConfigFromFile creates a ServicesModuleConfig from the
// given file path.
func ServicesModuleConfigFromFile(filePath string) (ServicesModuleConfig, error) {
	// Try opening the file to ensure it exists and is readable.
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("wash: failed to open WSM config file: %w", err)
	}
	f.Close()

	return servicesModuleConfigFile(filePath), nil
}

// AsFile implements ServicesModuleConfig.
func (c servicesModuleConfigFile) AsFile() (*os.File, error) {
	if string(c) == "" {
		return nil, errors.New("services module config file path is empty")
	}

	f, err := os.Open(string(c))
	if err != nil {
		return nil, fmt.Errorf("failed to open services module config file: %w", err)
	}

	return f, nil
}

type servicesModuleConfigBytes []byte

// ServicesModuleConfigFromBytes creates a ServicesModuleConfig from
// the given byte slice.
func ServicesModuleConfigFromBytes(configBytes []byte) ServicesModuleConfig {
	return servicesModuleConfigBytes(configBytes)
}

// AsFile implements ServicesModuleConfig.
func (c servicesModuleConfigBytes) AsFile() (*os.File, error) {
	if len(c) == 0 {
		return nil, errors.New("services module config bytes is empty")
	}

	f, err := os.CreateTemp("", "wash-wasm-config-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for services module config: %w", err)
	}

	if _, err := f.Write(c); err != nil {
		return nil, fmt.Errorf("failed to write services module config to temp file: %w", err)
	}
	// reset the file pointer to the beginning of the file
	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to seek to the beginning of the temp file: %w", err)
	}

	runtime.SetFinalizer(f, func(tmpFile *os.File) {
		tmpFile.Close()
		// Remove the temp file from local file system when collected.
		//
		// This does NOT guarantee the temp file will always be removed
		// from the local file system before the program exits. However,
		// it is still better than nothing when concurrency is high.
		os.Remove(tmpFile.Name())
	})

	return f, nil
}
