// Package configbuilder defines the serialized form of the host
// configuration.
package configbuilder

import (
	"encoding/json"
	"fmt"
)

// ConfigJSON defines the JSON format of the Config.
//
// This struct may fail to fully represent the Config struct, as it is
// non-trivial to represent a func or other non-serialized structures.
type ConfigJSON struct {
	ServicesModule struct {
		Bin    []byte `json:"bin"`              // Base64 encoded .wasm binary
		Config []byte `json:"config,omitempty"` // Base64 encoded WSM config file content
	} `json:"services_module"`

	Billing struct {
		User             uint64 `json:"user"`                          // the account the instance acts for
		PricePerDayCents int64  `json:"price_per_day_cents,omitempty"` // 0 = default price
		Accounts         []struct {
			User            uint64 `json:"user"`
			BalanceCents    int64  `json:"balance_cents"`
			HostingDaysLeft uint32 `json:"hosting_days_left,omitempty"`
		} `json:"accounts,omitempty"`
	} `json:"billing,omitempty"`

	Module struct {
		Argv          []string          `json:"argv,omitempty"`
		Env           map[string]string `json:"env,omitempty"`
		InheritStdin  bool              `json:"inherit_stdin,omitempty"`
		InheritStdout bool              `json:"inherit_stdout,omitempty"`
		InheritStderr bool              `json:"inherit_stderr,omitempty"`
		PreopenedDir  map[string]string `json:"preopened_dir,omitempty"` // hostPath: guestPath
	} `json:"module,omitempty"`
}

// Parse unmarshals a JSON-serialized ConfigJSON.
func Parse(data []byte) (*ConfigJSON, error) {
	cj := new(ConfigJSON)
	if err := json.Unmarshal(data, cj); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if len(cj.ServicesModule.Bin) == 0 {
		return nil, fmt.Errorf("services_module.bin is required")
	}

	return cj, nil
}
