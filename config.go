package wash

import (
	"fmt"

	"github.com/hosting-systems/wash/billing"
	"github.com/hosting-systems/wash/internal/configbuilder"
	"github.com/hosting-systems/wash/internal/log"
	"github.com/hosting-systems/wash/money"
)

// Config defines the behavior of a WebAssembly Services Module and the
// billing state it is bound to.
type Config struct {
	// WSMBin contains the binary format of the WebAssembly Services
	// Module. In a typical use case, this mandatory field is populated
	// by loading from a .wasm file, downloaded from a remote target,
	// or compiled from source with a guest toolchain.
	WSMBin []byte

	// AccountStore is the collection of user accounts the services
	// module operates on. Required by the host functions serving
	// balance queries and hosting orders.
	AccountStore *billing.Store

	// User is the account the WebAssembly instance acts on behalf of.
	// Every instance is bound to exactly one user.
	User billing.UserID

	// PricePerDay optionally overrides the price of one day of
	// hosting. If zero, billing.DefaultPricePerDay is used.
	PricePerDay money.Unit

	// Feature specifies a series of experimental features for the
	// WASM runtime.
	//
	// Each feature flag is bit-masked and version-dependent, and flags
	// are independent of each other. If a feature flag is not
	// supported or not recognized by the runtime, it will be silently
	// ignored.
	Feature Feature

	// ServicesModuleConfig optionally provides a configuration file to
	// be made available to the WebAssembly Services Module.
	ServicesModuleConfig ServicesModuleConfig

	// ModuleConfigFactory is used to replicate the module config for
	// each WASM instance created. This field is for advanced use cases
	// and/or debugging purposes only.
	ModuleConfigFactory *WazeroModuleConfigFactory

	// RuntimeConfigFactory is used to replicate the runtime config for
	// each WASM runtime created. This field is for advanced use cases
	// and/or debugging purposes only.
	RuntimeConfigFactory *WazeroRuntimeConfigFactory

	// OverrideLogger is a slog.Logger to be used by the components
	// created with this Config. If nil, the package default logger
	// is used.
	OverrideLogger *log.Logger
}

// Clone creates a deep copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	wsmClone := make([]byte, len(c.WSMBin))
	copy(wsmClone, c.WSMBin)

	return &Config{
		WSMBin:               wsmClone,
		AccountStore:         c.AccountStore,
		User:                 c.User,
		PricePerDay:          c.PricePerDay,
		Feature:              c.Feature,
		ServicesModuleConfig: c.ServicesModuleConfig,
		ModuleConfigFactory:  c.ModuleConfigFactory.Clone(),
		RuntimeConfigFactory: c.RuntimeConfigFactory.Clone(),
		OverrideLogger:       c.OverrideLogger,
	}
}

// WSMBinOrPanic returns the WebAssembly Services Module binary or
// panics if it is not provided.
func (c *Config) WSMBinOrPanic() []byte {
	if len(c.WSMBin) == 0 {
		panic("wash: WebAssembly Services Module binary is not provided in config")
	}

	return c.WSMBin
}

// AccountStoreOrPanic returns the account store or panics if it is not
// provided.
func (c *Config) AccountStoreOrPanic() *billing.Store {
	if c.AccountStore == nil {
		panic("wash: account store is not provided in config")
	}

	return c.AccountStore
}

// PricePerDayOrDefault returns the configured price of one day of
// hosting, or billing.DefaultPricePerDay if unset.
func (c *Config) PricePerDayOrDefault() money.Unit {
	if c.PricePerDay == 0 {
		return billing.DefaultPricePerDay
	}

	return c.PricePerDay
}

// ModuleConfig returns the WazeroModuleConfigFactory, creating a fresh
// one on first use.
func (c *Config) ModuleConfig() *WazeroModuleConfigFactory {
	if c.ModuleConfigFactory == nil {
		c.ModuleConfigFactory = NewWazeroModuleConfigFactory()
	}

	return c.ModuleConfigFactory
}

// RuntimeConfig returns the WazeroRuntimeConfigFactory, creating a
// fresh one on first use.
func (c *Config) RuntimeConfig() *WazeroRuntimeConfigFactory {
	if c.RuntimeConfigFactory == nil {
		c.RuntimeConfigFactory = NewWazeroRuntimeConfigFactory()
	}

	return c.RuntimeConfigFactory
}

// Logger returns the logger to be used by components created with this
// Config.
func (c *Config) Logger() *log.Logger {
	if c.OverrideLogger != nil {
		return c.OverrideLogger
	}
	return log.DefaultLogger()
}

// NewConfigFromJSON parses a JSON-serialized configuration into a
// Config. See internal/configbuilder for the JSON format.
func NewConfigFromJSON(data []byte) (*Config, error) {
	cj, err := configbuilder.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("wash: parsing config JSON: %w", err)
	}

	c := &Config{
		WSMBin:      cj.ServicesModule.Bin,
		User:        billing.UserID(cj.Billing.User),
		PricePerDay: money.FromCents(cj.Billing.PricePerDayCents),
	}

	if len(cj.ServicesModule.Config) > 0 {
		c.ServicesModuleConfig = ServicesModuleConfigFromBytes(cj.ServicesModule.Config)
	}

	if len(cj.Billing.Accounts) > 0 {
		c.AccountStore = billing.NewStore()
		for _, a := range cj.Billing.Accounts {
			c.AccountStore.Put(billing.UserID(a.User), billing.Account{
				Balance:         money.FromCents(a.BalanceCents),
				HostingDaysLeft: a.HostingDaysLeft,
			})
		}
	}

	mcf := c.ModuleConfig()
	if len(cj.Module.Argv) > 0 {
		mcf.SetArgv(cj.Module.Argv)
	}
	for k, v := range cj.Module.Env {
		mcf.SetEnv([]string{k}, []string{v})
	}
	if cj.Module.InheritStdin {
		mcf.InheritStdin()
	}
	if cj.Module.InheritStdout {
		mcf.InheritStdout()
	}
	if cj.Module.InheritStderr {
		mcf.InheritStderr()
	}
	for hostPath, guestPath := range cj.Module.PreopenedDir {
		mcf.SetPreopenDir(hostPath, guestPath)
	}

	return c, nil
}
