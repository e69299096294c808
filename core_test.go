package wash_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/hosting-systems/wash"
	"github.com/hosting-systems/wash/internal/wasmtest"
)

func TestCoreImportFunction(t *testing.T) {
	core, err := wash.NewCoreWithContext(context.Background(), &wash.Config{
		WSMBin: wasmtest.BalanceGuest(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer core.Close()

	balance := func() int64 { return 0 }

	t.Run("registers imported function", func(t *testing.T) {
		if err := core.ImportFunction("host", "balance", balance); err != nil {
			t.Fatalf("ImportFunction: %v", err)
		}
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		err := core.ImportFunction("host", "balance", balance)
		if !errors.Is(err, wash.ErrDuplicateHostFunction) {
			t.Fatalf("got %v, want ErrDuplicateHostFunction", err)
		}
	})

	t.Run("rejects function the module does not import", func(t *testing.T) {
		err := core.ImportFunction("host", "order_hosting", func(int32) int32 { return 0 })
		if !errors.Is(err, wash.ErrFuncNotImported) {
			t.Fatalf("got %v, want ErrFuncNotImported", err)
		}
	})

	t.Run("rejects registration after instantiation", func(t *testing.T) {
		if err := core.Instantiate(); err != nil {
			t.Fatalf("Instantiate: %v", err)
		}

		err := core.ImportFunction("host", "balance", balance)
		if !errors.Is(err, wash.ErrAlreadyInstantiated) {
			t.Fatalf("got %v, want ErrAlreadyInstantiated", err)
		}
	})
}

func TestCoreInstantiateChecksImports(t *testing.T) {
	t.Run("unknown import fails up front", func(t *testing.T) {
		core, err := wash.NewCoreWithContext(context.Background(), &wash.Config{
			WSMBin: wasmtest.UnknownImportGuest(),
		})
		if err != nil {
			t.Fatal(err)
		}
		defer core.Close()

		if err := core.Instantiate(); !errors.Is(err, wash.ErrUnknownImport) {
			t.Fatalf("got %v, want ErrUnknownImport", err)
		}
	})

	t.Run("tolerant imports skips the check", func(t *testing.T) {
		core, err := wash.NewCoreWithContext(context.Background(), &wash.Config{
			WSMBin:  wasmtest.UnknownImportGuest(),
			Feature: wash.FEATURE_TOLERANT_IMPORTS,
		})
		if err != nil {
			t.Fatal(err)
		}
		defer core.Close()

		// The unresolved import still fails, but inside wazero rather
		// than in the up-front check.
		err = core.Instantiate()
		if err == nil {
			t.Fatal("Instantiate succeeded with an unresolved import")
		}
		if errors.Is(err, wash.ErrUnknownImport) {
			t.Fatalf("got ErrUnknownImport, want the check skipped: %v", err)
		}
	})

	t.Run("WASI import requires WASI enabled", func(t *testing.T) {
		core, err := wash.NewCoreWithContext(context.Background(), &wash.Config{
			WSMBin: wasmtest.WASIGuest(),
		})
		if err != nil {
			t.Fatal(err)
		}
		defer core.Close()

		if err := core.ImportFunction("host", "balance", func() int64 { return 0 }); err != nil {
			t.Fatalf("ImportFunction: %v", err)
		}

		if err := core.Instantiate(); !errors.Is(err, wash.ErrUnknownImport) {
			t.Fatalf("got %v, want ErrUnknownImport", err)
		}
	})

	t.Run("WASI import passes with WASI enabled", func(t *testing.T) {
		core, err := wash.NewCoreWithContext(context.Background(), &wash.Config{
			WSMBin: wasmtest.WASIGuest(),
		})
		if err != nil {
			t.Fatal(err)
		}
		defer core.Close()

		if err := core.ImportFunction("host", "balance", func() int64 { return 7 }); err != nil {
			t.Fatalf("ImportFunction: %v", err)
		}
		if err := core.WASIPreview1(); err != nil {
			t.Fatalf("WASIPreview1: %v", err)
		}
		if err := core.Instantiate(); err != nil {
			t.Fatalf("Instantiate: %v", err)
		}

		ret, err := core.Invoke("run")
		if err != nil {
			t.Fatalf("Invoke: %v", err)
		}
		if got := int64(ret[0]); got != 7 {
			t.Fatalf("run returned %d, want 7", got)
		}
	})
}

func TestCoreInvoke(t *testing.T) {
	core, err := wash.NewCoreWithContext(context.Background(), &wash.Config{
		WSMBin: wasmtest.PlainGuest(1234),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer core.Close()

	t.Run("before instantiation", func(t *testing.T) {
		if _, err := core.Invoke("run"); !errors.Is(err, wash.ErrNotInstantiated) {
			t.Fatalf("got %v, want ErrNotInstantiated", err)
		}
	})

	if err := core.Instantiate(); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	t.Run("exported function", func(t *testing.T) {
		ret, err := core.Invoke("run")
		if err != nil {
			t.Fatalf("Invoke: %v", err)
		}
		if got := int64(ret[0]); got != 1234 {
			t.Fatalf("run returned %d, want 1234", got)
		}
	})

	t.Run("missing export", func(t *testing.T) {
		if _, err := core.Invoke("missing"); !errors.Is(err, wash.ErrExportNotFound) {
			t.Fatalf("got %v, want ErrExportNotFound", err)
		}
	})
}

func TestCoreExports(t *testing.T) {
	core, err := wash.NewCoreWithContext(context.Background(), &wash.Config{
		WSMBin: wasmtest.PlainGuest(0),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer core.Close()

	exports := core.Exports()
	def, ok := exports["run"]
	if !ok {
		t.Fatalf("exports = %v, want run", exports)
	}
	if len(def.ResultTypes()) != 1 || def.ResultTypes()[0] != api.ValueTypeI64 {
		t.Fatalf("run results = %v, want [i64]", def.ResultTypes())
	}
}

func TestCorePreopensServicesModuleConfig(t *testing.T) {
	// The config content ends up in an in-memory filesystem preopened
	// for the guest; the instantiation path must accept it even when
	// the guest never reads it.
	core, err := wash.NewCoreWithContext(context.Background(), &wash.Config{
		WSMBin:               wasmtest.PlainGuest(0),
		ServicesModuleConfig: wash.ServicesModuleConfigFromBytes([]byte(`{"plan": "basic"}`)),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer core.Close()

	if err := core.WASIPreview1(); err != nil {
		t.Fatalf("WASIPreview1: %v", err)
	}
	if err := core.Instantiate(); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
}
