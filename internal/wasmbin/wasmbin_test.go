package wasmbin_test

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/hosting-systems/wash/internal/wasmbin"
)

func buildCallThrough(t *testing.T) []byte {
	t.Helper()

	b := wasmbin.NewModuleBuilder()
	balance := b.AddImport("host", "balance", nil, []api.ValueType{api.ValueTypeI64})
	orderHosting := b.AddImport("host", "order_hosting", []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32})

	b.AddFunc("run", nil, []api.ValueType{api.ValueTypeI64},
		wasmbin.Body{}.
			I32Const(30).
			Call(orderHosting).
			Drop().
			Call(balance))

	return b.Build()
}

func TestBuildCompiles(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	cm, err := r.CompileModule(ctx, buildCallThrough(t))
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}

	if len(cm.ImportedFunctions()) != 2 {
		t.Fatalf("imported functions = %d, want 2", len(cm.ImportedFunctions()))
	}

	run, ok := cm.ExportedFunctions()["run"]
	if !ok {
		t.Fatal("module does not export run")
	}
	if len(run.ParamTypes()) != 0 {
		t.Fatalf("run params = %d, want 0", len(run.ParamTypes()))
	}
	if len(run.ResultTypes()) != 1 || run.ResultTypes()[0] != api.ValueTypeI64 {
		t.Fatalf("run results = %v, want [i64]", run.ResultTypes())
	}
}

func TestBuildRuns(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	var orderedDays int32
	_, err := r.NewHostModuleBuilder("host").
		NewFunctionBuilder().WithFunc(func() int64 { return 4200 }).Export("balance").
		NewFunctionBuilder().WithFunc(func(days int32) int32 {
		orderedDays = days
		return 0
	}).Export("order_hosting").
		Instantiate(ctx)
	if err != nil {
		t.Fatalf("instantiating host module: %v", err)
	}

	mod, err := r.Instantiate(ctx, buildCallThrough(t))
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	ret, err := mod.ExportedFunction("run").Call(ctx)
	if err != nil {
		t.Fatalf("calling run: %v", err)
	}

	if got := int64(ret[0]); got != 4200 {
		t.Fatalf("run returned %d, want 4200", got)
	}
	if orderedDays != 30 {
		t.Fatalf("host saw %d days ordered, want 30", orderedDays)
	}
}

func TestNegativeConstEncoding(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	b := wasmbin.NewModuleBuilder()
	b.AddFunc("run", nil, []api.ValueType{api.ValueTypeI64},
		wasmbin.Body{}.I64Const(-97_000))

	mod, err := r.Instantiate(ctx, b.Build())
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	ret, err := mod.ExportedFunction("run").Call(ctx)
	if err != nil {
		t.Fatalf("calling run: %v", err)
	}
	if got := int64(ret[0]); got != -97_000 {
		t.Fatalf("run returned %d, want -97000", got)
	}
}
