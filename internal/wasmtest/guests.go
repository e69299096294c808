// Package wasmtest synthesizes the guest modules used by tests and
// examples across the repository.
//
// Guests are built with internal/wasmbin, which is the closest this
// repository can get to the inline WebAssembly text modules a guest
// toolchain would otherwise produce.
package wasmtest

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/hosting-systems/wash/internal/wasmbin"
)

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// BillingGuest builds a v0 services module that orders days of
// hosting, discards the error code, and returns the resulting balance:
//
//	(module
//	    (import "host" "balance" (func $balance (result i64)))
//	    (import "host" "order_hosting" (func $order_hosting (param i32) (result i32)))
//	    (func (export "run") (result i64)
//	        (i32.const days)
//	        (call $order_hosting)
//	        (drop)
//	        (call $balance)))
func BillingGuest(days int32) []byte {
	b := wasmbin.NewModuleBuilder()
	balance := b.AddImport("host", "balance", nil, []api.ValueType{i64})
	orderHosting := b.AddImport("host", "order_hosting", []api.ValueType{i32}, []api.ValueType{i32})

	b.AddFunc("run", nil, []api.ValueType{i64},
		wasmbin.Body{}.
			I32Const(days).
			Call(orderHosting).
			Drop().
			Call(balance))

	return b.Build()
}

// OrderCodeGuest builds a v0 services module that orders days of
// hosting and returns the order's error code, sign-extended to i64, so
// callers can observe the code the host handed to the guest.
func OrderCodeGuest(days int32) []byte {
	b := wasmbin.NewModuleBuilder()
	orderHosting := b.AddImport("host", "order_hosting", []api.ValueType{i32}, []api.ValueType{i32})

	b.AddFunc("run", nil, []api.ValueType{i64},
		wasmbin.Body{}.
			I32Const(days).
			Call(orderHosting).
			I64ExtendI32S())

	return b.Build()
}

// BalanceGuest builds a v0 services module that only reads the balance.
func BalanceGuest() []byte {
	b := wasmbin.NewModuleBuilder()
	balance := b.AddImport("host", "balance", nil, []api.ValueType{i64})

	b.AddFunc("run", nil, []api.ValueType{i64},
		wasmbin.Body{}.Call(balance))

	return b.Build()
}

// PlainGuest builds a services module with no imports at all, whose
// run function returns ret.
func PlainGuest(ret int64) []byte {
	b := wasmbin.NewModuleBuilder()
	b.AddFunc("run", nil, []api.ValueType{i64},
		wasmbin.Body{}.I64Const(ret))
	return b.Build()
}

// NoRunGuest builds a module that does not export run.
func NoRunGuest() []byte {
	b := wasmbin.NewModuleBuilder()
	b.AddFunc("main", nil, []api.ValueType{i64},
		wasmbin.Body{}.I64Const(0))
	return b.Build()
}

// BadSignatureGuest builds a module whose run export has the wrong
// result type (i32 instead of i64).
func BadSignatureGuest() []byte {
	b := wasmbin.NewModuleBuilder()
	b.AddFunc("run", nil, []api.ValueType{i32},
		wasmbin.Body{}.I32Const(0))
	return b.Build()
}

// UnknownImportGuest builds a module that imports a host function no
// driver registers.
func UnknownImportGuest() []byte {
	b := wasmbin.NewModuleBuilder()
	b.AddImport("host", "mystery", nil, []api.ValueType{i32})
	b.AddFunc("run", nil, []api.ValueType{i64},
		wasmbin.Body{}.I64Const(0))
	return b.Build()
}

// WASIGuest builds a module that declares a WASI import besides the
// billing ones.
func WASIGuest() []byte {
	b := wasmbin.NewModuleBuilder()
	b.AddImport("wasi_snapshot_preview1", "random_get", []api.ValueType{i32, i32}, []api.ValueType{i32})
	balance := b.AddImport("host", "balance", nil, []api.ValueType{i64})

	b.AddFunc("run", nil, []api.ValueType{i64},
		wasmbin.Body{}.Call(balance))

	return b.Build()
}
