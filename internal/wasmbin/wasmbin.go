// Package wasmbin synthesizes minimal WebAssembly core modules in
// binary form.
//
// wazero has no text-format frontend, and this repository cannot ship
// toolchain-built guest binaries for its tests and examples. Instead,
// the tiny guests used here (a handful of imports, exports, and flat
// function bodies) are emitted directly as sections of the wasm binary
// format.
//
// The builder only supports what those guests need: function imports,
// locals-free function bodies, and function exports.
package wasmbin

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Binary format constants. api.ValueType values are identical to the
// binary encoding of value types, so they are embedded as-is.
const (
	sectionType     = 0x01
	sectionImport   = 0x02
	sectionFunction = 0x03
	sectionExport   = 0x07
	sectionCode     = 0x0a

	funcTypeTag  = 0x60
	importKindFn = 0x00
	exportKindFn = 0x00
)

// ModuleBuilder accumulates function imports and defined functions,
// then emits a complete wasm binary via Build.
type ModuleBuilder struct {
	imports []importedFunc
	funcs   []definedFunc
}

type importedFunc struct {
	module  string
	name    string
	params  []api.ValueType
	results []api.ValueType
}

type definedFunc struct {
	exportName string
	params     []api.ValueType
	results    []api.ValueType
	body       []byte
}

func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{}
}

// AddImport declares a function import. The returned index is the
// function index usable in Call instructions.
func (b *ModuleBuilder) AddImport(module, name string, params, results []api.ValueType) uint32 {
	b.imports = append(b.imports, importedFunc{
		module:  module,
		name:    name,
		params:  params,
		results: results,
	})
	return uint32(len(b.imports) - 1)
}

// AddFunc defines a function with no locals and exports it under
// exportName. body is the flat instruction sequence without the
// trailing end opcode. The returned index is the function index
// usable in Call instructions.
func (b *ModuleBuilder) AddFunc(exportName string, params, results []api.ValueType, body []byte) uint32 {
	b.funcs = append(b.funcs, definedFunc{
		exportName: exportName,
		params:     params,
		results:    results,
		body:       body,
	})
	return uint32(len(b.imports) + len(b.funcs) - 1)
}

// Build emits the wasm binary.
func (b *ModuleBuilder) Build() []byte {
	// Magic and version.
	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	// Type section: one entry per unique signature.
	typeIdx := make(map[string]uint32)
	var types []byte
	var typeCount uint32
	indexOfType := func(params, results []api.ValueType) uint32 {
		key := fmt.Sprintf("%x:%x", params, results)
		if idx, ok := typeIdx[key]; ok {
			return idx
		}
		types = append(types, funcTypeTag)
		types = appendValueTypes(types, params)
		types = appendValueTypes(types, results)
		typeIdx[key] = typeCount
		typeCount++
		return typeCount - 1
	}

	importTypes := make([]uint32, len(b.imports))
	for i, imp := range b.imports {
		importTypes[i] = indexOfType(imp.params, imp.results)
	}
	funcTypes := make([]uint32, len(b.funcs))
	for i, fn := range b.funcs {
		funcTypes[i] = indexOfType(fn.params, fn.results)
	}

	var section []byte
	section = appendUleb128(section, uint64(typeCount))
	section = append(section, types...)
	wasm = appendSection(wasm, sectionType, section)

	// Import section.
	if len(b.imports) > 0 {
		section = appendUleb128(nil, uint64(len(b.imports)))
		for i, imp := range b.imports {
			section = appendName(section, imp.module)
			section = appendName(section, imp.name)
			section = append(section, importKindFn)
			section = appendUleb128(section, uint64(importTypes[i]))
		}
		wasm = appendSection(wasm, sectionImport, section)
	}

	// Function section.
	if len(b.funcs) > 0 {
		section = appendUleb128(nil, uint64(len(b.funcs)))
		for _, idx := range funcTypes {
			section = appendUleb128(section, uint64(idx))
		}
		wasm = appendSection(wasm, sectionFunction, section)
	}

	// Export section.
	var exported []int
	for i, fn := range b.funcs {
		if fn.exportName != "" {
			exported = append(exported, i)
		}
	}
	if len(exported) > 0 {
		section = appendUleb128(nil, uint64(len(exported)))
		for _, i := range exported {
			section = appendName(section, b.funcs[i].exportName)
			section = append(section, exportKindFn)
			section = appendUleb128(section, uint64(len(b.imports)+i))
		}
		wasm = appendSection(wasm, sectionExport, section)
	}

	// Code section.
	if len(b.funcs) > 0 {
		section = appendUleb128(nil, uint64(len(b.funcs)))
		for _, fn := range b.funcs {
			var body []byte
			body = appendUleb128(body, 0) // no locals
			body = append(body, fn.body...)
			body = append(body, opEnd)

			section = appendUleb128(section, uint64(len(body)))
			section = append(section, body...)
		}
		wasm = appendSection(wasm, sectionCode, section)
	}

	return wasm
}

func appendSection(wasm []byte, id byte, content []byte) []byte {
	wasm = append(wasm, id)
	wasm = appendUleb128(wasm, uint64(len(content)))
	return append(wasm, content...)
}

func appendValueTypes(dst []byte, vts []api.ValueType) []byte {
	dst = appendUleb128(dst, uint64(len(vts)))
	for _, vt := range vts {
		dst = append(dst, byte(vt))
	}
	return dst
}

func appendName(dst []byte, name string) []byte {
	dst = appendUleb128(dst, uint64(len(name)))
	return append(dst, name...)
}

func appendUleb128(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

func appendSleb128(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
