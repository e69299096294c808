package wasmbin

// Instruction opcodes needed by the synthesized guests.
const (
	opUnreachable   = 0x00
	opCall          = 0x10
	opDrop          = 0x1a
	opI32Const      = 0x41
	opI64Const      = 0x42
	opI64ExtendI32S = 0xac
	opEnd           = 0x0b
)

// Body builds a flat function body instruction by instruction.
type Body []byte

func (b Body) I32Const(v int32) Body {
	return appendSleb128(append(b, opI32Const), int64(v))
}

func (b Body) I64Const(v int64) Body {
	return appendSleb128(append(b, opI64Const), v)
}

func (b Body) Call(funcIdx uint32) Body {
	return appendUleb128(append(b, opCall), uint64(funcIdx))
}

func (b Body) Drop() Body {
	return append(b, opDrop)
}

func (b Body) I64ExtendI32S() Body {
	return append(b, opI64ExtendI32S)
}

func (b Body) Unreachable() Body {
	return append(b, opUnreachable)
}
