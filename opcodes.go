package ape

import "fmt"

// Opcode is the bytecode's single-byte instruction tag. The encoding
// itself is an internal detail (spec.md §9: "The opcode enum and its
// encoding are internal; only §4.4's semantics are contractual") — what
// matters is that every mnemonic in spec.md §4.4's table is present
// with the stack effect described there.
type Opcode byte

const (
	OpConstant Opcode = iota
	OpNumber
	OpTrue
	OpFalse
	OpNull
	OpPop
	OpDup

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	OpBitOr
	OpBitXor
	OpBitAnd
	OpLShift
	OpRShift

	OpMinus
	OpBang

	OpCompare
	OpEqual
	OpNotEqual
	OpGT
	OpGTE

	OpJump
	OpJumpIfFalse
	OpJumpIfTrue

	OpDefineGlobal
	OpSetGlobal
	OpGetGlobal

	OpDefineLocal
	OpSetLocal
	OpGetLocal

	OpGetNativeFunction

	OpGetFree
	OpSetFree

	OpCurrentFunction
	OpGetThis

	OpArray
	OpMapStart
	OpMapEnd

	OpGetIndex
	OpSetIndex
	OpGetValueAt

	OpCall
	OpReturn
	OpReturnValue

	OpFunction

	OpLen

	OpSetRecover
)

// OperandWidths lists the byte-width of each operand for an opcode, in
// order. u8=1, u16=2, u64=8 (spec.md §4.4's operand column); OpFunction
// has two operands (const-ix u16, nfree u8).
var OperandWidths = map[Opcode][]int{
	OpConstant: {2},
	OpNumber:   {8},
	OpTrue:     {},
	OpFalse:    {},
	OpNull:     {},
	OpPop:      {},
	OpDup:      {},

	OpAdd: {}, OpSub: {}, OpMul: {}, OpDiv: {}, OpMod: {},
	OpBitOr: {}, OpBitXor: {}, OpBitAnd: {}, OpLShift: {}, OpRShift: {},
	OpMinus: {}, OpBang: {},

	OpCompare: {}, OpEqual: {}, OpNotEqual: {}, OpGT: {}, OpGTE: {},

	OpJump:         {2},
	OpJumpIfFalse:  {2},
	OpJumpIfTrue:   {2},

	OpDefineGlobal: {2}, OpSetGlobal: {2}, OpGetGlobal: {2},
	OpDefineLocal: {1}, OpSetLocal: {1}, OpGetLocal: {1},

	OpGetNativeFunction: {2},

	OpGetFree: {1}, OpSetFree: {1},

	OpCurrentFunction: {}, OpGetThis: {},

	OpArray:    {2},
	OpMapStart: {2},
	OpMapEnd:   {2},

	OpGetIndex: {}, OpSetIndex: {}, OpGetValueAt: {},

	OpCall:        {1},
	OpReturn:      {},
	OpReturnValue: {},

	OpFunction: {2, 1},

	OpLen: {},

	OpSetRecover: {2},
}

var opcodeNames = map[Opcode]string{
	OpConstant: "CONSTANT", OpNumber: "NUMBER", OpTrue: "TRUE", OpFalse: "FALSE",
	OpNull: "NULL", OpPop: "POP", OpDup: "DUP",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD",
	OpBitOr: "OR", OpBitXor: "XOR", OpBitAnd: "AND", OpLShift: "LSHIFT", OpRShift: "RSHIFT",
	OpMinus: "MINUS", OpBang: "BANG",
	OpCompare: "COMPARE", OpEqual: "EQUAL", OpNotEqual: "NOT_EQUAL", OpGT: "GT", OpGTE: "GTE",
	OpJump: "JUMP", OpJumpIfFalse: "JUMP_IF_FALSE", OpJumpIfTrue: "JUMP_IF_TRUE",
	OpDefineGlobal: "DEFINE_GLOBAL", OpSetGlobal: "SET_GLOBAL", OpGetGlobal: "GET_GLOBAL",
	OpDefineLocal: "DEFINE_LOCAL", OpSetLocal: "SET_LOCAL", OpGetLocal: "GET_LOCAL",
	OpGetNativeFunction: "GET_NATIVE_FUNCTION",
	OpGetFree:           "GET_FREE", OpSetFree: "SET_FREE",
	OpCurrentFunction: "CURRENT_FUNCTION", OpGetThis: "GET_THIS",
	OpArray: "ARRAY", OpMapStart: "MAP_START", OpMapEnd: "MAP_END",
	OpGetIndex: "GET_INDEX", OpSetIndex: "SET_INDEX", OpGetValueAt: "GET_VALUE_AT",
	OpCall: "CALL", OpReturn: "RETURN", OpReturnValue: "RETURN_VALUE",
	OpFunction: "FUNCTION",
	OpLen:      "LEN",
	OpSetRecover: "SET_RECOVER",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// width returns the total encoded length (opcode byte + operands).
func (op Opcode) width() int {
	n := 1
	for _, w := range OperandWidths[op] {
		n += w
	}
	return n
}
