package ape

import "encoding/binary"

// Instructions is a flat encoded bytecode buffer: one opcode byte
// followed by its operands, back to back, matching the compact
// encoding spec.md §2 calls for ("Bytecode (opcodes): opcode set,
// encoder, disassembler"). This plays the role the teacher's
// vm_instructions.go/vm_encoder.go pair played for PEG bytecode, now
// generalized to the language VM's own opcode table (opcodes.go).
type Instructions []byte

// Make encodes one instruction: opcode + operands, each operand
// right-padded/truncated to the width OperandWidths declares.
func Make(op Opcode, operands ...int) Instructions {
	widths, ok := OperandWidths[op]
	if !ok {
		return nil
	}
	length := op.width()
	out := make(Instructions, length)
	out[0] = byte(op)
	offset := 1
	for i, w := range widths {
		switch w {
		case 1:
			out[offset] = byte(operands[i])
		case 2:
			binary.BigEndian.PutUint16(out[offset:], uint16(operands[i]))
		case 8:
			binary.BigEndian.PutUint64(out[offset:], uint64(operands[i]))
		}
		offset += w
	}
	return out
}

// PatchUint16 overwrites a 2-byte operand in place at byte offset pos+1
// (just past the opcode byte) — used by the compiler's forward-jump
// backpatching (spec.md §4.4: "the compiler emits a sentinel... and
// overwrites the 16-bit operand once the target is known").
func (ins Instructions) PatchUint16(pos int, value int) {
	binary.BigEndian.PutUint16(ins[pos+1:], uint16(value))
}

func ReadUint16(ins Instructions, offset int) uint16 {
	return binary.BigEndian.Uint16(ins[offset:])
}

func ReadUint8(ins Instructions, offset int) uint8 {
	return ins[offset]
}

func ReadUint64(ins Instructions, offset int) uint64 {
	return binary.BigEndian.Uint64(ins[offset:])
}

// ReadOperands decodes the operands of the instruction at offset,
// returning their integer values and how many bytes they occupied
// (excluding the opcode byte) — used by the disassembler.
func ReadOperands(op Opcode, ins Instructions, offset int) ([]int, int) {
	widths := OperandWidths[op]
	operands := make([]int, len(widths))
	read := 0
	for i, w := range widths {
		switch w {
		case 1:
			operands[i] = int(ReadUint8(ins, offset+read))
		case 2:
			operands[i] = int(ReadUint16(ins, offset+read))
		case 8:
			operands[i] = int(ReadUint64(ins, offset+read))
		}
		read += w
	}
	return operands, read
}
