package ape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisassembleOneLinePerInstruction(t *testing.T) {
	prog, err := CompileSource([]byte(`const x = 2 + 3 * 4`), "<test>", nil)
	require.NoError(t, err)

	out := prog.Disassemble()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.NotEmpty(t, lines)

	ins := Instructions(prog.Main.Code)
	offset := 0
	count := 0
	for offset < len(ins) {
		op := Opcode(ins[offset])
		_, width := ReadOperands(op, ins, offset+1)
		offset += 1 + width
		count++
	}
	require.Equal(t, count, len(lines))
}

func TestDisassembleResolvesJumpTargetOffsets(t *testing.T) {
	prog, err := CompileSource([]byte(`if (true) { const a = 1 } else { const b = 2 }`), "<test>", nil)
	require.NoError(t, err)

	out := prog.Disassemble()
	require.Contains(t, out, "JUMP")

	ins := Instructions(prog.Main.Code)
	offset := 0
	for offset < len(ins) {
		op := Opcode(ins[offset])
		operands, width := ReadOperands(op, ins, offset+1)
		if op == OpJump || op == OpJumpIfFalse || op == OpJumpIfTrue {
			target := operands[0]
			require.GreaterOrEqual(t, target, 0)
			require.LessOrEqual(t, target, len(ins))
		}
		offset += 1 + width
	}
}
