package ape

import (
	"fmt"
	"strings"

	"github.com/clarete/ape/ascii"
)

// Program is the compiler's output: the flat constants pool (spec.md
// §3 "Constants is a flat process-wide array of Values populated
// during compilation") and the top-level code, itself represented as a
// zero-argument FunctionTemplate so the VM can enter it exactly like
// any other call. Grounded on the teacher's vm_program.go, which played
// the analogous "compiled artifact + pretty-printer" role for PEG
// bytecode.
type Program struct {
	Constants []Value
	Main      *FunctionTemplate
	Source    string // path the program was compiled from, "" for REPL/string input
}

// Disassemble renders every instruction in the program's top-level code
// as plain text: offset, mnemonic, and decoded operands, one per line.
func (p *Program) Disassemble() string {
	return p.disassemble(p.Main, func(s string, _ asmToken) string { return s })
}

// DisassembleColor is the ANSI-themed variant, using the same palette
// the teacher's asmPrinterTheme drew from ascii.DefaultTheme.
func (p *Program) DisassembleColor() string {
	theme := ascii.DefaultTheme
	return p.disassemble(p.Main, func(s string, tok asmToken) string {
		color := ""
		switch tok {
		case asmMnemonic:
			color = theme.Operator
		case asmOperand:
			color = theme.Operand
		case asmComment:
			color = theme.Muted
		}
		if color == "" {
			return s
		}
		return color + s + ascii.Reset
	})
}

type asmToken int

const (
	asmMnemonic asmToken = iota
	asmOperand
	asmComment
)

func (p *Program) disassemble(fn *FunctionTemplate, format func(string, asmToken) string) string {
	var b strings.Builder
	ins := Instructions(fn.Code)
	offset := 0
	for offset < len(ins) {
		op := Opcode(ins[offset])
		operands, read := ReadOperands(op, ins, offset+1)
		fmt.Fprintf(&b, "%04d %s", offset, format(op.String(), asmMnemonic))
		for i, operand := range operands {
			b.WriteByte(' ')
			if isConstantOperand(op, i) && operand < len(p.Constants) {
				b.WriteString(format(fmt.Sprintf("%d", operand), asmOperand))
				b.WriteString(format(fmt.Sprintf(" ; %s", describeElement(p.Constants[operand])), asmComment))
			} else {
				b.WriteString(format(fmt.Sprintf("%d", operand), asmOperand))
			}
		}
		if offset < len(fn.Positions) {
			b.WriteString(format(fmt.Sprintf("  ; %s", fn.Positions[offset]), asmComment))
		}
		b.WriteByte('\n')
		offset += 1 + read
	}
	return b.String()
}

func isConstantOperand(op Opcode, operandIndex int) bool {
	switch op {
	case OpConstant, OpFunction:
		return operandIndex == 0
	default:
		return false
	}
}
