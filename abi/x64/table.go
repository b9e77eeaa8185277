// Package x64 provides the x86-64 register table and the System V and
// Windows x64 calling convention descriptors.
package x64

import (
	"errors"
	"fmt"

	"github.com/chenzhuoyu/iasm/x86_64"
	"github.com/klauspost/cpuid/v2"

	"github.com/meigma/jmod/abi"
)

const (
	// NumIntegerRegisters is the number of general-purpose registers.
	NumIntegerRegisters = 16
	// NumVectorRegisters is the number of architectural xmm registers (with AVX-512).
	NumVectorRegisters = 32
)

// ErrNoRegister is returned when a register index is outside its family.
var ErrNoRegister = errors.New("x64: no such register")

// gprs lists the general-purpose registers in hardware encoding order.
var gprs = [NumIntegerRegisters]x86_64.Register64{
	x86_64.RAX, x86_64.RCX, x86_64.RDX, x86_64.RBX,
	x86_64.RSP, x86_64.RBP, x86_64.RSI, x86_64.RDI,
	x86_64.R8, x86_64.R9, x86_64.R10, x86_64.R11,
	x86_64.R12, x86_64.R13, x86_64.R14, x86_64.R15,
}

// Table is the x86-64 register table. It implements abi.Architecture.
//
// Integer and vector registers are built once by NewTable and returned as
// the same *abi.Storage on every lookup. Stack and x87 storages are created
// per call: they compare Equal but are distinct pointers.
type Table struct {
	integer [NumIntegerRegisters]*abi.Storage
	vector  [NumVectorRegisters]*abi.Storage
	byGPR   map[x86_64.Register64]*abi.Storage
}

var _ abi.Architecture = (*Table)(nil)

// NewTable builds the register table. A Table is immutable and may be
// shared by any number of goroutines.
func NewTable() *Table {
	t := &Table{byGPR: make(map[x86_64.Register64]*abi.Storage, NumIntegerRegisters)}
	for i, r := range gprs {
		s := abi.NewStorage(abi.ClassInteger, i, r.String())
		t.integer[i] = s
		t.byGPR[r] = s
	}
	for i := range t.vector {
		t.vector[i] = abi.NewStorage(abi.ClassVector, i, fmt.Sprintf("xmm%d", i))
	}
	return t
}

// TypeSize returns the width in bytes of one location of class c.
func (t *Table) TypeSize(c abi.StorageClass) int {
	switch c {
	case abi.ClassInteger, abi.ClassStack:
		return 8
	case abi.ClassVector, abi.ClassX87:
		return 16
	default:
		panic(&abi.InvalidClassError{Class: c})
	}
}

// IsStackType reports whether c is the stack class.
func (t *Table) IsStackType(c abi.StorageClass) bool {
	return c == abi.ClassStack
}

// Register returns the storage for index within class.
func (t *Table) Register(class abi.StorageClass, index int) (*abi.Storage, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: %v %d", ErrNoRegister, class, index)
	}
	switch class {
	case abi.ClassInteger:
		if index >= NumIntegerRegisters {
			return nil, fmt.Errorf("%w: %v %d", ErrNoRegister, class, index)
		}
		return t.integer[index], nil
	case abi.ClassVector:
		if index >= NumVectorRegisters {
			return nil, fmt.Errorf("%w: %v %d", ErrNoRegister, class, index)
		}
		return t.vector[index], nil
	case abi.ClassX87:
		return t.X87Slot(index), nil
	case abi.ClassStack:
		return t.StackSlot(index), nil
	default:
		return nil, &abi.InvalidClassError{Class: class}
	}
}

// Integer returns general-purpose register i. It panics if i is out of range.
func (t *Table) Integer(i int) *abi.Storage {
	return t.integer[i]
}

// Vector returns xmm register i. It panics if i is out of range.
func (t *Table) Vector(i int) *abi.Storage {
	return t.vector[i]
}

// GPR returns the storage for an assembler register.
func (t *Table) GPR(r x86_64.Register64) (*abi.Storage, bool) {
	s, ok := t.byGPR[r]
	return s, ok
}

// StackSlot returns a new storage for stack slot index.
func (t *Table) StackSlot(index int) *abi.Storage {
	return abi.NewStorage(abi.ClassStack, index, fmt.Sprintf("Stack@%d", index))
}

// X87Slot returns a new storage for x87 register index.
func (t *Table) X87Slot(index int) *abi.Storage {
	return abi.NewStorage(abi.ClassX87, index, fmt.Sprintf("X87(%d)", index))
}

// UsableVectorRegisters returns how many xmm registers the host CPU
// exposes: all 32 with AVX-512F, otherwise 16.
func (t *Table) UsableVectorRegisters() int {
	if cpuid.CPU.Supports(cpuid.AVX512F) {
		return NumVectorRegisters
	}
	return 16
}
