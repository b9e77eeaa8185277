package x64

import "github.com/meigma/jmod/abi"

// SysV returns the System V AMD64 calling convention descriptor.
func SysV(t *Table) *abi.Descriptor {
	rax, rcx, rdx := t.Integer(0), t.Integer(1), t.Integer(2)
	rsi, rdi := t.Integer(6), t.Integer(7)
	r8, r9, r10, r11 := t.Integer(8), t.Integer(9), t.Integer(10), t.Integer(11)

	return abi.BuildDescriptor(t, abi.DescriptorConfig{
		InputInteger:    []*abi.Storage{rdi, rsi, rdx, rcx, r8, r9},
		InputVector:     t.vectors(0, 8),
		OutputInteger:   []*abi.Storage{rax, rdx},
		OutputVector:    t.vectors(0, 2),
		X87Outputs:      2,
		VolatileInteger: []*abi.Storage{r10, r11},
		VolatileVector:  t.vectors(8, 16),
		StackAlignment:  16,
		ShadowSpace:     0,
	})
}

// Win64 returns the Microsoft x64 calling convention descriptor.
func Win64(t *Table) *abi.Descriptor {
	rax, rcx, rdx := t.Integer(0), t.Integer(1), t.Integer(2)
	r8, r9, r10, r11 := t.Integer(8), t.Integer(9), t.Integer(10), t.Integer(11)

	return abi.BuildDescriptor(t, abi.DescriptorConfig{
		InputInteger:    []*abi.Storage{rcx, rdx, r8, r9},
		InputVector:     t.vectors(0, 4),
		OutputInteger:   []*abi.Storage{rax},
		OutputVector:    t.vectors(0, 1),
		X87Outputs:      0,
		VolatileInteger: []*abi.Storage{rax, r10, r11},
		VolatileVector:  t.vectors(4, 6),
		StackAlignment:  16,
		ShadowSpace:     32,
	})
}

// vectors returns xmm registers lo through hi-1.
func (t *Table) vectors(lo, hi int) []*abi.Storage {
	return append([]*abi.Storage(nil), t.vector[lo:hi]...)
}
