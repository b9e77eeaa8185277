package abi

import "slices"

// Architecture maps storage classes to their physical properties.
type Architecture interface {
	// TypeSize returns the width in bytes of one location of class c.
	// It panics with *InvalidClassError for classes outside the enumeration.
	TypeSize(c StorageClass) int

	// IsStackType reports whether c denotes stack slots.
	IsStackType(c StorageClass) bool

	// StackSlot returns a new storage for stack slot index.
	StackSlot(index int) *Storage

	// X87Slot returns a new storage for extended-precision register index.
	X87Slot(index int) *Storage
}

// DescriptorConfig lists the registers of one calling convention.
type DescriptorConfig struct {
	InputInteger  []*Storage
	InputVector   []*Storage
	OutputInteger []*Storage
	OutputVector  []*Storage

	// X87Outputs is the number of extended-precision return registers.
	X87Outputs int

	VolatileInteger []*Storage
	VolatileVector  []*Storage

	// StackAlignment is the required stack alignment in bytes at a call.
	StackAlignment int

	// ShadowSpace is the number of bytes the caller reserves above the
	// return address for the callee to spill register arguments.
	ShadowSpace int
}

// Descriptor is the immutable calling convention table consumed by a call
// stub generator.
type Descriptor struct {
	arch           Architecture
	inputs         [NumClasses][]*Storage
	outputs        [NumClasses][]*Storage
	volatile       [NumClasses][]*Storage
	stackAlignment int
	shadowSpace    int
}

// BuildDescriptor assembles a Descriptor for arch.
//
// Register slices are copied, so later changes to cfg do not affect the
// descriptor. The x87 outputs are synthesized as arch.X87Slot(0) through
// arch.X87Slot(cfg.X87Outputs-1). No other validation is performed.
func BuildDescriptor(arch Architecture, cfg DescriptorConfig) *Descriptor {
	d := &Descriptor{
		arch:           arch,
		stackAlignment: cfg.StackAlignment,
		shadowSpace:    cfg.ShadowSpace,
	}
	d.inputs[ClassInteger] = slices.Clone(cfg.InputInteger)
	d.inputs[ClassVector] = slices.Clone(cfg.InputVector)
	d.outputs[ClassInteger] = slices.Clone(cfg.OutputInteger)
	d.outputs[ClassVector] = slices.Clone(cfg.OutputVector)
	d.volatile[ClassInteger] = slices.Clone(cfg.VolatileInteger)
	d.volatile[ClassVector] = slices.Clone(cfg.VolatileVector)

	x87 := make([]*Storage, max(cfg.X87Outputs, 0))
	for i := range x87 {
		x87[i] = arch.X87Slot(i)
	}
	d.outputs[ClassX87] = x87
	return d
}

// Arch returns the architecture the descriptor was built for.
func (d *Descriptor) Arch() Architecture {
	return d.arch
}

// Inputs returns the argument registers of class c in assignment order.
func (d *Descriptor) Inputs(c StorageClass) []*Storage {
	return group(&d.inputs, c)
}

// Outputs returns the return registers of class c in assignment order.
func (d *Descriptor) Outputs(c StorageClass) []*Storage {
	return group(&d.outputs, c)
}

// Volatile returns the caller-saved scratch registers of class c.
func (d *Descriptor) Volatile(c StorageClass) []*Storage {
	return group(&d.volatile, c)
}

// StackAlignment returns the required stack alignment in bytes.
func (d *Descriptor) StackAlignment() int {
	return d.stackAlignment
}

// ShadowSpace returns the shadow space size in bytes.
func (d *Descriptor) ShadowSpace() int {
	return d.shadowSpace
}

// IsInput reports whether s is an argument register.
func (d *Descriptor) IsInput(s *Storage) bool {
	return contains(&d.inputs, s)
}

// IsOutput reports whether s is a return register.
func (d *Descriptor) IsOutput(s *Storage) bool {
	return contains(&d.outputs, s)
}

// IsVolatile reports whether s is one of the volatile scratch registers.
func (d *Descriptor) IsVolatile(s *Storage) bool {
	return contains(&d.volatile, s)
}

func group(g *[NumClasses][]*Storage, c StorageClass) []*Storage {
	if !c.Valid() {
		return nil
	}
	return slices.Clone(g[c])
}

func contains(g *[NumClasses][]*Storage, s *Storage) bool {
	if s == nil || !s.Class().Valid() {
		return false
	}
	return slices.ContainsFunc(g[s.Class()], s.Equal)
}
