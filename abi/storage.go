package abi

import "fmt"

// StorageClass is the kind of physical location a value is placed in.
type StorageClass uint8

const (
	// ClassInteger is a general-purpose register.
	ClassInteger StorageClass = iota
	// ClassVector is a vector (SIMD) register.
	ClassVector
	// ClassX87 is an extended-precision (x87 FPU stack) register.
	ClassX87
	// ClassStack is a stack slot.
	ClassStack
)

// NumClasses is the number of storage classes.
const NumClasses = 4

func (c StorageClass) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassVector:
		return "vector"
	case ClassX87:
		return "x87"
	case ClassStack:
		return "stack"
	default:
		return fmt.Sprintf("StorageClass(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the defined classes.
func (c StorageClass) Valid() bool {
	return c < NumClasses
}

// InvalidClassError is the panic value used when a storage class outside
// the enumeration reaches an architecture.
type InvalidClassError struct {
	Class StorageClass
}

func (e *InvalidClassError) Error() string {
	return fmt.Sprintf("abi: invalid storage class %d", uint8(e.Class))
}

// Storage is one physical location: a register or an indexed stack slot.
// Storages are immutable.
type Storage struct {
	class StorageClass
	index int
	name  string
}

// NewStorage returns a storage for the given class, index and debug name.
func NewStorage(class StorageClass, index int, name string) *Storage {
	return &Storage{class: class, index: index, name: name}
}

// Class returns the storage class.
func (s *Storage) Class() StorageClass {
	return s.class
}

// Index returns the ordinal within the class. For registers this is the
// hardware encoding; for stack slots it is the slot number.
func (s *Storage) Index() int {
	return s.index
}

// Name returns the debug name.
func (s *Storage) Name() string {
	return s.name
}

func (s *Storage) String() string {
	return s.name
}

// Equal reports whether s and o describe the same location.
// Pointer identity is not required.
func (s *Storage) Equal(o *Storage) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.class == o.class && s.index == o.index && s.name == o.name
}
