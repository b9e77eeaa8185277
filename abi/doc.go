// Package abi describes native calling conventions as tables of physical
// storage locations.
//
// A [Storage] names one register or stack slot by storage class and index.
// A [Descriptor] groups storages by direction (inputs, outputs, volatile)
// and class, and carries the stack alignment and shadow space a call stub
// generator needs. Architecture-specific register tables live in
// subpackages such as abi/x64.
package abi
