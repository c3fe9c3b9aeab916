// Package reedsolomon implements GF(256) arithmetic and the Reed-Solomon
// decoder used to repair QR codeword blocks.
package reedsolomon

import "fmt"

// Field is GF(2^8) built from a primitive polynomial. Elements are ints in
// [0, 255]; addition and subtraction are both XOR.
type Field struct {
	exp           [512]int
	log           [256]int
	primitive     int
	generatorBase int
}

// QRField is the QR code field: x^8 + x^4 + x^3 + x^2 + 1 with generator
// polynomial roots starting at alpha^0.
var QRField = NewField(0x011D, 0)

// NewField builds the exp and log tables for the given primitive polynomial.
// The exp table is doubled so that products can index it without a modulo.
func NewField(primitive, generatorBase int) *Field {
	f := &Field{primitive: primitive, generatorBase: generatorBase}
	x := 1
	for i := 0; i < 255; i++ {
		f.exp[i] = x
		f.exp[i+255] = x
		f.log[x] = i
		x <<= 1
		if x&0x100 != 0 {
			x ^= primitive
		}
	}
	f.exp[510] = f.exp[0]
	f.exp[511] = f.exp[1]
	return f
}

// Add returns a + b, which is also a - b.
func Add(a, b int) int {
	return a ^ b
}

// Exp returns alpha^a for a >= 0.
func (f *Field) Exp(a int) int {
	return f.exp[a%255]
}

// Log returns the discrete logarithm of a. Log(0) is undefined and panics.
func (f *Field) Log(a int) int {
	if a == 0 {
		panic("reedsolomon: log(0)")
	}
	return f.log[a]
}

// Multiply returns a * b.
func (f *Field) Multiply(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[f.log[a]+f.log[b]]
}

// Divide returns a / b. Division by zero panics.
func (f *Field) Divide(a, b int) int {
	if b == 0 {
		panic("reedsolomon: division by zero")
	}
	if a == 0 {
		return 0
	}
	return f.exp[f.log[a]+255-f.log[b]]
}

// Inverse returns 1 / a.
func (f *Field) Inverse(a int) int {
	if a == 0 {
		panic("reedsolomon: inverse of zero")
	}
	return f.exp[255-f.log[a]]
}

// GeneratorBase is the exponent of the first root of the code generator.
func (f *Field) GeneratorBase() int { return f.generatorBase }

func (f *Field) String() string {
	return fmt.Sprintf("GF(256, 0x%03x)", f.primitive)
}
