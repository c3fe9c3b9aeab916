package reedsolomon

import (
	"errors"
	"fmt"
)

// ErrUncorrectable means the block holds more errors than its check
// codewords can repair.
var ErrUncorrectable = errors.New("reedsolomon: block is uncorrectable")

// Decoder repairs codeword blocks in place.
type Decoder struct {
	field *Field
}

// NewDecoder returns a decoder over field.
func NewDecoder(field *Field) *Decoder {
	return &Decoder{field: field}
}

// Decode corrects block, data codewords followed by twoS check codewords,
// in place. It returns the number of codewords it changed.
func (d *Decoder) Decode(block []byte, twoS int) (int, error) {
	if twoS <= 0 || twoS >= len(block) {
		return 0, fmt.Errorf("reedsolomon: %d check codewords for a block of %d", twoS, len(block))
	}
	f := d.field
	received := make([]int, len(block))
	for i, b := range block {
		received[i] = int(b)
	}
	r := newPoly(f, received)

	syndromes := make([]int, twoS)
	clean := true
	for i := 0; i < twoS; i++ {
		s := r.eval(f.Exp(i + f.generatorBase))
		syndromes[twoS-1-i] = s
		if s != 0 {
			clean = false
		}
	}
	if clean {
		return 0, nil
	}

	sigma, omega, err := d.euclid(monomial(f, twoS, 1), newPoly(f, syndromes), twoS)
	if err != nil {
		return 0, err
	}
	if sigma.degree() > twoS/2 {
		return 0, fmt.Errorf("%w: locator degree %d exceeds %d", ErrUncorrectable, sigma.degree(), twoS/2)
	}
	locations, err := d.chien(sigma)
	if err != nil {
		return 0, err
	}
	magnitudes := d.forney(omega, locations)
	for i, loc := range locations {
		pos := len(block) - 1 - f.Log(loc)
		if pos < 0 {
			return 0, fmt.Errorf("%w: error position outside block", ErrUncorrectable)
		}
		received[pos] = Add(received[pos], magnitudes[i])
	}
	for i, v := range received {
		block[i] = byte(v)
	}
	return len(locations), nil
}

// euclid runs the extended Euclidean algorithm on x^R and the syndrome
// polynomial until the remainder degree drops below R/2, yielding the
// error locator and evaluator.
func (d *Decoder) euclid(a, b *poly, R int) (sigma, omega *poly, err error) {
	f := d.field
	if a.degree() < b.degree() {
		a, b = b, a
	}
	rLast, r := a, b
	tLast, t := newPoly(f, []int{0}), newPoly(f, []int{1})

	for 2*r.degree() >= R {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if rLast.isZero() {
			return nil, nil, fmt.Errorf("%w: euclid remainder vanished", ErrUncorrectable)
		}
		r = rLastLast
		q := newPoly(f, []int{0})
		inv := f.Inverse(rLast.at(rLast.degree()))
		for r.degree() >= rLast.degree() && !r.isZero() {
			diff := r.degree() - rLast.degree()
			scale := f.Multiply(r.at(r.degree()), inv)
			q = q.add(monomial(f, diff, scale))
			r = r.add(rLast.mulMonomial(diff, scale))
		}
		t = q.mul(tLast).add(tLastLast)
		if r.degree() >= rLast.degree() {
			return nil, nil, fmt.Errorf("%w: euclid did not reduce", ErrUncorrectable)
		}
	}

	lead := t.at(0)
	if lead == 0 {
		return nil, nil, fmt.Errorf("%w: sigma(0) is zero", ErrUncorrectable)
	}
	inv := f.Inverse(lead)
	return t.scale(inv), r.scale(inv), nil
}

// chien finds the error locations by trying every non-zero element.
func (d *Decoder) chien(sigma *poly) ([]int, error) {
	n := sigma.degree()
	locs := make([]int, 0, n)
	for i := 1; i < 256 && len(locs) < n; i++ {
		if sigma.eval(i) == 0 {
			locs = append(locs, d.field.Inverse(i))
		}
	}
	if len(locs) != n {
		return nil, fmt.Errorf("%w: found %d roots for locator of degree %d", ErrUncorrectable, len(locs), n)
	}
	return locs, nil
}

// forney computes the error magnitude at each location.
func (d *Decoder) forney(omega *poly, locs []int) []int {
	f := d.field
	mags := make([]int, len(locs))
	for i, xi := range locs {
		xiInv := f.Inverse(xi)
		den := 1
		for j, xj := range locs {
			if i != j {
				den = f.Multiply(den, Add(1, f.Multiply(xj, xiInv)))
			}
		}
		mags[i] = f.Divide(omega.eval(xiInv), den)
		if f.generatorBase != 0 {
			mags[i] = f.Multiply(mags[i], xiInv)
		}
	}
	return mags
}
