package reedsolomon

// poly is an immutable polynomial over a Field. coef[0] is the coefficient of
// the highest power; a zero polynomial is always the single coefficient 0.
type poly struct {
	field *Field
	coef  []int
}

func newPoly(field *Field, coef []int) *poly {
	if len(coef) == 0 {
		panic("reedsolomon: polynomial without coefficients")
	}
	lead := 0
	for lead < len(coef)-1 && coef[lead] == 0 {
		lead++
	}
	return &poly{field: field, coef: append([]int(nil), coef[lead:]...)}
}

func monomial(field *Field, degree, c int) *poly {
	if degree < 0 {
		panic("reedsolomon: negative degree")
	}
	if c == 0 {
		return newPoly(field, []int{0})
	}
	coef := make([]int, degree+1)
	coef[0] = c
	return &poly{field: field, coef: coef}
}

func (p *poly) degree() int { return len(p.coef) - 1 }

func (p *poly) isZero() bool { return p.coef[0] == 0 }

// at returns the coefficient of x^degree.
func (p *poly) at(degree int) int {
	return p.coef[len(p.coef)-1-degree]
}

// eval computes p(a) with Horner's rule.
func (p *poly) eval(a int) int {
	if a == 0 {
		return p.at(0)
	}
	r := 0
	for _, c := range p.coef {
		r = Add(p.field.Multiply(a, r), c)
	}
	return r
}

func (p *poly) add(o *poly) *poly {
	if p.isZero() {
		return o
	}
	if o.isZero() {
		return p
	}
	small, large := p.coef, o.coef
	if len(small) > len(large) {
		small, large = large, small
	}
	sum := append([]int(nil), large...)
	off := len(large) - len(small)
	for i, c := range small {
		sum[off+i] = Add(sum[off+i], c)
	}
	return newPoly(p.field, sum)
}

func (p *poly) mul(o *poly) *poly {
	if p.isZero() || o.isZero() {
		return newPoly(p.field, []int{0})
	}
	prod := make([]int, len(p.coef)+len(o.coef)-1)
	for i, a := range p.coef {
		for j, b := range o.coef {
			prod[i+j] = Add(prod[i+j], p.field.Multiply(a, b))
		}
	}
	return newPoly(p.field, prod)
}

func (p *poly) scale(s int) *poly {
	return p.mulMonomial(0, s)
}

// mulMonomial returns p * c * x^degree.
func (p *poly) mulMonomial(degree, c int) *poly {
	if degree < 0 {
		panic("reedsolomon: negative degree")
	}
	if c == 0 {
		return newPoly(p.field, []int{0})
	}
	prod := make([]int, len(p.coef)+degree)
	for i, a := range p.coef {
		prod[i] = p.field.Multiply(a, c)
	}
	return newPoly(p.field, prod)
}
