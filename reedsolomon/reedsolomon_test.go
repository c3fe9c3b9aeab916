package reedsolomon

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"rsc.io/qr/gf256"
)

var reference = gf256.NewField(0x11d, 2)

func encode(data []byte, ec int) []byte {
	check := make([]byte, ec)
	gf256.NewRSEncoder(reference, ec).ECC(data, check)
	return append(append([]byte(nil), data...), check...)
}

func corrupt(rng *rand.Rand, block []byte, n int) {
	for _, pos := range rng.Perm(len(block))[:n] {
		block[pos] ^= byte(1 + rng.Intn(255))
	}
}

func TestFieldMatchesReference(t *testing.T) {
	for i := 0; i < 255; i++ {
		if got, want := QRField.Exp(i), int(reference.Exp(i)); got != want {
			t.Fatalf("Exp(%d) = %d, want %d", i, got, want)
		}
	}
	for a := 1; a < 256; a++ {
		if got, want := QRField.Log(a), reference.Log(byte(a)); got != want {
			t.Fatalf("Log(%d) = %d, want %d", a, got, want)
		}
		if got, want := QRField.Inverse(a), int(reference.Inv(byte(a))); got != want {
			t.Fatalf("Inverse(%d) = %d, want %d", a, got, want)
		}
		for b := 0; b < 256; b++ {
			if got, want := QRField.Multiply(a, b), int(reference.Mul(byte(a), byte(b))); got != want {
				t.Fatalf("Multiply(%d, %d) = %d, want %d", a, b, got, want)
			}
		}
	}
}

func TestFieldIdentities(t *testing.T) {
	f := QRField
	for a := 1; a < 256; a++ {
		if Add(a, a) != 0 {
			t.Fatalf("Add(%d, %d) != 0", a, a)
		}
		if f.Multiply(a, f.Inverse(a)) != 1 {
			t.Fatalf("%d * inverse != 1", a)
		}
		for b := 1; b < 256; b++ {
			if got := f.Multiply(f.Divide(a, b), b); got != a {
				t.Fatalf("Multiply(Divide(%d, %d), %d) = %d", a, b, b, got)
			}
		}
	}
	if f.Multiply(0, 100) != 0 || f.Divide(0, 7) != 0 {
		t.Error("zero should absorb")
	}
}

func TestDivideByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	QRField.Divide(3, 0)
}

func TestPolyEval(t *testing.T) {
	f := QRField
	p := newPoly(f, []int{0, 0, 2, 3}) // 2x + 3
	if p.degree() != 1 {
		t.Fatalf("degree = %d, want 1", p.degree())
	}
	if p.eval(0) != 3 {
		t.Errorf("p(0) = %d, want 3", p.eval(0))
	}
	if p.eval(1) != 1 {
		t.Errorf("p(1) = %d, want 1", p.eval(1))
	}
	q := monomial(f, 2, 5).add(p).mul(newPoly(f, []int{1}))
	if q.degree() != 2 || q.at(2) != 5 || q.at(1) != 2 || q.at(0) != 3 {
		t.Errorf("unexpected coefficients %v", q.coef)
	}
	if !p.add(p).isZero() {
		t.Error("p + p should vanish")
	}
}

func TestDecodeNoErrors(t *testing.T) {
	block := encode([]byte("clean block"), 10)
	want := append([]byte(nil), block...)
	n, err := NewDecoder(QRField).Decode(block, 10)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || !bytes.Equal(block, want) {
		t.Errorf("clean block changed: n=%d", n)
	}
}

func TestDecodeCorrectsUpToHalfTheCheckCodewords(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dec := NewDecoder(QRField)
	for _, ec := range []int{2, 7, 10, 18, 30} {
		t.Run("", func(t *testing.T) {
			data := make([]byte, 20+rng.Intn(80))
			rng.Read(data)
			block := encode(data, ec)
			for trial := 0; trial < 20; trial++ {
				received := append([]byte(nil), block...)
				corrupt(rng, received, ec/2)
				n, err := dec.Decode(received, ec)
				if err != nil {
					t.Fatalf("ec=%d trial %d: %v", ec, trial, err)
				}
				if n != ec/2 {
					t.Errorf("ec=%d: corrected %d, want %d", ec, n, ec/2)
				}
				if !bytes.Equal(received, block) {
					t.Fatalf("ec=%d trial %d: block not restored", ec, trial)
				}
			}
		})
	}
}

func TestDecodeRejectsOneErrorTooMany(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	dec := NewDecoder(QRField)
	const ec = 30
	data := make([]byte, 60)
	rng.Read(data)
	block := encode(data, ec)
	for trial := 0; trial < 20; trial++ {
		received := append([]byte(nil), block...)
		corrupt(rng, received, ec/2+1)
		before := append([]byte(nil), received...)
		if _, err := dec.Decode(received, ec); !errors.Is(err, ErrUncorrectable) {
			t.Fatalf("trial %d: err = %v, want ErrUncorrectable", trial, err)
		}
		if !bytes.Equal(received, before) {
			t.Fatalf("trial %d: failed decode modified the block", trial)
		}
	}
}

func TestDecodeRejectsBadCheckCount(t *testing.T) {
	if _, err := NewDecoder(QRField).Decode(make([]byte, 4), 4); err == nil {
		t.Error("expected error when check codewords fill the block")
	}
}
