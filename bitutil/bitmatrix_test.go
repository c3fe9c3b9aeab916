package bitutil

import "testing"

func TestBitMatrixGetSet(t *testing.T) {
	m := NewBitMatrix(70, 3)
	m.Set(3, 1)
	m.Set(69, 2)
	if !m.Get(3, 1) || !m.Get(69, 2) {
		t.Error("set bits should read back")
	}
	if m.Get(1, 1) || m.Get(68, 2) {
		t.Error("unset bits should read false")
	}
	m.Unset(3, 1)
	if m.Get(3, 1) {
		t.Error("bit should be clear after Unset")
	}
	m.SetTo(5, 0, true)
	m.SetTo(69, 2, false)
	if !m.Get(5, 0) || m.Get(69, 2) {
		t.Error("SetTo did not assign")
	}
}

func TestBitMatrixFlip(t *testing.T) {
	m := NewSquareBitMatrix(4)
	m.Flip(1, 2)
	if !m.Get(1, 2) {
		t.Error("bit should be set after flip")
	}
	m.Flip(1, 2)
	if m.Get(1, 2) {
		t.Error("bit should be clear after double flip")
	}
}

func TestBitMatrixFlipAllKeepsPaddingClear(t *testing.T) {
	m := NewBitMatrix(5, 2)
	m.Set(0, 0)
	m.FlipAll()
	if got := m.CountSet(); got != 9 {
		t.Fatalf("CountSet after FlipAll = %d, want 9", got)
	}
	x, y, ok := m.BottomRightOnBit()
	if !ok || x != 4 || y != 1 {
		t.Errorf("BottomRightOnBit = (%d,%d,%v), want (4,1,true)", x, y, ok)
	}
}

func TestBitMatrixSetRegion(t *testing.T) {
	m := NewSquareBitMatrix(8)
	m.SetRegion(2, 2, 4, 4)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			want := x >= 2 && x < 6 && y >= 2 && y < 6
			if m.Get(x, y) != want {
				t.Errorf("(%d,%d) = %v, want %v", x, y, m.Get(x, y), want)
			}
		}
	}
}

func TestBitMatrixTranspose(t *testing.T) {
	m := ParseBitMatrix(`
##.
...
#..
`, "#")
	m.Transpose()
	want := ParseBitMatrix(`
#.#
#..
...
`, "#")
	if !m.Equal(want) {
		t.Errorf("transpose mismatch:\n%s\nwant:\n%s", m, want)
	}
}

func TestBitMatrixOnBits(t *testing.T) {
	m := NewSquareBitMatrix(100)
	if _, _, ok := m.TopLeftOnBit(); ok {
		t.Fatal("empty matrix has no on bits")
	}
	m.Set(75, 3)
	m.Set(10, 80)
	x, y, ok := m.TopLeftOnBit()
	if !ok || x != 75 || y != 3 {
		t.Errorf("TopLeftOnBit = (%d,%d), want (75,3)", x, y)
	}
	x, y, ok = m.BottomRightOnBit()
	if !ok || x != 10 || y != 80 {
		t.Errorf("BottomRightOnBit = (%d,%d), want (10,80)", x, y)
	}
}

func TestBitMatrixCloneIsIndependent(t *testing.T) {
	m := NewSquareBitMatrix(8)
	m.Set(1, 1)
	c := m.Clone()
	c.Set(2, 2)
	if m.Get(2, 2) {
		t.Error("modifying clone should not affect original")
	}
	if !c.Get(1, 1) {
		t.Error("clone lost a bit")
	}
}

func TestBitMatrixStringRoundTrip(t *testing.T) {
	m := NewBitMatrix(3, 2)
	m.Set(0, 0)
	m.Set(2, 1)
	s := m.String()
	if s != "#..\n..#\n" {
		t.Fatalf("String = %q", s)
	}
	if !ParseBitMatrix(s, "#").Equal(m) {
		t.Error("ParseBitMatrix(String()) differs")
	}
}

func TestNewBitMatrixPanicsOnZeroSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewBitMatrix(0, 4)
}
