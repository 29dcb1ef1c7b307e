package coords

import (
	"math"
	"testing"
)

func TestMultiplyAgainstIdentity(t *testing.T) {
	m := Matrix{2, 0, 0, 3, 10, 20}
	if got := m.Multiply(Identity()); got != m {
		t.Fatalf("m×I = %v, want %v", got, m)
	}
	if got := Identity().Multiply(m); got != m {
		t.Fatalf("I×m = %v, want %v", got, m)
	}
}

func TestTranslateThenScale(t *testing.T) {
	m := Translate(5, 7).Multiply(Scale(2, 2))
	p := m.Transform(Point{X: 1, Y: 1})
	if p.X != 12 || p.Y != 16 {
		t.Fatalf("transform = %v, want (12,16)", p)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Matrix{1.5, 0, 0, 1.5, 30, 40}
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	p := inv.Transform(m.Transform(Point{X: 3, Y: 4}))
	if math.Abs(p.X-3) > 1e-9 || math.Abs(p.Y-4) > 1e-9 {
		t.Fatalf("round trip = %v, want (3,4)", p)
	}
}

func TestInverseSingular(t *testing.T) {
	if _, err := (Matrix{0, 0, 0, 0, 1, 2}).Inverse(); err == nil {
		t.Fatal("expected error for singular matrix")
	}
}

func TestFontSizeIsMagnitude(t *testing.T) {
	if got := (Matrix{-12, 0, 0, 12, 0, 0}).FontSize(); got != 12 {
		t.Fatalf("FontSize = %v, want 12", got)
	}
}

func TestFlipYBoundaries(t *testing.T) {
	if got := FlipY(900, 0); got != 900 {
		t.Fatalf("FlipY(900,0) = %v, want 900", got)
	}
	if got := FlipY(900, 900); got != 0 {
		t.Fatalf("FlipY(900,900) = %v, want 0", got)
	}
	if got := FlipY(900, 250.5); got != 649.5 {
		t.Fatalf("FlipY(900,250.5) = %v, want 649.5", got)
	}
}
