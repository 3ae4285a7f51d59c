package pairing

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const n = 64
	for v := uint64(1); v < n; v++ {
		for u := uint64(0); u < v; u++ {
			e, err := Encode(u, v)
			if err != nil {
				t.Fatalf("Encode(%d,%d): %v", u, v, err)
			}
			gotU, gotV := Decode(e)
			if gotU != u || gotV != v {
				t.Fatalf("Decode(Encode(%d,%d))=(%d,%d), want (%d,%d)", u, v, gotU, gotV, u, v)
			}
		}
	}
}

func TestEncodeOrderIndependent(t *testing.T) {
	e1, err := Encode(3, 7)
	if err != nil {
		t.Fatal(err)
	}
	e2, err := Encode(7, 3)
	if err != nil {
		t.Fatal(err)
	}
	if e1 != e2 {
		t.Fatalf("Encode(3,7)=%d != Encode(7,3)=%d", e1, e2)
	}
}

func TestEncodeSelfLoop(t *testing.T) {
	if _, err := Encode(5, 5); err != ErrInvalidPair {
		t.Fatalf("Encode(5,5) error = %v, want ErrInvalidPair", err)
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	const n = 40
	maxEdge, _ := Encode(n-2, n-1)
	for e := uint64(0); e <= maxEdge; e++ {
		u, v := Decode(e)
		if u >= v {
			t.Fatalf("Decode(%d) = (%d,%d), want u < v", e, u, v)
		}
		got, err := Encode(u, v)
		if err != nil {
			t.Fatalf("Encode(%d,%d): %v", u, v, err)
		}
		if got != e {
			t.Fatalf("Encode(Decode(%d))=%d, want %d", e, got, e)
		}
	}
}

func TestSketchLengthIsPowerOfTwoAndCovers(t *testing.T) {
	for n := uint64(2); n < 50; n++ {
		d := SketchLength(n)
		if d&(d-1) != 0 {
			t.Fatalf("SketchLength(%d)=%d not a power of two", n, d)
		}
		maxEdge, err := Encode(n-2, n-1)
		if err != nil {
			t.Fatal(err)
		}
		if maxEdge >= d {
			t.Fatalf("SketchLength(%d)=%d does not cover max edge id %d", n, d, maxEdge)
		}
	}
}
