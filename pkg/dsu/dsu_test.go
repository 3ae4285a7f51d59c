package dsu

import "testing"

func TestFindIsIdentityInitially(t *testing.T) {
	d := New(10)
	for i := uint64(0); i < 10; i++ {
		if d.Find(i) != i {
			t.Fatalf("Find(%d) = %d, want %d", i, d.Find(i), i)
		}
	}
}

func TestUnionMakesFindAgree(t *testing.T) {
	d := New(10)
	root, merged := d.Union(3, 7)
	if !merged {
		t.Fatal("Union(3,7) reported no merge on distinct singletons")
	}
	if d.Find(3) != d.Find(7) {
		t.Fatalf("Find(3)=%d, Find(7)=%d after Union, want equal", d.Find(3), d.Find(7))
	}
	if d.Find(3) != root {
		t.Fatalf("Find(3) = %d, want returned root %d", d.Find(3), root)
	}
}

func TestUnionSameSetIsNoop(t *testing.T) {
	d := New(10)
	d.Union(1, 2)
	sizeBefore := d.Size(1)
	_, merged := d.Union(1, 2)
	if merged {
		t.Fatal("Union on already-joined sets reported a merge")
	}
	if d.Size(1) != sizeBefore {
		t.Fatalf("Size changed on a no-op union: %d != %d", d.Size(1), sizeBefore)
	}
}

func TestMonotoneSizeInvariant(t *testing.T) {
	d := New(10)
	sizeA, sizeB := d.Size(4), d.Size(9)
	root, merged := d.Union(4, 9)
	if !merged {
		t.Fatal("expected a merge")
	}
	if d.Size(root) != sizeA+sizeB {
		t.Fatalf("Size(root) = %d, want %d", d.Size(root), sizeA+sizeB)
	}
}

func TestUnionTieBreaksOnSmallerID(t *testing.T) {
	d := New(10)
	// Both 5 and 8 are singleton sets (size 1): the tie must resolve to
	// the smaller id, regardless of argument order.
	root, _ := d.Union(8, 5)
	if root != 5 {
		t.Fatalf("Union(8,5) root = %d, want 5 (smaller id wins ties)", root)
	}

	d.Reset()
	root, _ = d.Union(5, 8)
	if root != 5 {
		t.Fatalf("Union(5,8) root = %d, want 5 (smaller id wins ties)", root)
	}
}

func TestUnionLargerSizeWinsOverID(t *testing.T) {
	d := New(10)
	d.Union(8, 9) // {8,9} has size 2, root 8
	root, _ := d.Union(0, 9)
	if root != 8 {
		t.Fatalf("Union(0,9) root = %d, want 8 (larger set wins despite larger id)", root)
	}
}

func TestReset(t *testing.T) {
	d := New(5)
	d.Union(0, 1)
	d.Reset()
	for i := uint64(0); i < 5; i++ {
		if d.Find(i) != i || d.Size(i) != 1 {
			t.Fatalf("Reset left vertex %d in a non-singleton state", i)
		}
	}
}
