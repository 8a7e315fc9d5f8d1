package world

import "testing"

func TestIndexPlaceMoveRemove(t *testing.T) {
	ix := NewIndex()
	ix.Place(KindFollower, 1, Cell{2, 2})
	ix.Place(KindLeader, 1, Cell{2, 2})

	if got := ix.At(Cell{2, 2}, KindFollower); len(got) != 1 || got[0] != 1 {
		t.Fatalf("At follower = %v, want [1]", got)
	}

	ix.Move(KindFollower, 1, Cell{3, 3})
	if len(ix.At(Cell{2, 2}, KindFollower)) != 0 {
		t.Fatal("follower still indexed at old cell")
	}
	if c, ok := ix.Locate(KindFollower, 1); !ok || c != (Cell{3, 3}) {
		t.Fatalf("Locate = %v %v, want (3,3) true", c, ok)
	}
	if len(ix.At(Cell{2, 2}, KindLeader)) != 1 {
		t.Fatal("leader with the same numeric ID must be unaffected")
	}

	ix.Remove(KindFollower, 1)
	if _, ok := ix.Locate(KindFollower, 1); ok {
		t.Fatal("removed follower still locatable")
	}
	if ix.Len(KindFollower) != 0 || ix.Len(KindLeader) != 1 {
		t.Fatalf("Len follower=%d leader=%d", ix.Len(KindFollower), ix.Len(KindLeader))
	}
}

func TestIndexWithinUsesChebyshevBox(t *testing.T) {
	ix := NewIndex()
	ix.Place(KindFollower, 1, Cell{5, 5})
	ix.Place(KindFollower, 2, Cell{7, 3})
	ix.Place(KindFollower, 3, Cell{8, 5})
	ix.Place(KindExit, 1, Cell{5, 6})

	got := ix.Within(Cell{5, 5}, KindFollower, 2, 2)
	if len(got) != 2 {
		t.Fatalf("Within r=2 returned %d followers, want 2: %v", len(got), got)
	}
	if n := ix.CountWithin(Cell{5, 5}, KindExit, 1, 1); n != 1 {
		t.Fatalf("CountWithin exits = %d, want 1", n)
	}
}
