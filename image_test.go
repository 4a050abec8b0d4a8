package headlessvt

import "testing"

func TestImagePoolDedupByContent(t *testing.T) {
	pool := newImagePool()
	a := pool.Store(2, 2, bytes4x(2, 2))
	b := pool.Store(2, 2, bytes4x(2, 2))
	if a != b {
		t.Errorf("identical content got two ids: %d, %d", a, b)
	}
	if pool.ImageCount() != 1 {
		t.Errorf("image count = %d, want 1", pool.ImageCount())
	}

	// Same bytes, different declared geometry: distinct image.
	c := pool.Store(4, 1, bytes4x(2, 2))
	if c == a {
		t.Error("geometry must participate in content addressing")
	}
}

func TestImagePoolStoreWithIDReplaces(t *testing.T) {
	pool := newImagePool()
	pool.StoreWithID(7, 1, 1, []byte{1, 2, 3, 4})
	pool.StoreWithID(7, 1, 1, []byte{9, 9, 9, 9})

	img := pool.Image(7)
	if img == nil || img.Data[0] != 9 {
		t.Fatalf("replacement image = %+v", img)
	}
	if pool.ImageCount() != 1 {
		t.Errorf("image count = %d after replace", pool.ImageCount())
	}
	// Auto ids must not collide with explicit ones.
	if id := pool.Store(1, 1, []byte{5, 5, 5, 5}); id <= 7 {
		t.Errorf("auto id %d collides with explicit 7", id)
	}
}

func TestImagePoolBudgetEviction(t *testing.T) {
	pool := newImagePool()
	pool.SetMaxMemory(10)

	first := pool.Store(1, 1, []byte{1, 1, 1, 1})
	second := pool.Store(1, 1, []byte{2, 2, 2, 2})
	// Third store (4 bytes) pushes usage past 10; the LRU image goes.
	third := pool.Store(1, 1, []byte{3, 3, 3, 3})

	if pool.Image(first) != nil {
		t.Error("least-recently-used image should have been evicted")
	}
	if pool.Image(second) == nil || pool.Image(third) == nil {
		t.Error("newer images must survive eviction")
	}
	if pool.UsedMemory() > 10 {
		t.Errorf("used = %d, budget 10", pool.UsedMemory())
	}
}

func TestImagePoolPlacedImagesNeverEvicted(t *testing.T) {
	pool := newImagePool()
	pool.SetMaxMemory(6)
	id := pool.Store(1, 1, []byte{1, 1, 1, 1})
	pool.Place(&ImagePlacement{ImageID: id, Rows: 1, Cols: 1})
	pool.Store(1, 1, []byte{2, 2, 2, 2}) // over budget now

	if pool.Image(id) == nil {
		t.Error("a placed image must survive even over budget")
	}
}

func TestImagePoolPlacementRemovalSelectors(t *testing.T) {
	pool := newImagePool()
	id := pool.Store(1, 1, []byte{1, 1, 1, 1})
	at := func(row, col, rows, cols int, z int32) uint32 {
		return pool.Place(&ImagePlacement{ImageID: id, Row: row, Col: col, Rows: rows, Cols: cols, ZIndex: z})
	}

	at(0, 0, 2, 2, 0)  // covers rows 0-1, cols 0-1
	at(5, 5, 1, 1, 3)  // isolated, z=3
	at(0, 8, 1, 1, 0)  // row 0, col 8

	pool.DeletePlacementsAt(1, 1)
	if pool.PlacementCount() != 2 {
		t.Fatalf("after position delete: %d placements", pool.PlacementCount())
	}
	pool.DeletePlacementsByZIndex(3)
	if pool.PlacementCount() != 1 {
		t.Fatalf("after z-index delete: %d placements", pool.PlacementCount())
	}
	pool.DeletePlacementsInRow(0)
	if pool.PlacementCount() != 0 {
		t.Fatalf("after row delete: %d placements", pool.PlacementCount())
	}

	at(2, 3, 1, 2, 0)
	pool.DeletePlacementsInColumn(4) // covers cols 3-4
	if pool.PlacementCount() != 0 {
		t.Errorf("after column delete: %d placements", pool.PlacementCount())
	}
}

func TestImagePoolDeleteImageDropsPlacements(t *testing.T) {
	pool := newImagePool()
	id := pool.Store(1, 1, []byte{1, 1, 1, 1})
	pool.Place(&ImagePlacement{ImageID: id, Rows: 1, Cols: 1})
	pool.DeleteImage(id)
	if pool.Image(id) != nil || pool.PlacementCount() != 0 {
		t.Error("DeleteImage must drop the image and its placements")
	}
}

func TestImagePoolDeferredDiscard(t *testing.T) {
	pool := newImagePool()
	id := pool.Store(1, 1, []byte{1, 1, 1, 1})

	pool.Discard(id)
	if pool.Image(id) == nil {
		t.Fatal("discard must be deferred, not immediate")
	}
	pool.DrainDiscards()
	if pool.Image(id) != nil {
		t.Error("drain must apply queued discards")
	}
}

func TestTerminalDiscardAppliesOnRebuild(t *testing.T) {
	term := New(WithSize(3, 10))
	id := term.images.Store(1, 1, []byte{1, 1, 1, 1})

	term.DiscardImage(id)
	if term.Image(id) == nil {
		t.Fatal("image dropped before the render tick")
	}
	term.RefreshRenderBuffer()
	if term.Image(id) != nil {
		t.Error("render rebuild must drain the discard queue")
	}
}
