package headlessvt

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"sync"
)

// ImageData is one decoded image held by the pool: raw RGBA pixels plus
// identity. Content addressing covers geometry as well as pixels, so two
// images with identical bytes but different declared sizes stay distinct
// (spec §3: "content-addressed by (format, size, rasterized pixels)").
type ImageData struct {
	ID     uint32
	Width  uint32
	Height uint32
	Data   []byte // RGBA, 4 bytes per pixel

	hash    [32]byte
	lastUse uint64 // pool access ordinal, drives LRU eviction
}

// ImagePlacement binds an image to a cell rectangle on screen.
type ImagePlacement struct {
	ID      uint32 // placement id, assigned by the pool
	ImageID uint32

	Row, Col   int // top-left cell
	Cols, Rows int // extent in cells

	// Source crop within the image, in pixels; zero means whole image.
	SrcX, SrcY uint32
	SrcW, SrcH uint32

	// ZIndex < 0 renders behind text.
	ZIndex int32

	// Sub-cell pixel offset of the top-left corner.
	OffsetX, OffsetY uint32
}

// CellImage is the per-cell fragment reference: which placement, and the
// normalized texture window of this cell within it.
type CellImage struct {
	PlacementID uint32
	ImageID     uint32

	U0, V0 float32
	U1, V1 float32

	ZIndex int32
}

// ImagePool owns image storage and placements (spec §3 "ImagePool"). It
// deduplicates by content hash, evicts least-recently-used unplaced images
// when over its byte budget, and defers discards: Discard may be called
// from any goroutine, and the queued ids are dropped on the next render
// rebuild under the terminal lock (spec §5 "Image discard is deferred").
type ImagePool struct {
	mu sync.RWMutex

	images     map[uint32]*ImageData
	placements map[uint32]*ImagePlacement
	byHash     map[[32]byte]uint32

	nextImageID     uint32
	nextPlacementID uint32
	accessSeq       uint64

	budget int64 // bytes
	used   int64

	discardMu sync.Mutex
	discards  []uint32
}

const defaultImageBudget = 320 << 20

func newImagePool() *ImagePool {
	return &ImagePool{
		images:     make(map[uint32]*ImageData),
		placements: make(map[uint32]*ImagePlacement),
		byHash:     make(map[[32]byte]uint32),
		budget:     defaultImageBudget,
	}
}

// SetMaxMemory adjusts the pixel-byte budget; eviction applies on the
// next store.
func (p *ImagePool) SetMaxMemory(bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.budget = bytes
}

func contentHash(width, height uint32, data []byte) [32]byte {
	h := sha256.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:], width)
	binary.LittleEndian.PutUint32(dims[4:], height)
	h.Write(dims[:])
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Store interns an image, returning the existing id when identical
// content is already pooled.
func (p *ImagePool) Store(width, height uint32, data []byte) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := contentHash(width, height, data)
	if id, ok := p.byHash[hash]; ok {
		if img, ok := p.images[id]; ok {
			p.accessSeq++
			img.lastUse = p.accessSeq
			return id
		}
	}

	p.nextImageID++
	id := p.nextImageID
	p.insertLocked(&ImageData{ID: id, Width: width, Height: height, Data: data, hash: hash})
	return id
}

// StoreWithID interns under a caller-chosen id (kitty i= transfers),
// replacing any previous image with that id.
func (p *ImagePool) StoreWithID(id, width, height uint32, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.images[id]; ok {
		p.used -= int64(len(old.Data))
		delete(p.byHash, old.hash)
	}
	if id >= p.nextImageID {
		p.nextImageID = id + 1
	}
	p.insertLocked(&ImageData{ID: id, Width: width, Height: height, Data: data, hash: contentHash(width, height, data)})
}

func (p *ImagePool) insertLocked(img *ImageData) {
	p.accessSeq++
	img.lastUse = p.accessSeq
	p.images[img.ID] = img
	p.byHash[img.hash] = img.ID
	p.used += int64(len(img.Data))
	if p.used > p.budget {
		p.evictLocked()
	}
}

// evictLocked drops least-recently-used images with no live placement
// until back under budget. Placed images are never evicted.
func (p *ImagePool) evictLocked() {
	placed := make(map[uint32]bool, len(p.placements))
	for _, pl := range p.placements {
		placed[pl.ImageID] = true
	}
	var victims []*ImageData
	for _, img := range p.images {
		if !placed[img.ID] {
			victims = append(victims, img)
		}
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i].lastUse < victims[j].lastUse })
	for _, img := range victims {
		if p.used <= p.budget {
			return
		}
		p.dropImageLocked(img.ID)
	}
}

func (p *ImagePool) dropImageLocked(id uint32) {
	img, ok := p.images[id]
	if !ok {
		return
	}
	p.used -= int64(len(img.Data))
	delete(p.byHash, img.hash)
	delete(p.images, id)
	for pid, pl := range p.placements {
		if pl.ImageID == id {
			delete(p.placements, pid)
		}
	}
}

// Image looks up an image by id, refreshing its LRU position.
func (p *ImagePool) Image(id uint32) *ImageData {
	p.mu.Lock()
	defer p.mu.Unlock()
	img, ok := p.images[id]
	if !ok {
		return nil
	}
	p.accessSeq++
	img.lastUse = p.accessSeq
	return img
}

// Place registers a placement and returns its id.
func (p *ImagePool) Place(pl *ImagePlacement) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextPlacementID++
	pl.ID = p.nextPlacementID
	p.placements[pl.ID] = pl
	return pl.ID
}

func (p *ImagePool) Placement(id uint32) *ImagePlacement {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.placements[id]
}

// Placements snapshots all live placements.
func (p *ImagePool) Placements() []*ImagePlacement {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*ImagePlacement, 0, len(p.placements))
	for _, pl := range p.placements {
		out = append(out, pl)
	}
	return out
}

func (p *ImagePool) RemovePlacement(id uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.placements, id)
}

func (p *ImagePool) RemoveAllPlacements() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placements = make(map[uint32]*ImagePlacement)
}

func (p *ImagePool) RemovePlacementsForImage(imageID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pl := range p.placements {
		if pl.ImageID == imageID {
			delete(p.placements, id)
		}
	}
}

// DeleteImage drops an image and every placement referencing it.
func (p *ImagePool) DeleteImage(id uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropImageLocked(id)
}

// DeletePlacementsAt removes placements whose cell rectangle covers
// (row, col) — the kitty d=c/d=p selectors.
func (p *ImagePool) DeletePlacementsAt(row, col int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pl := range p.placements {
		if row >= pl.Row && row < pl.Row+pl.Rows && col >= pl.Col && col < pl.Col+pl.Cols {
			delete(p.placements, id)
		}
	}
}

func (p *ImagePool) DeletePlacementsInRow(row int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pl := range p.placements {
		if row >= pl.Row && row < pl.Row+pl.Rows {
			delete(p.placements, id)
		}
	}
}

func (p *ImagePool) DeletePlacementsInColumn(col int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pl := range p.placements {
		if col >= pl.Col && col < pl.Col+pl.Cols {
			delete(p.placements, id)
		}
	}
}

func (p *ImagePool) DeletePlacementsByZIndex(z int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pl := range p.placements {
		if pl.ZIndex == z {
			delete(p.placements, id)
		}
	}
}

// Clear drops all images and placements, and any queued discards.
func (p *ImagePool) Clear() {
	p.mu.Lock()
	p.images = make(map[uint32]*ImageData)
	p.placements = make(map[uint32]*ImagePlacement)
	p.byHash = make(map[[32]byte]uint32)
	p.used = 0
	p.mu.Unlock()

	p.discardMu.Lock()
	p.discards = nil
	p.discardMu.Unlock()
}

func (p *ImagePool) UsedMemory() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.used
}

func (p *ImagePool) ImageCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.images)
}

func (p *ImagePool) PlacementCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.placements)
}

// Discard queues an image id for removal. Safe from any goroutine; the
// actual drop happens in DrainDiscards on the next render rebuild.
func (p *ImagePool) Discard(id uint32) {
	p.discardMu.Lock()
	p.discards = append(p.discards, id)
	p.discardMu.Unlock()
}

// DrainDiscards applies all queued discards.
func (p *ImagePool) DrainDiscards() {
	p.discardMu.Lock()
	ids := p.discards
	p.discards = nil
	p.discardMu.Unlock()
	if len(ids) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.dropImageLocked(id)
	}
}
