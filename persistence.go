// On-disk persistence: Open/Close lifecycle, dirty-page flush, and
// crash recovery.
//
// An index directory holds four files: header.bin (fileHeader, §6),
// data_level0.bin (storage.table — the fixed-stride record table),
// original_vectors.bin (storage.original, present only when the metric
// normalizes), and link_lists.bin (the linkArena's level>0 adjacency,
// linklist.go). Flush writes only the pages storage.dirty
// reports dirty — the generalization of folio's single whole-file crash
// bit (header.go's dirty()) to page granularity this package needs for a
// record table too large to rewrite wholesale on every Add.
package hnsw

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
)

const (
	headerFileName   = "header.bin"
	dataFileName     = "data_level0.bin"
	originalFileName = "original_vectors.bin"
	linksFileName    = "link_lists.bin"
	lockFileName     = ".lock"
)

type persistence struct {
	dir string

	mu       sync.Mutex
	dataFile *os.File
	origFile *os.File

	cfg Config
}

// Open creates a new persisted index at dir, or reopens an existing one
// if header.bin is already present. An exclusive flock is held on the
// lock file for the lifetime of the returned Index.
func Open(dir string, cfg Config) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ErrIO
	}

	headerPath := filepath.Join(dir, headerFileName)
	if _, err := os.Stat(headerPath); err == nil {
		return openExisting(dir)
	}
	return createNew(dir, cfg)
}

func acquireLock(dir string) (fileLock, error) {
	f, err := os.OpenFile(filepath.Join(dir, lockFileName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fileLock{}, ErrIO
	}
	var lk fileLock
	lk.setFile(f)
	if err := lk.Lock(LockExclusive); err != nil {
		return fileLock{}, ErrIO
	}
	return lk, nil
}

func createNew(dir string, cfg Config) (*Index, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	idx, err := New(cfg)
	if err != nil {
		return nil, err
	}

	lk, err := acquireLock(dir)
	if err != nil {
		return nil, err
	}
	idx.lock = lk

	dataFile, err := os.OpenFile(filepath.Join(dir, dataFileName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, ErrIO
	}
	var origFile *os.File
	if idx.store.originalSize > 0 {
		origFile, err = os.OpenFile(filepath.Join(dir, originalFileName), os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, ErrIO
		}
	}

	idx.persist = &persistence{dir: dir, dataFile: dataFile, origFile: origFile, cfg: cfg}

	if err := idx.flushHeader(false); err != nil {
		return nil, err
	}
	return idx, nil
}

func openExisting(dir string) (*Index, error) {
	hdrBytes, err := os.ReadFile(filepath.Join(dir, headerFileName))
	if err != nil {
		return nil, ErrIO
	}
	hdr, err := decodeHeader(hdrBytes)
	if err != nil {
		return nil, err
	}
	if hdr.Dirty != 0 {
		return nil, ErrInternalCorruption
	}

	cfg := Config{
		Dim:           int(hdr.Dim),
		Metric:        Metric(hdr.Metric),
		M:             int(hdr.M),
		Capacity:      int(hdr.Capacity),
		HashAlgorithm: HashAlgorithm(hdr.HashAlgorithm),
		PageSize:      int(hdr.PageSize),
		Seed:          hdr.Seed,
	}.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	lk, err := acquireLock(dir)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		cfg:       cfg,
		store:     newStorage(cfg),
		directory: newLabelDirectory(cfg.HashAlgorithm, cfg.Capacity),
		slotLocks: newSlotLocks(cfg.Capacity),
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		lock:      lk,
	}

	dataFile, err := os.OpenFile(filepath.Join(dir, dataFileName), os.O_RDWR, 0o644)
	if err != nil {
		return nil, ErrIO
	}
	// Pages that were never dirty were never written, so the file may be
	// shorter than the table; the unread tail stays zero.
	if _, err := dataFile.ReadAt(idx.store.table, 0); err != nil && err != io.EOF {
		return nil, ErrIO
	}

	var origFile *os.File
	if idx.store.originalSize > 0 {
		origFile, err = os.OpenFile(filepath.Join(dir, originalFileName), os.O_RDWR, 0o644)
		if err != nil {
			return nil, ErrIO
		}
		if _, err := origFile.ReadAt(idx.store.original, 0); err != nil && err != io.EOF {
			return nil, ErrIO
		}
	}

	if linkBytes, err := os.ReadFile(filepath.Join(dir, linksFileName)); err == nil {
		links, err := decodeLinkArena(linkBytes)
		if err != nil {
			return nil, err
		}
		idx.graph = newGraph(cfg, idx.store, links)
	} else {
		idx.graph = newGraph(cfg, idx.store, newLinkArena())
	}

	idx.graph.hasEntry = hdr.HasEntry != 0
	idx.graph.entry = hdr.EntrySlot
	idx.graph.entryLevel = int(hdr.EntryLevel)

	// Rebuild the label directory from the record table: every slot
	// below NextSlot gets rebound, including soft-deleted ones, since a
	// label binding is permanent (spec.md §3) and the deleted bit alone
	// (already restored into storage above) governs liveness.
	for slot := uint32(0); slot < hdr.NextSlot; slot++ {
		label := idx.store.getLabel(slot)
		idx.directory.bind(label, slot)
	}
	idx.directory.nextSlot = hdr.NextSlot

	idx.persist = &persistence{dir: dir, dataFile: dataFile, origFile: origFile, cfg: cfg}
	return idx, nil
}

// flushHeader writes the current header state, setting the dirty flag
// while mid-flush and clearing it only once the data/link files are
// fully written — the same "flip dirty, write, flip clean" discipline
// folio's header.go applies around every raw() write.
func (idx *Index) flushHeader(dirty bool) error {
	idx.mu.RLock()
	hdr := &fileHeader{
		Version:       headerVersion,
		Dirty:         boolByte(dirty),
		Metric:        uint8(idx.cfg.Metric),
		HashAlgorithm: uint8(idx.cfg.HashAlgorithm),
		Dim:           uint32(idx.cfg.Dim),
		M:             uint32(idx.cfg.M),
		Capacity:      uint32(idx.store.capacity),
		NextSlot:      idx.directory.nextSlot,
		HasEntry:      boolByte(idx.graph.hasEntry),
		EntrySlot:     idx.graph.entry,
		EntryLevel:    uint32(idx.graph.entryLevel),
		PageSize:      uint32(idx.cfg.PageSize),
		Seed:          idx.cfg.Seed,
	}
	idx.mu.RUnlock()
	return writeHeaderAtomic(filepath.Join(idx.persist.dir, headerFileName), hdr)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Flush persists every dirty page of the record table (and original
// table, if present), then the link-list arena, then a clean header —
// in that order, so a crash between steps always leaves a header that
// correctly describes the data already on disk or marks itself dirty.
func (idx *Index) Flush() error {
	if idx.persist == nil {
		return nil // in-memory index, nothing to flush
	}

	if err := idx.flushHeader(true); err != nil {
		return err
	}

	idx.persist.mu.Lock()
	pages := idx.store.dirty.dirtyPages()
	recordsPerPage := idx.store.dirty.recordsPerPage
	for _, page := range pages {
		startSlot := page * recordsPerPage
		endSlot := startSlot + recordsPerPage
		if endSlot*idx.store.stride > len(idx.store.table) {
			endSlot = len(idx.store.table) / idx.store.stride
		}
		off := int64(startSlot * idx.store.stride)
		data := idx.store.table[startSlot*idx.store.stride : endSlot*idx.store.stride]
		if _, err := idx.persist.dataFile.WriteAt(data, off); err != nil {
			idx.persist.mu.Unlock()
			return ErrIO
		}
		if idx.persist.origFile != nil {
			origOff := int64(startSlot * idx.store.originalSize)
			origData := idx.store.original[startSlot*idx.store.originalSize : endSlot*idx.store.originalSize]
			if _, err := idx.persist.origFile.WriteAt(origData, origOff); err != nil {
				idx.persist.mu.Unlock()
				return ErrIO
			}
		}
		idx.store.dirty.clearPage(page)
	}
	if idx.cfg.SyncWrites {
		idx.persist.dataFile.Sync()
		if idx.persist.origFile != nil {
			idx.persist.origFile.Sync()
		}
	}
	idx.persist.mu.Unlock()

	linkBytes := idx.graph.links.encode()
	if err := writeFileAtomicBytes(filepath.Join(idx.persist.dir, linksFileName), linkBytes); err != nil {
		return err
	}

	return idx.flushHeader(false)
}

func writeFileAtomicBytes(path string, data []byte) error {
	if err := os.WriteFile(path+".tmp", data, 0o644); err != nil {
		return ErrIO
	}
	if err := os.Rename(path+".tmp", path); err != nil {
		return ErrIO
	}
	return nil
}

func (p *persistence) close(lk *fileLock) error {
	lk.Unlock()
	lk.setFile(nil)
	if p.dataFile != nil {
		p.dataFile.Close()
	}
	if p.origFile != nil {
		p.origFile.Close()
	}
	return nil
}

