// Package aaf indexes the flat chunk archive that bundles instrument
// banks (IBNK) and wavesystems (WSYS), per spec §4.2.
package aaf

import (
	"errors"
	"fmt"

	"codeberg.org/go-mmap/mmap"
	"github.com/kelindar/intmap"

	"jaudio/internal/binreader"
)

// Chunk types recognized by the archive index.
const (
	ChunkEnd  uint32 = 0
	ChunkIBNK uint32 = 2
	ChunkWSYS uint32 = 3
)

const noID = 0xFFFFFFFF

// chunk records one indexed range of the archive.
type chunk struct {
	typ  uint32
	off  uint32
	size uint32
	id   uint32
}

// Archive is a lazily-decoding index over an AAF file. It owns the
// memory-mapped backing file the way the teacher's internal/mul.Reader
// owns its mmap.File, and exposes typed chunk lookups by id.
type Archive struct {
	file    *mmap.File
	data    []byte
	wsysIdx *intmap.Map // wsys_id -> index into chunks
	ibnkIdx *intmap.Map // ibnk_id -> index into chunks
	chunks  []chunk
}

var (
	// ErrTruncated is returned when the chunk index runs past EOF.
	ErrTruncated = errors.New("aaf: archive truncated while reading chunk index")
)

// Open mmaps path for its handle lifecycle, materializes its contents
// into a buffer the way the teacher's mul.OpenOne does, and indexes its
// chunk groups.
func Open(path string) (*Archive, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("aaf: failed to open archive: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("aaf: failed to stat archive: %w", err)
	}

	data := make([]byte, info.Size())
	if _, err := f.ReadAt(data, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("aaf: failed to read archive: %w", err)
	}

	a := &Archive{
		file:    f,
		data:    data,
		wsysIdx: intmap.New(64, .95),
		ibnkIdx: intmap.New(64, .95),
	}
	if err := a.index(); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

// OpenBytes builds an Archive over an in-memory buffer, used by tests
// and by callers that already have the archive bytes in hand.
func OpenBytes(data []byte) (*Archive, error) {
	a := &Archive{
		data:    data,
		wsysIdx: intmap.New(64, .95),
		ibnkIdx: intmap.New(64, .95),
	}
	if err := a.index(); err != nil {
		return nil, err
	}
	return a, nil
}

// index walks the chunk-group table described in §4.2.
func (a *Archive) index() error {
	r := binreader.New(a.data)
	for {
		typ, err := r.U32()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		if typ == ChunkEnd {
			return nil
		}

		for {
			off, err := r.U32()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrTruncated, err)
			}
			if off == 0 {
				break
			}

			size, err := r.U32()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrTruncated, err)
			}

			id := uint32(noID)
			if typ == ChunkIBNK || typ == ChunkWSYS {
				id, err = r.U32()
				if err != nil {
					return fmt.Errorf("%w: %v", ErrTruncated, err)
				}
			}

			if typ == ChunkWSYS {
				// The WSYS chunk carries its own embedded id at byte offset 8 of
				// its payload (after the magic and file_size); that value is
				// authoritative over the index id.
				if embedded, err := binreader.U32At(a.data, int(off)+8); err == nil {
					id = embedded
				}
			}

			idx := len(a.chunks)
			a.chunks = append(a.chunks, chunk{typ: typ, off: off, size: size, id: id})
			switch typ {
			case ChunkWSYS:
				a.wsysIdx.Store(id, uint32(idx))
			case ChunkIBNK:
				a.ibnkIdx.Store(id, uint32(idx))
			}
		}
	}
}

// bytesOf returns a copy of the [off, off+size) range of the archive.
func (a *Archive) bytesOf(c chunk) []byte {
	if int(c.off) >= len(a.data) {
		return nil
	}
	end := c.off + c.size
	if int(end) > len(a.data) {
		end = uint32(len(a.data))
	}
	out := make([]byte, end-c.off)
	copy(out, a.data[c.off:end])
	return out
}

// WavesystemBytes returns the raw chunk bytes for the wavesystem with
// the given id, or nil if absent.
func (a *Archive) WavesystemBytes(id uint32) []byte {
	idx, ok := a.wsysIdx.Load(id)
	if !ok {
		return nil
	}
	return a.bytesOf(a.chunks[idx])
}

// BankBytes returns the raw chunk bytes for the instrument bank with
// the given id, or nil if absent.
func (a *Archive) BankBytes(id uint32) []byte {
	idx, ok := a.ibnkIdx.Load(id)
	if !ok {
		return nil
	}
	return a.bytesOf(a.chunks[idx])
}

// BankIDs returns every indexed IBNK id, supplementing spec.md with the
// original engine's "index every bank present" behavior (original_source
// banks.cpp) rather than assuming a single bank per archive.
func (a *Archive) BankIDs() []uint32 {
	ids := make([]uint32, 0, len(a.chunks))
	for _, c := range a.chunks {
		if c.typ == ChunkIBNK {
			ids = append(ids, c.id)
		}
	}
	return ids
}

// Close releases the memory-mapped file, if any.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}
