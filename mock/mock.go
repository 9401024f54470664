// Package mock provides lightweight in-memory fakes for jaudio's two
// collaborator interfaces, peer to the teacher's own mock.SDK
// (kelindar-ultima-sdk/mock/sdk.go): a FileSystem that serves named
// byte ranges from memory instead of the `.aw` directory, and a Sink
// that buffers every tick instead of writing or playing it.
package mock

import (
	"errors"
)

// ErrNotFound is returned when a FileSystem has no bytes registered
// under the requested name.
var ErrNotFound = errors.New("mock: not found")

// FileSystem is an in-memory stand-in for jaudio.FileSystem, serving
// wsys.AWSource.ReadAt calls from pre-registered byte slices.
type FileSystem struct {
	files map[string][]byte
}

// NewFileSystem creates an empty mock file system.
func NewFileSystem() *FileSystem {
	return &FileSystem{files: make(map[string][]byte)}
}

// Add registers the raw contents of a named `.aw` file.
func (fs *FileSystem) Add(name string, data []byte) {
	fs.files[name] = data
}

// ReadAt serves size bytes from offset within the named file,
// satisfying wsys.AWSource.
func (fs *FileSystem) ReadAt(name string, offset int64, size int) ([]byte, error) {
	data, ok := fs.files[name]
	if !ok {
		return nil, ErrNotFound
	}
	end := offset + int64(size)
	if offset < 0 || end > int64(len(data)) {
		return nil, errors.New("mock: out of range read")
	}
	return data[offset:end], nil
}

// Sink is an in-memory jaudio.Sink that records every tick's
// interleaved frame buffer for later inspection in tests.
type Sink struct {
	Ticks  [][]float32
	closed bool
}

// NewSink creates an empty buffering sink.
func NewSink() *Sink { return &Sink{} }

// Write appends a copy of frames to Ticks.
func (s *Sink) Write(frames []float32) error {
	cp := make([]float32, len(frames))
	copy(cp, frames)
	s.Ticks = append(s.Ticks, cp)
	return nil
}

// Close marks the sink closed; Ticks remains readable afterward.
func (s *Sink) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Sink) Closed() bool { return s.closed }

// Flatten concatenates every recorded tick into one interleaved
// buffer, for tests that want the whole rendered stream at once.
func (s *Sink) Flatten() []float32 {
	var out []float32
	for _, t := range s.Ticks {
		out = append(out, t...)
	}
	return out
}
