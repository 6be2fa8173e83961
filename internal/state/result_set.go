package state

import "sync"

type File struct {
	Name string
	Data []byte
}

// ResultSet is one batch's encoded tiles in ascending tile order. Its
// bytes live until Release, after which every accessor reports ErrReleased.
type ResultSet struct {
	Token        uint64
	FrameCount   int
	FrameDelayMs int
	Size         int // tile edge in pixels

	mu       sync.RWMutex
	files    []File
	released bool
}

func NewResultSet(token uint64, files []File) *ResultSet {
	return &ResultSet{Token: token, files: files}
}

func (rs *ResultSet) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.files)
}

func (rs *ResultSet) File(index int) (File, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.released {
		return File{}, ErrReleased
	}
	if index < 0 || index >= len(rs.files) {
		return File{}, ErrNotFound
	}
	return rs.files[index], nil
}

// Files returns a copy of the file list; nil once released.
func (rs *ResultSet) Files() []File {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.released {
		return nil
	}
	out := make([]File, len(rs.files))
	copy(out, rs.files)
	return out
}

func (rs *ResultSet) Release() {
	rs.mu.Lock()
	rs.released = true
	rs.files = nil
	rs.mu.Unlock()
}

func (rs *ResultSet) Released() bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.released
}
