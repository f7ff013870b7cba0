// Package diskmanager is the narrow, file-backed stand-in for the "raw
// disk I/O device" that the storage substrate treats as an external
// collaborator. It offers exactly the two operations the disk scheduler
// needs — read one page, write one page — and nothing else: no catalog
// of files, no WAL, no recovery. Grounded on the teacher's
// storage_engine/disk_manager, trimmed to a single-file block device.
package diskmanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"storagekit/page"
)

// Manager persists fixed-size pages to a single backing file. Page id i
// lives at byte offset i*page.Size. Reading past the current end of file
// returns a zero-filled page rather than an error, mirroring the
// teacher's partial-read padding behavior.
type Manager struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (or creates) the backing file at path.
func Open(path string) (*Manager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("diskmanager: open %s: %w", path, err)
	}
	return &Manager{file: f}, nil
}

// ReadPage reads page id's bytes into dst, which must be exactly
// page.Size long.
func (m *Manager) ReadPage(id page.ID, dst []byte) error {
	if len(dst) != page.Size {
		return fmt.Errorf("diskmanager: read buffer is %d bytes, want %d", len(dst), page.Size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	offset := int64(id) * int64(page.Size)
	n, err := m.file.ReadAt(dst, offset)
	if err != nil && n == 0 {
		if errors.Is(err, io.EOF) {
			clear(dst)
			return nil
		}
		return fmt.Errorf("diskmanager: read page %d: %w", id, err)
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

// WritePage writes src (exactly page.Size bytes) to page id's offset,
// growing the backing file if necessary.
func (m *Manager) WritePage(id page.ID, src []byte) error {
	if len(src) != page.Size {
		return fmt.Errorf("diskmanager: write buffer is %d bytes, want %d", len(src), page.Size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	offset := int64(id) * int64(page.Size)
	if _, err := m.file.WriteAt(src, offset); err != nil {
		return fmt.Errorf("diskmanager: write page %d: %w", id, err)
	}
	return nil
}

// Close closes the backing file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}
