package otfs

import (
	"fmt"
	"os"

	"tinykernel/internal/kconfig"
	"tinykernel/internal/kerr"
)

// BlockDevice is the storage abstraction OTFS drives, generalizing the
// teacher tree's sdhci.go ("a fixed block range behind Init/transfer
// methods") from an SD-card register driver into something a plain file
// can satisfy.
type BlockDevice interface {
	ReadBlock(index uint32, buf []byte) error
	WriteBlock(index uint32, data []byte) error
	Close() error
}

// FileBlockDevice is the host-backed reference BlockDevice: one
// block-sized image file, the on-disk counterpart to hal.BufferConsole
// and hal.SimClock for storage.
type FileBlockDevice struct {
	file *os.File
}

// CreateFileBlockDevice creates (truncating any existing file) a
// totalBlocks*kconfig.FSBlockSize image at path.
func CreateFileBlockDevice(path string, totalBlocks uint32) (*FileBlockDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("otfs: %w: create image: %v", kerr.ErrIO, err)
	}
	zero := make([]byte, kconfig.FSBlockSize)
	for i := uint32(0); i < totalBlocks; i++ {
		if _, err := f.WriteAt(zero, int64(i)*int64(kconfig.FSBlockSize)); err != nil {
			f.Close()
			return nil, fmt.Errorf("otfs: %w: zero block %d: %v", kerr.ErrIO, i, err)
		}
	}
	return &FileBlockDevice{file: f}, nil
}

// OpenFileBlockDevice opens an existing image file at path for reading
// and writing.
func OpenFileBlockDevice(path string) (*FileBlockDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("otfs: %w: open image: %v", kerr.ErrIO, err)
	}
	return &FileBlockDevice{file: f}, nil
}

// ReadBlock fills buf (exactly kconfig.FSBlockSize bytes) from block
// index.
func (d *FileBlockDevice) ReadBlock(index uint32, buf []byte) error {
	n, err := d.file.ReadAt(buf, int64(index)*int64(kconfig.FSBlockSize))
	if err != nil || n != len(buf) {
		return fmt.Errorf("otfs: %w: read block %d: %v", kerr.ErrIO, index, err)
	}
	return nil
}

// WriteBlock writes data to block index and flushes it to stable
// storage, mirroring the original implementation's seek_and_write, which
// fflushes after every single write regardless of whether it is a
// metadata or data block write.
func (d *FileBlockDevice) WriteBlock(index uint32, data []byte) error {
	n, err := d.file.WriteAt(data, int64(index)*int64(kconfig.FSBlockSize))
	if err != nil || n != len(data) {
		return fmt.Errorf("otfs: %w: write block %d: %v", kerr.ErrIO, index, err)
	}
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("otfs: %w: sync block %d: %v", kerr.ErrIO, index, err)
	}
	return nil
}

// Close closes the underlying image file.
func (d *FileBlockDevice) Close() error {
	if err := d.file.Close(); err != nil {
		return fmt.Errorf("otfs: %w: close image: %v", kerr.ErrIO, err)
	}
	return nil
}
