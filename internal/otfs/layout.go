// Package otfs implements the on-image block filesystem: a fixed
// superblock, directory region, and FAT laid out exactly as the original
// reference filesystem (fs/otfs.c, consulted for every byte-level detail
// this distilled spec left implicit), reworked into hosted Go using
// encoding/binary instead of packed C structs and a BlockDevice interface
// in place of raw FILE* calls, in the shape the teacher tree's
// sdhci.go/virtio_gpu.go use for "driver talks to a fixed block range".
package otfs

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"tinykernel/internal/kconfig"
	"tinykernel/internal/kerr"
)

// magic is the superblock's identifying byte string, "OTFSv1\0\0".
var magic = [8]byte{'O', 'T', 'F', 'S', 'v', '1', 0, 0}

// Superblock is the on-disk layout at block 0, little-endian, 64 bytes.
// Fields are laid out in exactly the order marshalSuperblock packs them, so
// the struct doubles as documentation of the on-disk byte offsets.
type Superblock struct {
	Magic          [8]byte
	Version        uint32
	BlockSize      uint32
	TotalBlocks    uint32
	DirStartBlock  uint32
	DirBlockCount  uint32
	FATStartBlock  uint32
	FATBlockCount  uint32
	DataStartBlock uint32
	DataBlockCount uint32
	MaxFiles       uint32
	Reserved       [4]uint32
}

const superblockVersion = 1

// defaultSuperblock returns the canonical superblock this module always
// formats and expects on mount; the layout constants are fixed, not
// configurable, matching the original image format.
func defaultSuperblock() Superblock {
	return Superblock{
		Magic:          magic,
		Version:        superblockVersion,
		BlockSize:      kconfig.FSBlockSize,
		TotalBlocks:    kconfig.FSTotalBlocks,
		DirStartBlock:  kconfig.FSDirStartBlock,
		DirBlockCount:  kconfig.FSDirBlockCount,
		FATStartBlock:  kconfig.FSFATStartBlock,
		FATBlockCount:  kconfig.FSFATBlockCount,
		DataStartBlock: kconfig.FSDataStartBlock,
		DataBlockCount: kconfig.FSDataBlockCount,
		MaxFiles:       kconfig.FSMaxFiles,
	}
}

func (sb Superblock) matchesDefault() bool {
	want := defaultSuperblock()
	return sb.Magic == want.Magic &&
		sb.Version == want.Version &&
		sb.BlockSize == want.BlockSize &&
		sb.TotalBlocks == want.TotalBlocks &&
		sb.DirStartBlock == want.DirStartBlock &&
		sb.DirBlockCount == want.DirBlockCount &&
		sb.FATStartBlock == want.FATStartBlock &&
		sb.FATBlockCount == want.FATBlockCount &&
		sb.DataStartBlock == want.DataStartBlock &&
		sb.DataBlockCount == want.DataBlockCount &&
		sb.MaxFiles == want.MaxFiles
}

// marshalSuperblock packs sb into a fixed kconfig.FSSuperblockSize-byte
// buffer at explicit offsets, the same hand-offset approach
// marshalDirEntry uses below, where the on-disk padding bytes have no
// corresponding DirEntry field.
func marshalSuperblock(sb Superblock) []byte {
	out := make([]byte, kconfig.FSSuperblockSize)
	copy(out[0:8], sb.Magic[:])
	le := binary.LittleEndian
	le.PutUint32(out[8:12], sb.Version)
	le.PutUint32(out[12:16], sb.BlockSize)
	le.PutUint32(out[16:20], sb.TotalBlocks)
	le.PutUint32(out[20:24], sb.DirStartBlock)
	le.PutUint32(out[24:28], sb.DirBlockCount)
	le.PutUint32(out[28:32], sb.FATStartBlock)
	le.PutUint32(out[32:36], sb.FATBlockCount)
	le.PutUint32(out[36:40], sb.DataStartBlock)
	le.PutUint32(out[40:44], sb.DataBlockCount)
	le.PutUint32(out[44:48], sb.MaxFiles)
	for i, r := range sb.Reserved {
		le.PutUint32(out[48+i*4:52+i*4], r)
	}
	return out
}

func unmarshalSuperblock(data []byte) (Superblock, error) {
	var sb Superblock
	if len(data) < kconfig.FSSuperblockSize {
		return sb, fmt.Errorf("otfs: %w: superblock buffer too small", kerr.ErrIO)
	}
	le := binary.LittleEndian
	copy(sb.Magic[:], data[0:8])
	sb.Version = le.Uint32(data[8:12])
	sb.BlockSize = le.Uint32(data[12:16])
	sb.TotalBlocks = le.Uint32(data[16:20])
	sb.DirStartBlock = le.Uint32(data[20:24])
	sb.DirBlockCount = le.Uint32(data[24:28])
	sb.FATStartBlock = le.Uint32(data[28:32])
	sb.FATBlockCount = le.Uint32(data[32:36])
	sb.DataStartBlock = le.Uint32(data[36:40])
	sb.DataBlockCount = le.Uint32(data[40:44])
	sb.MaxFiles = le.Uint32(data[44:48])
	for i := range sb.Reserved {
		sb.Reserved[i] = le.Uint32(data[48+i*4 : 52+i*4])
	}
	return sb, nil
}

// dirEntryEnd is the first_block sentinel meaning "no blocks allocated".
const dirEntryEnd = 0xFFFFFFFE

// DirEntry is one 64-byte directory region slot: used flag, a
// NUL-terminated name, the head of its block chain, and its size.
type DirEntry struct {
	Used       bool
	Name       string
	FirstBlock uint32
	SizeBytes  uint32
}

func emptyDirEntry() DirEntry {
	return DirEntry{FirstBlock: dirEntryEnd}
}

// marshalDirEntry packs e into a fixed kconfig.FSDirEntrySize-byte buffer:
// used(1) + pad(3) + name[32] + first_block(4) + size_bytes(4) + pad(20).
func marshalDirEntry(e DirEntry) []byte {
	out := make([]byte, kconfig.FSDirEntrySize)
	if e.Used {
		out[0] = 1
	}
	nameBytes := []byte(e.Name)
	if len(nameBytes) > kconfig.FSMaxNameLen {
		nameBytes = nameBytes[:kconfig.FSMaxNameLen]
	}
	copy(out[4:4+32], nameBytes)
	le := binary.LittleEndian
	le.PutUint32(out[36:40], e.FirstBlock)
	le.PutUint32(out[40:44], e.SizeBytes)
	return out
}

func unmarshalDirEntry(data []byte) (DirEntry, error) {
	var e DirEntry
	if len(data) < kconfig.FSDirEntrySize {
		return e, fmt.Errorf("otfs: %w: directory entry buffer too small", kerr.ErrIO)
	}
	e.Used = data[0] != 0
	nameField := data[4:36]
	if n := bytes.IndexByte(nameField, 0); n >= 0 {
		e.Name = string(nameField[:n])
	} else {
		e.Name = string(nameField)
	}
	le := binary.LittleEndian
	e.FirstBlock = le.Uint32(data[36:40])
	e.SizeBytes = le.Uint32(data[40:44])
	return e, nil
}
