package otfs

import (
	"fmt"

	"tinykernel/internal/bitfield"
	"tinykernel/internal/kconfig"
	"tinykernel/internal/kerr"
)

const (
	fatFree = 0xFFFFFFFF
	fatEnd  = 0xFFFFFFFE
)

// OpenFlags selects an open file's access mode, packed the same way the
// page allocator's PageFlags are (internal/bitfield) instead of as a raw
// bitmask, giving the flags nibble named in §3 a second bitfield caller.
type OpenFlags struct {
	Read   bool `bitfield:",1"`
	Write  bool `bitfield:",1"`
	Create bool `bitfield:",1"`
	Trunc  bool `bitfield:",1"`
}

var openFlagsConfig = &bitfield.Config{NumBits: 4}

// Packed returns flags packed into the on-disk-style nibble representation.
func (f OpenFlags) Packed() uint64 {
	v, _ := bitfield.Pack(f, openFlagsConfig)
	return v
}

type openFile struct {
	inUse    bool
	dirIndex int
	offset   uint32
	flags    OpenFlags
}

// FS is a mounted OTFS volume: directory region and FAT held in memory,
// backed by a BlockDevice for actual bytes.
type FS struct {
	dev       BlockDevice
	mounted   bool
	dirRegion []DirEntry
	fat       []uint32
	openFiles []openFile
}

// New returns an unmounted FS handle.
func New() *FS {
	return &FS{}
}

// Format overwrites the image at path with zeroed blocks, then writes a
// fresh superblock, an all-empty directory region, and an all-free FAT.
func Format(path string) error {
	dev, err := CreateFileBlockDevice(path, kconfig.FSTotalBlocks)
	if err != nil {
		return err
	}
	defer dev.Close()

	sb := marshalSuperblock(defaultSuperblock())
	if err := dev.WriteBlock(kconfig.FSSuperblockBlock, padTo(sb, kconfig.FSBlockSize)); err != nil {
		return err
	}

	dirRegion := make([]DirEntry, kconfig.FSMaxFiles)
	for i := range dirRegion {
		dirRegion[i] = emptyDirEntry()
	}
	if err := writeDirRegion(dev, dirRegion); err != nil {
		return err
	}

	fat := make([]uint32, kconfig.FSDataBlockCount)
	for i := range fat {
		fat[i] = fatFree
	}
	if err := writeFAT(dev, fat); err != nil {
		return err
	}
	return nil
}

// Mount opens path, validates its superblock against the fixed layout
// constants, and loads the directory region and FAT into memory. On any
// mismatch the file is closed and an error returned.
func (fs *FS) Mount(path string) error {
	dev, err := OpenFileBlockDevice(path)
	if err != nil {
		return err
	}

	block := make([]byte, kconfig.FSBlockSize)
	if err := dev.ReadBlock(kconfig.FSSuperblockBlock, block); err != nil {
		dev.Close()
		return err
	}
	sb, err := unmarshalSuperblock(block)
	if err != nil {
		dev.Close()
		return err
	}
	if !sb.matchesDefault() {
		dev.Close()
		return fmt.Errorf("otfs: %w: superblock does not match expected layout", kerr.ErrState)
	}

	dirRegion, err := readDirRegion(dev)
	if err != nil {
		dev.Close()
		return err
	}
	fat, err := readFAT(dev)
	if err != nil {
		dev.Close()
		return err
	}

	fs.dev = dev
	fs.dirRegion = dirRegion
	fs.fat = fat
	fs.openFiles = make([]openFile, kconfig.FSMaxOpenFiles)
	fs.mounted = true
	return nil
}

// Unmount flushes metadata and closes the underlying device.
func (fs *FS) Unmount() error {
	if err := fs.validateMounted(); err != nil {
		return err
	}
	if err := fs.syncMetadata(); err != nil {
		return err
	}
	if err := fs.dev.Close(); err != nil {
		return err
	}
	*fs = FS{}
	return nil
}

func (fs *FS) validateMounted() error {
	if !fs.mounted {
		return fmt.Errorf("otfs: %w: filesystem not mounted", kerr.ErrState)
	}
	return nil
}

func padTo(data []byte, size int) []byte {
	if len(data) >= size {
		return data[:size]
	}
	out := make([]byte, size)
	copy(out, data)
	return out
}

func writeDirRegion(dev BlockDevice, dirRegion []DirEntry) error {
	entriesPerBlock := kconfig.FSBlockSize / kconfig.FSDirEntrySize
	for b := 0; b < kconfig.FSDirBlockCount; b++ {
		buf := make([]byte, 0, kconfig.FSBlockSize)
		for i := 0; i < entriesPerBlock; i++ {
			idx := b*entriesPerBlock + i
			var e DirEntry
			if idx < len(dirRegion) {
				e = dirRegion[idx]
			} else {
				e = emptyDirEntry()
			}
			buf = append(buf, marshalDirEntry(e)...)
		}
		if err := dev.WriteBlock(uint32(kconfig.FSDirStartBlock+b), padTo(buf, kconfig.FSBlockSize)); err != nil {
			return err
		}
	}
	return nil
}

func readDirRegion(dev BlockDevice) ([]DirEntry, error) {
	entriesPerBlock := kconfig.FSBlockSize / kconfig.FSDirEntrySize
	out := make([]DirEntry, 0, kconfig.FSMaxFiles)
	block := make([]byte, kconfig.FSBlockSize)
	for b := 0; b < kconfig.FSDirBlockCount; b++ {
		if err := dev.ReadBlock(uint32(kconfig.FSDirStartBlock+b), block); err != nil {
			return nil, err
		}
		for i := 0; i < entriesPerBlock && len(out) < kconfig.FSMaxFiles; i++ {
			off := i * kconfig.FSDirEntrySize
			e, err := unmarshalDirEntry(block[off : off+kconfig.FSDirEntrySize])
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func writeFAT(dev BlockDevice, fat []uint32) error {
	fatBytes := make([]byte, kconfig.FSFATBlockCount*kconfig.FSBlockSize)
	for i := range fatBytes {
		fatBytes[i] = 0xFF
	}
	for i, v := range fat {
		off := i * 4
		fatBytes[off] = byte(v)
		fatBytes[off+1] = byte(v >> 8)
		fatBytes[off+2] = byte(v >> 16)
		fatBytes[off+3] = byte(v >> 24)
	}
	for b := 0; b < kconfig.FSFATBlockCount; b++ {
		chunk := fatBytes[b*kconfig.FSBlockSize : (b+1)*kconfig.FSBlockSize]
		if err := dev.WriteBlock(uint32(kconfig.FSFATStartBlock+b), chunk); err != nil {
			return err
		}
	}
	return nil
}

func readFAT(dev BlockDevice) ([]uint32, error) {
	fatBytes := make([]byte, 0, kconfig.FSFATBlockCount*kconfig.FSBlockSize)
	block := make([]byte, kconfig.FSBlockSize)
	for b := 0; b < kconfig.FSFATBlockCount; b++ {
		if err := dev.ReadBlock(uint32(kconfig.FSFATStartBlock+b), block); err != nil {
			return nil, err
		}
		fatBytes = append(fatBytes, block...)
	}
	fat := make([]uint32, kconfig.FSDataBlockCount)
	for i := range fat {
		off := i * 4
		fat[i] = uint32(fatBytes[off]) | uint32(fatBytes[off+1])<<8 |
			uint32(fatBytes[off+2])<<16 | uint32(fatBytes[off+3])<<24
	}
	return fat, nil
}

// syncMetadata flushes the in-memory directory region and FAT back to
// the image, matching the original's "every open-with-create,
// truncation, and write flushes metadata" durability contract.
func (fs *FS) syncMetadata() error {
	if err := writeDirRegion(fs.dev, fs.dirRegion); err != nil {
		return err
	}
	return writeFAT(fs.dev, fs.fat)
}

func (fs *FS) allocateDataBlock() (uint32, error) {
	zero := make([]byte, kconfig.FSBlockSize)
	for i := range fs.fat {
		if fs.fat[i] == fatFree {
			fs.fat[i] = fatEnd
			if err := fs.dev.WriteBlock(uint32(kconfig.FSDataStartBlock+i), zero); err != nil {
				return 0, err
			}
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("otfs: %w: data block pool exhausted", kerr.ErrNoSpace)
}

func (fs *FS) validBlockIndex(index uint32) bool {
	return index < uint32(len(fs.fat))
}

func (fs *FS) releaseChain(first uint32) error {
	cur := first
	seen := 0
	for cur != fatEnd {
		if !fs.validBlockIndex(cur) {
			return fmt.Errorf("otfs: %w: corrupt block chain", kerr.ErrState)
		}
		if seen > len(fs.fat) {
			return fmt.Errorf("otfs: %w: block chain cycle detected", kerr.ErrState)
		}
		seen++
		next := fs.fat[cur]
		fs.fat[cur] = fatFree
		cur = next
	}
	return nil
}

// resolveDataBlock walks entry's chain to its logicalBlock'th block,
// allocating new blocks along the way if allocate is true.
func (fs *FS) resolveDataBlock(entry *DirEntry, logicalBlock uint32, allocate bool) (uint32, error) {
	if entry.FirstBlock == fatEnd {
		if !allocate {
			return 0, fmt.Errorf("otfs: %w: no blocks allocated", kerr.ErrNotFound)
		}
		first, err := fs.allocateDataBlock()
		if err != nil {
			return 0, err
		}
		entry.FirstBlock = first
	}

	cur := entry.FirstBlock
	if !fs.validBlockIndex(cur) {
		return 0, fmt.Errorf("otfs: %w: corrupt block chain", kerr.ErrState)
	}

	for step := uint32(0); step < logicalBlock; step++ {
		next := fs.fat[cur]
		if next == fatEnd {
			if !allocate {
				return 0, fmt.Errorf("otfs: %w: block chain too short", kerr.ErrNotFound)
			}
			newBlock, err := fs.allocateDataBlock()
			if err != nil {
				return 0, err
			}
			fs.fat[cur] = newBlock
			next = newBlock
		}
		if !fs.validBlockIndex(next) {
			return 0, fmt.Errorf("otfs: %w: corrupt block chain", kerr.ErrState)
		}
		cur = next
	}
	return cur, nil
}

func (fs *FS) readDataBlock(index uint32, out []byte) error {
	if !fs.validBlockIndex(index) {
		return fmt.Errorf("otfs: %w: block index %d out of range", kerr.ErrArgument, index)
	}
	return fs.dev.ReadBlock(uint32(kconfig.FSDataStartBlock)+index, out)
}

func (fs *FS) writeDataBlock(index uint32, data []byte) error {
	if !fs.validBlockIndex(index) {
		return fmt.Errorf("otfs: %w: block index %d out of range", kerr.ErrArgument, index)
	}
	return fs.dev.WriteBlock(uint32(kconfig.FSDataStartBlock)+index, data)
}

func (fs *FS) findDirEntry(name string) int {
	for i := range fs.dirRegion {
		if fs.dirRegion[i].Used && fs.dirRegion[i].Name == name {
			return i
		}
	}
	return -1
}

func (fs *FS) allocDirEntry(name string) int {
	for i := range fs.dirRegion {
		if !fs.dirRegion[i].Used {
			fs.dirRegion[i] = DirEntry{Used: true, Name: name, FirstBlock: fatEnd}
			return i
		}
	}
	return -1
}

func (fs *FS) validFD(fd int) bool {
	return fd >= 0 && fd < len(fs.openFiles)
}

func (fs *FS) allocFD() int {
	for i := range fs.openFiles {
		if !fs.openFiles[i].inUse {
			return i
		}
	}
	return -1
}

// Open looks up (or, with Create set, allocates) a directory entry for
// name, truncates it if requested, and returns a file descriptor.
func (fs *FS) Open(name string, flags OpenFlags) (int, error) {
	if err := fs.validateMounted(); err != nil {
		return -1, err
	}
	if !flags.Read && !flags.Write {
		return -1, fmt.Errorf("otfs: %w: flags must include Read or Write", kerr.ErrArgument)
	}
	if name == "" || len(name) > kconfig.FSMaxNameLen {
		return -1, fmt.Errorf("otfs: %w: bad file name %q", kerr.ErrArgument, name)
	}
	if flags.Trunc && !flags.Write {
		return -1, fmt.Errorf("otfs: %w: Trunc requires Write", kerr.ErrArgument)
	}

	dirIndex := fs.findDirEntry(name)
	if dirIndex < 0 {
		if !flags.Create {
			return -1, fmt.Errorf("otfs: %w: %q", kerr.ErrNotFound, name)
		}
		dirIndex = fs.allocDirEntry(name)
		if dirIndex < 0 {
			return -1, fmt.Errorf("otfs: %w: directory region full", kerr.ErrNoSpace)
		}
		if err := fs.syncMetadata(); err != nil {
			return -1, err
		}
	}

	if flags.Trunc {
		entry := &fs.dirRegion[dirIndex]
		if entry.FirstBlock != fatEnd {
			if err := fs.releaseChain(entry.FirstBlock); err != nil {
				return -1, err
			}
		}
		entry.FirstBlock = fatEnd
		entry.SizeBytes = 0
		if err := fs.syncMetadata(); err != nil {
			return -1, err
		}
	}

	fd := fs.allocFD()
	if fd < 0 {
		return -1, fmt.Errorf("otfs: %w: open file table full", kerr.ErrNoSpace)
	}
	fs.openFiles[fd] = openFile{inUse: true, dirIndex: dirIndex, flags: flags}
	return fd, nil
}

// Close releases fd.
func (fs *FS) Close(fd int) error {
	if err := fs.validateMounted(); err != nil {
		return err
	}
	if !fs.validFD(fd) {
		return fmt.Errorf("otfs: %w: bad file descriptor %d", kerr.ErrArgument, fd)
	}
	if !fs.openFiles[fd].inUse {
		return fmt.Errorf("otfs: %w: file descriptor %d not open", kerr.ErrState, fd)
	}
	fs.openFiles[fd] = openFile{}
	return nil
}

// Seek sets fd's offset with no bounds check; a later Write past the
// current size creates a sparse, zero-filled gap.
func (fs *FS) Seek(fd int, offset uint32) error {
	if err := fs.validateMounted(); err != nil {
		return err
	}
	if !fs.validFD(fd) || !fs.openFiles[fd].inUse {
		return fmt.Errorf("otfs: %w: bad file descriptor %d", kerr.ErrArgument, fd)
	}
	fs.openFiles[fd].offset = offset
	return nil
}

// Read copies up to len(buf) bytes starting at fd's offset, clamped to
// the file's remaining size, advancing the offset by the amount read.
func (fs *FS) Read(fd int, buf []byte) (int, error) {
	if err := fs.validateMounted(); err != nil {
		return 0, err
	}
	if !fs.validFD(fd) {
		return 0, fmt.Errorf("otfs: %w: bad file descriptor %d", kerr.ErrArgument, fd)
	}
	of := &fs.openFiles[fd]
	if !of.inUse || !of.flags.Read {
		return 0, fmt.Errorf("otfs: %w: file descriptor %d not open for read", kerr.ErrState, fd)
	}

	entry := &fs.dirRegion[of.dirIndex]
	if of.offset >= entry.SizeBytes || len(buf) == 0 {
		return 0, nil
	}

	length := len(buf)
	if remaining := int(entry.SizeBytes - of.offset); length > remaining {
		length = remaining
	}

	blockBuf := make([]byte, kconfig.FSBlockSize)
	done := 0
	for done < length {
		fileOffset := of.offset
		logicalBlock := fileOffset / kconfig.FSBlockSize
		intraBlock := int(fileOffset % kconfig.FSBlockSize)
		chunk := kconfig.FSBlockSize - intraBlock
		if chunk > length-done {
			chunk = length - done
		}

		dataBlock, err := fs.resolveDataBlock(entry, logicalBlock, false)
		if err != nil {
			return done, err
		}
		if err := fs.readDataBlock(dataBlock, blockBuf); err != nil {
			return done, err
		}
		copy(buf[done:done+chunk], blockBuf[intraBlock:intraBlock+chunk])
		done += chunk
		of.offset += uint32(chunk)
	}
	return done, nil
}

// Write copies buf into fd's file starting at the current offset,
// allocating blocks as needed and preserving any previously written
// bytes within each touched block (so sparse regions read back as the
// zeros a freshly allocated block starts with), then flushes metadata.
func (fs *FS) Write(fd int, buf []byte) (int, error) {
	if err := fs.validateMounted(); err != nil {
		return 0, err
	}
	if !fs.validFD(fd) {
		return 0, fmt.Errorf("otfs: %w: bad file descriptor %d", kerr.ErrArgument, fd)
	}
	of := &fs.openFiles[fd]
	if !of.inUse || !of.flags.Write {
		return 0, fmt.Errorf("otfs: %w: file descriptor %d not open for write", kerr.ErrState, fd)
	}

	entry := &fs.dirRegion[of.dirIndex]
	blockBuf := make([]byte, kconfig.FSBlockSize)
	done := 0
	for done < len(buf) {
		fileOffset := of.offset
		logicalBlock := fileOffset / kconfig.FSBlockSize
		intraBlock := int(fileOffset % kconfig.FSBlockSize)
		chunk := kconfig.FSBlockSize - intraBlock
		if chunk > len(buf)-done {
			chunk = len(buf) - done
		}

		dataBlock, err := fs.resolveDataBlock(entry, logicalBlock, true)
		if err != nil {
			return done, fmt.Errorf("otfs: %w", kerr.ErrNoSpace)
		}
		if err := fs.readDataBlock(dataBlock, blockBuf); err != nil {
			return done, err
		}
		copy(blockBuf[intraBlock:intraBlock+chunk], buf[done:done+chunk])
		if err := fs.writeDataBlock(dataBlock, blockBuf); err != nil {
			return done, err
		}

		done += chunk
		of.offset += uint32(chunk)
	}

	if of.offset > entry.SizeBytes {
		entry.SizeBytes = of.offset
	}
	if err := fs.syncMetadata(); err != nil {
		return done, err
	}
	return done, nil
}
