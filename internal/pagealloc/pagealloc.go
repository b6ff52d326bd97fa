// Package pagealloc manages a contiguous physical address range as a pool
// of fixed-size pages, the way the reference tree's page.go walks a
// free-list built over a statically sized Page array — except this pool
// is a bitmap (one bit per page) rather than an intrusive linked list, so
// it needs no per-page metadata struct and is trivially testable.
package pagealloc

import (
	"fmt"
	"math/bits"

	"tinykernel/internal/bitfield"
	"tinykernel/internal/kconfig"
	"tinykernel/internal/kerr"
)

// PageFlags mirrors the reference tree's PageFlags (page.go), packed via
// internal/bitfield instead of by hand. The allocator only needs the
// Allocated bit to do its job; KernelPage/Reserved exist so FlagsOf gives
// callers the same diagnostic shape the teacher's PackPageFlags did.
type PageFlags struct {
	Allocated  bool `bitfield:",1"`
	KernelPage bool `bitfield:",1"`
	Reserved   uint `bitfield:",6"`
}

var flagsConfig = &bitfield.Config{NumBits: 8}

// Pool is a fixed-capacity bitmap pool over [RangeStart, RangeEnd).
type Pool struct {
	rangeStart uintptr
	rangeEnd   uintptr
	totalPages uint32
	freePages  uint32
	nextHint   uint32
	bitmap     []uint64
	flags      []uint8
}

func alignUp(addr uintptr) uintptr {
	return (addr + kconfig.PageSize - 1) &^ (kconfig.PageSize - 1)
}

func alignDown(addr uintptr) uintptr {
	return addr &^ (kconfig.PageSize - 1)
}

// Init aligns start up and end down to page boundaries and builds an empty
// (all-free) pool over the resulting range. If end <= start after
// alignment, the pool has zero pages. total_pages is capped at
// kconfig.MaxPages.
func Init(start, end uintptr) *Pool {
	alignedStart := alignUp(start)
	alignedEnd := alignDown(end)

	p := &Pool{rangeStart: alignedStart, rangeEnd: alignedEnd}
	if alignedEnd <= alignedStart {
		p.rangeEnd = alignedStart
		return p
	}

	total := uint64(alignedEnd-alignedStart) / kconfig.PageSize
	if total > kconfig.MaxPages {
		total = kconfig.MaxPages
		p.rangeEnd = alignedStart + uintptr(total)*kconfig.PageSize
	}

	p.totalPages = uint32(total)
	p.freePages = p.totalPages
	p.bitmap = make([]uint64, (total+63)/64)
	p.flags = make([]uint8, total)
	return p
}

// RangeStart returns the page-aligned start of the managed range.
func (p *Pool) RangeStart() uintptr { return p.rangeStart }

// RangeEnd returns the page-aligned end of the managed range.
func (p *Pool) RangeEnd() uintptr { return p.rangeEnd }

// TotalPages returns the number of pages under management.
func (p *Pool) TotalPages() uint32 { return p.totalPages }

// FreePages returns the number of currently unallocated pages.
func (p *Pool) FreePages() uint32 { return p.freePages }

func (p *Pool) bitSet(index uint32) bool {
	return p.bitmap[index/64]&(1<<(index%64)) != 0
}

func (p *Pool) setBit(index uint32) {
	p.bitmap[index/64] |= 1 << (index % 64)
}

func (p *Pool) clearBit(index uint32) {
	p.bitmap[index/64] &^= 1 << (index % 64)
}

// Alloc performs a next-fit scan starting at nextHint, wrapping around the
// pool once. It fails only when FreePages() == 0.
func (p *Pool) Alloc() (uintptr, bool) {
	if p.freePages == 0 || p.totalPages == 0 {
		return 0, false
	}

	for i := uint32(0); i < p.totalPages; i++ {
		idx := (p.nextHint + i) % p.totalPages
		if !p.bitSet(idx) {
			p.setBit(idx)
			p.freePages--
			p.nextHint = (idx + 1) % p.totalPages

			flags := PageFlags{Allocated: true, KernelPage: true}
			packed, _ := bitfield.Pack(flags, flagsConfig)
			p.flags[idx] = uint8(packed)

			return p.rangeStart + uintptr(idx)*kconfig.PageSize, true
		}
	}
	return 0, false
}

// Free releases page back to the pool. It fails if page is the zero
// address, outside the managed range, misaligned, or already free.
func (p *Pool) Free(page uintptr) error {
	if page == 0 {
		return fmt.Errorf("pagealloc: %w: null page", kerr.ErrArgument)
	}
	if !p.Owns(page) {
		return fmt.Errorf("pagealloc: %w: page 0x%x out of range", kerr.ErrArgument, page)
	}

	idx := uint32((page - p.rangeStart) / kconfig.PageSize)
	if !p.bitSet(idx) {
		return fmt.Errorf("pagealloc: %w: double free of page 0x%x", kerr.ErrState, page)
	}

	p.clearBit(idx)
	p.freePages++
	p.flags[idx] = 0

	if p.freePages == 1 {
		p.nextHint = idx
	} else if idx < p.nextHint {
		p.nextHint = idx
	}
	return nil
}

// Owns reports whether p is within the managed range and page-aligned.
func (p *Pool) Owns(page uintptr) bool {
	if page < p.rangeStart || page >= p.rangeEnd {
		return false
	}
	return (page-p.rangeStart)%kconfig.PageSize == 0
}

// FlagsOf returns the packed flags recorded for the page containing addr,
// or an error if addr is not a page owned by this pool.
func (p *Pool) FlagsOf(addr uintptr) (PageFlags, error) {
	if !p.Owns(addr) {
		return PageFlags{}, fmt.Errorf("pagealloc: %w: page 0x%x out of range", kerr.ErrArgument, addr)
	}
	idx := uint32((addr - p.rangeStart) / kconfig.PageSize)
	var flags PageFlags
	if err := bitfield.Unpack(uint64(p.flags[idx]), &flags, flagsConfig); err != nil {
		return PageFlags{}, err
	}
	return flags, nil
}

// popCount returns the number of allocated pages as tracked by the bitmap,
// used by tests to check the free_pages == total_pages - popcount invariant.
func (p *Pool) popCount() int {
	count := 0
	for _, word := range p.bitmap {
		count += bits.OnesCount64(word)
	}
	return count
}
