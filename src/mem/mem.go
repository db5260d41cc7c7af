// Package mem implements the kernel's physical-frame accounting: the
// bump frame allocator over the boot memory map (spec.md §4.1) and the
// physical-memory-offset linear map used to dereference arbitrary frames
// (spec.md §3, "Dmap" in the teacher's terminology, mem/mem.go and
// mem/dmap.go in the teacher).
package mem

/// PGSHIFT is the base-2 exponent for the page size.
const PGSHIFT uint = 12

/// PGSIZE is the size of a single page/frame in bytes.
const PGSIZE int = 1 << PGSHIFT

/// PGOFFSET masks the in-page offset of an address.
const PGOFFSET Pa_t = 0xfff

/// PGMASK masks the page/frame number of an address.
const PGMASK Pa_t = ^PGOFFSET

// Page-table entry flag bits, named as in the teacher's mem.go.
const (
	PTE_P  Pa_t = 1 << 0 /// present
	PTE_W  Pa_t = 1 << 1 /// writable
	PTE_NX Pa_t = 1 << 63 /// no-execute
	PTE_PWT Pa_t = 1 << 3 /// write-through
	PTE_PCD Pa_t = 1 << 4 /// cache disable
	PTE_PS Pa_t = 1 << 7  /// huge (2M/1G) page — unsupported by the mapper, see vm.ErrHugePage
)

/// PTE_ADDR extracts the frame/table address bits of a PTE.
const PTE_ADDR Pa_t = PGMASK

/// Pa_t is a physical address.
type Pa_t uintptr

/// VAddr is a virtual address.
type VAddr uintptr

/// Bytepg_t is a page viewed as a byte array.
type Bytepg_t [PGSIZE]uint8

/// Region describes one entry of the boot memory map (spec.md §6).
type Region struct {
	Start     Pa_t
	End       Pa_t // exclusive
	Usable    bool
}

/// MemoryMap is the ordered list of regions handed to the kernel at boot.
type MemoryMap []Region
