// Package stat is the byte-exact, field-accessor view of a file's
// metadata returned by fs.FileSystem.Stat (spec.md §4.10 EXPANSION). It
// follows the teacher's stat.Stat_t convention of private fields reached
// only through named accessors rather than exported struct fields. The
// accessors are plain loads and stores with no synchronisation.
package stat

// Stat_t mirrors one inode's user-facing metadata: its index, size, mode,
// link count, and the number of direct data blocks currently in use.
type Stat_t struct {
	_ino       uint64
	_size      uint64
	_mode      uint16
	_linkcount uint16
	_blocks    uint64
}

// Wino stores the inode index.
func (st *Stat_t) Wino(v uint64) { st._ino = v }

// Wsize stores the file size in bytes.
func (st *Stat_t) Wsize(v uint64) { st._size = v }

// Wmode stores the inode's mode (file-type tag).
func (st *Stat_t) Wmode(v uint16) { st._mode = v }

// Wlinkcount stores the inode's link count.
func (st *Stat_t) Wlinkcount(v uint16) { st._linkcount = v }

// Wblocks stores the number of direct data blocks in use.
func (st *Stat_t) Wblocks(v uint64) { st._blocks = v }

// Ino returns the inode index.
func (st *Stat_t) Ino() uint64 { return st._ino }

// Size returns the file size in bytes.
func (st *Stat_t) Size() uint64 { return st._size }

// Mode returns the inode's mode.
func (st *Stat_t) Mode() uint16 { return st._mode }

// Linkcount returns the inode's link count.
func (st *Stat_t) Linkcount() uint16 { return st._linkcount }

// Blocks returns the number of direct data blocks in use.
func (st *Stat_t) Blocks() uint64 { return st._blocks }
