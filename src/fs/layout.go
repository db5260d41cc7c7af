// Package fs implements the simple block-based filesystem of spec.md
// §4.10: on-disk superblock, bitmap allocators, a flat inode table, and a
// single-level root directory over a blockdev.Device. Grounded on
// original_source's src/fs/layout.rs for the exact on-disk byte layout
// (little-endian, 64-bit fields first) and on the teacher's habit of
// keeping an in-memory convenience struct separate from its byte-exact
// wire form (spec.md §9's "on-disk structs" guidance, matching stat.Stat_t
// and the teacher's general zerocopy-free approach of explicit
// encoding/binary calls rather than unsafe struct casts over disk bytes,
// since disk byte order must be fixed regardless of host endianness).
package fs

import (
	"encoding/binary"

	"nucleus/src/defs"
)

// SuperBlock is the in-memory, convenient form of the filesystem's root
// metadata record (spec.md §3). Encode/Decode convert it to and from the
// fixed 64-byte, little-endian on-disk form.
type SuperBlock struct {
	TotalBlocks      uint64
	InodeBitmapBlock uint64
	DataBitmapBlock  uint64
	InodeTableStart  uint64
	InodeCount       uint64
	DataBlockStart   uint64
	DataBlockCount   uint64
	Magic            uint32
}

// superBlockWireSize is the fixed on-disk size of a SuperBlock: seven
// 8-byte fields, a 4-byte magic, and 4 bytes of explicit padding so the
// struct is exactly 64 bytes with no implicit tail padding (spec.md §3).
const superBlockWireSize = 64

// Encode serializes sb into a new 64-byte little-endian buffer (spec.md
// §8 "Superblock round-trip": encode(s).len() == 64).
func (sb SuperBlock) Encode() []byte {
	buf := make([]byte, superBlockWireSize)
	binary.LittleEndian.PutUint64(buf[0:8], sb.TotalBlocks)
	binary.LittleEndian.PutUint64(buf[8:16], sb.InodeBitmapBlock)
	binary.LittleEndian.PutUint64(buf[16:24], sb.DataBitmapBlock)
	binary.LittleEndian.PutUint64(buf[24:32], sb.InodeTableStart)
	binary.LittleEndian.PutUint64(buf[32:40], sb.InodeCount)
	binary.LittleEndian.PutUint64(buf[40:48], sb.DataBlockStart)
	binary.LittleEndian.PutUint64(buf[48:56], sb.DataBlockCount)
	binary.LittleEndian.PutUint32(buf[56:60], sb.Magic)
	// buf[60:64] is the explicit pad field, left zero.
	return buf
}

// DecodeSuperBlock parses a 64-byte buffer into a SuperBlock. It does not
// itself validate the magic number; callers (Mount) do that so Decode
// stays a total, side-effect-free conversion (spec.md §9).
func DecodeSuperBlock(buf []byte) (SuperBlock, error) {
	if len(buf) < superBlockWireSize {
		return SuperBlock{}, &fsError{code: defs.ECORRUPT, op: "decode superblock"}
	}
	return SuperBlock{
		TotalBlocks:      binary.LittleEndian.Uint64(buf[0:8]),
		InodeBitmapBlock: binary.LittleEndian.Uint64(buf[8:16]),
		DataBitmapBlock:  binary.LittleEndian.Uint64(buf[16:24]),
		InodeTableStart:  binary.LittleEndian.Uint64(buf[24:32]),
		InodeCount:       binary.LittleEndian.Uint64(buf[32:40]),
		DataBlockStart:   binary.LittleEndian.Uint64(buf[40:48]),
		DataBlockCount:   binary.LittleEndian.Uint64(buf[48:56]),
		Magic:            binary.LittleEndian.Uint32(buf[56:60]),
	}, nil
}

// FileType tags an inode's kind (spec.md §3: "mode encodes file type").
type FileType uint16

const (
	TypeUnknown   FileType = 0
	TypeFile      FileType = 1
	TypeDirectory FileType = 2
)

// Inode is the in-memory, convenient form of one 128-byte on-disk inode
// record (spec.md §3).
type Inode struct {
	SizeInBytes uint64
	Atime       uint64
	Mtime       uint64
	Ctime       uint64
	Direct      [defs.DirectCount]uint64
	Indirect    uint64
	Mode        FileType
	UID         uint16
	GID         uint16
	LinkCount   uint16
}

// Encode serializes i into a new defs.InodeSize-byte little-endian
// buffer: 64-bit fields first, then the four 16-bit fields, summing to
// exactly 128 bytes with no padding (spec.md §3, layout.rs's DiskInode).
func (i Inode) Encode() []byte {
	buf := make([]byte, defs.InodeSize)
	binary.LittleEndian.PutUint64(buf[0:8], i.SizeInBytes)
	binary.LittleEndian.PutUint64(buf[8:16], i.Atime)
	binary.LittleEndian.PutUint64(buf[16:24], i.Mtime)
	binary.LittleEndian.PutUint64(buf[24:32], i.Ctime)
	off := 32
	for _, d := range i.Direct {
		binary.LittleEndian.PutUint64(buf[off:off+8], d)
		off += 8
	}
	binary.LittleEndian.PutUint64(buf[off:off+8], i.Indirect)
	off += 8
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(i.Mode))
	off += 2
	binary.LittleEndian.PutUint16(buf[off:off+2], i.UID)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:off+2], i.GID)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:off+2], i.LinkCount)
	return buf
}

// DecodeInode parses a defs.InodeSize-byte buffer into an Inode.
func DecodeInode(buf []byte) (Inode, error) {
	if len(buf) < defs.InodeSize {
		return Inode{}, &fsError{code: defs.ECORRUPT, op: "decode inode"}
	}
	var i Inode
	i.SizeInBytes = binary.LittleEndian.Uint64(buf[0:8])
	i.Atime = binary.LittleEndian.Uint64(buf[8:16])
	i.Mtime = binary.LittleEndian.Uint64(buf[16:24])
	i.Ctime = binary.LittleEndian.Uint64(buf[24:32])
	off := 32
	for d := 0; d < defs.DirectCount; d++ {
		i.Direct[d] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}
	i.Indirect = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	i.Mode = FileType(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2
	i.UID = binary.LittleEndian.Uint16(buf[off : off+2])
	off += 2
	i.GID = binary.LittleEndian.Uint16(buf[off : off+2])
	off += 2
	i.LinkCount = binary.LittleEndian.Uint16(buf[off : off+2])
	return i, nil
}
