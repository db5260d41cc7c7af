package fs

import (
	"encoding/binary"

	"nucleus/src/defs"
)

// dirFlagUsed marks a directory entry slot as occupied (spec.md §3:
// "flags & 1 = USED").
const dirFlagUsed = 1

// Dirent is the in-memory, convenient form of one fixed-size directory
// entry (spec.md §3). Name is never longer than defs.MaxNameLen.
type Dirent struct {
	Inode uint64
	Name  string
	Used  bool
}

// encodeDirent serializes d into a defs.DirentSize-byte little-endian
// slot: inode, name_len, flags, then the name bytes followed by zero
// padding to fill the slot (spec.md §3).
func encodeDirent(d Dirent) []byte {
	buf := make([]byte, defs.DirentSize)
	binary.LittleEndian.PutUint64(buf[0:8], d.Inode)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(len(d.Name)))
	var flags uint16
	if d.Used {
		flags |= dirFlagUsed
	}
	binary.LittleEndian.PutUint16(buf[10:12], flags)
	copy(buf[12:], d.Name)
	return buf
}

// decodeDirent parses one defs.DirentSize-byte slot.
func decodeDirent(buf []byte) Dirent {
	inode := binary.LittleEndian.Uint64(buf[0:8])
	nameLen := binary.LittleEndian.Uint16(buf[8:10])
	flags := binary.LittleEndian.Uint16(buf[10:12])
	if int(nameLen) > defs.MaxNameLen {
		nameLen = defs.MaxNameLen
	}
	name := string(buf[12 : 12+int(nameLen)])
	return Dirent{Inode: inode, Name: name, Used: flags&dirFlagUsed != 0}
}

// dirBlock is a 512-byte block holding defs.DirentsPerBlock fixed-size
// entries (spec.md §3).
type dirBlock struct {
	buf []byte
}

func (d dirBlock) entry(slot int) Dirent {
	off := slot * defs.DirentSize
	return decodeDirent(d.buf[off : off+defs.DirentSize])
}

func (d dirBlock) setEntry(slot int, e Dirent) {
	off := slot * defs.DirentSize
	copy(d.buf[off:off+defs.DirentSize], encodeDirent(e))
}
