package fs

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"nucleus/src/blockdev"
	"nucleus/src/defs"
	"nucleus/src/stat"
)

// fsError wraps a defs.Err_t sentinel with the operation that produced it,
// following the teacher's practice of only surfacing the error interface at
// a package's outermost boundary (spec.md §7) while every internal helper
// below passes plain defs.Err_t values around.
type fsError struct {
	code defs.Err_t
	op   string
}

func (e *fsError) Error() string {
	return fmt.Sprintf("fs: %s: %d", e.op, e.code)
}

// rootInode is the fixed inode index of the root directory (spec.md §4.10:
// "the root directory occupies inode 0").
const rootInode = 0

// FileSystem is a mounted instance of the simple block-based filesystem
// (spec.md §4.10), wrapping a blockdev.Device and caching its superblock.
// Grounded on the teacher's ufs.Fs_t, which likewise keeps a single
// in-memory superblock view alongside the underlying block device handle
// rather than re-reading it for every operation.
type FileSystem struct {
	dev blockdev.Device
	sb  SuperBlock
}

// Format lays out a fresh filesystem across every block dev reports and
// returns a mounted FileSystem. The inode table claims one tenth of the
// device's blocks (rounded down), following the ratio original_source's
// scenario fixtures were built against; everything after that is the data
// region (spec.md §8 scenario "format lays out an 2048-block device").
func Format(dev blockdev.Device) (*FileSystem, error) {
	total := dev.Capacity()
	inodeTableBlocks := total / 10
	if inodeTableBlocks == 0 {
		inodeTableBlocks = 1
	}
	dataBlockStart := defs.InodeTableStart + inodeTableBlocks
	if dataBlockStart >= total {
		return nil, &fsError{code: defs.ENOSPC, op: "format"}
	}

	sb := SuperBlock{
		TotalBlocks:      total,
		InodeBitmapBlock: defs.InodeBitmapBlock,
		DataBitmapBlock:  defs.DataBitmapBlock,
		InodeTableStart:  defs.InodeTableStart,
		InodeCount:       inodeTableBlocks * defs.InodesPerBlock,
		DataBlockStart:   dataBlockStart,
		DataBlockCount:   total - dataBlockStart,
		Magic:            defs.SuperblockMagic,
	}

	sbBlock := make([]byte, defs.BlockSize)
	copy(sbBlock, sb.Encode())
	if err := dev.WriteBlocks(defs.SuperblockNumber, sbBlock); err != nil {
		return nil, err
	}

	zero := make([]byte, defs.BlockSize)
	if err := dev.WriteBlocks(sb.InodeBitmapBlock, zero); err != nil {
		return nil, err
	}
	if err := dev.WriteBlocks(sb.DataBitmapBlock, zero); err != nil {
		return nil, err
	}

	blankInodeTable := make([]byte, defs.BlockSize)
	for b := uint64(0); b < inodeTableBlocks; b++ {
		if err := dev.WriteBlocks(sb.InodeTableStart+b, blankInodeTable); err != nil {
			return nil, err
		}
	}

	fs := &FileSystem{dev: dev, sb: sb}
	if err := fs.initRootDirectory(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Mount reads an existing superblock off dev and validates its magic
// (spec.md §8 scenario "mount rejects a bad magic").
func Mount(dev blockdev.Device) (*FileSystem, error) {
	buf := make([]byte, defs.BlockSize)
	if err := dev.ReadBlocks(defs.SuperblockNumber, buf); err != nil {
		return nil, err
	}
	sb, err := DecodeSuperBlock(buf)
	if err != nil {
		return nil, err
	}
	if sb.Magic != defs.SuperblockMagic {
		return nil, &fsError{code: defs.EBADMAGIC, op: "mount"}
	}
	return &FileSystem{dev: dev, sb: sb}, nil
}

func (fs *FileSystem) readBlock(blockID uint64) ([]byte, error) {
	buf := make([]byte, defs.BlockSize)
	if err := fs.dev.ReadBlocks(blockID, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (fs *FileSystem) writeBlock(blockID uint64, buf []byte) error {
	return fs.dev.WriteBlocks(blockID, buf)
}

// allocateInode finds and claims the lowest-numbered free inode index.
func (fs *FileSystem) allocateInode() (uint64, defs.Err_t) {
	buf, err := fs.readBlock(fs.sb.InodeBitmapBlock)
	if err != nil {
		return 0, defs.EIO
	}
	idx, ok := bitmap{buf: buf}.findAndSetFirstFree()
	if !ok || uint64(idx) >= fs.sb.InodeCount {
		return 0, defs.ENOSPC
	}
	if err := fs.writeBlock(fs.sb.InodeBitmapBlock, buf); err != nil {
		return 0, defs.EIO
	}
	return uint64(idx), 0
}

// allocateDataBlock finds and claims the lowest-numbered free data block,
// returning its absolute block id on the device.
func (fs *FileSystem) allocateDataBlock() (uint64, defs.Err_t) {
	buf, err := fs.readBlock(fs.sb.DataBitmapBlock)
	if err != nil {
		return 0, defs.EIO
	}
	idx, ok := bitmap{buf: buf}.findAndSetFirstFree()
	if !ok || uint64(idx) >= fs.sb.DataBlockCount {
		return 0, defs.ENOSPC
	}
	if err := fs.writeBlock(fs.sb.DataBitmapBlock, buf); err != nil {
		return 0, defs.EIO
	}
	return fs.sb.DataBlockStart + uint64(idx), 0
}

func (fs *FileSystem) inodeLocation(inodeIdx uint64) (blockID uint64, offset int) {
	blockID = fs.sb.InodeTableStart + inodeIdx/defs.InodesPerBlock
	offset = int(inodeIdx%defs.InodesPerBlock) * defs.InodeSize
	return
}

func (fs *FileSystem) readInode(inodeIdx uint64) (Inode, defs.Err_t) {
	if inodeIdx >= fs.sb.InodeCount {
		return Inode{}, defs.EINVAL
	}
	blockID, off := fs.inodeLocation(inodeIdx)
	buf, err := fs.readBlock(blockID)
	if err != nil {
		return Inode{}, defs.EIO
	}
	inode, decErr := DecodeInode(buf[off : off+defs.InodeSize])
	if decErr != nil {
		return Inode{}, defs.ECORRUPT
	}
	return inode, 0
}

func (fs *FileSystem) writeInode(inodeIdx uint64, inode Inode) defs.Err_t {
	if inodeIdx >= fs.sb.InodeCount {
		return defs.EINVAL
	}
	blockID, off := fs.inodeLocation(inodeIdx)
	buf, err := fs.readBlock(blockID)
	if err != nil {
		return defs.EIO
	}
	copy(buf[off:off+defs.InodeSize], inode.Encode())
	if err := fs.writeBlock(blockID, buf); err != nil {
		return defs.EIO
	}
	return 0
}

// initRootDirectory allocates inode 0 as an empty directory containing "."
// and ".." entries pointing at itself (spec.md §4.10).
func (fs *FileSystem) initRootDirectory() error {
	idx, errt := fs.allocateInode()
	if errt != 0 {
		return &fsError{code: errt, op: "init root directory"}
	}
	if idx != rootInode {
		return &fsError{code: defs.ECORRUPT, op: "init root directory"}
	}

	blockID, errt := fs.allocateDataBlock()
	if errt != 0 {
		return &fsError{code: errt, op: "init root directory"}
	}

	blk := dirBlock{buf: make([]byte, defs.BlockSize)}
	blk.setEntry(0, Dirent{Inode: rootInode, Name: ".", Used: true})
	blk.setEntry(1, Dirent{Inode: rootInode, Name: "..", Used: true})
	if err := fs.writeBlock(blockID, blk.buf); err != nil {
		return err
	}

	now := uint64(0)
	root := Inode{
		SizeInBytes: defs.BlockSize,
		Atime:       now,
		Mtime:       now,
		Ctime:       now,
		Mode:        TypeDirectory,
		LinkCount:   2,
	}
	root.Direct[0] = blockID
	if errt := fs.writeInode(rootInode, root); errt != 0 {
		return &fsError{code: errt, op: "init root directory"}
	}
	return nil
}

// normalizeName applies Unicode NFC normalization to a candidate file name
// so that visually identical names submitted in different decompositions
// collide in the directory rather than silently coexisting (spec.md §9
// EXPANSION: name comparisons are normalization-insensitive).
func normalizeName(name string) (string, error) {
	n := norm.NFC.String(name)
	if len(n) == 0 {
		return "", &fsError{code: defs.EINVAL, op: "normalize name"}
	}
	if len(n) > defs.MaxNameLen {
		return "", &fsError{code: defs.ENAMETOOLONG, op: "normalize name"}
	}
	return n, nil
}

// dirBlocks returns every direct data block of dir as a dirBlock, in
// Direct[] order, together with each block's absolute id. The simple
// filesystem never grows a directory past
// its direct blocks (spec.md §4.10 Non-goals: no indirect directories).
func (fs *FileSystem) dirBlocks(dir Inode) ([]dirBlock, []uint64, defs.Err_t) {
	var blocks []dirBlock
	var ids []uint64
	for _, blockID := range dir.Direct {
		if blockID == 0 {
			continue
		}
		buf, err := fs.readBlock(blockID)
		if err != nil {
			return nil, nil, defs.EIO
		}
		blocks = append(blocks, dirBlock{buf: buf})
		ids = append(ids, blockID)
	}
	return blocks, ids, 0
}

// lookupInDir scans dir's entries for name, returning its inode index.
func (fs *FileSystem) lookupInDir(dir Inode, name string) (uint64, defs.Err_t) {
	blocks, _, errt := fs.dirBlocks(dir)
	if errt != 0 {
		return 0, errt
	}
	for _, blk := range blocks {
		for slot := 0; slot < defs.DirentsPerBlock; slot++ {
			e := blk.entry(slot)
			if e.Used && e.Name == name {
				return e.Inode, 0
			}
		}
	}
	return 0, defs.ENOENT
}

// CreateFile creates an empty regular file named name in the root
// directory, returning EEXIST if the name is already present (spec.md §8
// scenario "create_file rejects a duplicate name").
func (fs *FileSystem) CreateFile(name string) (uint64, error) {
	normalized, err := normalizeName(name)
	if err != nil {
		return 0, err
	}

	root, errt := fs.readInode(rootInode)
	if errt != 0 {
		return 0, &fsError{code: errt, op: "create file"}
	}

	if _, errt := fs.lookupInDir(root, normalized); errt == 0 {
		return 0, &fsError{code: defs.EEXIST, op: "create file"}
	}

	blocks, blockIDs, errt := fs.dirBlocks(root)
	if errt != 0 {
		return 0, &fsError{code: errt, op: "create file"}
	}

	blk, slot, slotBlockID, grewRoot, errt := fs.findFreeDirSlot(&root, blocks, blockIDs)
	if errt != 0 {
		return 0, &fsError{code: errt, op: "create file"}
	}

	fileIdx, errt := fs.allocateInode()
	if errt != 0 {
		return 0, &fsError{code: errt, op: "create file"}
	}

	blk.setEntry(slot, Dirent{Inode: fileIdx, Name: normalized, Used: true})
	if err := fs.writeBlock(slotBlockID, blk.buf); err != nil {
		return 0, err
	}
	if grewRoot {
		if errt := fs.writeInode(rootInode, root); errt != 0 {
			return 0, &fsError{code: errt, op: "create file"}
		}
	}

	file := Inode{Mode: TypeFile, LinkCount: 1}
	if errt := fs.writeInode(fileIdx, file); errt != 0 {
		return 0, &fsError{code: errt, op: "create file"}
	}
	return fileIdx, nil
}

// findFreeDirSlot locates the first unused dirent slot in root's existing
// direct blocks, allocating and wiring in a new one (updating root.Direct
// in place) only once all present blocks are full. It returns the dirBlock
// to write into, the slot number within it, that block's absolute id, and
// whether root itself grew (and so needs to be written back).
func (fs *FileSystem) findFreeDirSlot(root *Inode, blocks []dirBlock, blockIDs []uint64) (dirBlock, int, uint64, bool, defs.Err_t) {
	for bi, blk := range blocks {
		for slot := 0; slot < defs.DirentsPerBlock; slot++ {
			if !blk.entry(slot).Used {
				return blk, slot, blockIDs[bi], false, 0
			}
		}
	}

	for d, blockID := range root.Direct {
		if blockID != 0 {
			continue
		}
		newBlockID, errt := fs.allocateDataBlock()
		if errt != 0 {
			return dirBlock{}, 0, 0, false, errt
		}
		root.Direct[d] = newBlockID
		root.SizeInBytes += defs.BlockSize
		return dirBlock{buf: make([]byte, defs.BlockSize)}, 0, newBlockID, true, 0
	}
	return dirBlock{}, 0, 0, false, defs.ENOSPC
}

// Stat returns a stat.Stat_t snapshot of inodeIdx (spec.md §4.10
// EXPANSION).
func (fs *FileSystem) Stat(inodeIdx uint64) (stat.Stat_t, error) {
	inode, errt := fs.readInode(inodeIdx)
	if errt != 0 {
		return stat.Stat_t{}, &fsError{code: errt, op: "stat"}
	}
	var blocksInUse uint64
	for _, d := range inode.Direct {
		if d != 0 {
			blocksInUse++
		}
	}
	var st stat.Stat_t
	st.Wino(inodeIdx)
	st.Wsize(inode.SizeInBytes)
	st.Wmode(uint16(inode.Mode))
	st.Wlinkcount(inode.LinkCount)
	st.Wblocks(blocksInUse)
	return st, nil
}

// ReadFile returns the full contents of inodeIdx's direct blocks, trimmed
// to SizeInBytes (spec.md §4.10 EXPANSION; no indirect blocks, matching
// the Non-goal that large files are out of scope).
func (fs *FileSystem) ReadFile(inodeIdx uint64) ([]byte, error) {
	inode, errt := fs.readInode(inodeIdx)
	if errt != 0 {
		return nil, &fsError{code: errt, op: "read file"}
	}
	if inode.Mode != TypeFile {
		return nil, &fsError{code: defs.EINVAL, op: "read file"}
	}

	out := make([]byte, 0, inode.SizeInBytes)
	remaining := inode.SizeInBytes
	for _, blockID := range inode.Direct {
		if remaining == 0 {
			break
		}
		if blockID == 0 {
			return nil, &fsError{code: defs.ECORRUPT, op: "read file"}
		}
		buf, err := fs.readBlock(blockID)
		if err != nil {
			return nil, err
		}
		take := uint64(len(buf))
		if take > remaining {
			take = remaining
		}
		out = append(out, buf[:take]...)
		remaining -= take
	}
	return out, nil
}

// WriteFile overwrites inodeIdx's contents with data, allocating new
// direct blocks as needed and returning ENOSPC once all ten direct slots
// are exhausted (spec.md §4.10 EXPANSION Non-goal: no indirect blocks).
func (fs *FileSystem) WriteFile(inodeIdx uint64, data []byte) error {
	inode, errt := fs.readInode(inodeIdx)
	if errt != 0 {
		return &fsError{code: errt, op: "write file"}
	}
	if inode.Mode != TypeFile {
		return &fsError{code: defs.EINVAL, op: "write file"}
	}

	needed := (len(data) + defs.BlockSize - 1) / defs.BlockSize
	if needed > defs.DirectCount {
		return &fsError{code: defs.ENOSPC, op: "write file"}
	}

	for d := 0; d < needed; d++ {
		if inode.Direct[d] == 0 {
			blockID, errt := fs.allocateDataBlock()
			if errt != 0 {
				return &fsError{code: errt, op: "write file"}
			}
			inode.Direct[d] = blockID
		}
		buf := make([]byte, defs.BlockSize)
		start := d * defs.BlockSize
		end := start + defs.BlockSize
		if end > len(data) {
			end = len(data)
		}
		copy(buf, data[start:end])
		if err := fs.writeBlock(inode.Direct[d], buf); err != nil {
			return err
		}
	}

	inode.SizeInBytes = uint64(len(data))
	if errt := fs.writeInode(inodeIdx, inode); errt != 0 {
		return &fsError{code: errt, op: "write file"}
	}
	return nil
}
