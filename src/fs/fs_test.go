package fs

import (
	"bytes"
	"testing"

	"nucleus/src/blockdev/memdev"
	"nucleus/src/defs"
)

func TestBitmapSetClearFindFirstFree(t *testing.T) {
	buf := make([]byte, defs.BlockSize)
	b := bitmap{buf: buf}

	idx, ok := b.findAndSetFirstFree()
	if !ok || idx != 0 {
		t.Fatalf("first free = (%d, %v), want (0, true)", idx, ok)
	}
	if !b.isSet(0) {
		t.Fatal("bit 0 not set after findAndSetFirstFree")
	}

	if errt := b.set(0); errt != defs.EALREADYALLOC {
		t.Fatalf("set on already-set bit = %d, want EALREADYALLOC", errt)
	}
	if errt := b.clear(1); errt != defs.EALREADYCLEAR {
		t.Fatalf("clear on already-clear bit = %d, want EALREADYCLEAR", errt)
	}

	if errt := b.clear(0); errt != 0 {
		t.Fatalf("clear(0) = %d, want success", errt)
	}
	if b.isSet(0) {
		t.Fatal("bit 0 still set after clear")
	}
}

func TestSuperBlockRoundTrip(t *testing.T) {
	sb := SuperBlock{
		TotalBlocks:      2048,
		InodeBitmapBlock: 1,
		DataBitmapBlock:  2,
		InodeTableStart:  3,
		InodeCount:       816,
		DataBlockStart:   207,
		DataBlockCount:   1841,
		Magic:            defs.SuperblockMagic,
	}
	enc := sb.Encode()
	if len(enc) != superBlockWireSize {
		t.Fatalf("encoded length = %d, want %d", len(enc), superBlockWireSize)
	}
	// magic sits at byte offset 56, little-endian 0xDEADBEEF -> EF BE AD DE.
	want := []byte{0xEF, 0xBE, 0xAD, 0xDE}
	if !bytes.Equal(enc[56:60], want) {
		t.Fatalf("magic bytes = % X, want % X", enc[56:60], want)
	}

	got, err := DecodeSuperBlock(enc)
	if err != nil {
		t.Fatalf("DecodeSuperBlock: %v", err)
	}
	if got != sb {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, sb)
	}
}

func TestInodeRoundTrip(t *testing.T) {
	in := Inode{
		SizeInBytes: 1024,
		Atime:       1,
		Mtime:       2,
		Ctime:       3,
		Mode:        TypeFile,
		UID:         7,
		GID:         8,
		LinkCount:   1,
	}
	in.Direct[0] = 42
	in.Indirect = 99

	enc := in.Encode()
	if len(enc) != defs.InodeSize {
		t.Fatalf("encoded length = %d, want %d", len(enc), defs.InodeSize)
	}
	got, err := DecodeInode(enc)
	if err != nil {
		t.Fatalf("DecodeInode: %v", err)
	}
	if got != in {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, in)
	}
}

func newFormatted(t *testing.T, blocks uint64) *FileSystem {
	t.Helper()
	dev := memdev.New(blocks)
	fsys, err := Format(dev)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return fsys
}

func TestFormatLaysOutLayout(t *testing.T) {
	fsys := newFormatted(t, 2048)
	if fsys.sb.InodeCount != 816 {
		t.Fatalf("InodeCount = %d, want 816", fsys.sb.InodeCount)
	}
	if fsys.sb.DataBlockStart != 207 {
		t.Fatalf("DataBlockStart = %d, want 207", fsys.sb.DataBlockStart)
	}
	if fsys.sb.DataBlockCount != 1841 {
		t.Fatalf("DataBlockCount = %d, want 1841", fsys.sb.DataBlockCount)
	}
}

func TestMountRejectsBadMagic(t *testing.T) {
	dev := memdev.New(64)
	bad := SuperBlock{TotalBlocks: 64, Magic: 0x1234}
	block := make([]byte, defs.BlockSize)
	copy(block, bad.Encode())
	if err := dev.WriteBlocks(defs.SuperblockNumber, block); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	if _, err := Mount(dev); err == nil {
		t.Fatal("Mount succeeded on a superblock with a bad magic")
	}
}

func TestCreateFileAssignsFirstFreeInodeAndRejectsDuplicate(t *testing.T) {
	fsys := newFormatted(t, 64)

	idx, err := fsys.CreateFile("hello.txt")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if idx != 1 {
		t.Fatalf("inode index = %d, want 1 (0 is the root)", idx)
	}

	if _, err := fsys.CreateFile("hello.txt"); err == nil {
		t.Fatal("duplicate CreateFile succeeded, want EEXIST")
	}

	st, err := fsys.Stat(idx)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Mode() != uint16(TypeFile) {
		t.Fatalf("Mode() = %d, want TypeFile", st.Mode())
	}
}

func TestWriteFileThenReadFileRoundTrips(t *testing.T) {
	fsys := newFormatted(t, 64)
	idx, err := fsys.CreateFile("data.bin")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	payload := bytes.Repeat([]byte("ab"), defs.BlockSize) // spans two blocks
	if err := fsys.WriteFile(idx, payload); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := fsys.ReadFile(idx)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("ReadFile returned %d bytes, want %d matching bytes", len(got), len(payload))
	}

	st, err := fsys.Stat(idx)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Blocks() != 2 {
		t.Fatalf("Blocks() = %d, want 2", st.Blocks())
	}
}

func TestWriteFileRejectsOversizeData(t *testing.T) {
	fsys := newFormatted(t, 64)
	idx, err := fsys.CreateFile("big.bin")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	oversized := make([]byte, (defs.DirectCount+1)*defs.BlockSize)
	if err := fsys.WriteFile(idx, oversized); err == nil {
		t.Fatal("WriteFile accepted data exceeding the direct block budget")
	}
}

func TestCreateFileRejectsNameTooLong(t *testing.T) {
	fsys := newFormatted(t, 64)
	longName := bytes.Repeat([]byte("x"), defs.MaxNameLen+1)
	if _, err := fsys.CreateFile(string(longName)); err == nil {
		t.Fatal("CreateFile accepted a name longer than MaxNameLen")
	}
}
