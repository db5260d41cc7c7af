// Package hosted is a development-only blockdev.Device backed by a real
// file descriptor, for exercising src/fs against something closer to an
// actual disk than memdev's in-memory slice when running outside QEMU.
// Grounded on the teacher's ahci_disk_t (ufs/driver.go), which backs its
// Disk_i with an *os.File and a Seek-then-Read/Write pair under a single
// mutex; this package does the positioned-I/O equivalent with
// golang.org/x/sys/unix's Pread/Pwrite, which sidesteps the
// seek-then-I/O race the teacher's mutex exists to paper over (pread/
// pwrite take the offset as an argument, so no shared file cursor is
// ever mutated between two concurrent calls).
package hosted

import (
	"fmt"

	"golang.org/x/sys/unix"

	"nucleus/src/blockdev"
	"nucleus/src/defs"
)

// Device is a blockdev.Device backed by an open file descriptor, sized to
// a fixed number of defs.BlockSize blocks.
type Device struct {
	fd       int
	capacity uint64
}

// Open opens path read-write and wraps it as a Device of the given block
// capacity. The caller must ensure path is at least capacity*defs.BlockSize
// bytes long (e.g. truncated ahead of time); Open does not grow it.
func Open(path string, capacity uint64) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("hosted: open %s: %w", path, err)
	}
	return &Device{fd: fd, capacity: capacity}, nil
}

// Close releases the underlying file descriptor.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// Capacity reports the total number of blocks.
func (d *Device) Capacity() uint64 { return d.capacity }

// ReadBlocks reads len(buf) bytes starting at startBlockID via Pread.
func (d *Device) ReadBlocks(startBlockID uint64, buf []byte) error {
	if err := blockdev.CheckRange("read", startBlockID, buf, d.capacity); err != nil {
		return err
	}
	off := int64(startBlockID * defs.BlockSize)
	n, err := unix.Pread(d.fd, buf, off)
	if err != nil || n != len(buf) {
		return &blockdev.Error{Code: defs.EIO, Op: "read", Err: err}
	}
	return nil
}

// WriteBlocks writes buf starting at startBlockID via Pwrite.
func (d *Device) WriteBlocks(startBlockID uint64, buf []byte) error {
	if err := blockdev.CheckRange("write", startBlockID, buf, d.capacity); err != nil {
		return err
	}
	off := int64(startBlockID * defs.BlockSize)
	n, err := unix.Pwrite(d.fd, buf, off)
	if err != nil || n != len(buf) {
		return &blockdev.Error{Code: defs.EIO, Op: "write", Err: err}
	}
	return nil
}
