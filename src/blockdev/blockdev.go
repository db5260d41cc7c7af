// Package blockdev defines the fixed-size-block device contract the
// simple filesystem is built over (spec.md §4.9): a blocking, sequential
// read/write interface consumed from whatever sits underneath (a VirtIO
// binding in production, an in-memory fixture or a host file in tests).
// Grounded on the teacher's Disk_i interface (fs/blk.go) and ahci_disk_t
// (ufs/driver.go), trimmed to the plain synchronous shape spec.md §4.9
// names instead of the teacher's async request/ack-channel path — this
// kernel's filesystem never needs more than one outstanding request at a
// time, so the channel machinery in Bdev_req_t has no job to do here.
package blockdev

import (
	"fmt"

	"nucleus/src/defs"
)

// Device is the fixed-size-block contract (spec.md §4.9). BlockSize is
// always defs.BlockSize (512) bytes; buf's length must be a positive
// multiple of it.
type Device interface {
	// ReadBlocks fills buf from storage starting at startBlockID.
	ReadBlocks(startBlockID uint64, buf []byte) error
	// WriteBlocks writes buf to storage starting at startBlockID.
	WriteBlocks(startBlockID uint64, buf []byte) error
	// Capacity reports the total number of defs.BlockSize-byte blocks.
	Capacity() uint64
}

// Error wraps one of the defs.Err_t sentinels spec.md §4.9 names
// (InvalidBlockId, Read, Write, InvalidDataStream) with a human-readable
// message, following the teacher's practice of only wrapping Err_t in an
// `error` at a package's outermost boundary (spec.md §7).
type Error struct {
	Code defs.Err_t
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("blockdev: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("blockdev: %s", e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrInvalidBlockId reports a request whose range falls outside the
// device's capacity.
func ErrInvalidBlockId(op string) error {
	return &Error{Code: defs.EBLKID, Op: op}
}

// ErrInvalidDataStream reports a buffer whose length is not a positive
// multiple of defs.BlockSize.
func ErrInvalidDataStream(op string) error {
	return &Error{Code: defs.EBADSTREAM, Op: op}
}

// CheckRange validates a request's buffer length and block range against
// a device of the given capacity; every Device implementation in this
// module (memdev, hosted) calls it first so invalid-data-stream and
// invalid-block-id errors are reported consistently.
func CheckRange(op string, startBlockID uint64, buf []byte, capacity uint64) error {
	if len(buf) == 0 || len(buf)%defs.BlockSize != 0 {
		return ErrInvalidDataStream(op)
	}
	nblocks := uint64(len(buf) / defs.BlockSize)
	if startBlockID >= capacity || nblocks > capacity-startBlockID {
		return ErrInvalidBlockId(op)
	}
	return nil
}
