// Package memdev is a test fixture satisfying blockdev.Device entirely
// in memory: one contiguous []byte standing in for the disk, guarded by
// a single mutex the way the teacher's ahci_disk_t guards its seek+I/O
// pair (ufs/driver.go) — there is no seek here, but the same "one lock
// around the whole operation" discipline applies since Device methods
// must behave as if blocking and sequential (spec.md §4.9).
package memdev

import (
	"sync"

	"nucleus/src/blockdev"
	"nucleus/src/defs"
)

// Device is an in-memory fixed-size-block device of fixed capacity.
type Device struct {
	mu       sync.Mutex
	blocks   []byte
	capacity uint64
}

// New returns a zeroed device of the given block capacity.
func New(capacity uint64) *Device {
	return &Device{blocks: make([]byte, capacity*defs.BlockSize), capacity: capacity}
}

// Capacity reports the total number of blocks.
func (d *Device) Capacity() uint64 { return d.capacity }

// ReadBlocks fills buf from the backing slice starting at startBlockID.
func (d *Device) ReadBlocks(startBlockID uint64, buf []byte) error {
	if err := blockdev.CheckRange("read", startBlockID, buf, d.capacity); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	off := startBlockID * defs.BlockSize
	copy(buf, d.blocks[off:off+uint64(len(buf))])
	return nil
}

// WriteBlocks writes buf into the backing slice starting at startBlockID.
func (d *Device) WriteBlocks(startBlockID uint64, buf []byte) error {
	if err := blockdev.CheckRange("write", startBlockID, buf, d.capacity); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	off := startBlockID * defs.BlockSize
	copy(d.blocks[off:off+uint64(len(buf))], buf)
	return nil
}
