package uniform

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// DynamicBufferSize is the default capacity of a DynamicUniformBuffer.
const DynamicBufferSize = 64 * 1024

// BufferWriter uploads bytes into a GPU buffer. The renderer backend satisfies it.
type BufferWriter interface {
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
}

// Block is one aligned slot of a DynamicUniformBuffer.
type Block struct {
	offset uint32
}

// Offset returns the dynamic offset passed to SetBindGroup for this block.
func (b Block) Offset() uint32 {
	return b.offset
}

// dynamicUniformBuffer is the implementation of the DynamicUniformBuffer interface.
type dynamicUniformBuffer struct {
	label     string
	buffer    *wgpu.Buffer
	blockSize uint32
	staging   []byte
	next      int

	dirtyLo, dirtyHi int
}

// DynamicUniformBuffer pools fixed-size uniform blocks in one GPU buffer, addressed by dynamic
// offsets. Blocks are handed out in order during a frame and reused after Reset.
type DynamicUniformBuffer interface {
	// Buffer returns the backing GPU buffer, shared by every bind group that addresses it.
	Buffer() *wgpu.Buffer

	// BlockSize returns the aligned size of one block.
	BlockSize() uint32

	// Capacity returns the number of blocks the buffer holds.
	Capacity() int

	// Len returns the number of blocks allocated since the last Reset.
	Len() int

	// Allocate reserves the next block.
	//
	// Returns:
	//   - Block: the reserved block
	//   - error: an error wrapping resource.ErrResourceExhausted when every block is in use
	Allocate() (Block, error)

	// Write stages data into block. Data larger than one block is a programming error and panics.
	//
	// Parameters:
	//   - block: a block returned by Allocate
	//   - data: the serialized uniform struct
	Write(block Block, data []byte)

	// Flush uploads every block staged since the last Flush.
	//
	// Parameters:
	//   - w: the writer that performs the upload
	Flush(w BufferWriter)

	// Reset returns every block to the pool. Called once per frame before the first Allocate.
	Reset()
}

var _ DynamicUniformBuffer = &dynamicUniformBuffer{}

// NewDynamicUniformBuffer wraps buf as a pool of blocks.
//
// Parameters:
//   - label: a debug label used in errors
//   - buf: the GPU buffer, created with Uniform|CopyDst usage and at least size bytes
//   - size: the buffer size in bytes
//   - structSize: the size of the uniform struct stored in each block, rounded up to BlockAlignment
//
// Returns:
//   - DynamicUniformBuffer: the pool
func NewDynamicUniformBuffer(label string, buf *wgpu.Buffer, size uint64, structSize int) DynamicUniformBuffer {
	blockSize := uint32((structSize + BlockAlignment - 1) / BlockAlignment * BlockAlignment)
	if blockSize == 0 {
		blockSize = BlockAlignment
	}
	return &dynamicUniformBuffer{
		label:     label,
		buffer:    buf,
		blockSize: blockSize,
		staging:   make([]byte, size),
		dirtyLo:   -1,
	}
}

func (d *dynamicUniformBuffer) Buffer() *wgpu.Buffer {
	return d.buffer
}

func (d *dynamicUniformBuffer) BlockSize() uint32 {
	return d.blockSize
}

func (d *dynamicUniformBuffer) Capacity() int {
	return len(d.staging) / int(d.blockSize)
}

func (d *dynamicUniformBuffer) Len() int {
	return d.next
}

func (d *dynamicUniformBuffer) Allocate() (Block, error) {
	if d.next >= d.Capacity() {
		return Block{}, fmt.Errorf("%s: %d blocks in use: %w", d.label, d.next, resource.ErrResourceExhausted)
	}
	b := Block{offset: uint32(d.next) * d.blockSize}
	d.next++
	return b, nil
}

func (d *dynamicUniformBuffer) Write(block Block, data []byte) {
	if len(data) > int(d.blockSize) {
		panic(fmt.Sprintf("%s: %d bytes written into a %d byte block", d.label, len(data), d.blockSize))
	}
	start := int(block.offset)
	copy(d.staging[start:start+len(data)], data)

	end := start + int(d.blockSize)
	if d.dirtyLo < 0 || start < d.dirtyLo {
		d.dirtyLo = start
	}
	d.dirtyHi = max(d.dirtyHi, end)
}

func (d *dynamicUniformBuffer) Flush(w BufferWriter) {
	if d.dirtyLo < 0 {
		return
	}
	w.WriteBuffer(d.buffer, uint64(d.dirtyLo), d.staging[d.dirtyLo:d.dirtyHi])
	d.dirtyLo, d.dirtyHi = -1, 0
}

func (d *dynamicUniformBuffer) Reset() {
	d.next = 0
}
