package uniform

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

type recordedWrite struct {
	offset uint64
	size   int
}

type fakeWriter struct {
	writes []recordedWrite
}

func (f *fakeWriter) WriteBuffer(_ *wgpu.Buffer, offset uint64, data []byte) {
	f.writes = append(f.writes, recordedWrite{offset: offset, size: len(data)})
}

func TestStructSizes(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"frame", (&GPUFrameUniforms{}).Size(), 1056},
		{"entity", (&GPUEntityUniforms{}).Size(), 128},
		{"texture", (&GPUTextureUniforms{}).Size(), 16},
		{"deferred", (&GPUDeferredUniforms{}).Size(), 592},
		{"postprocess", (&GPUPostProcessUniforms{}).Size(), 16},
		{"quad", (&GPUQuadUniforms{}).Size(), 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Size() = %d, want %d", tt.got, tt.want)
			}
		})
	}
}

func TestSourcesExpandConstants(t *testing.T) {
	if !strings.Contains(GPUDeferredUniformsSource, "array<PointLight, 32>") {
		t.Errorf("deferred source not expanded:\n%s", GPUDeferredUniformsSource)
	}
	if !strings.Contains(GPUFrameUniformsSource, "array<vec4<f32>, 64>") {
		t.Errorf("frame source not expanded:\n%s", GPUFrameUniformsSource)
	}
	for _, src := range []string{GPUDeferredUniformsSource, GPUFrameUniformsSource} {
		if strings.Contains(src, "{{") {
			t.Errorf("unexpanded placeholder in:\n%s", src)
		}
	}
}

func TestDeferredUniformsTruncatesLightCount(t *testing.T) {
	u := GPUDeferredUniforms{LightCount: 40}
	buf := u.Marshal()
	if got := binary.LittleEndian.Uint32(buf[64:]); got != MaxLights {
		t.Errorf("light_count = %d, want %d", got, MaxLights)
	}
}

func TestFrameContextIsSnapshot(t *testing.T) {
	var styles [LightStyleCount]float32
	styles[0] = 1
	fc := NewFrameContext(common.Vec3{1, 2, 3}, 5, &styles, true, 4)

	styles[0] = 2
	if got := fc.Style(0); got != 1 {
		t.Errorf("Style(0) = %v after caller edit, want 1", got)
	}
	if got := fc.Style(200); got != 0 {
		t.Errorf("Style(200) = %v, want 0", got)
	}
	if got := fc.SampleCount(); got != 4 {
		t.Errorf("SampleCount() = %d, want 4", got)
	}

	buf := fc.Bytes()
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])); got != 1 {
		t.Errorf("style 0 lane = %v, want 1", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[1040:])); got != 5 {
		t.Errorf("time = %v, want 5", got)
	}
	if got := binary.LittleEndian.Uint32(buf[1044:]); got != 1 {
		t.Errorf("r_lightmap = %d, want 1", got)
	}
}

func TestEntityContextConvertsOrigin(t *testing.T) {
	ec := NewEntityContext(common.Identity(), common.Vec3{1, 2, 3}, [3]float32{})
	m := ec.Model()
	got := common.Vec3{m[12], m[13], m[14]}
	want := common.SimToRender(common.Vec3{1, 2, 3})
	if got != want {
		t.Errorf("model translation = %v, want %v", got, want)
	}
	if want != (common.Vec3{-2, 3, -1}) {
		t.Errorf("SimToRender = %v, want [-2 3 -1]", want)
	}
}

func TestDynamicUniformBufferAllocate(t *testing.T) {
	d := NewDynamicUniformBuffer("test", nil, 1024, 128)
	if got := d.BlockSize(); got != 256 {
		t.Fatalf("BlockSize() = %d, want 256", got)
	}
	if got := d.Capacity(); got != 4 {
		t.Fatalf("Capacity() = %d, want 4", got)
	}

	for i := range 4 {
		b, err := d.Allocate()
		if err != nil {
			t.Fatalf("Allocate() #%d: %v", i, err)
		}
		if got, want := b.Offset(), uint32(i*256); got != want {
			t.Errorf("block %d offset = %d, want %d", i, got, want)
		}
	}
	if _, err := d.Allocate(); !errors.Is(err, resource.ErrResourceExhausted) {
		t.Errorf("Allocate() past capacity = %v, want ErrResourceExhausted", err)
	}

	d.Reset()
	b, err := d.Allocate()
	if err != nil || b.Offset() != 0 {
		t.Errorf("Allocate() after Reset = (%d, %v), want (0, nil)", b.Offset(), err)
	}
}

func TestDynamicUniformBufferFlushRange(t *testing.T) {
	d := NewDynamicUniformBuffer("test", nil, DynamicBufferSize, 64)
	w := &fakeWriter{}

	d.Flush(w)
	if len(w.writes) != 0 {
		t.Fatalf("Flush() with nothing staged wrote %d times", len(w.writes))
	}

	_, _ = d.Allocate()
	b1, _ := d.Allocate()
	b2, _ := d.Allocate()
	d.Write(b2, make([]byte, 64))
	d.Write(b1, make([]byte, 64))
	d.Flush(w)

	if len(w.writes) != 1 {
		t.Fatalf("Flush() wrote %d times, want 1", len(w.writes))
	}
	if got := w.writes[0]; got.offset != 256 || got.size != 512 {
		t.Errorf("Flush() range = %+v, want offset 256 size 512", got)
	}

	d.Flush(w)
	if len(w.writes) != 1 {
		t.Errorf("second Flush() wrote again")
	}
}

func TestDynamicUniformBufferOversizedWritePanics(t *testing.T) {
	d := NewDynamicUniformBuffer("test", nil, 1024, 64)
	b, _ := d.Allocate()
	defer func() {
		if recover() == nil {
			t.Errorf("Write() of 300 bytes did not panic")
		}
	}()
	d.Write(b, make([]byte, 300))
}

func TestMarshalWorldVerticesPacksStyles(t *testing.T) {
	buf := MarshalWorldVertices([]WorldVertex{{LightmapAnim: [4]uint8{0, 5, 255, 255}}})
	if len(buf) != WorldVertexStride {
		t.Fatalf("len = %d, want %d", len(buf), WorldVertexStride)
	}
	got := binary.LittleEndian.Uint32(buf[40:])
	want := uint32(0) | 5<<8 | 255<<16 | 255<<24
	if got != want {
		t.Errorf("packed styles = %#x, want %#x", got, want)
	}
}
