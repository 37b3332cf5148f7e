package target

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeCreator struct {
	descs  []backend.AttachmentDescriptor
	failAt int
}

func (f *fakeCreator) CreateAttachment(desc backend.AttachmentDescriptor) (*backend.Texture, error) {
	f.descs = append(f.descs, desc)
	if f.failAt > 0 && len(f.descs) == f.failAt {
		return nil, errors.New("out of memory")
	}
	return &backend.Texture{
		Format:      desc.Format,
		Width:       desc.Width,
		Height:      desc.Height,
		SampleCount: desc.SampleCount,
	}, nil
}

func TestTargetsMultisampled(t *testing.T) {
	c := &fakeCreator{}
	tg, err := NewTargets(c, 640, 480, 4)
	if err != nil {
		t.Fatalf("NewTargets: %v", err)
	}

	tests := []struct {
		name    string
		tex     *backend.Texture
		format  wgpu.TextureFormat
		samples uint32
	}{
		{"diffuse", tg.GBuffer.Diffuse, DiffuseFormat, 4},
		{"normal", tg.GBuffer.Normal, NormalFormat, 4},
		{"light", tg.GBuffer.Light, LightFormat, 4},
		{"depth", tg.GBuffer.Depth, DepthFormat, 4},
		{"resolve", tg.Resolve.Color, ColorFormat, 4},
		{"final", tg.Final.Color, ColorFormat, 4},
		{"final resolve", tg.Final.Resolve, ColorFormat, 1},
	}
	for _, tt := range tests {
		if tt.tex == nil {
			t.Errorf("%s: missing", tt.name)
			continue
		}
		if tt.tex.Format != tt.format || tt.tex.SampleCount != tt.samples {
			t.Errorf("%s: format %v samples %d, want %v %d", tt.name, tt.tex.Format, tt.tex.SampleCount, tt.format, tt.samples)
		}
		if tt.tex.Width != 640 || tt.tex.Height != 480 {
			t.Errorf("%s: size %dx%d", tt.name, tt.tex.Width, tt.tex.Height)
		}
	}

	if tg.Final.Output() != tg.Final.Resolve {
		t.Error("Output() should be the single-sample resolve texture")
	}
	if att := tg.Final.ColorAttachment(); att.StoreOp != wgpu.StoreOpDiscard {
		t.Errorf("final StoreOp = %v, want discard", att.StoreOp)
	}
	if d := c.descs[3]; d.Usage&wgpu.TextureUsageTextureBinding == 0 {
		t.Error("depth attachment must be sampleable by the resolve pass")
	}
}

func TestTargetsSingleSample(t *testing.T) {
	tg, err := NewTargets(&fakeCreator{}, 320, 200, 1)
	if err != nil {
		t.Fatal(err)
	}
	if tg.Final.Resolve != nil {
		t.Error("single-sample final target should not resolve")
	}
	if tg.Final.Output() != tg.Final.Color {
		t.Error("Output() should be the color texture")
	}
	if att := tg.Final.ColorAttachment(); att.ResolveTarget != nil || att.StoreOp != wgpu.StoreOpStore {
		t.Errorf("attachment = %+v", att)
	}
}

func TestTargetsRebuild(t *testing.T) {
	c := &fakeCreator{}
	tg, err := NewTargets(c, 640, 480, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := tg.Rebuild(1920, 0); err != nil {
		t.Fatal(err)
	}
	if w, h := tg.Size(); w != 1920 || h != 1 {
		t.Errorf("Size() = %dx%d, want 1920x1", w, h)
	}
	if len(c.descs) != 14 {
		t.Errorf("created %d attachments over two builds, want 14", len(c.descs))
	}
	if tg.GBuffer.Normal.Width != 1920 {
		t.Errorf("normal width = %d", tg.GBuffer.Normal.Width)
	}
}

func TestTargetsRebuildFailureLeavesEmpty(t *testing.T) {
	c := &fakeCreator{failAt: 3}
	if _, err := NewTargets(c, 64, 64, 4); err == nil {
		t.Fatal("expected error")
	}

	c2 := &fakeCreator{}
	tg, err := NewTargets(c2, 64, 64, 4)
	if err != nil {
		t.Fatal(err)
	}
	c2.failAt = len(c2.descs) + 5
	if err := tg.Rebuild(128, 128); err == nil {
		t.Fatal("expected rebuild error")
	}
	if tg.GBuffer.Diffuse != nil || tg.Resolve.Color != nil || tg.Final.Color != nil {
		t.Error("failed rebuild left attachments behind")
	}
}
