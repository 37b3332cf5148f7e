// Package target owns the per-size render attachments of the deferred pipeline: the G-buffer
// written by the geometry pass, the multisampled color of the resolve pass, and the final color
// that post-processing and UI draw into and the blit reads from.
package target

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// Attachment formats.
const (
	DiffuseFormat = wgpu.TextureFormatRGBA8UnormSrgb
	NormalFormat  = wgpu.TextureFormatRGBA16Float
	LightFormat   = wgpu.TextureFormatR8Unorm
	DepthFormat   = wgpu.TextureFormatDepth32Float
	ColorFormat   = DiffuseFormat
)

// AttachmentCreator creates render attachments. backend.Backend satisfies it.
type AttachmentCreator interface {
	CreateAttachment(desc backend.AttachmentDescriptor) (*backend.Texture, error)
}

// GBufferTarget holds the attachments written by the geometry pass and read by the resolve pass.
type GBufferTarget struct {
	Diffuse *backend.Texture
	Normal  *backend.Texture
	Light   *backend.Texture
	Depth   *backend.Texture
}

// ColorFormats returns the formats of the color attachments in location order.
func (GBufferTarget) ColorFormats() []wgpu.TextureFormat {
	return []wgpu.TextureFormat{DiffuseFormat, NormalFormat, LightFormat}
}

// ColorAttachments returns the cleared color attachments for the geometry pass.
func (g *GBufferTarget) ColorAttachments() []wgpu.RenderPassColorAttachment {
	out := make([]wgpu.RenderPassColorAttachment, 0, 3)
	for _, t := range []*backend.Texture{g.Diffuse, g.Normal, g.Light} {
		out = append(out, wgpu.RenderPassColorAttachment{
			View:       t.View,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{A: 1},
		})
	}
	return out
}

// DepthAttachment returns the depth attachment cleared to the far plane. Depth is stored
// because the resolve pass reconstructs positions from it.
func (g *GBufferTarget) DepthAttachment() *wgpu.RenderPassDepthStencilAttachment {
	return &wgpu.RenderPassDepthStencilAttachment{
		View:            g.Depth.View,
		DepthLoadOp:     wgpu.LoadOpClear,
		DepthStoreOp:    wgpu.StoreOpStore,
		DepthClearValue: 1.0,
	}
}

func (g *GBufferTarget) release() {
	for _, t := range []*backend.Texture{g.Diffuse, g.Normal, g.Light, g.Depth} {
		t.Release()
	}
	*g = GBufferTarget{}
}

// ResolveTarget is the multisampled color written by the lighting resolve and read per sample
// by post-processing.
type ResolveTarget struct {
	Color *backend.Texture
}

// ColorAttachment returns the cleared color attachment for the resolve pass.
func (r *ResolveTarget) ColorAttachment() wgpu.RenderPassColorAttachment {
	return wgpu.RenderPassColorAttachment{
		View:       r.Color.View,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: wgpu.Color{A: 1},
	}
}

func (r *ResolveTarget) release() {
	r.Color.Release()
	r.Color = nil
}

// FinalTarget is the color post-processing and UI draw into. When multisampled it resolves into
// a single-sample texture; otherwise Color is itself single-sampled and Resolve is nil.
type FinalTarget struct {
	Color   *backend.Texture
	Resolve *backend.Texture
}

// Output returns the single-sample texture the blit pass samples.
func (f *FinalTarget) Output() *backend.Texture {
	if f.Resolve != nil {
		return f.Resolve
	}
	return f.Color
}

// ColorAttachment returns the cleared color attachment for the final pass, resolving into
// the single-sample output when multisampled.
func (f *FinalTarget) ColorAttachment() wgpu.RenderPassColorAttachment {
	att := wgpu.RenderPassColorAttachment{
		View:       f.Color.View,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: wgpu.Color{A: 1},
	}
	if f.Resolve != nil {
		att.ResolveTarget = f.Resolve.View
		att.StoreOp = wgpu.StoreOpDiscard
	}
	return att
}

func (f *FinalTarget) release() {
	f.Color.Release()
	f.Resolve.Release()
	*f = FinalTarget{}
}

// Targets groups every per-size attachment so they are rebuilt together.
type Targets struct {
	creator     AttachmentCreator
	sampleCount uint32
	width       uint32
	height      uint32

	GBuffer GBufferTarget
	Resolve ResolveTarget
	Final   FinalTarget
}

// NewTargets creates every attachment at the given size.
//
// Parameters:
//   - creator: creates the attachment textures
//   - width: the attachment width in pixels
//   - height: the attachment height in pixels
//   - sampleCount: the sample count of the G-buffer, resolve and final color
//
// Returns:
//   - *Targets: the attachments
//   - error: an error if any attachment could not be created
func NewTargets(creator AttachmentCreator, width, height, sampleCount uint32) (*Targets, error) {
	t := &Targets{
		creator:     creator,
		sampleCount: max(sampleCount, 1),
	}
	if err := t.Rebuild(width, height); err != nil {
		return nil, err
	}
	return t, nil
}

// SampleCount returns the sample count of the multisampled attachments.
func (t *Targets) SampleCount() uint32 {
	return t.sampleCount
}

// Size returns the attachment size.
func (t *Targets) Size() (uint32, uint32) {
	return t.width, t.height
}

// Rebuild releases every attachment and recreates it at the new size. Resources held in the
// ResourceGraph are untouched. On error every attachment is released and the targets are empty.
//
// Parameters:
//   - width: the new width in pixels, clamped to at least 1
//   - height: the new height in pixels, clamped to at least 1
//
// Returns:
//   - error: an error if an attachment could not be created
func (t *Targets) Rebuild(width, height uint32) error {
	t.Release()
	t.width, t.height = max(width, 1), max(height, 1)

	mk := func(label string, format wgpu.TextureFormat, samples uint32, usage wgpu.TextureUsage) (*backend.Texture, error) {
		tex, err := t.creator.CreateAttachment(backend.AttachmentDescriptor{
			Label:       label,
			Width:       t.width,
			Height:      t.height,
			Format:      format,
			SampleCount: samples,
			Usage:       usage,
		})
		if err != nil {
			return nil, fmt.Errorf("rebuild targets %dx%d: %w", t.width, t.height, err)
		}
		return tex, nil
	}

	var err error
	n := t.sampleCount
	g := &t.GBuffer
	if g.Diffuse, err = mk("G-Buffer Diffuse", DiffuseFormat, n, wgpu.TextureUsageTextureBinding); err != nil {
		t.Release()
		return err
	}
	if g.Normal, err = mk("G-Buffer Normal", NormalFormat, n, wgpu.TextureUsageTextureBinding); err != nil {
		t.Release()
		return err
	}
	if g.Light, err = mk("G-Buffer Light", LightFormat, n, wgpu.TextureUsageTextureBinding); err != nil {
		t.Release()
		return err
	}
	if g.Depth, err = mk("G-Buffer Depth", DepthFormat, n, wgpu.TextureUsageTextureBinding); err != nil {
		t.Release()
		return err
	}
	if t.Resolve.Color, err = mk("Resolve Color", ColorFormat, n, wgpu.TextureUsageTextureBinding); err != nil {
		t.Release()
		return err
	}

	if n > 1 {
		if t.Final.Color, err = mk("Final Color", ColorFormat, n, 0); err != nil {
			t.Release()
			return err
		}
		if t.Final.Resolve, err = mk("Final Resolve", ColorFormat, 1, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc); err != nil {
			t.Release()
			return err
		}
	} else if t.Final.Color, err = mk("Final Color", ColorFormat, 1, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc); err != nil {
		t.Release()
		return err
	}
	return nil
}

// Release destroys every attachment. Safe to call more than once.
func (t *Targets) Release() {
	t.GBuffer.release()
	t.Resolve.release()
	t.Final.release()
}
