package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
)

// Bindings of the per-texture bind group (group 2 of the world pipeline).
const (
	BindingTextureUniforms = 0
	BindingDiffuse         = 1
	BindingFullbright      = 2
)

// binding is the implementation of the Binding interface.
type binding struct {
	name       string
	kind       SurfaceKind
	graph      resource.ResourceGraph
	diffuse    resource.Handle
	fullbright resource.Handle
	// hasFullbright is false when fullbright refers to the shared dummy.
	hasFullbright bool
	provider      bind_group_provider.BindGroupProvider
}

// Binding is the per-texture shading state of a brush texture chain: its surface kind, the
// diffuse and fullbright textures, and the bind group provider that exposes them to the world
// shader. Texture views on the provider are borrowed from ResourceGraph entries the Binding
// holds references to.
type Binding interface {
	// Name returns the texture name the binding was created for.
	Name() string

	// Kind returns the surface kind selecting the shading variant.
	Kind() SurfaceKind

	// Diffuse returns the diffuse texture handle.
	Diffuse() resource.Handle

	// Fullbright returns the fullbright texture handle. When the texture has no fullbright
	// texels this is the shared 1x1 dummy.
	Fullbright() resource.Handle

	// HasFullbright reports whether the texture carries its own fullbright mask.
	HasFullbright() bool

	// Provider returns the bind group provider for group 2. The caller creates the bind group
	// with the pipeline's layout descriptor and uploads UniformBytes into binding 0.
	Provider() bind_group_provider.BindGroupProvider

	// UniformBytes returns the TextureUniforms block for binding 0.
	UniformBytes() []byte

	// MarkUsed records that the current submission samples the binding's textures.
	MarkUsed()

	// Release releases the bind group and drops the texture references.
	Release()
}

var _ Binding = &binding{}

// NewBinding uploads a brush texture through the resource graph and prepares its bind group
// provider. Textures are shared by identity, so brush models that use the same texture name
// share one GPU texture.
//
// Parameters:
//   - graph: the resource graph owning the textures
//   - textures: creates textures on first acquisition
//   - dummies: the placeholder textures substituted for an absent fullbright mask
//   - diffuse: the RGBA diffuse pixels
//   - options: a variadic list of options configuring the binding
//
// Returns:
//   - Binding: the binding
//   - error: an error wrapping resource.ErrResourceExhausted if a texture could not be created
func NewBinding(graph resource.ResourceGraph, textures TextureCreator, dummies *Dummies, diffuse common.TextureStagingData, options ...BindingOption) (Binding, error) {
	b := &binding{graph: graph}
	cfg := bindingConfig{}
	for _, opt := range options {
		opt(&cfg)
	}
	b.name = cfg.name
	b.kind = KindFromName(cfg.name)
	if cfg.kind != nil {
		b.kind = *cfg.kind
	}
	b.kind.MustValid()

	identity := cfg.identity
	if identity == "" {
		identity = resource.NewIdentity("texture")
	}

	var err error
	if b.diffuse, err = AcquireTexture(graph, textures, identity+".diffuse", diffuse); err != nil {
		return nil, err
	}

	if cfg.fullbright != nil && hasCoverage(cfg.fullbright.Pixels) {
		b.hasFullbright = true
		b.fullbright, err = AcquireTexture(graph, textures, identity+".fullbright", *cfg.fullbright)
	} else {
		b.fullbright = dummies.Fullbright
		err = graph.Retain(b.fullbright)
	}
	if err != nil {
		_ = graph.Release(b.diffuse)
		return nil, err
	}

	diffuseView, err := textureView(graph, b.diffuse)
	if err != nil {
		b.Release()
		return nil, err
	}
	fullbrightView, err := textureView(graph, b.fullbright)
	if err != nil {
		b.Release()
		return nil, err
	}

	b.provider = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("material %s", b.label()),
		bind_group_provider.WithSharedTextureView(BindingDiffuse, diffuseView),
		bind_group_provider.WithSharedTextureView(BindingFullbright, fullbrightView),
	)
	return b, nil
}

func hasCoverage(mask []byte) bool {
	for _, v := range mask {
		if v != 0 {
			return true
		}
	}
	return false
}

func (b *binding) label() string {
	return common.Coalesce(b.name, "unnamed")
}

func (b *binding) Name() string {
	return b.name
}

func (b *binding) Kind() SurfaceKind {
	return b.kind
}

func (b *binding) Diffuse() resource.Handle {
	return b.diffuse
}

func (b *binding) Fullbright() resource.Handle {
	return b.fullbright
}

func (b *binding) HasFullbright() bool {
	return b.hasFullbright
}

func (b *binding) Provider() bind_group_provider.BindGroupProvider {
	return b.provider
}

func (b *binding) UniformBytes() []byte {
	u := b.kind.Uniforms()
	return u.Marshal()
}

func (b *binding) MarkUsed() {
	b.graph.MarkUsed(b.diffuse)
	b.graph.MarkUsed(b.fullbright)
}

func (b *binding) Release() {
	if b.provider != nil {
		b.provider.Release()
		b.provider = nil
	}
	for _, h := range []*resource.Handle{&b.diffuse, &b.fullbright} {
		if !h.IsZero() {
			_ = b.graph.Release(*h)
			*h = resource.Handle{}
		}
	}
}
