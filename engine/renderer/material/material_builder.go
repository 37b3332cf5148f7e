package material

import (
	"github.com/Carmen-Shannon/oxy-quake/common"
)

// bindingConfig collects the options of NewBinding.
type bindingConfig struct {
	name       string
	identity   string
	kind       *SurfaceKind
	fullbright *common.TextureStagingData
}

// BindingOption is a function that configures a Binding during construction.
type BindingOption func(*bindingConfig)

// WithName sets the texture name. The surface kind is derived from it unless WithKind is given.
//
// Parameters:
//   - name: the texture name as stored in the map
//
// Returns:
//   - BindingOption: a function that applies the name
func WithName(name string) BindingOption {
	return func(c *bindingConfig) {
		c.name = name
	}
}

// WithIdentity shares the binding's textures with every other binding of the same identity.
// Without it the textures are private to the binding.
//
// Parameters:
//   - identity: the graph identity prefix, e.g. "map.e1m1.texture.wall5_1"
//
// Returns:
//   - BindingOption: a function that applies the identity
func WithIdentity(identity string) BindingOption {
	return func(c *bindingConfig) {
		c.identity = identity
	}
}

// WithKind overrides the surface kind derived from the name.
//
// Parameters:
//   - kind: the surface kind
//
// Returns:
//   - BindingOption: a function that applies the kind
func WithKind(kind SurfaceKind) BindingOption {
	return func(c *bindingConfig) {
		c.kind = &kind
	}
}

// WithFullbright sets the fullbright mask. A mask without any set texel is replaced by the
// shared dummy.
//
// Parameters:
//   - mask: the R8 fullbright pixels
//
// Returns:
//   - BindingOption: a function that applies the mask
func WithFullbright(mask common.TextureStagingData) BindingOption {
	return func(c *bindingConfig) {
		c.fullbright = &mask
	}
}
