package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed assets/*.wgsl
var assetFS embed.FS

// Built-in shader files. Each holds a vs_main and an fs_main entry point.
const (
	AssetWorld       = "world.wgsl"
	AssetAlias       = "alias.wgsl"
	AssetDeferred    = "deferred.wgsl"
	AssetPostProcess = "postprocess.wgsl"
	AssetBlit        = "blit.wgsl"
	AssetQuad        = "quad.wgsl"
	AssetGlyph       = "glyph.wgsl"
)

// Assets lists every built-in shader file.
var Assets = []string{AssetWorld, AssetAlias, AssetDeferred, AssetPostProcess, AssetBlit, AssetQuad, AssetGlyph}

// LoadSource returns the WGSL source of a built-in shader. A file with the same name in
// overrideDir takes precedence, which is how edited shaders are picked up during development.
//
// Parameters:
//   - overrideDir: a directory searched first; empty disables overrides
//   - name: the asset file name, e.g. AssetWorld
//
// Returns:
//   - string: the raw WGSL source
//   - error: an error if the asset does not exist or the override cannot be read
func LoadSource(overrideDir, name string) (string, error) {
	if overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(overrideDir, name))
		switch {
		case err == nil:
			return string(data), nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("shader %s: %w", name, err)
		}
	}
	data, err := assetFS.ReadFile("assets/" + name)
	if err != nil {
		return "", fmt.Errorf("shader %s: %w", name, err)
	}
	return string(data), nil
}

// NewStagePair builds the vertex and fragment Shader of one WGSL file.
//
// Parameters:
//   - key: the pipeline key; the stages are keyed key+".vs" and key+".fs"
//   - source: the raw WGSL source
//   - pp: the pre-processor shared by both stages
//
// Returns:
//   - Shader: the vertex stage
//   - Shader: the fragment stage
//   - error: the first pre-processing or parsing error
func NewStagePair(key, source string, pp PreProcessor) (Shader, Shader, error) {
	vs, err := NewShader(key+".vs", ShaderTypeVertex, source, pp)
	if err != nil {
		return nil, nil, err
	}
	frag, err := NewShader(key+".fs", ShaderTypeFragment, source, pp)
	if err != nil {
		return nil, nil, err
	}
	return vs, frag, nil
}
