package loader

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/palette"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
)

// ErrClosed is returned by every preparation call made after Close.
var ErrClosed = errors.New("loader: closed")

// TextureSource is one palette-indexed texture as stored in a level: every animation frame is
// Width*Height indices.
type TextureSource struct {
	Name          string
	Width, Height uint32
	// Frames is the primary animation; a static texture has one frame.
	Frames [][]byte
	// Alternate is the animation used by entities whose frame is not zero.
	Alternate [][]byte
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu *sync.RWMutex

	palette   palette.Palette
	workers   int
	queueSize int
	pool      worker.DynamicWorkerPool

	cache  map[string]world.BrushTexture
	closed bool
}

// Loader prepares level textures for upload. Palette translation runs on a bounded worker pool;
// the results are plain staging data, so the GPU upload and every ResourceGraph mutation stay
// on the goroutine that calls NewBrushModel. Translated textures are cached by name and shared
// across brush models.
type Loader interface {
	// Palette returns the palette textures are translated with.
	//
	// Returns:
	//   - palette.Palette: the palette
	Palette() palette.Palette

	// Workers returns the size of the translation worker pool.
	//
	// Returns:
	//   - int: the worker count
	Workers() int

	// PrepareTextures translates every frame of sources in parallel. Textures already in the
	// cache are returned without being translated again.
	//
	// Parameters:
	//   - ctx: cancels translation that has not started yet
	//   - sources: the indexed textures
	//
	// Returns:
	//   - []world.BrushTexture: the translated textures in source order
	//   - error: ctx.Err(), ErrClosed, or the joined per-frame size errors
	PrepareTextures(ctx context.Context, sources []TextureSource) ([]world.BrushTexture, error)

	// PrepareBrush translates the textures of one brush model and assembles its BrushSource.
	//
	// Parameters:
	//   - ctx: cancels translation that has not started yet
	//   - name: the brush model name
	//   - textures: the model's indexed textures; faces index into this slice
	//   - faces: the model's faces
	//
	// Returns:
	//   - world.BrushSource: the source ready for world.NewBrushModel
	//   - error: an error from PrepareTextures or a face referencing a missing texture
	PrepareBrush(ctx context.Context, name string, textures []TextureSource, faces []world.BrushFace) (world.BrushSource, error)

	// Get retrieves a cached texture by name.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - world.BrushTexture: the cached texture
	//   - bool: false if no texture with that name was prepared
	Get(name string) (world.BrushTexture, bool)

	// Textures returns a copy of the texture cache.
	//
	// Returns:
	//   - map[string]world.BrushTexture: every cached texture keyed by name
	Textures() map[string]world.BrushTexture

	// Forget empties the texture cache, e.g. on level change.
	Forget()

	// Close stops the worker pool. It must not race a preparation call. Safe to call more
	// than once.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader translating with pal.
//
// Parameters:
//   - pal: the palette textures are indexed into
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader with a running worker pool
func NewLoader(pal palette.Palette, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:        &sync.RWMutex{},
		palette:   pal,
		workers:   max(runtime.NumCPU()-1, 1),
		queueSize: 256,
		cache:     make(map[string]world.BrushTexture),
	}

	for _, option := range options {
		option(l)
	}

	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, time.Second)
	return l
}

func (l *loader) Palette() palette.Palette {
	return l.palette
}

func (l *loader) Workers() int {
	return l.workers
}

// frameJob is one animation frame to translate into a slot of a pending texture.
type frameJob struct {
	indices []byte
	width   uint32
	height  uint32
	out     *world.BrushTextureFrame
}

func (l *loader) PrepareTextures(ctx context.Context, sources []TextureSource) ([]world.BrushTexture, error) {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return nil, ErrClosed
	}
	key := func(i int) string {
		if sources[i].Name == "" {
			return fmt.Sprintf("#%d", i)
		}
		return sources[i].Name
	}

	out := make([]world.BrushTexture, len(sources))
	pending := make(map[string]*world.BrushTexture)
	var jobs []frameJob
	for i, src := range sources {
		if cached, ok := l.cache[src.Name]; ok && src.Name != "" {
			out[i] = cached
			continue
		}
		if _, ok := pending[key(i)]; ok {
			continue
		}
		tex := &world.BrushTexture{
			Name:      src.Name,
			Width:     src.Width,
			Height:    src.Height,
			Frames:    make([]world.BrushTextureFrame, len(src.Frames)),
			Alternate: make([]world.BrushTextureFrame, len(src.Alternate)),
		}
		for f, indices := range src.Frames {
			jobs = append(jobs, frameJob{indices: indices, width: src.Width, height: src.Height, out: &tex.Frames[f]})
		}
		for f, indices := range src.Alternate {
			jobs = append(jobs, frameJob{indices: indices, width: src.Width, height: src.Height, out: &tex.Alternate[f]})
		}
		pending[key(i)] = tex
	}
	l.mu.RUnlock()

	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		id := i
		j := job
		l.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				if err := ctx.Err(); err != nil {
					errs[id] = err
					return nil, err
				}
				diffuse, mask, err := l.palette.TranslateTexture(j.indices, j.width, j.height, 1)
				if err != nil {
					errs[id] = err
					return nil, err
				}
				*j.out = world.BrushTextureFrame{Diffuse: diffuse, Fullbright: mask}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, src := range sources {
		tex, ok := pending[key(i)]
		if !ok {
			continue
		}
		out[i] = *tex
		if src.Name != "" {
			l.cache[src.Name] = *tex
		}
	}
	if len(jobs) > 0 {
		common.LogDebug("loader: translated %d frames of %d textures", len(jobs), len(pending))
	}
	return out, nil
}

func (l *loader) PrepareBrush(ctx context.Context, name string, textures []TextureSource, faces []world.BrushFace) (world.BrushSource, error) {
	for i, face := range faces {
		if face.Texture < 0 || face.Texture >= len(textures) {
			return world.BrushSource{}, fmt.Errorf("loader: %s face %d references texture %d of %d", name, i, face.Texture, len(textures))
		}
	}
	prepared, err := l.PrepareTextures(ctx, textures)
	if err != nil {
		return world.BrushSource{}, fmt.Errorf("brush %s: %w", name, err)
	}
	return world.BrushSource{
		Name:     name,
		Textures: prepared,
		Faces:    faces,
	}, nil
}

func (l *loader) Get(name string) (world.BrushTexture, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tex, ok := l.cache[name]
	return tex, ok
}

func (l *loader) Textures() map[string]world.BrushTexture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make(map[string]world.BrushTexture, len(l.cache))
	for k, v := range l.cache {
		cp[k] = v
	}
	return cp
}

func (l *loader) Forget() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]world.BrushTexture)
}

func (l *loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.pool.Stop()
}
