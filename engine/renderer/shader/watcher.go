package shader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/naga"
)

// Validate pre-processes source and compiles it with naga.
//
// Parameters:
//   - source: the raw WGSL source
//   - pp: the pre-processor the source will be built with
//
// Returns:
//   - error: the pre-processing or compilation error, or nil if the shader is valid
func Validate(source string, pp PreProcessor) error {
	processed, err := pp.Process(source)
	if err != nil {
		return err
	}
	if _, err := naga.Compile(processed); err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	return nil
}

// Change is a validated edit to a shader asset.
type Change struct {
	// Name is the asset file name, e.g. AssetWorld.
	Name string
	// Source is the raw WGSL source.
	Source string
}

// watcher is the implementation of the Watcher interface.
type watcher struct {
	mu      sync.Mutex
	fs      *fsnotify.Watcher
	dir     string
	ppFor   func(name string) PreProcessor
	pending map[string]Change
	done    chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

// Watcher watches a shader override directory and queues edits that validate. The renderer
// drains the queue at a frame boundary and rebuilds the affected pipelines there, so no GPU
// object is touched from the watcher goroutine.
type Watcher interface {
	// Changes returns and clears the queued edits. At most one Change per asset is returned,
	// holding the latest valid source.
	Changes() []Change

	// Close stops watching.
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher starts watching dir for edits to built-in shader assets.
//
// Parameters:
//   - dir: the shader override directory
//   - ppFor: returns the pre-processor an asset is built with, used for validation
//
// Returns:
//   - Watcher: the running watcher
//   - error: an error if dir cannot be watched
func NewWatcher(dir string, ppFor func(name string) PreProcessor) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("shader watcher: watch %s: %w", dir, err)
	}

	w := &watcher{
		fs:      fsw,
		dir:     dir,
		ppFor:   ppFor,
		pending: make(map[string]Change),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	common.LogInfo("shader watcher: watching %s", dir)
	return w, nil
}

func (w *watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.handle(e.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			common.LogError("shader watcher: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *watcher) handle(path string) {
	name := filepath.Base(path)
	if filepath.Ext(name) != ".wgsl" || !isAsset(name) {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// editors often replace files in several steps; the final write triggers another event
		if !errors.Is(err, os.ErrNotExist) {
			common.LogWarn("shader watcher: read %s: %v", name, err)
		}
		return
	}

	source := string(data)
	if err := Validate(source, w.ppFor(name)); err != nil {
		common.LogError("shader watcher: %s rejected: %v", name, err)
		return
	}

	w.mu.Lock()
	w.pending[name] = Change{Name: name, Source: source}
	w.mu.Unlock()
	common.LogInfo("shader watcher: %s queued for reload", name)
}

func (w *watcher) Changes() []Change {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	out := make([]Change, 0, len(w.pending))
	for _, name := range Assets {
		if c, ok := w.pending[name]; ok {
			out = append(out, c)
		}
	}
	clear(w.pending)
	return out
}

func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func isAsset(name string) bool {
	for _, a := range Assets {
		if a == name {
			return true
		}
	}
	return false
}
