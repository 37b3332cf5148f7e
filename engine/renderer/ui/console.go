package ui

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/fullscreen"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
)

const (
	// ConsoleScale is the glyph scale of console text.
	ConsoleScale = 2

	// ConsoleMaxLines is the number of output lines drawn above the input line.
	ConsoleMaxLines = 100

	// cursorGlyph is the block glyph in the conchars sheet.
	cursorGlyph = 11
)

// ConsoleState is the console as the renderer sees it.
type ConsoleState struct {
	// Input is the line being edited.
	Input string
	// Cursor is the cursor column within Input.
	Cursor int
	// Output holds previous lines, oldest first.
	Output []string
	// Proportion is the fraction of the display the console covers, from the top.
	Proportion float32
	// Time is the client time in seconds; the cursor blinks on the second half of each second.
	Time float64
}

// ConsoleCommands returns the quad and glyph commands drawing state. A background below zero
// is not drawn.
//
// Parameters:
//   - state: the console state
//   - background: the quad texture index of the background image
//   - version: the text drawn at the bottom right of the console
//   - cellWidth: the glyph cell width in pixels, before scaling
//   - cellHeight: the glyph cell height in pixels, before scaling
//
// Returns:
//   - []QuadCommand: the background, if any
//   - []GlyphCommand: the text
func ConsoleCommands(state ConsoleState, background int, version string, cellWidth, cellHeight uint32) ([]QuadCommand, []GlyphCommand) {
	proportion := common.Clamp(state.Proportion, 0, 1)
	if proportion == 0 {
		return nil, nil
	}
	edge := Anchor{X: AnchorCoord{Kind: AnchorZero}, Y: Proportion(1 - proportion)}
	padLeft := int32(cellWidth)

	var quads []QuadCommand
	if background >= 0 {
		quads = append(quads, QuadCommand{
			Texture: background,
			Layout: Layout{
				Position: At(edge),
				Anchor:   BottomLeft,
				Size:     DisplayScaled(1),
			},
		})
	}

	glyphs := make([]GlyphCommand, 0, 4+min(len(state.Output), ConsoleMaxLines))
	if version != "" {
		glyphs = append(glyphs, Text(version, At(Anchor{X: AnchorCoord{Kind: AnchorMax}, Y: edge.Y}), BottomRight, ConsoleScale))
	}
	glyphs = append(glyphs,
		Glyph(']', Offset(edge, padLeft, 0), BottomLeft, ConsoleScale),
		Text(state.Input, Offset(edge, padLeft+int32(cellWidth), 0), BottomLeft, ConsoleScale),
	)
	if _, frac := math.Modf(state.Time); frac > 0.5 {
		col := int32(max(state.Cursor, 0) + 1)
		glyphs = append(glyphs, Glyph(cursorGlyph, Offset(edge, padLeft+int32(cellWidth)*col, 0), BottomLeft, ConsoleScale))
	}

	for i := 0; i < ConsoleMaxLines && i < len(state.Output); i++ {
		line := state.Output[len(state.Output)-1-i]
		if line == "" {
			continue
		}
		glyphs = append(glyphs, Text(line, Offset(edge, padLeft, int32(cellHeight)*int32(i+1)), BottomLeft, ConsoleScale))
	}
	return quads, glyphs
}

type consoleRenderer struct {
	mu *sync.Mutex

	quads      QuadRenderer
	glyphs     GlyphRenderer
	shared     *fullscreen.Quad
	background int
	version    string
}

// ConsoleRenderer queues the console overlay on the quad and glyph renderers.
type ConsoleRenderer interface {
	// Draw queues state for the next Record of the quad and glyph renderers.
	Draw(state ConsoleState)

	// Release drops the renderer's reference to the shared primitives.
	Release()
}

var _ ConsoleRenderer = &consoleRenderer{}

// NewConsoleRenderer registers the console background with quads.
//
// Parameters:
//   - b: the backend
//   - graph: the resource graph
//   - quads: the quad renderer
//   - glyphs: the glyph renderer
//   - background: the background image; skipped when it has no pixels
//   - version: the version text
//
// Returns:
//   - ConsoleRenderer: the renderer
//   - error: an error if the background could not be uploaded
func NewConsoleRenderer(b backend.Backend, graph resource.ResourceGraph, quads QuadRenderer, glyphs GlyphRenderer, background common.TextureStagingData, version string) (ConsoleRenderer, error) {
	shared, err := acquireShared(graph, b)
	if err != nil {
		return nil, err
	}
	r := &consoleRenderer{
		mu:         &sync.Mutex{},
		quads:      quads,
		glyphs:     glyphs,
		shared:     shared,
		background: -1,
		version:    version,
	}
	if len(background.Pixels) > 0 {
		if r.background, err = quads.AddTexture("conback", background); err != nil {
			r.Release()
			return nil, err
		}
	}
	return r, nil
}

func (r *consoleRenderer) Draw(state ConsoleState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := r.glyphs.CellSize()
	quads, glyphs := ConsoleCommands(state, r.background, r.version, w, h)
	for _, q := range quads {
		r.quads.Draw(q)
	}
	for _, g := range glyphs {
		r.glyphs.Draw(g)
	}
}

func (r *consoleRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shared != nil {
		r.shared.Release()
		r.shared = nil
	}
}
