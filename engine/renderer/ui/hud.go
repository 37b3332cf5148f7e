package ui

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/fullscreen"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
)

const (
	// HudScale is the scale of every status bar image.
	HudScale = 2

	// HudDigitAdvance is the spacing of status bar digits before scaling.
	HudDigitAdvance = 24

	// ammoCounterGlyph is the glyph of the small digit 0 in the conchars sheet.
	ammoCounterGlyph = 18
)

// Offsets of the status bar fields from its left edge, before scaling.
const (
	hudFaceOffset   = 112
	hudHealthOffset = 136
	hudAmmoOffset   = 248
	hudArmorWidth   = 24
)

// HudTextures holds the status bar images. Entries without pixels are not drawn.
type HudTextures struct {
	// Digits holds the normal set at 0 and the alternate (red) set at 1.
	Digits [2][10]common.TextureStagingData
	Minus  [2]common.TextureStagingData
	// StatusBar is the bottom bar; numbers and the face are placed relative to its left edge.
	StatusBar common.TextureStagingData
	// InvBar sits on top of StatusBar.
	InvBar common.TextureStagingData
	// Armor holds the green, yellow and red armor icons.
	Armor [3]common.TextureStagingData
	// Faces holds five frames from healthy to near death, normal at 0 and in pain at 1.
	Faces [2][5]common.TextureStagingData
}

// HudIndices maps status bar images to quad texture indices. -1 marks a missing image.
type HudIndices struct {
	Digits    [2][10]int
	Minus     [2]int
	StatusBar int
	InvBar    int
	Armor     [3]int
	Faces     [2][5]int

	// StatusBarWidth and StatusBarHeight are the status bar image size in pixels.
	StatusBarWidth  uint32
	StatusBarHeight uint32
}

// NewHudIndices returns HudIndices with every image missing.
func NewHudIndices() HudIndices {
	idx := HudIndices{StatusBar: -1, InvBar: -1}
	for set := range idx.Digits {
		for d := range idx.Digits[set] {
			idx.Digits[set][d] = -1
		}
		idx.Minus[set] = -1
		for f := range idx.Faces[set] {
			idx.Faces[set][f] = -1
		}
	}
	for i := range idx.Armor {
		idx.Armor[i] = -1
	}
	return idx
}

// HudState is the player state shown on the status bar.
type HudState struct {
	Health int32
	Armor  int32
	// Ammo is the ammunition of the active weapon.
	Ammo int32
	// AmmoCounts holds shells, nails, rockets and cells.
	AmmoCounts [4]int32
	// ArmorType is 0 for none, then 1 to 3 for green, yellow and red.
	ArmorType int
	// Invulnerable replaces the armor value with a red 666.
	Invulnerable bool
	// Pain selects the pain face.
	Pain bool
}

// NumberCommands draws number with status bar digits, right-aligned in a field of maxDigits.
// Leading characters are dropped when the number is too wide.
//
// Parameters:
//   - number: the value
//   - alt: whether to use the alternate digit set
//   - maxDigits: the field width in digits
//   - pos: the left edge of the field
//   - digits: the digit texture indices
//   - minus: the minus texture indices
//
// Returns:
//   - []QuadCommand: one command per drawn character
func NumberCommands(number int32, alt bool, maxDigits int, pos ScreenPosition, digits [2][10]int, minus [2]int) []QuadCommand {
	set := 0
	if alt {
		set = 1
	}
	chars := strconv.Itoa(int(number))
	skip, place := 0, int32(0)
	if len(chars) > maxDigits {
		skip = len(chars) - maxDigits
	} else {
		place = int32(maxDigits-len(chars)) * HudDigitAdvance
	}

	cmds := make([]QuadCommand, 0, len(chars)-skip)
	for i, c := range chars[skip:] {
		tex := minus[set]
		if c >= '0' && c <= '9' {
			tex = digits[set][c-'0']
		}
		if tex < 0 {
			continue
		}
		cmds = append(cmds, QuadCommand{
			Texture: tex,
			Layout: Layout{
				Position: Offset(pos.Anchor, pos.OffsetX+place+HudDigitAdvance*int32(i), pos.OffsetY),
				Anchor:   BottomLeft,
				Size:     Scaled(HudScale),
			},
		})
	}
	return cmds
}

// FaceFrame returns the face frame for health, 0 at full health and 4 near death.
func FaceFrame(health int32) int {
	if health >= 100 {
		return 0
	}
	return 4 - int(max(health, 0)/20)
}

// HudCommands returns the quad and glyph commands drawing the status bar.
func HudCommands(state HudState, idx HudIndices) ([]QuadCommand, []GlyphCommand) {
	var quads []QuadCommand
	var glyphs []GlyphCommand

	sbarX := -int32(idx.StatusBarWidth) / 2
	sbarH := int32(idx.StatusBarHeight)
	place := func(tex int, x, y int32, anchor Anchor) {
		if tex < 0 {
			return
		}
		quads = append(quads, QuadCommand{
			Texture: tex,
			Layout: Layout{
				Position: Offset(BottomCenter, x, y),
				Anchor:   anchor,
				Size:     Scaled(HudScale),
			},
		})
	}

	place(idx.StatusBar, 0, 0, BottomCenter)
	place(idx.InvBar, 0, sbarH, BottomCenter)

	for i, count := range state.AmmoCounts {
		for col, c := range fmt.Sprintf("%3d", count) {
			if c < '0' || c > '9' {
				continue
			}
			glyphs = append(glyphs, Glyph(byte(ammoCounterGlyph+c-'0'),
				Offset(BottomCenter, sbarX+int32(8*(6*i+col)+10), sbarH+16), BottomLeft, HudScale))
		}
	}

	if state.Invulnerable {
		quads = append(quads, NumberCommands(666, true, 3, Offset(BottomCenter, sbarX, 0), idx.Digits, idx.Minus)...)
	} else {
		quads = append(quads, NumberCommands(state.Armor, state.Armor <= 25, 3,
			Offset(BottomCenter, sbarX+hudArmorWidth, 0), idx.Digits, idx.Minus)...)
		if state.ArmorType >= 1 && state.ArmorType <= len(idx.Armor) {
			place(idx.Armor[state.ArmorType-1], sbarX, 0, BottomLeft)
		}
	}

	quads = append(quads, NumberCommands(state.Health, state.Health <= 25, 3,
		Offset(BottomCenter, sbarX+hudHealthOffset, 0), idx.Digits, idx.Minus)...)
	quads = append(quads, NumberCommands(state.Ammo, state.Ammo <= 10, 3,
		Offset(BottomCenter, sbarX+hudAmmoOffset, 0), idx.Digits, idx.Minus)...)

	pain := 0
	if state.Pain {
		pain = 1
	}
	place(idx.Faces[pain][FaceFrame(state.Health)], sbarX+hudFaceOffset, 0, BottomLeft)

	glyphs = append(glyphs, Glyph('+', At(Center), Center, HudScale))
	return quads, glyphs
}

type hudRenderer struct {
	mu *sync.Mutex

	quads   QuadRenderer
	glyphs  GlyphRenderer
	shared  *fullscreen.Quad
	indices HudIndices
}

// HudRenderer queues the status bar on the quad and glyph renderers.
type HudRenderer interface {
	// Draw queues state for the next Record of the quad and glyph renderers.
	Draw(state HudState)

	// Indices returns the quad texture indices of the status bar images.
	Indices() HudIndices

	// Release drops the renderer's reference to the shared primitives.
	Release()
}

var _ HudRenderer = &hudRenderer{}

// NewHudRenderer registers every status bar image with quads.
//
// Parameters:
//   - b: the backend
//   - graph: the resource graph
//   - quads: the quad renderer
//   - glyphs: the glyph renderer
//   - textures: the status bar images
//
// Returns:
//   - HudRenderer: the renderer
//   - error: an error if an image could not be uploaded
func NewHudRenderer(b backend.Backend, graph resource.ResourceGraph, quads QuadRenderer, glyphs GlyphRenderer, textures HudTextures) (HudRenderer, error) {
	shared, err := acquireShared(graph, b)
	if err != nil {
		return nil, err
	}
	r := &hudRenderer{
		mu:      &sync.Mutex{},
		quads:   quads,
		glyphs:  glyphs,
		shared:  shared,
		indices: NewHudIndices(),
	}

	add := func(dst *int, name string, staging common.TextureStagingData) {
		if err != nil || len(staging.Pixels) == 0 {
			return
		}
		*dst, err = quads.AddTexture("hud."+name, staging)
	}
	for set, prefix := range []string{"num", "anum"} {
		for d := range textures.Digits[set] {
			add(&r.indices.Digits[set][d], fmt.Sprintf("%s_%d", prefix, d), textures.Digits[set][d])
		}
		add(&r.indices.Minus[set], prefix+"_minus", textures.Minus[set])
	}
	add(&r.indices.StatusBar, "sbar", textures.StatusBar)
	add(&r.indices.InvBar, "ibar", textures.InvBar)
	for i := range textures.Armor {
		add(&r.indices.Armor[i], fmt.Sprintf("armor%d", i+1), textures.Armor[i])
	}
	for set, prefix := range []string{"face", "face_p"} {
		for f := range textures.Faces[set] {
			add(&r.indices.Faces[set][f], fmt.Sprintf("%s%d", prefix, f+1), textures.Faces[set][f])
		}
	}
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("hud: %w", err)
	}
	r.indices.StatusBarWidth, r.indices.StatusBarHeight = textures.StatusBar.Width, textures.StatusBar.Height
	return r, nil
}

func (r *hudRenderer) Draw(state HudState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	quads, glyphs := HudCommands(state, r.indices)
	for _, q := range quads {
		r.quads.Draw(q)
	}
	for _, g := range glyphs {
		r.glyphs.Draw(g)
	}
}

func (r *hudRenderer) Indices() HudIndices {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indices
}

func (r *hudRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shared != nil {
		r.shared.Release()
		r.shared = nil
	}
}
