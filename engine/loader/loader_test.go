package loader

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/palette"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
)

func TestPrepareTextures(t *testing.T) {
	l := NewLoader(palette.Grayscale(), WithWorkers(2), WithQueueSize(4))
	defer l.Close()

	sources := []TextureSource{
		{Name: "wall", Width: 2, Height: 1, Frames: [][]byte{{10, 255}}},
		{Name: "+0button", Width: 1, Height: 1, Frames: [][]byte{{1}, {230}}, Alternate: [][]byte{{2}}},
	}
	got, err := l.PrepareTextures(context.Background(), sources)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d textures, want 2", len(got))
	}

	wall := got[0].Frames[0]
	if want := []byte{10, 10, 10, 255, 0, 0, 0, 0}; !bytes.Equal(wall.Diffuse.Pixels, want) {
		t.Errorf("got diffuse %v, want %v", wall.Diffuse.Pixels, want)
	}
	if wall.Diffuse.Width != 2 || wall.Diffuse.Height != 1 {
		t.Errorf("got size %dx%d, want 2x1", wall.Diffuse.Width, wall.Diffuse.Height)
	}

	button := got[1]
	if len(button.Frames) != 2 || len(button.Alternate) != 1 {
		t.Fatalf("got %d frames and %d alternates, want 2 and 1", len(button.Frames), len(button.Alternate))
	}
	if want := []byte{0xFF}; !bytes.Equal(button.Frames[1].Fullbright.Pixels, want) {
		t.Errorf("got fullbright %v, want %v", button.Frames[1].Fullbright.Pixels, want)
	}
	if want := []byte{0}; !bytes.Equal(button.Frames[0].Fullbright.Pixels, want) {
		t.Errorf("got fullbright %v, want %v", button.Frames[0].Fullbright.Pixels, want)
	}
	if want := []byte{2, 2, 2, 255}; !bytes.Equal(button.Alternate[0].Diffuse.Pixels, want) {
		t.Errorf("got alternate %v, want %v", button.Alternate[0].Diffuse.Pixels, want)
	}

	if _, ok := l.Get("wall"); !ok {
		t.Errorf("got wall missing from cache, want cached")
	}
	if n := len(l.Textures()); n != 2 {
		t.Errorf("got %d cached textures, want 2", n)
	}
}

func TestPrepareTexturesUsesCache(t *testing.T) {
	l := NewLoader(palette.Grayscale(), WithWorkers(1))
	defer l.Close()

	first := []TextureSource{{Name: "sky1", Width: 1, Height: 1, Frames: [][]byte{{5}}}}
	if _, err := l.PrepareTextures(context.Background(), first); err != nil {
		t.Fatalf("got %v, want nil", err)
	}

	// Same name with different pixels: the cached translation wins.
	second := []TextureSource{{Name: "sky1", Width: 1, Height: 1, Frames: [][]byte{{9}}}}
	got, err := l.PrepareTextures(context.Background(), second)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if want := []byte{5, 5, 5, 255}; !bytes.Equal(got[0].Frames[0].Diffuse.Pixels, want) {
		t.Errorf("got %v, want cached %v", got[0].Frames[0].Diffuse.Pixels, want)
	}

	l.Forget()
	got, err = l.PrepareTextures(context.Background(), second)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if want := []byte{9, 9, 9, 255}; !bytes.Equal(got[0].Frames[0].Diffuse.Pixels, want) {
		t.Errorf("got %v after Forget, want %v", got[0].Frames[0].Diffuse.Pixels, want)
	}
}

func TestPrepareTexturesErrors(t *testing.T) {
	l := NewLoader(palette.Grayscale(), WithWorkers(2))
	defer l.Close()

	bad := []TextureSource{{Name: "short", Width: 4, Height: 4, Frames: [][]byte{{1, 2, 3}}}}
	if _, err := l.PrepareTextures(context.Background(), bad); err == nil {
		t.Errorf("got nil, want size mismatch error")
	}
	if _, ok := l.Get("short"); ok {
		t.Errorf("got failed texture cached, want absent")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	good := []TextureSource{{Name: "ok", Width: 1, Height: 1, Frames: [][]byte{{1}}}}
	if _, err := l.PrepareTextures(ctx, good); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestPrepareBrush(t *testing.T) {
	l := NewLoader(palette.Grayscale(), WithWorkers(2))
	defer l.Close()

	textures := []TextureSource{{Name: "floor", Width: 1, Height: 1, Frames: [][]byte{{3}}}}
	faces := []world.BrushFace{{Texture: 0}, {Texture: 0}}

	src, err := l.PrepareBrush(context.Background(), "*1", textures, faces)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if src.Name != "*1" || len(src.Textures) != 1 || len(src.Faces) != 2 {
		t.Errorf("got %+v, want one texture and two faces", src)
	}

	faces = append(faces, world.BrushFace{Texture: 3})
	if _, err := l.PrepareBrush(context.Background(), "*2", textures, faces); err == nil {
		t.Errorf("got nil, want missing texture error")
	}
}

func TestClosed(t *testing.T) {
	l := NewLoader(palette.Grayscale(), WithWorkers(1))
	l.Close()
	l.Close()
	if _, err := l.PrepareTextures(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}
