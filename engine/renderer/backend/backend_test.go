package backend

import "testing"

func TestFrameSubmitted(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
		want  bool
	}{
		{"nil frame", nil, false},
		{"begun only", &Frame{Serial: 3}, false},
		{"submitted", &Frame{Serial: 3, submitted: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Submitted(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPresentWithoutImage(t *testing.T) {
	b := &wgpuBackendImpl{frameHeld: true}
	b.Present(nil)
	b.Present(&Frame{submitted: true})
	if !b.frameHeld {
		t.Errorf("got frameHeld false, want a frame without an image left alone")
	}
}
