package profiler

import (
	"testing"
	"time"
)

func TestFrameTimeAverage(t *testing.T) {
	start := time.Unix(0, 0)
	tests := []struct {
		name   string
		frames []time.Duration
		want   time.Duration
	}{
		{"no frames", nil, 0},
		{"single", []time.Duration{16 * time.Millisecond}, 16 * time.Millisecond},
		{"mixed", []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, 15 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profiler{lastTime: start, lastFrame: start, updateInterval: time.Hour}
			now := start
			for _, d := range tt.frames {
				now = now.Add(d)
				p.tick(now)
			}
			if got := p.FrameTime(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrameTimeWindowRolls(t *testing.T) {
	start := time.Unix(0, 0)
	p := &Profiler{lastTime: start, lastFrame: start, updateInterval: time.Hour}
	now := start
	for range AverageWindow {
		now = now.Add(100 * time.Millisecond)
		p.tick(now)
	}
	for range AverageWindow {
		now = now.Add(10 * time.Millisecond)
		p.tick(now)
	}
	if got, want := p.FrameTime(), 10*time.Millisecond; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTickReportsAtInterval(t *testing.T) {
	start := time.Unix(0, 0)
	p := &Profiler{lastTime: start, lastFrame: start, updateInterval: time.Second}
	now := start
	reported := 0
	// time.Second/60 truncates, so sixty such frames fall just short of a second
	frame := time.Second/60 + time.Nanosecond
	for range 120 {
		now = now.Add(frame)
		if p.tick(now) {
			reported++
		}
	}
	if reported != 2 {
		t.Errorf("got %d reports, want 2", reported)
	}
	if got := p.FPS(); got < 59 || got > 61 {
		t.Errorf("got %v fps, want about 60", got)
	}
}

func TestSetInterval(t *testing.T) {
	p := NewProfiler()
	p.SetInterval(0)
	if p.updateInterval != time.Second {
		t.Errorf("got %v, want unchanged 1s", p.updateInterval)
	}
	p.SetInterval(5 * time.Second)
	if p.updateInterval != 5*time.Second {
		t.Errorf("got %v, want 5s", p.updateInterval)
	}
}
