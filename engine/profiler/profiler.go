package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

// AverageWindow is the number of frames the frame-time average covers.
const AverageWindow = 30

// Profiler tracks frame rate, a rolling frame-time average and memory statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	lastFrame      time.Time
	updateInterval time.Duration

	frameTimes [AverageWindow]time.Duration
	next       int
	filled     int
	fps        float64

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	readMem        bool
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	now := time.Now()
	return &Profiler{
		lastTime:       now,
		lastFrame:      now,
		updateInterval: time.Second,
		readMem:        true,
	}
}

// SetInterval changes how often statistics are logged.
//
// Parameters:
//   - d: the logging interval; values <= 0 are ignored
func (p *Profiler) SetInterval(d time.Duration) {
	if d > 0 {
		p.updateInterval = d
	}
}

// Tick should be called once per rendered frame.
// Logs performance statistics when the update interval has elapsed: FPS, average frame time,
// heap usage, allocation rate, GC count and pause times.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	return p.tick(time.Now())
}

func (p *Profiler) tick(now time.Time) bool {
	p.frameTimes[p.next] = now.Sub(p.lastFrame)
	p.next = (p.next + 1) % AverageWindow
	p.filled = min(p.filled+1, AverageWindow)
	p.lastFrame = now

	p.frameCount++
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}
	p.fps = float64(p.frameCount) / elapsed.Seconds()

	if p.readMem {
		p.logStats(elapsed)
	}

	p.frameCount = 0
	p.lastTime = now
	return true
}

func (p *Profiler) logStats(elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.LogInfo("profiler: FPS %.2f | frame %.2f ms | heap %.2f MB | alloc %.2f MB/s | GC %d (last %d µs, max %d µs) | sys %.2f MB",
		p.fps, float64(p.FrameTime().Microseconds())/1000, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}

// FPS returns the frame rate measured over the last logging interval.
func (p *Profiler) FPS() float64 {
	return p.fps
}

// FrameTime returns the average duration of the last AverageWindow frames, or of every frame
// so far when fewer have been recorded.
func (p *Profiler) FrameTime() time.Duration {
	if p.filled == 0 {
		return 0
	}
	var sum time.Duration
	for i := range p.filled {
		sum += p.frameTimes[i]
	}
	return sum / time.Duration(p.filled)
}
