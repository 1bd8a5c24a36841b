package timing

import (
	"log/slog"
	"time"
)

// AdaptiveLimiter combines sleeping (for efficiency) with a short busy-wait
// tail (for accuracy) and corrects for accumulated drift every 60 frames.
// This is the default limiter for the sdl2 and terminal backends.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	return &AdaptiveLimiter{
		targetFrameTime: FrameDuration(),
		nextFrameTime:   time.Now(),
	}
}

// NewAdaptiveLimiterAtSpeed scales frame pacing by speed (1.0 is real-time,
// 2.0 runs twice as fast, 0.5 runs at half speed), for the CLI's --speed
// flag. speed <= 0 is treated as 1.0.
func NewAdaptiveLimiterAtSpeed(speed float64) *AdaptiveLimiter {
	if speed <= 0 {
		speed = 1
	}
	return &AdaptiveLimiter{
		targetFrameTime: time.Duration(float64(FrameDuration()) / speed),
		nextFrameTime:   time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := time.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime < 2*time.Millisecond {
			for time.Now().Before(a.nextFrameTime) {
			}
		} else {
			time.Sleep(sleepTime - time.Millisecond)
			for time.Now().Before(a.nextFrameTime) {
			}
		}
	} else if sleepTime < -5*time.Millisecond {
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	if a.frameCounter%60 == 0 {
		drift := time.Now().Sub(a.nextFrameTime)
		if drift.Abs() > 10*time.Millisecond {
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			slog.Debug("frame timing drift correction", "drift_ms", drift.Milliseconds())
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = time.Now()
	a.frameCounter = 0
}
