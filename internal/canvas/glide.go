package canvas

import (
	"time"

	"github.com/starford/kenaz-canvas/internal/canvas/camera"
)

// startGlide runs the inertial pan loop, one camera step per frame, until
// the velocity decays, a gesture stops the camera, or the instance closes.
// Callers hold mu.
func (i *Instance) startGlide() {
	stop := make(chan struct{})
	done := make(chan struct{})
	i.glideStop, i.glideDone = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(camera.FrameTime)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				i.mu.Lock()
				more := i.cam.Step()
				if !more && i.glideStop == stop {
					i.glideStop, i.glideDone = nil, nil
				}
				i.mu.Unlock()
				if !more {
					return
				}
			}
		}
	}()
}

// Gliding reports whether the inertial pan loop is running.
func (i *Instance) Gliding() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.glideStop != nil
}
