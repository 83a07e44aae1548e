package bewegung

import (
	"time"

	"github.com/copyandpaetow/bewegung-sub000/internal/sample"
)

// StyleReader reads the current geometry and style of an element. A read
// must reflect every style applied so far.
type StyleReader = sample.Reader

// StyleWriter applies and removes temporary styles.
type StyleWriter = sample.Writer

// Handle controls one running native animation.
type Handle interface {
	Play()
	Pause()
	Reverse()
	Finish()
	Cancel()
	SetCurrentTime(t time.Duration)
	CurrentTime() time.Duration
}

// Player turns synthesized keyframes into native animations.
type Player interface {
	// Animate starts a paused animation of el over runtime.
	Animate(el *Element, keyframes []Keyframe, runtime time.Duration) (Handle, error)
	// Mount inserts a transient layer standing in for el and returns the
	// handle of its animation.
	Mount(el *Element, layer Synthetic, runtime time.Duration) (Handle, error)
	// Unmount removes a layer inserted by Mount.
	Unmount(el *Element, layer Synthetic) error
}
