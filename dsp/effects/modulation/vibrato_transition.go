package modulation

import "math"

// widthTransition tracks the committed sweep width and the crossfade from the
// previous width after a change.
type widthTransition struct {
	active        float64
	previous      float64
	transitioning bool
	counter       int
	length        int
}

func (w *widthTransition) reset(width float64, length int) {
	w.active = width
	w.previous = width
	w.transitioning = false
	w.counter = 0
	w.length = max(1, length)
}

// observe starts a transition when idle and width differs from the
// committed value. Changes seen mid-transition are dropped.
func (w *widthTransition) observe(width float64) bool {
	if w.transitioning || width == w.active {
		return false
	}

	w.previous = w.active
	w.active = width
	w.counter = 0
	w.transitioning = true

	return true
}

// weights returns the previous and active read gains for the current
// transition sample.
func (w *widthTransition) weights() (float64, float64) {
	return crossfadeWeights(w.counter, w.length)
}

func (w *widthTransition) advance() {
	w.counter++
	if w.counter >= w.length {
		w.counter = 0
		w.transitioning = false
		w.previous = w.active
	}
}

// crossfadeWeights returns equal-power gains (sqrt(1-x), sqrt(x)) for
// x = counter/length. The squared gains always sum to one, so the weights use
// math.Sqrt even in fastmath builds.
func crossfadeWeights(counter, length int) (float64, float64) {
	x := float64(counter) / float64(length)
	return math.Sqrt(1 - x), math.Sqrt(x)
}
