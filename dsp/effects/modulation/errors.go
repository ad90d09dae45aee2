package modulation

import "errors"

// ErrChannelLength is returned when an output channel is shorter than the input.
var ErrChannelLength = errors.New("modulation: output channel shorter than input")
