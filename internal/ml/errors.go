package ml

import "errors"

// ErrInsufficientData is returned by Train when fewer than the minimum
// viable number of labeled transactions is supplied, or a required
// label class is entirely absent.
var ErrInsufficientData = errors.New("ml: insufficient labeled data for training")

// MinTrainingSamples is the minimum viable number of labeled
// transactions Train will accept, per spec.md §6.
const MinTrainingSamples = 50
