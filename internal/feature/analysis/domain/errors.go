// Package domain defines domain-level errors for the analysis feature.
package domain

import "errors"

// ErrInsufficientData indicates that the supplied table is too short for
// the configured indicator windows. Failing fast here keeps NaN values out
// of scores.
var ErrInsufficientData = errors.New("insufficient history for analysis")
