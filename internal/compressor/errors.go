package compressor

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the compressor.
var (
	// ErrInvalidPattern indicates a preserve pattern failed to compile.
	ErrInvalidPattern = errors.New("invalid preserve pattern")

	// ErrMaxDepth indicates conditional comments nested deeper than Options.MaxDepth.
	ErrMaxDepth = errors.New("conditional comment nesting too deep")

	// ErrTokenMismatch indicates a placeholder whose ordinal has no stored block.
	// Only returned when Options.StrictTokens is set.
	ErrTokenMismatch = errors.New("placeholder token has no stored block")

	// ErrMatchTimeout indicates a matcher ran longer than Options.MatchTimeout.
	ErrMatchTimeout = errors.New("pattern match timed out")
)

// wrapMatchErr tags an error coming out of the regexp engine with the stage
// that produced it. regexp2 reports timeouts as plain errors carrying the
// whole input, so they are recognised by message and replaced.
func wrapMatchErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "match timeout") {
		return fmt.Errorf("%s: %w", stage, ErrMatchTimeout)
	}
	return fmt.Errorf("%s: %w", stage, err)
}
