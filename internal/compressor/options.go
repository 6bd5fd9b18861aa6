package compressor

import (
	"time"

	"go.uber.org/zap"
)

// DefaultMaxDepth bounds conditional-comment sub-compression.
const DefaultMaxDepth = 32

// Minifier compresses the body of an inline script or style block.
// Implementations must be safe for concurrent use.
type Minifier interface {
	Minify(src string) (string, error)
}

// MinifierFunc adapts a plain function to the Minifier interface.
type MinifierFunc func(src string) (string, error)

// Minify calls f(src).
func (f MinifierFunc) Minify(src string) (string, error) {
	return f(src)
}

// Options configures a Compressor. The zero value disables compression;
// start from DefaultOptions.
type Options struct {
	// Enabled bypasses compression entirely when false.
	Enabled bool

	RemoveComments           bool
	RemoveMultiSpaces        bool
	RemoveIntertagSpaces     bool
	RemoveQuotes             bool
	SimpleDoctype            bool
	RemoveScriptAttributes   bool
	RemoveStyleAttributes    bool
	RemoveLinkAttributes     bool
	RemoveFormAttributes     bool
	RemoveInputAttributes    bool
	SimpleBooleanAttributes  bool
	RemoveJavaScriptProtocol bool
	RemoveHTTPProtocol       bool
	RemoveHTTPSProtocol      bool
	PreserveLineBreaks       bool

	// RemoveSurroundingSpaces is "min", "max", "all" or a comma-separated
	// list of tag names. Empty disables the rule.
	RemoveSurroundingSpaces string

	// PreservePatterns are regexp2 expressions whose matches are kept
	// verbatim. Earlier patterns take precedence over later ones and over
	// every built-in category.
	PreservePatterns []string

	// GenerateStatistics makes CompressWithStats collect size statistics.
	GenerateStatistics bool

	CompressJavaScript bool
	CompressCSS        bool
	JavaScript         Minifier // nil leaves script bodies untouched
	CSS                Minifier // nil leaves style bodies untouched

	// MaxDepth limits conditional-comment recursion. Zero means DefaultMaxDepth.
	MaxDepth int

	// MatchTimeout aborts any single pattern match running longer than this.
	// Zero disables the check.
	MatchTimeout time.Duration

	// StrictTokens turns a placeholder without a stored block into
	// ErrTokenMismatch instead of leaving the placeholder text in place.
	StrictTokens bool

	Logger *zap.Logger
}

// DefaultOptions returns the default configuration: comments and repeated
// whitespace are removed, everything else is off.
func DefaultOptions() Options {
	return Options{
		Enabled:           true,
		RemoveComments:    true,
		RemoveMultiSpaces: true,
		MaxDepth:          DefaultMaxDepth,
	}
}

// normalize fills in defaults that have no meaningful zero value.
func (o Options) normalize() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	o.PreservePatterns = append([]string(nil), o.PreservePatterns...)
	return o
}
