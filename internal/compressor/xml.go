package compressor

import (
	"time"

	"go.uber.org/zap"
)

// XMLOptions configures an XML compressor.
type XMLOptions struct {
	Enabled              bool
	RemoveComments       bool
	RemoveIntertagSpaces bool
	GenerateStatistics   bool
	MatchTimeout         time.Duration
	StrictTokens         bool
	Logger               *zap.Logger
}

// DefaultXMLOptions enables comment and intertag whitespace removal.
func DefaultXMLOptions() XMLOptions {
	return XMLOptions{
		Enabled:              true,
		RemoveComments:       true,
		RemoveIntertagSpaces: true,
	}
}

// NewXML returns a Compressor for XML documents. CDATA sections are kept
// verbatim; comments and whitespace between tags are removed.
func NewXML(opts XMLOptions) (*Compressor, error) {
	c, err := newCompressor(Options{
		Enabled:              opts.Enabled,
		RemoveComments:       opts.RemoveComments,
		RemoveIntertagSpaces: opts.RemoveIntertagSpaces,
		GenerateStatistics:   opts.GenerateStatistics,
		MatchTimeout:         opts.MatchTimeout,
		StrictTokens:         opts.StrictTokens,
		Logger:               opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	c.extractors, c.keys = xmlExtractors(c.patterns)
	c.rules = xmlRewrites
	c.index()
	return c, nil
}
