package config

import (
	"fmt"

	"github.com/bimmerbailey/htmlmin/internal/compressor"
	"github.com/bimmerbailey/htmlmin/internal/minifier"
	"go.uber.org/zap"
)

// Options converts the configuration into compressor options, resolving the
// configured minifiers.
func (c *CompressorConfig) Options(logger *zap.Logger) (compressor.Options, error) {
	opts := compressor.Options{
		Enabled:                  c.Enabled,
		RemoveComments:           c.RemoveComments,
		RemoveMultiSpaces:        c.RemoveMultiSpaces,
		RemoveIntertagSpaces:     c.RemoveIntertagSpaces,
		RemoveQuotes:             c.RemoveQuotes,
		SimpleDoctype:            c.SimpleDoctype,
		RemoveScriptAttributes:   c.RemoveScriptAttributes,
		RemoveStyleAttributes:    c.RemoveStyleAttributes,
		RemoveLinkAttributes:     c.RemoveLinkAttributes,
		RemoveFormAttributes:     c.RemoveFormAttributes,
		RemoveInputAttributes:    c.RemoveInputAttributes,
		SimpleBooleanAttributes:  c.SimpleBooleanAttributes,
		RemoveJavaScriptProtocol: c.RemoveJavaScriptProtocol,
		RemoveHTTPProtocol:       c.RemoveHTTPProtocol,
		RemoveHTTPSProtocol:      c.RemoveHTTPSProtocol,
		PreserveLineBreaks:       c.PreserveLineBreaks,
		RemoveSurroundingSpaces:  c.RemoveSurroundingSpaces,
		PreservePatterns:         c.Patterns(),
		GenerateStatistics:       c.Statistics,
		CompressJavaScript:       c.CompressJS,
		CompressCSS:              c.CompressCSS,
		MaxDepth:                 c.MaxDepth,
		MatchTimeout:             c.MatchTimeout,
		StrictTokens:             c.StrictTokens,
		Logger:                   logger,
	}

	var err error
	if c.CompressJS {
		if opts.JavaScript, err = minifier.New(minifier.JavaScript, c.JSMinifier, logger); err != nil {
			return compressor.Options{}, err
		}
	}
	if c.CompressCSS {
		if opts.CSS, err = minifier.New(minifier.CSS, c.CSSMinifier, logger); err != nil {
			return compressor.Options{}, err
		}
	}
	return opts, nil
}

// Build returns the HTML or XML compressor the configuration describes.
func (c *CompressorConfig) Build(logger *zap.Logger) (*compressor.Compressor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if c.XML {
		comp, err := compressor.NewXML(compressor.XMLOptions{
			Enabled:              c.Enabled,
			RemoveComments:       c.RemoveComments,
			RemoveIntertagSpaces: true,
			GenerateStatistics:   c.Statistics,
			MatchTimeout:         c.MatchTimeout,
			StrictTokens:         c.StrictTokens,
			Logger:               logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create xml compressor: %w", err)
		}
		return comp, nil
	}

	opts, err := c.Options(logger)
	if err != nil {
		return nil, err
	}
	comp, err := compressor.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	return comp, nil
}
