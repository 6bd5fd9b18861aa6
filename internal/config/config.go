// Package config provides configuration types and helpers for htmlmin.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bimmerbailey/htmlmin/internal/compressor"
	"github.com/bimmerbailey/htmlmin/internal/logging"
	"github.com/bimmerbailey/htmlmin/internal/minifier"
	"golang.org/x/net/html/atom"
)

// Config holds the application-wide configuration.
type Config struct {
	Format     string           `mapstructure:"format"`
	Verbose    bool             `mapstructure:"verbose"`
	Workers    int              `mapstructure:"workers"`
	OutputDir  string           `mapstructure:"output_dir"`
	Extensions []string         `mapstructure:"extensions"`
	Log        logging.Config   `mapstructure:"log"`
	Compressor CompressorConfig `mapstructure:"compressor"`
}

// CompressorConfig mirrors compressor.Options with configuration-file names.
type CompressorConfig struct {
	Enabled bool `mapstructure:"enabled"`

	RemoveComments           bool `mapstructure:"remove_comments"`
	RemoveMultiSpaces        bool `mapstructure:"remove_multi_spaces"`
	RemoveIntertagSpaces     bool `mapstructure:"remove_intertag_spaces"`
	RemoveQuotes             bool `mapstructure:"remove_quotes"`
	SimpleDoctype            bool `mapstructure:"simple_doctype"`
	RemoveScriptAttributes   bool `mapstructure:"remove_script_attributes"`
	RemoveStyleAttributes    bool `mapstructure:"remove_style_attributes"`
	RemoveLinkAttributes     bool `mapstructure:"remove_link_attributes"`
	RemoveFormAttributes     bool `mapstructure:"remove_form_attributes"`
	RemoveInputAttributes    bool `mapstructure:"remove_input_attributes"`
	SimpleBooleanAttributes  bool `mapstructure:"simple_boolean_attributes"`
	RemoveJavaScriptProtocol bool `mapstructure:"remove_javascript_protocol"`
	RemoveHTTPProtocol       bool `mapstructure:"remove_http_protocol"`
	RemoveHTTPSProtocol      bool `mapstructure:"remove_https_protocol"`
	PreserveLineBreaks       bool `mapstructure:"preserve_line_breaks"`

	// RemoveSurroundingSpaces is "min", "max", "all" or a comma-separated tag list.
	RemoveSurroundingSpaces string `mapstructure:"remove_surrounding_spaces"`

	PreservePatterns     []string `mapstructure:"preserve_patterns"`
	PreservePHP          bool     `mapstructure:"preserve_php"`
	PreserveServerScript bool     `mapstructure:"preserve_server_script"`
	PreserveSSI          bool     `mapstructure:"preserve_ssi"`

	CompressJS  bool   `mapstructure:"compress_js"`
	CompressCSS bool   `mapstructure:"compress_css"`
	JSMinifier  string `mapstructure:"js_minifier"`  // "tdewolff" or "none"
	CSSMinifier string `mapstructure:"css_minifier"` // "tdewolff" or "none"

	MatchTimeout time.Duration `mapstructure:"match_timeout"`
	MaxDepth     int           `mapstructure:"max_depth"`
	StrictTokens bool          `mapstructure:"strict_tokens"`
	Statistics   bool          `mapstructure:"statistics"`

	// XML switches to the XML compressor. Comments follow RemoveComments and
	// whitespace between tags is always removed; other switches are ignored.
	XML bool `mapstructure:"xml"`
}

// Output formats accepted by Config.Format.
var formats = []string{"text", "json", "table"}

// Defaults returns the default value of every configuration key.
func Defaults() map[string]any {
	return map[string]any{
		"format":     "text",
		"verbose":    false,
		"workers":    4,
		"output_dir": "",
		"extensions": []string{".html", ".htm"},
		"log.level":  "warn",
		"log.format": logging.FormatConsole,

		"compressor.enabled":                    true,
		"compressor.remove_comments":            true,
		"compressor.remove_multi_spaces":        true,
		"compressor.remove_intertag_spaces":     false,
		"compressor.remove_quotes":              false,
		"compressor.simple_doctype":             false,
		"compressor.remove_script_attributes":   false,
		"compressor.remove_style_attributes":    false,
		"compressor.remove_link_attributes":     false,
		"compressor.remove_form_attributes":     false,
		"compressor.remove_input_attributes":    false,
		"compressor.simple_boolean_attributes":  false,
		"compressor.remove_javascript_protocol": false,
		"compressor.remove_http_protocol":       false,
		"compressor.remove_https_protocol":      false,
		"compressor.preserve_line_breaks":       false,
		"compressor.remove_surrounding_spaces":  "",
		"compressor.preserve_patterns":          []string{},
		"compressor.preserve_php":               false,
		"compressor.preserve_server_script":     false,
		"compressor.preserve_ssi":               false,
		"compressor.compress_js":                false,
		"compressor.compress_css":               false,
		"compressor.js_minifier":                minifier.NameTdewolff,
		"compressor.css_minifier":               minifier.NameTdewolff,
		"compressor.match_timeout":              time.Duration(0),
		"compressor.max_depth":                  compressor.DefaultMaxDepth,
		"compressor.strict_tokens":              false,
		"compressor.statistics":                 false,
		"compressor.xml":                        false,
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if !contains(formats, strings.ToLower(c.Format)) {
		errs = append(errs, fmt.Errorf("unknown format %q (supported: %s)", c.Format, strings.Join(formats, ", ")))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("extension %q must start with a dot", ext))
		}
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Compressor.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks minifier names, limits and the surrounding-spaces tag list.
func (c *CompressorConfig) Validate() error {
	var errs []error

	for _, name := range []string{c.JSMinifier, c.CSSMinifier} {
		if name != "" && !contains(minifier.Names(), strings.ToLower(name)) {
			errs = append(errs, fmt.Errorf("%w: %s", minifier.ErrUnknownMinifier, name))
		}
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth))
	}
	if c.MatchTimeout < 0 {
		errs = append(errs, fmt.Errorf("match_timeout must not be negative, got %s", c.MatchTimeout))
	}
	if err := validateTags(c.RemoveSurroundingSpaces); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// validateTags rejects names in a custom tag list that are neither known HTML
// elements nor custom elements (which always contain a hyphen).
func validateTags(list string) error {
	switch strings.ToLower(strings.TrimSpace(list)) {
	case "", compressor.SurroundingAll, compressor.SurroundingMin, compressor.SurroundingMax:
		return nil
	}

	var unknown []string
	for _, name := range compressor.SplitTags(list) {
		lower := strings.ToLower(name)
		if atom.Lookup([]byte(lower)) == 0 && !strings.Contains(lower, "-") {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("remove_surrounding_spaces: unknown tags %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Patterns returns the preserve patterns with the enabled predefined ones
// appended, in priority order.
func (c *CompressorConfig) Patterns() []string {
	patterns := append([]string(nil), c.PreservePatterns...)
	if c.PreservePHP {
		patterns = append(patterns, compressor.PHPTagPattern)
	}
	if c.PreserveServerScript {
		patterns = append(patterns, compressor.ServerScriptTagPattern)
	}
	if c.PreserveSSI {
		patterns = append(patterns, compressor.ServerSideIncludePattern)
	}
	return patterns
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
