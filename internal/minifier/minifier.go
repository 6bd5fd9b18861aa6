// Package minifier provides the script and style minifiers that the
// compressor hands inline <script> and <style> bodies to.
//
// Minifiers are looked up by name so they can be chosen from configuration:
//
//	js, err := minifier.New(minifier.JavaScript, cfg.Compressor.JSMinifier, logger)
//	if err != nil {
//	    return err
//	}
//	opts.JavaScript = js
//
// The "none" minifier returns a nil compressor.Minifier, which the compressor
// treats as a passthrough.
package minifier

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bimmerbailey/htmlmin/internal/compressor"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
	"go.uber.org/zap"
)

// Kind selects which language a minifier handles.
type Kind int

const (
	JavaScript Kind = iota
	CSS
)

func (k Kind) String() string {
	if k == CSS {
		return "css"
	}
	return "javascript"
}

// Registered minifier names.
const (
	NameTdewolff = "tdewolff"
	NameNone     = "none"
)

// ErrUnknownMinifier is returned by New for a name that is not registered.
var ErrUnknownMinifier = errors.New("unknown minifier")

type factory func(Kind) compressor.Minifier

var registry = map[string]factory{
	NameTdewolff: newTdewolff,
	NameNone:     func(Kind) compressor.Minifier { return nil },
}

// Names lists the registered minifier names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the named minifier for kind. An empty name selects tdewolff.
func New(kind Kind, name string, logger *zap.Logger) (compressor.Minifier, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = NameTdewolff
	}

	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownMinifier, name, strings.Join(Names(), ", "))
	}

	if logger != nil {
		logger.Debug("initialized minifier", zap.Stringer("kind", kind), zap.String("name", name))
	}
	return build(kind), nil
}

// tdewolffMinifier wraps a minify.M with a single media type registered.
type tdewolffMinifier struct {
	m         *minify.M
	mediatype string
}

func newTdewolff(kind Kind) compressor.Minifier {
	m := minify.New()
	t := &tdewolffMinifier{m: m}
	switch kind {
	case CSS:
		t.mediatype = "text/css"
		m.AddFunc(t.mediatype, css.Minify)
	default:
		t.mediatype = "application/javascript"
		m.AddFunc(t.mediatype, js.Minify)
	}
	return t
}

// Minify implements compressor.Minifier.
func (t *tdewolffMinifier) Minify(src string) (string, error) {
	out, err := t.m.String(t.mediatype, src)
	if err != nil {
		return "", fmt.Errorf("minify %s: %w", t.mediatype, err)
	}
	return out, nil
}
