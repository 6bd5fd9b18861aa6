package compressor

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Compressor minifies documents with a fixed configuration. It holds no
// per-call state and is safe for concurrent use.
type Compressor struct {
	opts       Options
	patterns   *patternSet
	extractors []extractor
	rules      []rewrite
	keys       []storeKey
	keyByTag   map[string]storeKey
	log        *zap.Logger
}

// New compiles every matcher for opts and returns a ready Compressor.
// An invalid preserve pattern is reported as ErrInvalidPattern.
func New(opts Options) (*Compressor, error) {
	c, err := newCompressor(opts)
	if err != nil {
		return nil, err
	}
	c.extractors, c.keys = htmlExtractors(c.patterns, c.opts.PreserveLineBreaks)
	c.rules = htmlRewrites
	c.index()
	return c, nil
}

func newCompressor(opts Options) (*Compressor, error) {
	opts = opts.normalize()
	p, err := newPatternSet(opts.MatchTimeout, opts.RemoveSurroundingSpaces, opts.PreservePatterns)
	if err != nil {
		return nil, err
	}
	return &Compressor{
		opts:     opts,
		patterns: p,
		log:      opts.Logger.Named("compressor"),
	}, nil
}

func (c *Compressor) index() {
	c.keyByTag = make(map[string]storeKey, len(c.keys))
	for _, k := range c.keys {
		c.keyByTag[k.tag()] = k
	}
}

// Options returns a copy of the configuration the Compressor was built with.
func (c *Compressor) Options() Options {
	o := c.opts
	o.PreservePatterns = append([]string(nil), c.opts.PreservePatterns...)
	return o
}

// Compress minifies doc. Empty input, or a disabled Compressor, returns doc
// unchanged.
func (c *Compressor) Compress(doc string) (string, error) {
	if !c.opts.Enabled || doc == "" {
		return doc, nil
	}
	return c.compressAt(doc, 0, nil)
}

// CompressWithStats is Compress plus statistics for the call. The statistics
// are nil unless Options.GenerateStatistics is set and compression ran.
func (c *Compressor) CompressWithStats(doc string) (string, *Statistics, error) {
	if !c.opts.Enabled || doc == "" || !c.opts.GenerateStatistics {
		out, err := c.Compress(doc)
		return out, nil, err
	}

	start := time.Now()
	stats := newStatistics()

	var err error
	if stats.Original, err = measure(c.patterns, doc); err != nil {
		return "", nil, err
	}

	out, err := c.compressAt(doc, 0, stats)
	if err != nil {
		return "", nil, err
	}

	if stats.Compressed, err = measure(c.patterns, out); err != nil {
		return "", nil, err
	}
	stats.finish(time.Since(start))
	return out, stats, nil
}

// compressAt runs the full pipeline at the given nesting depth.
func (c *Compressor) compressAt(doc string, depth int, stats *Statistics) (string, error) {
	if depth > c.opts.MaxDepth {
		return "", fmt.Errorf("%w: depth %d exceeds %d", ErrMaxDepth, depth, c.opts.MaxDepth)
	}

	r := &run{
		c:        c,
		opts:     &c.opts,
		p:        c.patterns,
		depth:    depth,
		blocks:   make(blockStore),
		keyByTag: c.keyByTag,
		stats:    stats,
		log:      c.log,
	}
	return r.execute(doc)
}

// run is the state of one pipeline pass. Nested conditional comments get a
// run of their own one level deeper.
type run struct {
	c        *Compressor
	opts     *Options
	p        *patternSet
	depth    int
	blocks   blockStore
	keyByTag map[string]storeKey
	stats    *Statistics
	log      *zap.Logger
}

func (r *run) execute(doc string) (string, error) {
	var err error
	for _, x := range r.c.extractors {
		if doc, err = r.extract(doc, x); err != nil {
			return "", err
		}
	}

	if ce := r.log.Check(zap.DebugLevel, "extracted protected regions"); ce != nil {
		ce.Write(zap.Int("depth", r.depth), zap.Int("blocks", r.blocks.count()))
	}

	if doc, err = r.minify(doc, r.c.rules); err != nil {
		return "", err
	}
	if err = r.processBlocks(); err != nil {
		return "", err
	}
	return r.restore(doc, r.c.keys)
}
