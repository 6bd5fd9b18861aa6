package compressor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPatterns(t *testing.T) *patternSet {
	t.Helper()
	p, err := newPatternSet(0, "", nil)
	require.NoError(t, err)
	return p
}

func TestToken(t *testing.T) {
	tests := []struct {
		name    string
		depth   int
		key     storeKey
		ordinal int
		want    string
	}{
		{"pre block", 0, preKey, 3, "%%%~HM0~PRE~3~%%%"},
		{"user pattern", 1, userKey(2), 0, "%%%~HM1~USER2~0~%%%"},
		{"line break", 0, lineBreakKey, 12, "%%%~HM0~LB~12~%%%"},
	}

	p := newTestPatterns(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := token(tt.depth, tt.key, tt.ordinal)
			assert.Equal(t, tt.want, got)

			m, err := p.token.FindStringMatch("<p>" + got + "</p>")
			require.NoError(t, err)
			require.NotNil(t, m)

			ref, ok := parseToken(m)
			require.True(t, ok)
			assert.Equal(t, tokenRef{depth: tt.depth, tag: tt.key.tag(), ordinal: tt.ordinal}, ref)
		})
	}
}

func TestCategoryTagsAreDistinct(t *testing.T) {
	seen := make(map[string]Category)
	for c, tag := range categoryTags {
		other, dup := seen[tag]
		assert.False(t, dup, "%s and %s share tag %s", c, other, tag)
		seen[tag] = c
	}
	assert.Len(t, categoryTags, len(categoryNames))
}

func TestParseCategory(t *testing.T) {
	for c := CategoryUser; c <= CategoryCDATA; c++ {
		got, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCategory("bogus")
	assert.Error(t, err)

	text, err := CategoryTextArea.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "textarea", string(text))
}

func TestExtractAcceptance(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		blocks int
	}{
		{"empty pre", "<pre></pre>", 0},
		{"blank pre", "<pre> \n\t </pre>", 0},
		{"pre with content", "<pre> a </pre>", 1},
		{"two pre blocks", "<pre>a</pre><pre></pre><pre>b</pre>", 2},
	}

	c := newTestCompressor(t, nil)
	pre := extractor{name: "pre blocks", re: c.patterns.pre, shape: shapeInner, classify: keepGroup(preKey, 2)}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &run{c: c, opts: &c.opts, p: c.patterns, blocks: make(blockStore), keyByTag: c.keyByTag, log: c.log}
			got, err := r.extract(tt.input, pre)
			require.NoError(t, err)
			assert.Len(t, r.blocks[preKey], tt.blocks)
			if tt.blocks == 0 {
				assert.Equal(t, tt.input, got)
			}
		})
	}
}

func TestExtractOrdinalsFollowScanOrder(t *testing.T) {
	c := newTestCompressor(t, nil)
	r := &run{c: c, opts: &c.opts, p: c.patterns, blocks: make(blockStore), keyByTag: c.keyByTag, log: c.log}

	doc := `<a onclick='one()' onblur="two()" onfocus='three()'>`
	for _, x := range c.extractors {
		var err error
		doc, err = r.extract(doc, x)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"two()", "one()", "three()"}, r.blocks[eventKey])
	assert.Contains(t, doc, `onblur="`+token(0, eventKey, 0)+`"`)
	assert.Contains(t, doc, `onclick='`+token(0, eventKey, 1)+`'`)
}

func TestLineBreakKeepsFirstNewline(t *testing.T) {
	c := newTestCompressor(t, func(o *Options) { o.PreserveLineBreaks = true })

	got, err := c.Compress("<p>a</p> \r\n\n\t<p>b</p>")
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>\r\n<p>b</p>", got)
}
