package compressor

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestCompressor(t *testing.T, configure func(*Options)) *Compressor {
	t.Helper()
	opts := DefaultOptions()
	if configure != nil {
		configure(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestCompress(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*Options)
		input     string
		want      string
	}{
		{
			name:  "collapses multiple spaces",
			input: "<p>  Hello   World  </p>",
			want:  "<p> Hello World </p>",
		},
		{
			name:  "removes comments",
			input: "<!-- comment --><p>Text</p>",
			want:  "<p>Text</p>",
		},
		{
			name:  "keeps textarea content",
			input: "<textarea>  keep  this  </textarea>",
			want:  "<textarea>  keep  this  </textarea>",
		},
		{
			name:      "removes input type text",
			configure: func(o *Options) { o.RemoveInputAttributes = true },
			input:     `<input type="text">`,
			want:      "<input>",
		},
		{
			name:      "removes http protocol",
			configure: func(o *Options) { o.RemoveHTTPProtocol = true },
			input:     `<a href="http://example.com">`,
			want:      `<a href="//example.com">`,
		},
		{
			name:      "keeps http protocol on external links",
			configure: func(o *Options) { o.RemoveHTTPProtocol = true },
			input:     `<a href="http://example.com" rel="external">`,
			want:      `<a href="http://example.com" rel="external">`,
		},
		{
			name:      "removes https protocol",
			configure: func(o *Options) { o.RemoveHTTPSProtocol = true },
			input:     `<img src="https://example.com/a.png">`,
			want:      `<img src="//example.com/a.png">`,
		},
		{
			name:  "compresses conditional comment body",
			input: "<!--[if IE]>   <div>   </div>   <![endif]-->",
			want:  "<!--[if IE]><div> </div><![endif]-->",
		},
		{
			name:  "keeps pre content verbatim",
			input: "<div>  <pre>  a   b\n  c </pre>  </div>",
			want:  "<div> <pre>  a   b\n  c </pre> </div>",
		},
		{
			name:  "leaves empty pre alone",
			input: "<pre></pre>",
			want:  "<pre></pre>",
		},
		{
			name:  "skip block markers are dropped",
			input: "<!-- {{{ -->  keep   this <!-- }}} --><p>  x</p>",
			want:  "  keep   this <p> x</p>",
		},
		{
			name:  "unknown script type is kept verbatim",
			input: `<script type="text/template">  <b>  x  </b>  </script>`,
			want:  `<script type="text/template">  <b>  x  </b>  </script>`,
		},
		{
			name:  "jquery templates are minified",
			input: `<script type="text/x-jquery-tmpl">  <b>x</b>  </script>`,
			want:  `<script type="text/x-jquery-tmpl"> <b>x</b> </script>`,
		},
		{
			name:  "javascript body is preserved",
			input: "<script>  var a  =  1;  </script>",
			want:  "<script>  var a  =  1;  </script>",
		},
		{
			name:  "style body is preserved",
			input: "<style>  p  {  color: red  }  </style>",
			want:  "<style>  p  {  color: red  }  </style>",
		},
		{
			name:      "intertag spaces",
			configure: func(o *Options) { o.RemoveIntertagSpaces = true },
			input:     "<div> <p>x</p> <pre> y </pre> </div>",
			want:      "<div><p>x</p><pre> y </pre></div>",
		},
		{
			name:      "intertag spaces next to tokens",
			configure: func(o *Options) { o.RemoveIntertagSpaces = true },
			input:     "<p>  <!-- {{{ -->x<!-- }}} -->  <!-- {{{ -->y<!-- }}} -->  <b>",
			want:      "<p>xy<b>",
		},
		{
			name:      "simple doctype",
			configure: func(o *Options) { o.SimpleDoctype = true },
			input:     `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "x.dtd"><html></html>`,
			want:      "<!DOCTYPE html><html></html>",
		},
		{
			name:      "script attributes",
			configure: func(o *Options) { o.RemoveScriptAttributes = true },
			input:     `<script type="text/javascript" language="javascript">var a;</script>`,
			want:      "<script>var a;</script>",
		},
		{
			name:      "style attributes",
			configure: func(o *Options) { o.RemoveStyleAttributes = true },
			input:     `<style type="text/css">p{}</style>`,
			want:      "<style>p{}</style>",
		},
		{
			name:      "link attributes on stylesheets",
			configure: func(o *Options) { o.RemoveLinkAttributes = true },
			input:     `<link rel="stylesheet" type="text/css" href="a.css">`,
			want:      `<link rel="stylesheet" href="a.css">`,
		},
		{
			name:      "link attributes kept on other links",
			configure: func(o *Options) { o.RemoveLinkAttributes = true },
			input:     `<link rel="alternate" type="text/plain" href="a.txt">`,
			want:      `<link rel="alternate" type="text/plain" href="a.txt">`,
		},
		{
			name:      "form method get",
			configure: func(o *Options) { o.RemoveFormAttributes = true },
			input:     `<form method="get" action="x"></form>`,
			want:      `<form action="x"></form>`,
		},
		{
			name:      "boolean attributes",
			configure: func(o *Options) { o.SimpleBooleanAttributes = true },
			input:     `<option selected="selected">a</option>`,
			want:      "<option selected>a</option>",
		},
		{
			name:      "every boolean attribute in a tag",
			configure: func(o *Options) { o.SimpleBooleanAttributes = true },
			input:     `<input checked="checked" disabled='disabled' readonly=readonly>`,
			want:      "<input checked disabled readonly>",
		},
		{
			name:      "javascript protocol in event handlers",
			configure: func(o *Options) { o.RemoveJavaScriptProtocol = true },
			input:     `<a onclick="javascript:go()">x</a><b onclick='javascript: stop()'>y</b>`,
			want:      `<a onclick="go()">x</a><b onclick='stop()'>y</b>`,
		},
		{
			name:      "remove quotes",
			configure: func(o *Options) { o.RemoveQuotes = true },
			input:     `<div class="a" id='b'>x</div>`,
			want:      "<div class=a id=b>x</div>",
		},
		{
			name:  "space kept before slash after unquoted value",
			input: "<img src=a />",
			want:  "<img src=a />",
		},
		{
			name:  "space dropped before slash",
			input: "<br  />",
			want:  "<br/>",
		},
		{
			name:  "spaces around equals",
			input: `<div  class = "a" >x</div>`,
			want:  `<div class="a">x</div>`,
		},
		{
			name:      "surrounding spaces around all tags",
			configure: func(o *Options) { o.RemoveSurroundingSpaces = SurroundingAll },
			input:     "<div> <p> a </p> </div>",
			want:      "<div><p>a</p></div>",
		},
		{
			name:      "surrounding spaces min preset",
			configure: func(o *Options) { o.RemoveSurroundingSpaces = SurroundingMin },
			input:     "<div> <p> a </p> <span> b </span> </div>",
			want:      "<div><p>a</p><span> b </span> </div>",
		},
		{
			name:      "surrounding spaces custom list",
			configure: func(o *Options) { o.RemoveSurroundingSpaces = "div" },
			input:     "<div> <span> a </span> </div>",
			want:      "<div><span> a </span></div>",
		},
		{
			name:      "preserves line breaks",
			configure: func(o *Options) { o.PreserveLineBreaks = true },
			input:     "<p>a</p>\n\n  <p>b</p>",
			want:      "<p>a</p>\n<p>b</p>",
		},
		{
			name:      "preserve pattern",
			configure: func(o *Options) { o.PreservePatterns = []string{PHPTagPattern} },
			input:     `<div>  <?php  echo "a"; ?>  </div>`,
			want:      `<div> <?php  echo "a"; ?> </div>`,
		},
		{
			name:      "preserve pattern wins over built-in categories",
			configure: func(o *Options) { o.PreservePatterns = []string{`\{\{.*?\}\}`} },
			input:     "{{ <pre> a </pre>   b }}   <pre> c </pre>",
			want:      "{{ <pre> a </pre>   b }} <pre> c </pre>",
		},
		{
			name:      "server side includes",
			configure: func(o *Options) { o.PreservePatterns = []string{ServerSideIncludePattern} },
			input:     `<!--#include file="a.html" -->  <p>x</p>`,
			want:      `<!--#include file="a.html" --> <p>x</p>`,
		},
		{
			name:      "server script tags",
			configure: func(o *Options) { o.PreservePatterns = []string{ServerScriptTagPattern} },
			input:     "<p>  <%=  name  %>  </p>",
			want:      "<p> <%=  name  %> </p>",
		},
		{
			name:      "disabled",
			configure: func(o *Options) { o.Enabled = false },
			input:     "<p>  a  </p>",
			want:      "<p>  a  </p>",
		},
		{
			name:  "non-breaking spaces are content",
			input: "<p>a\u00a0\u00a0b</p>",
			want:  "<p>a\u00a0\u00a0b</p>",
		},
		{
			name:  "pre holding only non-breaking spaces",
			input: "<pre>\u00a0\u00a0</pre>",
			want:  "<pre>\u00a0\u00a0</pre>",
		},
		{
			name:  "non-breaking spaces around the document",
			input: "\u00a0<p>x</p>\u00a0",
			want:  "\u00a0<p>x</p>\u00a0",
		},
		{
			name:      "non-breaking spaces between tags",
			configure: func(o *Options) {
				o.RemoveIntertagSpaces = true
				o.RemoveSurroundingSpaces = SurroundingAll
			},
			input:     "<td>\u00a0</td> <td> x </td>",
			want:      "<td>\u00a0</td><td>x</td>",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCompressor(t, tt.configure)
			got, err := c.Compress(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompressNeverLeaksTokens(t *testing.T) {
	docs := []string{
		"<!--[if IE]>  <pre> a </pre>  <script> x </script>  <![endif]-->",
		`<script type="text/template"><!-- {{{ --> a <!-- }}} --><pre> b </pre><a onclick="c">d</a></script>`,
		"<!-- {{{ --><pre> a </pre><!-- }}} -->  <textarea> b </textarea>\n\n<p>c</p>",
		`<div onclick='a()' onblur="b()"><style> p {} </style></div>`,
		"<pre>\n\n</pre>\n  \n<script></script>",
		"<!--[if lt IE 9]><!--[if IE]> x <![endif]--> y <![endif]-->",
	}

	c := newTestCompressor(t, func(o *Options) {
		o.RemoveIntertagSpaces = true
		o.RemoveQuotes = true
		o.PreserveLineBreaks = true
		o.RemoveSurroundingSpaces = SurroundingAll
		o.RemoveJavaScriptProtocol = true
		o.PreservePatterns = []string{PHPTagPattern, `\{\{.*?\}\}`}
	})

	for _, doc := range docs {
		got, err := c.Compress(doc)
		require.NoError(t, err)
		assert.NotContains(t, got, tokenOpen+tokenMark, "input %q", doc)
	}
}

func TestCompressSkipInsideScriptTemplate(t *testing.T) {
	c := newTestCompressor(t, nil)

	input := `<script type="text/template"><pre>  a  </pre>   b</script>`
	got, err := c.Compress(input)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestCompressIsDeterministic(t *testing.T) {
	c := newTestCompressor(t, func(o *Options) {
		o.RemoveIntertagSpaces = true
		o.PreservePatterns = []string{PHPTagPattern}
	})

	input := "<html>  <?php a ?> <pre> b </pre>  <!--[if IE]> <p> c </p> <![endif]--> </html>"
	first, err := c.Compress(input)
	require.NoError(t, err)
	second, err := c.Compress(input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompressJavaScriptHook(t *testing.T) {
	minify := MinifierFunc(func(src string) (string, error) {
		return "MIN(" + strings.TrimSpace(src) + ")", nil
	})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain body",
			input: "<script>  var a = 1;  </script>",
			want:  "<script>MIN(var a = 1;)</script>",
		},
		{
			name:  "commented cdata",
			input: "<script>/*<![CDATA[*/ var a; /*]]>*/</script>",
			want:  "<script>/*<![CDATA[*/MIN(var a;)/*]]>*/</script>",
		},
		{
			name:  "bare cdata",
			input: "<script>\n<![CDATA[ var a; ]]>\n</script>",
			want:  "<script><![CDATA[MIN(var a;)]]></script>",
		},
		{
			name:  "non javascript type is not minified",
			input: `<script type="text/html"> <b> </b> </script>`,
			want:  `<script type="text/html"> <b> </b> </script>`,
		},
	}

	c := newTestCompressor(t, func(o *Options) {
		o.CompressJavaScript = true
		o.JavaScript = minify
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Compress(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompressCSSHook(t *testing.T) {
	c := newTestCompressor(t, func(o *Options) {
		o.CompressCSS = true
		o.CSS = MinifierFunc(func(src string) (string, error) {
			return strings.Join(strings.Fields(src), ""), nil
		})
	})

	got, err := c.Compress("<style>  p { color: red }  </style>")
	require.NoError(t, err)
	assert.Equal(t, "<style>p{color:red}</style>", got)
}

func TestCompressHookNeedsFlag(t *testing.T) {
	c := newTestCompressor(t, func(o *Options) {
		o.JavaScript = MinifierFunc(func(string) (string, error) { return "x", nil })
	})

	got, err := c.Compress("<script> a </script>")
	require.NoError(t, err)
	assert.Equal(t, "<script> a </script>", got)
}

func TestCompressMinifierFailureKeepsBlock(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := newTestCompressor(t, func(o *Options) {
		o.CompressJavaScript = true
		o.GenerateStatistics = true
		o.Logger = zap.New(core)
		o.JavaScript = MinifierFunc(func(string) (string, error) {
			return "", errors.New("unexpected token")
		})
	})

	got, stats, err := c.CompressWithStats("<script> var = ; </script>")
	require.NoError(t, err)
	assert.Equal(t, "<script> var = ; </script>", got)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.MinifyFailures)
	assert.Equal(t, 1, logs.FilterMessage("minifier failed, keeping block unchanged").Len())
}

func TestCompressTokenMismatch(t *testing.T) {
	input := "<p>%%%~HM0~PRE~5~%%%</p>"

	t.Run("literal by default", func(t *testing.T) {
		c := newTestCompressor(t, nil)
		got, err := c.Compress(input)
		require.NoError(t, err)
		assert.Equal(t, input, got)
	})

	t.Run("error when strict", func(t *testing.T) {
		c := newTestCompressor(t, func(o *Options) { o.StrictTokens = true })
		_, err := c.Compress(input)
		assert.ErrorIs(t, err, ErrTokenMismatch)
	})

	t.Run("strict passes ordinary documents", func(t *testing.T) {
		c := newTestCompressor(t, func(o *Options) { o.StrictTokens = true })
		got, err := c.Compress("<!--[if IE]> <pre> a </pre> <![endif]--> <pre> b </pre>")
		require.NoError(t, err)
		assert.Equal(t, "<!--[if IE]><pre> a </pre><![endif]--> <pre> b </pre>", got)
	})
}

func TestCompressMaxDepth(t *testing.T) {
	c := newTestCompressor(t, func(o *Options) { o.MaxDepth = 2 })

	_, err := c.compressAt("<p> a </p>", 3, nil)
	assert.ErrorIs(t, err, ErrMaxDepth)

	got, err := c.compressAt("<p>  a </p>", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p> a </p>", got)
}

func TestNewInvalidPattern(t *testing.T) {
	_, err := New(Options{Enabled: true, PreservePatterns: []string{`\{\{`, `(unclosed`}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), "pattern 1")
}

func TestCompressMatchTimeout(t *testing.T) {
	c := newTestCompressor(t, func(o *Options) {
		o.MatchTimeout = 10 * time.Millisecond
		o.PreservePatterns = []string{`(a+)+$`}
	})

	_, err := c.Compress(strings.Repeat("a", 40) + "!")
	assert.ErrorIs(t, err, ErrMatchTimeout)
	assert.NotContains(t, err.Error(), "aaaa")
}

func TestCompressWithStats(t *testing.T) {
	c := newTestCompressor(t, func(o *Options) { o.GenerateStatistics = true })

	input := `<p>  a  </p><pre> x </pre><script> y </script><a onclick="z()">b</a>`
	got, stats, err := c.CompressWithStats(input)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, len(input), stats.Original.Filesize)
	assert.Equal(t, len(got), stats.Compressed.Filesize)
	assert.Equal(t, 3, stats.Original.InlineScriptSize)
	assert.Equal(t, 3, stats.Original.InlineEventSize)
	assert.Equal(t, 1, stats.Categories[CategoryPre].Blocks)
	assert.Equal(t, 1, stats.Categories[CategoryScript].Blocks)
	assert.Equal(t, 1, stats.Categories[CategoryEvent].Blocks)
	assert.Equal(t, 3, stats.PreservedSize)
	assert.Equal(t, len(input)-len(got), stats.Savings())
	assert.Less(t, stats.Ratio(), 1.0)
	assert.Contains(t, stats.String(), "pre=1")
}

func TestCompressWithStatsDisabled(t *testing.T) {
	c := newTestCompressor(t, nil)

	got, stats, err := c.CompressWithStats("<p>  a  </p>")
	require.NoError(t, err)
	assert.Equal(t, "<p> a </p>", got)
	assert.Nil(t, stats)
}

func TestCompressConcurrentStats(t *testing.T) {
	c := newTestCompressor(t, func(o *Options) { o.GenerateStatistics = true })
	input := "<div>  <pre> a </pre>  <textarea> b </textarea>  </div>"

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, stats, err := c.CompressWithStats(input)
				if assert.NoError(t, err) {
					assert.Equal(t, 1, stats.Categories[CategoryPre].Blocks)
					assert.Equal(t, 1, stats.Categories[CategoryTextArea].Blocks)
				}
			}
		}()
	}
	wg.Wait()
}

func TestOptionsCopy(t *testing.T) {
	c := newTestCompressor(t, func(o *Options) { o.PreservePatterns = []string{PHPTagPattern} })

	opts := c.Options()
	opts.PreservePatterns[0] = "changed"
	assert.Equal(t, PHPTagPattern, c.Options().PreservePatterns[0])
	assert.Equal(t, DefaultMaxDepth, opts.MaxDepth)
}

func TestNewXML(t *testing.T) {
	c, err := NewXML(DefaultXMLOptions())
	require.NoError(t, err)

	got, err := c.Compress("<root>  <!-- c -->  <a><![CDATA[  x  <b> ]]></a>  </root>\n")
	require.NoError(t, err)
	assert.Equal(t, "<root><a><![CDATA[  x  <b> ]]></a></root>", got)
}

func TestNewXMLKeepsComments(t *testing.T) {
	opts := DefaultXMLOptions()
	opts.RemoveComments = false
	c, err := NewXML(opts)
	require.NoError(t, err)

	got, err := c.Compress("<a> <!-- keep --> </a>")
	require.NoError(t, err)
	assert.Equal(t, "<a><!-- keep --></a>", got)
}
