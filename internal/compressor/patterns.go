package compressor

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// markup is the option set used for every markup pattern: case-insensitive
// and with "." crossing line boundaries.
const markup = regexp2.IgnoreCase | regexp2.Singleline

// HTML whitespace is ASCII only. regexp2's \s and strings.TrimSpace also
// match U+00A0 and other Unicode spaces, which are content.
const (
	htmlSpace = " \t\n\r\f\v"
	sp        = `[ \t\n\r\f\v]`
)

// isBlank reports whether s holds nothing but HTML whitespace.
func isBlank(s string) bool {
	return strings.Trim(s, htmlSpace) == ""
}

// Predefined preserve patterns for server-side template languages. They carry
// their own inline flags and can be appended to Options.PreservePatterns.
const (
	// PHPTagPattern matches <?php ... ?> and short <? ... ?> blocks.
	PHPTagPattern = `(?is)<\?(?:php)?.*?\?>`

	// ServerScriptTagPattern matches <% ... %> blocks (ASP, JSP, ERB).
	ServerScriptTagPattern = `(?s)<%.*?%>`

	// ServerSideIncludePattern matches <!--# ... --> directives.
	ServerSideIncludePattern = `(?s)<!--` + sp + `*#.*?-->`
)

// Extraction patterns.
const (
	exprSkip        = `<!--` + sp + `*\{\{\{` + sp + `*-->(.*?)<!--` + sp + `*\}\}\}` + sp + `*-->`
	exprConditional = `(<!(?:--)?\[[^\]]+?]>)(.*?)(<!\[[^\]]+]-->)`
	exprEventDouble = `(` + sp + `on[a-z]+` + sp + `*=` + sp + `*")([^"\\\r\n]*(?:\\.[^"\\\r\n]*)*)(")`
	exprEventSingle = `(` + sp + `on[a-z]+` + sp + `*=` + sp + `*')([^'\\\r\n]*(?:\\.[^'\\\r\n]*)*)(')`
	exprPre         = `(<pre[^>]*?>)(.*?)(</pre>)`
	exprTextArea    = `(<textarea[^>]*?>)(.*?)(</textarea>)`
	exprScript      = `(<script[^>]*?>)(.*?)(</script>)`
	exprStyle       = `(<style[^>]*?>)(.*?)(</style>)`
	exprLineBreak   = `(?:[ \t]*(\r?\n)[ \t]*)+`
	exprTypeAttr    = `type` + sp + `*=` + sp + `*(["']*)(.+?)\1`
	exprXMLCDATA    = `<!\[CDATA\[.*?\]\]>`
)

// Residual rewrite patterns.
const (
	exprComment              = `<!---->|<!--[^\[].*?-->`
	exprXMLComment           = `<!--.*?-->`
	exprDoctype              = `<!DOCTYPE[^>]*>`
	exprJSTypeAttr           = `(<script[^>]*)type` + sp + `*=` + sp + `*(["']*)(?:text|application)/javascript\2([^>]*>)`
	exprJSLangAttr           = `(<script[^>]*)language` + sp + `*=` + sp + `*(["']*)javascript\2([^>]*>)`
	exprStyleTypeAttr        = `(<style[^>]*)type` + sp + `*=` + sp + `*(["']*)text/css\2([^>]*>)`
	exprLinkTypeAttr         = `(<link[^>]*)type` + sp + `*=` + sp + `*(["']*)text/(?:css|plain)\2([^>]*>)`
	exprLinkRelAttr          = `<link(?:[^>]*)rel` + sp + `*=` + sp + `*(["']*)(?:alternate` + sp + `+)?stylesheet\1(?:[^>]*)>`
	exprFormMethodAttr       = `(<form[^>]*)method` + sp + `*=` + sp + `*(["']*)get\2([^>]*>)`
	exprInputTypeAttr        = `(<input[^>]*)type` + sp + `*=` + sp + `*(["']*)text\2([^>]*>)`
	exprBooleanAttr          = `(<\w+[^>]*)(checked|selected|disabled|readonly)` + sp + `*=` + sp + `*(["']*)\w*\3([^>]*>)`
	exprHTTPProtocol         = `(<[^>]+?(?:href|src|cite|action)` + sp + `*=` + sp + `*['"])http:(//[^>]+?>)`
	exprHTTPSProtocol        = `(<[^>]+?(?:href|src|cite|action)` + sp + `*=` + sp + `*['"])https:(//[^>]+?>)`
	exprRelExternal          = `<[^>]*?rel` + sp + `*=` + sp + `*(["']*)(?:alternate` + sp + `+)?external\1[^>]*>`
	exprTagProperty          = `(` + sp + `\w+)` + sp + `*=` + sp + `*(?=[^<]*?>)`
	exprTagEndSpace          = `(<(?:[^>]+?))(?:` + sp + `+?)(/?)>`
	exprTagLastUnquotedValue = `=` + sp + `*[a-z0-9_-]+$`
	exprTagQuote             = sp + `*=` + sp + `*(["'])([a-z0-9_-]+?)\1(/?)(?=[^<]*?>)`
	exprMultiSpace           = sp + `+`
	exprIntertag             = `>` + sp + `+<`
	exprSurroundingAll       = sp + `*(<[^>]+>)` + sp + `*`
)

// Preserved-block post-processing patterns. Both CDATA forms must cover the
// whole block.
const (
	exprEventJSProtocol = `\Ajavascript:` + sp + `*(.+)\z`
	exprScriptCDATA     = `\A/\*` + sp + `*<!\[CDATA\[\*/(.*?)/\*\]\]>` + sp + `*\*/\z`
	exprCDATA           = `\A` + sp + `*<!\[CDATA\[(.*?)\]\]>` + sp + `*\z`
)

// Tag lists accepted by Options.RemoveSurroundingSpaces.
const (
	SurroundingMin = "min"
	SurroundingMax = "max"
	SurroundingAll = "all"

	blockTagsMin = "html,head,body,br,p"
	blockTagsMax = blockTagsMin + ",h1,h2,h3,h4,h5,h6,blockquote,center,dl,fieldset,form,frame,frameset,hr,noframes,ol,table,tbody,tr,td,th,tfoot,thead,ul"
)

// patternSet holds every compiled matcher used by one compressor. Compiled
// per compressor because regexp2 carries the match timeout on the Regexp.
type patternSet struct {
	skip, conditional, eventDouble, eventSingle     *regexp2.Regexp
	pre, textArea, script, style, lineBreak         *regexp2.Regexp
	typeAttr, xmlCDATA                              *regexp2.Regexp
	comment, xmlComment, doctype                    *regexp2.Regexp
	jsTypeAttr, jsLangAttr, styleTypeAttr           *regexp2.Regexp
	linkTypeAttr, linkRelAttr                       *regexp2.Regexp
	formMethodAttr, inputTypeAttr, booleanAttr      *regexp2.Regexp
	httpProtocol, httpsProtocol, relExternal        *regexp2.Regexp
	tagProperty, tagEndSpace, tagLastUnquotedValue  *regexp2.Regexp
	tagQuote, multiSpace                            *regexp2.Regexp
	intertagTagTag, intertagTagToken                *regexp2.Regexp
	intertagTokenTag, intertagTokenToken            *regexp2.Regexp
	eventJSProtocol, scriptCDATA, cdata             *regexp2.Regexp
	token                                           *regexp2.Regexp
	surrounding                                     *regexp2.Regexp // nil when disabled
	user                                            []*regexp2.Regexp
}

func compile(expr string, opt regexp2.RegexOptions, timeout time.Duration) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, opt)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	return re, nil
}

func newPatternSet(timeout time.Duration, surrounding string, preserve []string) (*patternSet, error) {
	p := &patternSet{}

	open := regexp2.Escape(tokenOpen)
	closing := regexp2.Escape(tokenClose)

	table := []struct {
		dst  **regexp2.Regexp
		expr string
		opt  regexp2.RegexOptions
	}{
		{&p.skip, exprSkip, markup},
		{&p.conditional, exprConditional, markup},
		{&p.eventDouble, exprEventDouble, markup},
		{&p.eventSingle, exprEventSingle, markup},
		{&p.pre, exprPre, markup},
		{&p.textArea, exprTextArea, markup},
		{&p.script, exprScript, markup},
		{&p.style, exprStyle, markup},
		{&p.lineBreak, exprLineBreak, regexp2.None},
		{&p.typeAttr, exprTypeAttr, markup},
		{&p.xmlCDATA, exprXMLCDATA, regexp2.Singleline},
		{&p.comment, exprComment, markup},
		{&p.xmlComment, exprXMLComment, regexp2.Singleline},
		{&p.doctype, exprDoctype, markup},
		{&p.jsTypeAttr, exprJSTypeAttr, markup},
		{&p.jsLangAttr, exprJSLangAttr, markup},
		{&p.styleTypeAttr, exprStyleTypeAttr, markup},
		{&p.linkTypeAttr, exprLinkTypeAttr, markup},
		{&p.linkRelAttr, exprLinkRelAttr, markup},
		{&p.formMethodAttr, exprFormMethodAttr, markup},
		{&p.inputTypeAttr, exprInputTypeAttr, markup},
		{&p.booleanAttr, exprBooleanAttr, markup},
		{&p.httpProtocol, exprHTTPProtocol, markup},
		{&p.httpsProtocol, exprHTTPSProtocol, markup},
		{&p.relExternal, exprRelExternal, markup},
		{&p.tagProperty, exprTagProperty, markup},
		{&p.tagEndSpace, exprTagEndSpace, markup},
		{&p.tagLastUnquotedValue, exprTagLastUnquotedValue, markup},
		{&p.tagQuote, exprTagQuote, markup},
		{&p.multiSpace, exprMultiSpace, regexp2.None},
		{&p.intertagTagTag, exprIntertag, markup},
		{&p.intertagTagToken, `>` + sp + `+` + open, markup},
		{&p.intertagTokenTag, closing + sp + `+<`, markup},
		{&p.intertagTokenToken, closing + sp + `+` + open, markup},
		{&p.eventJSProtocol, exprEventJSProtocol, markup},
		{&p.scriptCDATA, exprScriptCDATA, markup},
		{&p.cdata, exprCDATA, markup},
		{&p.token, tokenExpr, regexp2.None},
	}

	for _, e := range table {
		re, err := compile(e.expr, e.opt, timeout)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", e.expr, err)
		}
		*e.dst = re
	}

	if expr := surroundingExpr(surrounding); expr != "" {
		re, err := compile(expr, markup, timeout)
		if err != nil {
			return nil, fmt.Errorf("compile surrounding spaces pattern: %w", err)
		}
		p.surrounding = re
	}

	for i, expr := range preserve {
		re, err := compile(expr, regexp2.None, timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %d %q: %v", ErrInvalidPattern, i, expr, err)
		}
		p.user = append(p.user, re)
	}

	return p, nil
}

// surroundingExpr builds the matcher source for RemoveSurroundingSpaces.
// Presets are case-insensitive; anything else is a comma-separated tag list.
func surroundingExpr(tags string) string {
	tags = strings.TrimSpace(tags)
	switch strings.ToLower(tags) {
	case "":
		return ""
	case SurroundingAll:
		return exprSurroundingAll
	case SurroundingMin:
		tags = blockTagsMin
	case SurroundingMax:
		tags = blockTagsMax
	}

	names := SplitTags(tags)
	if len(names) == 0 {
		return ""
	}
	for i, name := range names {
		names[i] = regexp2.Escape(name)
	}
	return sp + `*(</?(?:` + strings.Join(names, "|") + `)(?:>|[ \t\n\r\f\v/][^>]*>))` + sp + `*`
}

// SplitTags splits a comma-separated tag list, trimming blanks and dropping
// empty entries.
func SplitTags(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ExpandSurrounding resolves a RemoveSurroundingSpaces preset to its tag list.
// "all" and custom lists are returned unchanged.
func ExpandSurrounding(tags string) string {
	switch strings.ToLower(strings.TrimSpace(tags)) {
	case SurroundingMin:
		return blockTagsMin
	case SurroundingMax:
		return blockTagsMax
	}
	return tags
}
