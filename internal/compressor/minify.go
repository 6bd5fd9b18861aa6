package compressor

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// rewrite is one residual-text rule. Rules only ever see token-bearing
// residual text and never each other's state.
type rewrite struct {
	name    string
	enabled func(o *Options) bool
	apply   func(p *patternSet, s string) (string, error)
}

func always(*Options) bool { return true }

// htmlRewrites lists the residual rules in the order they run.
var htmlRewrites = []rewrite{
	{"remove comments", func(o *Options) bool { return o.RemoveComments }, removeComments},
	{"simple doctype", func(o *Options) bool { return o.SimpleDoctype }, simpleDoctype},
	{"remove script attributes", func(o *Options) bool { return o.RemoveScriptAttributes }, removeScriptAttributes},
	{"remove style attributes", func(o *Options) bool { return o.RemoveStyleAttributes }, removeStyleAttributes},
	{"remove link attributes", func(o *Options) bool { return o.RemoveLinkAttributes }, removeLinkAttributes},
	{"remove form attributes", func(o *Options) bool { return o.RemoveFormAttributes }, removeFormAttributes},
	{"remove input attributes", func(o *Options) bool { return o.RemoveInputAttributes }, removeInputAttributes},
	{"simple boolean attributes", func(o *Options) bool { return o.SimpleBooleanAttributes }, simpleBooleanAttributes},
	{"remove http protocol", func(o *Options) bool { return o.RemoveHTTPProtocol }, removeHTTPProtocol},
	{"remove https protocol", func(o *Options) bool { return o.RemoveHTTPSProtocol }, removeHTTPSProtocol},
	{"remove intertag spaces", func(o *Options) bool { return o.RemoveIntertagSpaces }, removeIntertagSpaces},
	{"remove multi spaces", func(o *Options) bool { return o.RemoveMultiSpaces }, removeMultiSpaces},
	{"remove spaces inside tags", always, removeSpacesInsideTags},
	{"remove quotes", func(o *Options) bool { return o.RemoveQuotes }, removeQuotes},
	{"remove surrounding spaces", func(o *Options) bool { return o.RemoveSurroundingSpaces != "" }, removeSurroundingSpaces},
}

// xmlRewrites lists the residual rules used in XML mode.
var xmlRewrites = []rewrite{
	{"remove comments", func(o *Options) bool { return o.RemoveComments }, removeXMLComments},
	{"remove intertag spaces", func(o *Options) bool { return o.RemoveIntertagSpaces }, removeIntertagSpaces},
}

// minify applies every enabled rule in order and trims the result.
func (r *run) minify(doc string, rules []rewrite) (string, error) {
	for _, rule := range rules {
		if !rule.enabled(r.opts) {
			continue
		}
		out, err := rule.apply(r.p, doc)
		if err != nil {
			return "", wrapMatchErr(rule.name, err)
		}
		doc = out
	}
	return strings.Trim(doc, htmlSpace), nil
}

// trap records the first error raised by a matcher used inside a
// replacement callback, which cannot return one itself.
type trap struct {
	err error
}

func (t *trap) match(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	if err != nil && t.err == nil {
		t.err = err
	}
	return ok
}

func (t *trap) result(s string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if t.err != nil {
		return "", t.err
	}
	return s, nil
}

func group(m *regexp2.Match, n int) string {
	if g := m.GroupByNumber(n); g != nil {
		return g.String()
	}
	return ""
}

func removeComments(p *patternSet, s string) (string, error) {
	return p.comment.Replace(s, "", -1, -1)
}

func removeXMLComments(p *patternSet, s string) (string, error) {
	return p.xmlComment.Replace(s, "", -1, -1)
}

func simpleDoctype(p *patternSet, s string) (string, error) {
	return p.doctype.Replace(s, "<!DOCTYPE html>", -1, -1)
}

func removeScriptAttributes(p *patternSet, s string) (string, error) {
	s, err := p.jsTypeAttr.Replace(s, "$1$3", -1, -1)
	if err != nil {
		return "", err
	}
	return p.jsLangAttr.Replace(s, "$1$3", -1, -1)
}

func removeStyleAttributes(p *patternSet, s string) (string, error) {
	return p.styleTypeAttr.Replace(s, "$1$3", -1, -1)
}

// removeLinkAttributes drops type="text/css" only from stylesheet links.
func removeLinkAttributes(p *patternSet, s string) (string, error) {
	var t trap
	out, err := p.linkTypeAttr.ReplaceFunc(s, func(m regexp2.Match) string {
		if t.match(p.linkRelAttr, m.String()) {
			return group(&m, 1) + group(&m, 3)
		}
		return m.String()
	}, -1, -1)
	return t.result(out, err)
}

func removeFormAttributes(p *patternSet, s string) (string, error) {
	return p.formMethodAttr.Replace(s, "$1$3", -1, -1)
}

func removeInputAttributes(p *patternSet, s string) (string, error) {
	return p.inputTypeAttr.Replace(s, "$1$3", -1, -1)
}

// simpleBooleanAttributes rewrites one attribute per tag on each pass, so it
// repeats until nothing changes. Every rewrite shortens the document.
func simpleBooleanAttributes(p *patternSet, s string) (string, error) {
	for {
		out, err := p.booleanAttr.Replace(s, "$1$2$4", -1, -1)
		if err != nil || out == s {
			return out, err
		}
		s = out
	}
}

func removeHTTPProtocol(p *patternSet, s string) (string, error) {
	return stripProtocol(p, p.httpProtocol, s)
}

func removeHTTPSProtocol(p *patternSet, s string) (string, error) {
	return stripProtocol(p, p.httpsProtocol, s)
}

// stripProtocol turns scheme-qualified URLs into protocol-relative ones
// unless the tag carries rel="external".
func stripProtocol(p *patternSet, re *regexp2.Regexp, s string) (string, error) {
	var t trap
	out, err := re.ReplaceFunc(s, func(m regexp2.Match) string {
		if t.match(p.relExternal, m.String()) {
			return m.String()
		}
		return group(&m, 1) + group(&m, 2)
	}, -1, -1)
	return t.result(out, err)
}

func removeIntertagSpaces(p *patternSet, s string) (string, error) {
	steps := []struct {
		re   *regexp2.Regexp
		with string
	}{
		{p.intertagTagTag, "><"},
		{p.intertagTagToken, ">" + tokenOpen},
		{p.intertagTokenTag, tokenClose + "<"},
		{p.intertagTokenToken, tokenClose + tokenOpen},
	}
	for _, step := range steps {
		var err error
		if s, err = step.re.Replace(s, step.with, -1, -1); err != nil {
			return "", err
		}
	}
	return s, nil
}

func removeMultiSpaces(p *patternSet, s string) (string, error) {
	return p.multiSpace.Replace(s, " ", -1, -1)
}

// removeSpacesInsideTags tightens "a = b" to "a=b" and drops whitespace
// before the closing bracket. One space survives before "/>" when the last
// attribute value is unquoted, so the slash is not read as part of it.
func removeSpacesInsideTags(p *patternSet, s string) (string, error) {
	s, err := p.tagProperty.Replace(s, "$1=", -1, -1)
	if err != nil {
		return "", err
	}

	var t trap
	out, err := p.tagEndSpace.ReplaceFunc(s, func(m regexp2.Match) string {
		head, slash := group(&m, 1), group(&m, 2)
		if strings.HasPrefix(slash, "/") && t.match(p.tagLastUnquotedValue, head) {
			return head + " " + slash + ">"
		}
		return head + slash + ">"
	}, -1, -1)
	return t.result(out, err)
}

func removeQuotes(p *patternSet, s string) (string, error) {
	return p.tagQuote.ReplaceFunc(s, func(m regexp2.Match) string {
		value, tail := group(&m, 2), group(&m, 3)
		if isBlank(tail) {
			return "=" + value
		}
		return "=" + value + " " + tail
	}, -1, -1)
}

func removeSurroundingSpaces(p *patternSet, s string) (string, error) {
	if p.surrounding == nil {
		return s, nil
	}
	return p.surrounding.Replace(s, "$1", -1, -1)
}
