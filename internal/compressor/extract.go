package compressor

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// shape says which part of a match a token replaces.
type shape int

const (
	// shapeWhole replaces the entire match.
	shapeWhole shape = iota
	// shapeInner keeps groups 1 and 3 (the surrounding tags) in the residual
	// text and replaces group 2.
	shapeInner
)

// block is a protected region accepted by a classifier.
type block struct {
	key     storeKey
	raw     string // matched source, for statistics
	content string // what restoration puts back
}

// classifier decides whether a match is protected, and where it is stored.
// Returning false leaves the match in place without consuming an ordinal.
type classifier func(r *run, m *regexp2.Match) (block, bool, error)

// extractor is one row of the extraction table.
type extractor struct {
	name     string
	re       *regexp2.Regexp
	shape    shape
	classify classifier
}

var (
	skipKey      = storeKey{cat: CategorySkip}
	condKey      = storeKey{cat: CategoryConditional}
	eventKey     = storeKey{cat: CategoryEvent}
	preKey       = storeKey{cat: CategoryPre}
	scriptKey    = storeKey{cat: CategoryScript}
	styleKey     = storeKey{cat: CategoryStyle}
	textAreaKey  = storeKey{cat: CategoryTextArea}
	lineBreakKey = storeKey{cat: CategoryLineBreak}
	cdataKey     = storeKey{cat: CategoryCDATA}
)

func userKey(index int) storeKey {
	return storeKey{cat: CategoryUser, index: index}
}

// htmlExtractors returns the extraction table in category order together
// with every store key it can write to, in the same order.
func htmlExtractors(p *patternSet, preserveLineBreaks bool) ([]extractor, []storeKey) {
	var xs []extractor
	var keys []storeKey

	for i, re := range p.user {
		k := userKey(i)
		xs = append(xs, extractor{
			name:     fmt.Sprintf("preserve pattern %d", i),
			re:       re,
			shape:    shapeWhole,
			classify: keepGroup(k, 0),
		})
		keys = append(keys, k)
	}

	xs = append(xs,
		extractor{name: "skip blocks", re: p.skip, shape: shapeWhole, classify: keepGroup(skipKey, 1)},
		extractor{name: "conditional comments", re: p.conditional, shape: shapeWhole, classify: classifyConditional},
		extractor{name: "inline events (double quoted)", re: p.eventDouble, shape: shapeInner, classify: keepGroup(eventKey, 2)},
		extractor{name: "inline events (single quoted)", re: p.eventSingle, shape: shapeInner, classify: keepGroup(eventKey, 2)},
		extractor{name: "pre blocks", re: p.pre, shape: shapeInner, classify: keepGroup(preKey, 2)},
		extractor{name: "script blocks", re: p.script, shape: shapeInner, classify: classifyScript},
		extractor{name: "style blocks", re: p.style, shape: shapeInner, classify: keepGroup(styleKey, 2)},
		extractor{name: "textarea blocks", re: p.textArea, shape: shapeInner, classify: keepGroup(textAreaKey, 2)},
	)
	keys = append(keys, skipKey, condKey, eventKey, preKey, scriptKey, styleKey, textAreaKey)

	if preserveLineBreaks {
		xs = append(xs, extractor{name: "line breaks", re: p.lineBreak, shape: shapeWhole, classify: classifyLineBreak})
		keys = append(keys, lineBreakKey)
	}

	return xs, keys
}

// xmlExtractors returns the extraction table used in XML mode.
func xmlExtractors(p *patternSet) ([]extractor, []storeKey) {
	return []extractor{
		{name: "cdata sections", re: p.xmlCDATA, shape: shapeWhole, classify: keepGroup(cdataKey, 0)},
	}, []storeKey{cdataKey}
}

// keepGroup stores the given group when it is not blank.
func keepGroup(k storeKey, group int) classifier {
	return func(_ *run, m *regexp2.Match) (block, bool, error) {
		content := m.GroupByNumber(group).String()
		if isBlank(content) {
			return block{}, false, nil
		}
		return block{key: k, raw: content, content: content}, true, nil
	}
}

// classifyScript sorts script bodies by their type attribute: JavaScript goes
// to the script store, jQuery templates stay in the residual text, anything
// else is kept verbatim in the skip store.
func classifyScript(r *run, m *regexp2.Match) (block, bool, error) {
	body := m.GroupByNumber(2).String()
	if isBlank(body) {
		return block{}, false, nil
	}

	typ, err := scriptType(r.p, m.GroupByNumber(1).String())
	if err != nil {
		return block{}, false, err
	}

	switch typ {
	case "", "text/javascript", "application/javascript":
		return block{key: scriptKey, raw: body, content: body}, true, nil
	case "text/x-jquery-tmpl":
		return block{}, false, nil
	default:
		return block{key: skipKey, raw: body, content: body}, true, nil
	}
}

func scriptType(p *patternSet, openTag string) (string, error) {
	m, err := p.typeAttr.FindStringMatch(openTag)
	if err != nil || m == nil {
		return "", err
	}
	return strings.ToLower(m.GroupByNumber(2).String()), nil
}

// classifyConditional compresses the body of a conditional comment with the
// same configuration, one level deeper, and stores the rebuilt comment.
func classifyConditional(r *run, m *regexp2.Match) (block, bool, error) {
	body := m.GroupByNumber(2).String()
	if isBlank(body) {
		return block{}, false, nil
	}

	inner, err := r.c.compressAt(body, r.depth+1, nil)
	if err != nil {
		return block{}, false, err
	}

	content := m.GroupByNumber(1).String() + inner + m.GroupByNumber(3).String()
	return block{key: condKey, raw: m.String(), content: content}, true, nil
}

// classifyLineBreak keeps the first newline of a run of blank lines.
func classifyLineBreak(_ *run, m *regexp2.Match) (block, bool, error) {
	g := m.GroupByNumber(1)
	newline := g.String()
	if len(g.Captures) > 0 {
		newline = g.Captures[0].String()
	}
	return block{key: lineBreakKey, raw: m.String(), content: newline}, true, nil
}

// extract runs one extractor over doc, replacing every accepted match with a
// freshly minted token.
func (r *run) extract(doc string, x extractor) (string, error) {
	var failed error
	out, err := x.re.ReplaceFunc(doc, func(m regexp2.Match) string {
		if failed != nil {
			return m.String()
		}

		b, ok, err := x.classify(r, &m)
		if err != nil {
			failed = err
			return m.String()
		}
		if !ok {
			return m.String()
		}

		tok := token(r.depth, b.key, r.blocks.add(b.key, b.content))
		r.stats.extracted(b)

		if x.shape == shapeInner {
			return m.GroupByNumber(1).String() + tok + m.GroupByNumber(3).String()
		}
		return tok
	}, -1, -1)
	if err != nil {
		return "", wrapMatchErr(x.name, err)
	}
	if failed != nil {
		return "", failed
	}
	return out, nil
}
