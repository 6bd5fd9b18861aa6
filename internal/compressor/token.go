package compressor

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Placeholder tokens look like
//
//	%%%~HM<depth>~<TAG>~<ordinal>~%%%
//
// The depth segment keeps tokens minted by a nested conditional-comment run
// apart from the tokens of the enclosing run. Source documents are assumed not
// to contain the sentinel text; this is not validated.
const (
	tokenOpen  = "%%%~"
	tokenClose = "~%%%"
	tokenMark  = "HM"
)

var tokenExpr = regexp2.Escape(tokenOpen+tokenMark) + `(\d+)~([A-Z]+\d*)~(\d+)` + regexp2.Escape(tokenClose)

// token mints the placeholder for the ordinal-th block of k at the given depth.
func token(depth int, k storeKey, ordinal int) string {
	var sb strings.Builder
	sb.Grow(len(tokenOpen) + len(tokenMark) + len(tokenClose) + 16)
	sb.WriteString(tokenOpen)
	sb.WriteString(tokenMark)
	sb.WriteString(strconv.Itoa(depth))
	sb.WriteByte('~')
	sb.WriteString(k.tag())
	sb.WriteByte('~')
	sb.WriteString(strconv.Itoa(ordinal))
	sb.WriteString(tokenClose)
	return sb.String()
}

// tokenRef is a placeholder recovered from residual text.
type tokenRef struct {
	depth   int
	tag     string
	ordinal int
}

// parseToken decodes a match of tokenExpr.
func parseToken(m *regexp2.Match) (tokenRef, bool) {
	depth, err := strconv.Atoi(m.GroupByNumber(1).String())
	if err != nil {
		return tokenRef{}, false
	}
	ordinal, err := strconv.Atoi(m.GroupByNumber(3).String())
	if err != nil {
		return tokenRef{}, false
	}
	return tokenRef{depth: depth, tag: m.GroupByNumber(2).String(), ordinal: ordinal}, true
}

// hasToken reports whether s still carries placeholder sentinel text.
func hasToken(s string) bool {
	return strings.Contains(s, tokenOpen+tokenMark)
}
