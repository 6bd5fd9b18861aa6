package compressor

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
)

// restore splices block stores back into doc, walking keys in reverse
// extraction order.
func (r *run) restore(doc string, keys []storeKey) (string, error) {
	for i := len(keys) - 1; i >= 0; i-- {
		tag := keys[i].tag()
		if len(r.blocks[keys[i]]) == 0 && !r.opts.StrictTokens {
			continue
		}

		out, err := r.replaceTokens(doc, func(ref tokenRef) bool { return ref.tag == tag }, 0)
		if err != nil {
			return "", err
		}
		doc = out
	}
	return doc, nil
}

// replaceTokens substitutes every token of this run that want accepts.
// Restored content may itself carry tokens of this run, for example a skip
// block holding an already extracted pre block; those are expanded in place
// regardless of category. level bounds that expansion.
func (r *run) replaceTokens(s string, want func(tokenRef) bool, level int) (string, error) {
	if !hasToken(s) {
		return s, nil
	}

	var failed error
	out, err := r.p.token.ReplaceFunc(s, func(m regexp2.Match) string {
		if failed != nil {
			return m.String()
		}

		ref, ok := parseToken(&m)
		if !ok || ref.depth != r.depth || !want(ref) {
			return m.String()
		}

		content, found := r.lookup(ref)
		if !found {
			if err := r.mismatch(m.String()); err != nil {
				failed = err
			}
			return m.String()
		}

		if hasToken(content) && level < r.blocks.count() {
			expanded, err := r.replaceTokens(content, anyToken, level+1)
			if err != nil {
				failed = err
				return m.String()
			}
			content = expanded
		}

		if level == 0 {
			r.stats.restored(r.keyByTag[ref.tag].cat, len(content))
		}
		return content
	}, -1, -1)
	if err != nil {
		return "", wrapMatchErr("restore", err)
	}
	if failed != nil {
		return "", failed
	}
	return out, nil
}

func anyToken(tokenRef) bool { return true }

func (r *run) lookup(ref tokenRef) (string, bool) {
	k, ok := r.keyByTag[ref.tag]
	if !ok {
		return "", false
	}
	blocks := r.blocks[k]
	if ref.ordinal < 0 || ref.ordinal >= len(blocks) {
		return "", false
	}
	return blocks[ref.ordinal], true
}

// mismatch handles a token with no stored block. The literal text is kept
// unless strict tokens are requested.
func (r *run) mismatch(literal string) error {
	if r.opts.StrictTokens {
		return fmt.Errorf("%w: %s", ErrTokenMismatch, literal)
	}
	r.log.Warn("placeholder left in output", zap.String("token", literal), zap.Int("depth", r.depth))
	return nil
}

func (s blockStore) count() int {
	n := 0
	for _, blocks := range s {
		n += len(blocks)
	}
	return n
}
