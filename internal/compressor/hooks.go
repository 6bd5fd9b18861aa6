package compressor

import (
	"go.uber.org/zap"
)

// CDATA wrappers re-applied around minified script and style bodies.
const (
	scriptCDATAOpen  = "/*<![CDATA[*/"
	scriptCDATAClose = "/*]]>*/"
	cdataOpen        = "<![CDATA["
	cdataClose       = "]]>"
)

// processBlocks runs the optional post-processing hooks over the extracted
// blocks before they are restored. A minifier failure keeps the block as it
// was; only matcher errors abort the run.
func (r *run) processBlocks() error {
	o := r.opts
	if o.CompressJavaScript && o.JavaScript != nil {
		if err := r.transform(scriptKey, func(src string) (string, error) {
			return r.minifyBlock(o.JavaScript, src, true)
		}); err != nil {
			return err
		}
	}
	if o.CompressCSS && o.CSS != nil {
		if err := r.transform(styleKey, func(src string) (string, error) {
			return r.minifyBlock(o.CSS, src, false)
		}); err != nil {
			return err
		}
	}
	if o.RemoveJavaScriptProtocol {
		if err := r.transform(eventKey, r.stripJavaScriptProtocol); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) transform(k storeKey, fn func(string) (string, error)) error {
	blocks := r.blocks[k]
	for i, src := range blocks {
		out, err := fn(src)
		if err != nil {
			return wrapMatchErr(k.cat.String()+" blocks", err)
		}
		blocks[i] = out
	}
	return nil
}

// minifyBlock hands a script or style body to m, unwrapping a CDATA section
// first and wrapping the result again afterwards.
func (r *run) minifyBlock(m Minifier, src string, script bool) (string, error) {
	body, open, closing, err := unwrapCDATA(r.p, src, script)
	if err != nil {
		return "", err
	}

	out, err := m.Minify(body)
	if err != nil {
		r.log.Warn("minifier failed, keeping block unchanged",
			zap.Bool("script", script),
			zap.Int("depth", r.depth),
			zap.Error(err),
		)
		r.stats.minifyFailed()
		return src, nil
	}
	return open + out + closing, nil
}

func unwrapCDATA(p *patternSet, src string, script bool) (body, open, closing string, err error) {
	if script {
		m, err := p.scriptCDATA.FindStringMatch(src)
		if err != nil {
			return "", "", "", err
		}
		if m != nil {
			return group(m, 1), scriptCDATAOpen, scriptCDATAClose, nil
		}
	}

	m, err := p.cdata.FindStringMatch(src)
	if err != nil {
		return "", "", "", err
	}
	if m != nil {
		return group(m, 1), cdataOpen, cdataClose, nil
	}
	return src, "", "", nil
}

// stripJavaScriptProtocol turns onclick="javascript:go()" into onclick="go()".
func (r *run) stripJavaScriptProtocol(src string) (string, error) {
	m, err := r.p.eventJSProtocol.FindStringMatch(src)
	if err != nil || m == nil {
		return src, err
	}
	return group(m, 1), nil
}
