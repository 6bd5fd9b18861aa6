// Package compressor minifies HTML and XML documents while keeping protected
// regions byte-for-byte intact.
//
// A compression pass has three stages:
//
//  1. Extraction - protected regions (preserve patterns, skip blocks,
//     conditional comments, inline event handlers, pre, script, style,
//     textarea and optionally line breaks) are swapped for placeholder tokens
//  2. Minification - rewrite rules run over the token-bearing residual text
//  3. Restoration - tokens are replaced with the stored content, in reverse
//     extraction order
//
// Conditional comment bodies are compressed recursively with the same
// configuration, up to Options.MaxDepth levels.
//
// Basic usage:
//
//	opts := compressor.DefaultOptions()
//	opts.RemoveIntertagSpaces = true
//	opts.PreservePatterns = append(opts.PreservePatterns, compressor.PHPTagPattern)
//
//	c, err := compressor.New(opts)
//	if err != nil {
//	    return err
//	}
//	out, err := c.Compress(html)
//
// A Compressor is immutable once built and may be shared between goroutines.
package compressor
