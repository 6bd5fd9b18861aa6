package cmd

import (
	"fmt"

	"github.com/bimmerbailey/htmlmin/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type boolFlag struct {
	name  string
	key   string
	usage string
}

var compressorBoolFlags = []boolFlag{
	{"remove-comments", "compressor.remove_comments", "remove HTML comments"},
	{"remove-multi-spaces", "compressor.remove_multi_spaces", "collapse runs of whitespace to one space"},
	{"remove-intertag-spaces", "compressor.remove_intertag_spaces", "remove whitespace between tags"},
	{"remove-quotes", "compressor.remove_quotes", "remove quotes around simple attribute values"},
	{"simple-doctype", "compressor.simple_doctype", "replace the DOCTYPE with <!DOCTYPE html>"},
	{"remove-script-attributes", "compressor.remove_script_attributes", "remove default type and language attributes from <script>"},
	{"remove-style-attributes", "compressor.remove_style_attributes", "remove type=\"text/css\" from <style>"},
	{"remove-link-attributes", "compressor.remove_link_attributes", "remove type=\"text/css\" from stylesheet <link>"},
	{"remove-form-attributes", "compressor.remove_form_attributes", "remove method=\"get\" from <form>"},
	{"remove-input-attributes", "compressor.remove_input_attributes", "remove type=\"text\" from <input>"},
	{"simple-boolean-attributes", "compressor.simple_boolean_attributes", "collapse checked=\"checked\" to checked"},
	{"remove-js-protocol", "compressor.remove_javascript_protocol", "remove javascript: from inline event handlers"},
	{"remove-http-protocol", "compressor.remove_http_protocol", "remove http: from URL attributes"},
	{"remove-https-protocol", "compressor.remove_https_protocol", "remove https: from URL attributes"},
	{"preserve-line-breaks", "compressor.preserve_line_breaks", "keep line breaks"},
	{"preserve-php", "compressor.preserve_php", "preserve <?php ?> blocks"},
	{"preserve-server-script", "compressor.preserve_server_script", "preserve <% %> blocks"},
	{"preserve-ssi", "compressor.preserve_ssi", "preserve <!--# --> server side includes"},
	{"compress-js", "compressor.compress_js", "minify inline scripts"},
	{"compress-css", "compressor.compress_css", "minify inline styles"},
	{"strict-tokens", "compressor.strict_tokens", "fail on unresolvable placeholders"},
	{"xml", "compressor.xml", "compress as XML"},
}

// flagKeys maps every non-bool flag that mirrors a configuration key.
var flagKeys = map[string]string{
	"surrounding-spaces": "compressor.remove_surrounding_spaces",
	"js-minifier":        "compressor.js_minifier",
	"css-minifier":       "compressor.css_minifier",
	"match-timeout":      "compressor.match_timeout",
	"max-depth":          "compressor.max_depth",
	"workers":            "workers",
	"output-dir":         "output_dir",
	"ext":                "extensions",
}

// addCompressorFlags registers the compressor switches on cmd. Defaults
// only affect help text; configuration defaults come from config.Defaults.
func addCompressorFlags(cmd *cobra.Command) {
	defaults := config.Defaults()
	flags := cmd.Flags()

	for _, f := range compressorBoolFlags {
		def, _ := defaults[f.key].(bool)
		flags.Bool(f.name, def, f.usage)
	}

	flags.String("surrounding-spaces", "", `remove spaces around tags: "min", "max", "all" or a comma-separated list`)
	flags.String("js-minifier", "tdewolff", "JavaScript minifier (tdewolff, none)")
	flags.String("css-minifier", "tdewolff", "CSS minifier (tdewolff, none)")
	flags.Duration("match-timeout", 0, "abort a pattern match after this long (0 disables)")
	flags.Int("max-depth", 32, "maximum conditional comment nesting")
	flags.StringArray("preserve", nil, "regular expression whose matches are kept verbatim (repeatable)")
}

// addBatchFlags registers the file-selection and concurrency flags on cmd.
func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "w", 4, "number of files compressed concurrently")
	cmd.Flags().StringSlice("ext", []string{".html", ".htm"}, "extensions picked up when walking directories")
}

// bindFlags binds cmd's flags to their configuration keys. Binding happens
// per invocation since several commands share the same keys.
func bindFlags(cmd *cobra.Command) error {
	bind := func(name, key string) error {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return nil
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
		return nil
	}

	for _, f := range compressorBoolFlags {
		if err := bind(f.name, f.key); err != nil {
			return err
		}
	}
	for name, key := range flagKeys {
		if err := bind(name, key); err != nil {
			return err
		}
	}
	return nil
}

// applyPreserveFlags appends --preserve patterns to the configured ones.
// They are read from the flag directly since viper splits list values on
// commas, which regular expressions routinely contain.
func applyPreserveFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags().Lookup("preserve")
	if f == nil {
		return nil
	}
	patterns, err := cmd.Flags().GetStringArray("preserve")
	if err != nil {
		return err
	}
	cfg.Compressor.PreservePatterns = append(cfg.Compressor.PreservePatterns, patterns...)
	return nil
}
