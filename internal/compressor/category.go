package compressor

import (
	"fmt"
	"strconv"
	"strings"
)

// Category identifies a class of protected region. The declaration order is
// the extraction order; restoration walks it in reverse.
type Category int

const (
	CategoryUser Category = iota
	CategorySkip
	CategoryConditional
	CategoryEvent
	CategoryPre
	CategoryScript
	CategoryStyle
	CategoryTextArea
	CategoryLineBreak
	CategoryCDATA
)

var categoryNames = map[Category]string{
	CategoryUser:        "user",
	CategorySkip:        "skip",
	CategoryConditional: "conditional",
	CategoryEvent:       "event",
	CategoryPre:         "pre",
	CategoryScript:      "script",
	CategoryStyle:       "style",
	CategoryTextArea:    "textarea",
	CategoryLineBreak:   "linebreak",
	CategoryCDATA:       "cdata",
}

// tag literals embedded in placeholder tokens; they must stay pairwise
// distinct and must not be a prefix of "USER" followed by digits.
var categoryTags = map[Category]string{
	CategoryUser:        "USER",
	CategorySkip:        "SKIP",
	CategoryConditional: "COND",
	CategoryEvent:       "EVENT",
	CategoryPre:         "PRE",
	CategoryScript:      "SCRIPT",
	CategoryStyle:       "STYLE",
	CategoryTextArea:    "TEXTAREA",
	CategoryLineBreak:   "LB",
	CategoryCDATA:       "CDATA",
}

// String returns the lower-case name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "category(" + strconv.Itoa(int(c)) + ")"
}

// MarshalText implements encoding.TextMarshaler so categories can key JSON objects.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory converts a category name back to a Category.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category: %q", s)
}

// storeKey names one block store. Index is the declaration position for
// user patterns and zero for every built-in category.
type storeKey struct {
	cat   Category
	index int
}

func (k storeKey) tag() string {
	if k.cat == CategoryUser {
		return categoryTags[CategoryUser] + strconv.Itoa(k.index)
	}
	return categoryTags[k.cat]
}

// blockStore holds the extracted contents of every category for one run.
// The position of a block inside its slice is its ordinal.
type blockStore map[storeKey][]string

func (s blockStore) add(k storeKey, content string) int {
	ordinal := len(s[k])
	s[k] = append(s[k], content)
	return ordinal
}
