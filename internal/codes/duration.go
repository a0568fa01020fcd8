package codes

import (
	"regexp"
	"strings"
)

// the longer spellings must come first so that "Valid until:" is not read as
// "Valid" followed by " until:". Labels are not anchored to a word boundary,
// cells often glue a label to the end of the previous value.
var durationLabelRegex = regexp.MustCompile(`(Discovered|Valid until|Valid|Expired|Notes|Note):`)

var innerWhitespace = regexp.MustCompile(`\s+`)

// ParseDuration extracts the labelled fragments of a duration cell.
//
// A fragment runs from the end of its label to the start of the next
// recognized label (or the end of the text). Labels are matched case
// sensitively and only their first occurrence is used. Text without any label
// yields a zero Duration.
func ParseDuration(text string) Duration {
	text = innerWhitespace.ReplaceAllString(text, " ")

	var d Duration
	matches := durationLabelRegex.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		value := strings.TrimSpace(text[m[1]:end])
		if value == "" {
			continue
		}

		var field **string
		switch text[m[2]:m[3]] {
		case "Discovered":
			field = &d.Discovered
		case "Valid", "Valid until":
			field = &d.Valid
		case "Expired":
			field = &d.Expired
		case "Note", "Notes":
			field = &d.Notes
		}
		if *field == nil {
			*field = str(value)
		}
	}
	return d
}
