package main

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// displayLabel turns wire identifiers like "voiceover" or "final_render"
// into readable labels.
func displayLabel(s string) string {
	if s == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}
