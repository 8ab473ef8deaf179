package triage

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage canonicalises a BCP 47 tag ("pt-br" becomes "pt-BR").
// An empty tag yields DefaultLanguage. Unparseable tags are returned trimmed
// and unchanged so the ticket language is still echoed back.
func NormalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return DefaultLanguage
	}
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return t.String()
}

// ValidLanguage reports whether tag parses as a BCP 47 language tag.
func ValidLanguage(tag string) bool {
	_, err := language.Parse(strings.TrimSpace(tag))
	return err == nil
}
