// Package caseconv converts letter case using British English rules.
package caseconv

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// cases.Caser is stateful, so each call gets its own.

// ToLower returns text in lower case.
func ToLower(text string) string {
	return cases.Lower(language.BritishEnglish).String(text)
}

// ToUpper returns text in upper case.
func ToUpper(text string) string {
	return cases.Upper(language.BritishEnglish).String(text)
}

// AllUppercase reports whether text is entirely upper case and contains at
// least one cased letter.
func AllUppercase(text string) bool {
	return text == ToUpper(text) && text != ToLower(text)
}
