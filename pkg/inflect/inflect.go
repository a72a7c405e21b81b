// Package inflect implements the Rails-style string inflections rule
// packs use to derive method and constant names.
package inflect

import (
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
)

// Camelize turns "admin/user_name" into "Admin::UserName".
func Camelize(s string) string {
	parts := strings.Split(s, "/")
	for i, p := range parts {
		parts[i] = strcase.ToCamel(p)
	}
	return strings.Join(parts, "::")
}

// Underscore turns "Admin::UserName" into "admin/user_name".
func Underscore(s string) string {
	parts := strings.Split(s, "::")
	for i, p := range parts {
		parts[i] = strcase.ToSnake(p)
	}
	return strings.Join(parts, "/")
}

// Titleize turns "user_name" or "UserName" into "User Name".
func Titleize(s string) string {
	words := strings.Fields(strcase.ToDelimited(Demodulize(s), ' '))
	if n := len(words); n > 1 && words[n-1] == "id" {
		words = words[:n-1]
	}
	for i, w := range words {
		words[i] = Capitalize(w)
	}
	return strings.Join(words, " ")
}

// Demodulize keeps the part after the last "::".
func Demodulize(s string) string {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[i+2:]
	}
	return s
}

// Deconstantize drops the part after the last "::".
func Deconstantize(s string) string {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[:i]
	}
	return ""
}

// Parameterize makes a lowercase slug with runs of other characters
// replaced by sep.
func Parameterize(s, sep string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteString(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// Pluralize returns the English plural of the last word.
func Pluralize(s string) string { return inflection.Plural(s) }

// Singularize returns the English singular of the last word.
func Singularize(s string) string { return inflection.Singular(s) }

// Capitalize upcases the first character and downcases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Swapcase inverts the case of every letter.
func Swapcase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case unicode.IsLower(r):
			return unicode.ToUpper(r)
		}
		return r
	}, s)
}
