package utils

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var turkishReplacer = strings.NewReplacer(
	"ı", "i", "İ", "i", "ş", "s", "Ş", "s", "ğ", "g", "Ğ", "g",
	"ü", "u", "Ü", "u", "ö", "o", "Ö", "o", "ç", "c", "Ç", "c",
)

// Slugify converts a title into a URL-safe slug. Turkish characters are
// transliterated since listing titles are commonly Turkish.
func Slugify(title string) string {
	s := turkishReplacer.Replace(strings.TrimSpace(title))
	s = strings.ToLower(s)
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = uuid.New().String()[:8]
	}
	return out
}

// UniqueSlug appends a short random suffix for collision retries.
func UniqueSlug(base string) string {
	return base + "-" + uuid.New().String()[:8]
}
