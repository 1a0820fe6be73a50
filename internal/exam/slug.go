package exam

import (
	"regexp"
	"strings"
)

const (
	accentFrom = "àáäâèéëêìíïîòóöôùúüûñç·/_,:;"
	accentTo   = "aaaaeeeeiiiioooouuuunc------"
)

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9 -]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
	accentFolds    = buildAccentFolds()
)

func buildAccentFolds() map[rune]rune {
	from := []rune(accentFrom)
	to := []rune(accentTo)
	m := make(map[rune]rune, len(from))
	for i, r := range from {
		m[r] = to[i]
	}
	return m
}

// Slugify derives the URL identifier of an exam from its title.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.Map(func(r rune) rune {
		if f, ok := accentFolds[r]; ok {
			return f
		}
		return r
	}, s)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	return slugDashes.ReplaceAllString(s, "-")
}
