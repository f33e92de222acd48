// Package resolver rebuilds navigable links from stored, possibly partial,
// external blog identifiers.
package resolver

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samvad-hq/blogmeta/pkg/providers"
)

// mediumMinPostIDLen is the shortest trailing slug segment accepted as a Medium post id.
const mediumMinPostIDLen = 6

var httpScheme = regexp.MustCompile(`(?i)^https?://`)

// Resolve reconstructs the canonical URL for identifier. The boolean is false
// when no link can be derived; the string is then always empty.
func Resolve(identifier, provider, author string) (string, bool) {
	if httpScheme.MatchString(identifier) {
		return identifier, true
	}

	value := strings.TrimSpace(identifier)
	if value == "" {
		return "", false
	}
	if httpScheme.MatchString(value) {
		return value, true
	}

	switch strings.ToLower(strings.TrimSpace(provider)) {
	case providers.Medium:
		return buildMedium(value)
	case providers.DevTo:
		return buildDevTo(value, author)
	default:
		return buildGeneric(value)
	}
}

// NormalizeInput trims v and makes sure it carries an http(s) scheme. Blank input stays blank.
func NormalizeInput(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	return EnsureScheme(v)
}

// LooksLikeURL reports whether v already is, or plausibly names, a web address.
func LooksLikeURL(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	return httpScheme.MatchString(v) || strings.Contains(v, ".")
}

// EnsureScheme returns v unchanged when it has an http(s) scheme; any other
// scheme prefix is replaced with https and leading slashes are dropped.
func EnsureScheme(v string) string {
	if httpScheme.MatchString(v) {
		return v
	}
	if i := strings.Index(v, "://"); i >= 0 {
		v = v[i+len("://"):]
	}
	return "https://" + strings.TrimLeft(v, "/")
}

func buildMedium(value string) (string, bool) {
	if strings.Contains(strings.ToLower(value), "medium.com") {
		return absolute(EnsureScheme(value))
	}

	if strings.HasPrefix(value, "@") || strings.Contains(value, "/") {
		return absolute("https://medium.com/" + strings.TrimLeft(value, "/"))
	}

	parts := strings.Split(value, "-")
	postID := parts[len(parts)-1]
	if utf8.RuneCountInString(postID) >= mediumMinPostIDLen {
		return absolute("https://medium.com/p/" + postID)
	}
	return "", false
}

func buildDevTo(value, author string) (string, bool) {
	handle := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, author)
	handle = strings.ToLower(strings.TrimPrefix(handle, "@"))
	if handle == "" {
		return "", false
	}

	return absolute("https://dev.to/" + handle + "/" + strings.TrimLeft(value, "/"))
}

func buildGeneric(value string) (string, bool) {
	if strings.Contains(value, "://") || strings.Contains(value, ".") {
		return absolute(EnsureScheme(value))
	}
	return "", false
}

// absolute guards against emitting something that does not parse as an absolute URL.
func absolute(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || strings.ContainsFunc(u.Host, unicode.IsSpace) ||
		!strings.ContainsFunc(u.Host, isAlphaNum) {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return raw, true
}

func isAlphaNum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
