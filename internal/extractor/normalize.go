package extractor

import (
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	maxTags    = 5
	dateLayout = "2006-01-02"
)

// platformNames are site brands that some pages put in their author tags.
var platformNames = map[string]struct{}{
	"medium":    {},
	"substack":  {},
	"dev.to":    {},
	"hashnode":  {},
	"wordpress": {},
	"blogger":   {},
	"ghost":     {},
	"notion":    {},
}

// normalizeDate renders raw as YYYY-MM-DD (UTC), falling back to today.
func normalizeDate(raw string, now time.Time) string {
	if t, ok := parseDate(strings.TrimSpace(raw)); ok {
		return t.UTC().Format(dateLayout)
	}
	return now.UTC().Format(dateLayout)
}

// parseDate never panics; dateparse can on some malformed inputs.
func parseDate(raw string) (t time.Time, ok bool) {
	if raw == "" {
		return time.Time{}, false
	}
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	parsed, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil || parsed.IsZero() {
		return time.Time{}, false
	}
	return parsed, true
}

// cleanAuthor keeps the first line of raw and drops links and platform branding.
func cleanAuthor(raw string) string {
	author := strings.TrimSpace(raw)
	if i := strings.IndexAny(author, "\r\n"); i >= 0 {
		author = author[:i]
	}
	author = strings.TrimSpace(author)

	if strings.HasPrefix(author, "http") {
		return ""
	}
	if _, ok := platformNames[strings.ToLower(author)]; ok {
		return ""
	}
	return author
}

// authorFromURL infers a username from well-known profile path conventions.
func authorFromURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())

	segments := make([]string, 0, 4)
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	if len(segments) == 0 {
		return ""
	}

	switch {
	case hostIs(host, "medium.com"), hostIs(host, "substack.com"):
		for _, seg := range segments {
			if strings.HasPrefix(seg, "@") {
				return strings.TrimPrefix(seg, "@")
			}
		}
	case hostIs(host, "dev.to"):
		if !strings.Contains(segments[0], ".") {
			return segments[0]
		}
	}
	return ""
}

// hostIs matches domain itself or any of its subdomains.
func hostIs(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// resolveReference makes ref absolute against base; unparseable refs are returned as-is.
func resolveReference(ref string, base *url.URL) string {
	if ref == "" || base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
