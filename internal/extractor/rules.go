package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// source yields a candidate value for a field; chains try sources in order.
type source func(doc *goquery.Document) string

func metaProperty(prop string) source {
	return attrOf(`meta[property="`+prop+`"]`, "content")
}

func metaName(name string) source {
	return attrOf(`meta[name="`+name+`"]`, "content")
}

func attrOf(sel, attr string) source {
	return func(doc *goquery.Document) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr(attr); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}
}

func textOf(sel string) source {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(sel).First().Text())
	}
}

var (
	titleChain = []source{
		metaProperty("og:title"),
		metaName("twitter:title"),
		textOf("title"),
	}

	excerptChain = []source{
		metaProperty("og:description"),
		metaName("twitter:description"),
		metaName("description"),
	}

	imageChain = []source{
		metaProperty("og:image"),
		metaName("twitter:image"),
	}

	authorChain = []source{
		metaProperty("article:author"),
		metaName("author"),
		metaProperty("author"),
		metaName("twitter:creator"),
		textOf(`a[rel="author"]`),
		textOf(`[data-testid="authorName"]`),
		textOf(`a[data-action="show-user-card"]`),
		textOf(".author-name"),
		textOf(`[itemprop="author"] [itemprop="name"]`),
	}

	dateChain = []source{
		metaProperty("article:published_time"),
		metaName("publish_date"),
		attrOf("time[datetime]", "datetime"),
	}
)

// firstOf evaluates chain left to right and returns the first non-empty value.
func firstOf(doc *goquery.Document, chain []source) string {
	for _, src := range chain {
		if v := src(doc); v != "" {
			return v
		}
	}
	return ""
}

// collectTags returns article:tag values in document order, falling back to
// the comma-separated keywords meta.
func collectTags(doc *goquery.Document) []string {
	tags := make([]string, 0, maxTags)
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.AttrOr("content", "")); v != "" {
			tags = append(tags, v)
		}
	})

	if len(tags) == 0 {
		tags = splitKeywords(metaName("keywords")(doc))
	}

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

func splitKeywords(raw string) []string {
	out := make([]string, 0, maxTags)
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
