package blog

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/samvad-hq/blogmeta/internal/domain"
	"github.com/samvad-hq/blogmeta/pkg/resolver"
)

// DefaultImage is used when a blog is saved without an image.
const DefaultImage = "/heroSection.png"

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Input is the user-editable part of a blog reference.
type Input struct {
	ExternalID string   `json:"external_id"`
	Provider   string   `json:"provider"`
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Image      string   `json:"image"`
	Author     string   `json:"author"`
	Date       string   `json:"date"`
	Slug       string   `json:"slug"`
	Tags       []string `json:"tags"`
}

// Draft is a pre-filled Input produced from a post URL.
type Draft struct {
	ExternalID string          `json:"external_id"`
	Provider   string          `json:"provider"`
	Slug       string          `json:"slug"`
	Metadata   domain.Metadata `json:"metadata"`
}

// GenerateSlug lower-cases title and collapses every run of non-alphanumerics into a dash.
func GenerateSlug(title string) string {
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// buildRef validates in and applies the save-time defaults.
func (s *Service) buildRef(in Input) (domain.BlogRef, error) {
	title := strings.TrimSpace(in.Title)
	excerpt := strings.TrimSpace(in.Excerpt)
	author := strings.TrimSpace(in.Author)

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if excerpt == "" {
		missing = append(missing, "excerpt")
	}
	if author == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return domain.BlogRef{}, &ValidationError{Fields: missing, Reason: "required"}
	}

	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = GenerateSlug(title)
	}

	externalID := strings.TrimSpace(in.ExternalID)
	switch {
	case externalID == "":
		externalID = slug
	case resolver.LooksLikeURL(externalID):
		externalID = resolver.NormalizeInput(externalID)
	}

	provider := s.registry.Normalize(in.Provider)
	if strings.TrimSpace(in.Provider) == "" && resolver.LooksLikeURL(externalID) {
		if u, err := url.Parse(externalID); err == nil {
			provider = s.registry.Detect(u.Hostname())
		}
	}

	image := strings.TrimSpace(in.Image)
	if image == "" {
		image = s.defaultImage
	}

	return domain.BlogRef{
		ExternalID: externalID,
		Provider:   provider,
		Title:      title,
		Excerpt:    excerpt,
		Image:      image,
		Author:     author,
		Date:       strings.TrimSpace(in.Date),
		Slug:       slug,
		Tags:       cleanTags(in.Tags),
	}, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// MergeMetadata overlays the non-empty fields of md onto ref. Empty extracted
// values never clear what is already stored.
func MergeMetadata(ref domain.BlogRef, md domain.Metadata) domain.BlogRef {
	if md.Title != "" {
		ref.Title = md.Title
	}
	if md.Excerpt != "" {
		ref.Excerpt = md.Excerpt
	}
	if md.Image != "" {
		ref.Image = md.Image
	}
	if md.Author != "" {
		ref.Author = md.Author
	}
	if md.Date != "" {
		ref.Date = md.Date
	}
	if len(md.Tags) > 0 {
		ref.Tags = cleanTags(md.Tags)
	}
	if ref.Slug == "" {
		ref.Slug = GenerateSlug(ref.Title)
	}
	return ref
}
