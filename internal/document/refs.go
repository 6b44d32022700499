package document

import (
	"context"
	"fmt"

	"github.com/KexinAnswer/gitbook/internal/images"
)

// ResolvedRef is the target of a content reference.
type ResolvedRef struct {
	Href string `json:"href"`
	Text string `json:"text,omitempty"`
	// FileDimensions is set for image files with a known size.
	FileDimensions *images.Size `json:"fileDimensions,omitempty"`
}

// RefResolver resolves content references. It returns an error matching
// ErrUnresolvedRef when the target does not exist.
type RefResolver interface {
	ResolveContentRef(ctx context.Context, ref ContentRef) (*ResolvedRef, error)
}

// File is an uploaded file.
type File struct {
	URL    string `json:"url"`
	Name   string `json:"name,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Page is a page of the space.
type Page struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// StaticResolver resolves references against fixed file and page maps.
type StaticResolver struct {
	Files map[string]File `json:"files,omitempty"`
	Pages map[string]Page `json:"pages,omitempty"`
}

// ResolveContentRef implements RefResolver.
func (s StaticResolver) ResolveContentRef(_ context.Context, ref ContentRef) (*ResolvedRef, error) {
	switch ref.Kind {
	case RefURL:
		if ref.URL == "" {
			break
		}
		return &ResolvedRef{Href: ref.URL, Text: ref.URL}, nil

	case RefAnchor:
		if ref.Anchor == "" {
			break
		}
		return &ResolvedRef{Href: "#" + ref.Anchor, Text: "#" + ref.Anchor}, nil

	case RefFile:
		file, ok := s.Files[ref.File]
		if !ok {
			break
		}
		resolved := &ResolvedRef{Href: file.URL, Text: file.Name}
		if file.Width > 0 && file.Height > 0 {
			size := images.Dimensions(file.Width, file.Height)
			resolved.FileDimensions = &size
		}
		return resolved, nil

	case RefPage:
		page, ok := s.Pages[ref.Page]
		if !ok {
			break
		}
		href := page.Path
		if ref.Anchor != "" {
			href += "#" + ref.Anchor
		}
		return &ResolvedRef{Href: href, Text: page.Title}, nil
	}

	return nil, fmt.Errorf("%s: %w", ref, ErrUnresolvedRef)
}
