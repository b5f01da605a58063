// Package render turns entry text into HTML for collection views.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

// raw HTML in entries is escaped, goldmark's default
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown renders content to HTML
func Markdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// HTMLItem is a collection item with its body rendered
type HTMLItem struct {
	domain.CollectionItem
	HTML string `json:"html"`
}

// Collection renders every item of a tag collection, keeping order
func Collection(items []domain.CollectionItem) ([]HTMLItem, error) {
	out := make([]HTMLItem, 0, len(items))
	for _, item := range items {
		html, err := Markdown(item.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", item.Date, err)
		}
		out = append(out, HTMLItem{CollectionItem: item, HTML: html})
	}
	return out, nil
}
