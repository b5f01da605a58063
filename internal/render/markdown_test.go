package render

import (
	"strings"
	"testing"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			input:    "fixed **bug**",
			contains: []string{"<strong>bug</strong>"},
		},
		{
			name:     "task list",
			input:    "- [x] cleaned",
			contains: []string{`type="checkbox"`, "cleaned"},
		},
		{
			name:     "raw html escaped",
			input:    "<script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
		{
			name:  "empty",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Markdown(tt.input)
			if err != nil {
				t.Fatalf("Markdown() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Markdown() = %q, missing %q", got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("Markdown() = %q, must not contain %q", got, bad)
				}
			}
		})
	}
}

func TestCollectionKeepsOrder(t *testing.T) {
	items := []domain.CollectionItem{
		{Date: "2023-12-31", Tag: "home", Content: "party"},
		{Date: "2024-01-05", Tag: "home", Content: "cleaned"},
	}

	out, err := Collection(items)
	if err != nil {
		t.Fatalf("Collection() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Collection() = %d items, want 2", len(out))
	}
	for i := range items {
		if out[i].Date != items[i].Date || !strings.Contains(out[i].HTML, items[i].Content) {
			t.Errorf("item[%d] = %+v", i, out[i])
		}
	}
}
