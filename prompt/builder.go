package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates no search directory or embedded file holds the prompt.
var ErrNotFound = errors.New("prompt not found")

// Builder assembles a user message out of bracketed sections.
type Builder struct {
	parts []string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends raw text.
func (b *Builder) Add(text string) *Builder {
	if text = strings.TrimSpace(text); text != "" {
		b.parts = append(b.parts, text)
	}
	return b
}

// Section appends "[title]" followed by content. Empty content is skipped.
func (b *Builder) Section(title, content string) *Builder {
	content = strings.TrimSpace(content)
	if content == "" {
		return b
	}
	b.parts = append(b.parts, fmt.Sprintf("[%s]\n%s", title, content))
	return b
}

// List appends a titled bullet list. An empty list is skipped.
func (b *Builder) List(title string, items []string) *Builder {
	if len(items) == 0 {
		return b
	}
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	return b.Section(title, sb.String())
}

// Build joins the parts with blank lines.
func (b *Builder) Build() string {
	return strings.Join(b.parts, "\n\n")
}
