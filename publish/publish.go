package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPublish wraps every publisher failure.
var ErrPublish = errors.New("publish failed")

// Document is the finished result of one run.
type Document struct {
	RunID     string
	FlowID    string
	Resume    string
	Questions string
	// Forced is set when the retry budget ran out before a [PASS].
	Forced    bool
	CreatedAt time.Time
}

// Title returns the document title.
func (d Document) Title() string {
	date := d.CreatedAt
	if date.IsZero() {
		date = time.Now()
	}
	name := d.FlowID
	if name == "" {
		name = "Application"
	}
	return fmt.Sprintf("%s %s (%s)", name, date.Format("2006-01-02"), d.RunID)
}

// Markdown renders the document as markdown.
func (d Document) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Title())
	if d.Forced {
		b.WriteString("> Review did not pass within the retry budget; this is the last draft.\n\n")
	}
	b.WriteString("## Application\n\n")
	b.WriteString(strings.TrimSpace(d.Resume))
	b.WriteString("\n")
	if q := strings.TrimSpace(d.Questions); q != "" {
		b.WriteString("\n## Interview Questions\n\n")
		b.WriteString(q)
		b.WriteString("\n")
	}
	return b.String()
}

// Publisher hands a finished document off and returns where it went.
type Publisher interface {
	Publish(ctx context.Context, doc Document) (string, error)
}

// NopPublisher discards documents.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Document) (string, error) {
	return "", nil
}

func publishError(target string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPublish, target, err)
}
