package publish

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FilePublisher writes each document as a markdown file.
type FilePublisher struct {
	Dir string
}

// NewFilePublisher creates a publisher that writes into dir.
func NewFilePublisher(dir string) *FilePublisher {
	return &FilePublisher{Dir: dir}
}

// Publish implements Publisher. It returns a file:// URL.
func (p *FilePublisher) Publish(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", publishError(p.Dir, err)
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", publishError(p.Dir, err)
	}

	name := unsafeName.ReplaceAllString(doc.RunID, "_")
	if name == "" {
		name = "resume"
	}
	path, err := filepath.Abs(filepath.Join(p.Dir, name+".md"))
	if err != nil {
		return "", publishError(p.Dir, err)
	}
	if err := os.WriteFile(path, []byte(doc.Markdown()), 0o644); err != nil {
		return "", publishError(path, err)
	}
	return "file://" + filepath.ToSlash(path), nil
}
