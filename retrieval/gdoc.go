package retrieval

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
)

// GoogleDocReader reads documents through the Google Docs API.
type GoogleDocReader struct {
	srv *docs.Service
}

// NewGoogleDocReader wraps a Docs service.
func NewGoogleDocReader(srv *docs.Service) *GoogleDocReader {
	return &GoogleDocReader{srv: srv}
}

// ReadText implements DocReader.
func (g *GoogleDocReader) ReadText(ctx context.Context, documentID string) (string, error) {
	doc, err := g.srv.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get document %s: %w", documentID, err)
	}
	return DocText(doc), nil
}

// DocText flattens a Docs document body, tables included, to plain text.
func DocText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	writeElements(&b, doc.Body.Content)
	return b.String()
}

func writeElements(b *strings.Builder, elems []*docs.StructuralElement) {
	for _, el := range elems {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					writeElements(b, cell.Content)
				}
			}
		}
	}
}
