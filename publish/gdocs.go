package publish

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// DocumentURL returns the edit URL of a Google Docs document.
func DocumentURL(id string) string {
	return "https://docs.google.com/document/d/" + id + "/edit"
}

// NewDocsService builds a Docs API client from a service account or
// authorized-user credentials file.
func NewDocsService(ctx context.Context, credentialsFile string) (*docs.Service, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, docs.DocumentsScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	client := oauth2.NewClient(ctx, creds.TokenSource)
	return docs.NewService(ctx, option.WithHTTPClient(client))
}

// GoogleDocsPublisher appends documents to a Google Doc, creating a new one
// per run when no document ID is configured.
type GoogleDocsPublisher struct {
	srv   *docs.Service
	docID string
}

// NewGoogleDocsPublisher creates a publisher. An empty docID creates a new
// document for every run.
func NewGoogleDocsPublisher(srv *docs.Service, docID string) *GoogleDocsPublisher {
	return &GoogleDocsPublisher{srv: srv, docID: docID}
}

// Publish implements Publisher.
func (p *GoogleDocsPublisher) Publish(ctx context.Context, doc Document) (string, error) {
	id := p.docID
	if id == "" {
		created, err := p.srv.Documents.Create(&docs.Document{Title: doc.Title()}).Context(ctx).Do()
		if err != nil {
			return "", publishError("create google doc", err)
		}
		id = created.DocumentId
	}

	text := doc.Markdown()
	if p.docID != "" {
		text = "\n" + text
	}
	req := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Text:                 text,
				EndOfSegmentLocation: &docs.EndOfSegmentLocation{},
			},
		}},
	}
	if _, err := p.srv.Documents.BatchUpdate(id, req).Context(ctx).Do(); err != nil {
		return "", publishError("google doc "+id, err)
	}
	return DocumentURL(id), nil
}
