package evidence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubSource collects a user's public repositories and recent commits.
type GitHubSource struct {
	client *github.Client
	user   string
}

// NewGitHubSource creates a GitHub source. The token is optional; without it
// the search API's anonymous rate limit applies.
func NewGitHubSource(token, user string) (*GitHubSource, error) {
	if user == "" {
		return nil, errors.New("GitHub user is required")
	}

	client := github.NewClient(nil)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}
	return &GitHubSource{client: client, user: user}, nil
}

// Name implements Source.
func (s *GitHubSource) Name() string { return "github" }

// Collect implements Source. limit applies to repositories and commits each.
func (s *GitHubSource) Collect(ctx context.Context, limit int) ([]Item, error) {
	repos, _, err := s.client.Search.Repositories(ctx,
		fmt.Sprintf("user:%s fork:false", s.user),
		&github.SearchOptions{Sort: "updated", ListOptions: github.ListOptions{PerPage: limit}},
	)
	if err != nil {
		return nil, fmt.Errorf("search repositories: %w", err)
	}

	items := make([]Item, 0, len(repos.Repositories))
	for _, r := range repos.Repositories {
		items = append(items, Item{
			Source:    "github",
			Kind:      "repository",
			Title:     r.GetFullName(),
			URL:       r.GetHTMLURL(),
			Summary:   summarize(r.GetDescription()),
			Language:  r.GetLanguage(),
			Stars:     r.GetStargazersCount(),
			UpdatedAt: r.GetPushedAt().Time,
		})
	}

	commits, _, err := s.client.Search.Commits(ctx,
		fmt.Sprintf("author:%s", s.user),
		&github.SearchOptions{Sort: "author-date", ListOptions: github.ListOptions{PerPage: limit}},
	)
	if err != nil {
		// Repositories alone are still useful evidence.
		return items, nil
	}
	for _, c := range commits.Commits {
		msg := c.GetCommit().GetMessage()
		items = append(items, Item{
			Source:    "github",
			Kind:      "commit",
			Title:     c.GetRepository().GetFullName(),
			URL:       c.GetHTMLURL(),
			Summary:   summarize(firstLine(msg)),
			UpdatedAt: c.GetCommit().GetAuthor().GetDate().Time,
		})
	}
	return items, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
