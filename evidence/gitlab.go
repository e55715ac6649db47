package evidence

import (
	"context"
	"fmt"

	"github.com/xanzy/go-gitlab"
)

// GitLabSource collects projects from a GitLab instance.
type GitLabSource struct {
	client *gitlab.Client
	user   string
}

// NewGitLabSource creates a GitLab source. baseURL is empty for gitlab.com.
// With user empty it lists the projects the token owns.
func NewGitLabSource(token, baseURL, user string) (*GitLabSource, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}

	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}
	return &GitLabSource{client: client, user: user}, nil
}

// Name implements Source.
func (s *GitLabSource) Name() string { return "gitlab" }

// Collect implements Source.
func (s *GitLabSource) Collect(ctx context.Context, limit int) ([]Item, error) {
	opts := &gitlab.ListProjectsOptions{
		OrderBy:     gitlab.Ptr("last_activity_at"),
		Sort:        gitlab.Ptr("desc"),
		ListOptions: gitlab.ListOptions{PerPage: limit},
	}

	var (
		projects []*gitlab.Project
		err      error
	)
	if s.user != "" {
		projects, _, err = s.client.Projects.ListUserProjects(s.user, opts, gitlab.WithContext(ctx))
	} else {
		opts.Owned = gitlab.Ptr(true)
		projects, _, err = s.client.Projects.ListProjects(opts, gitlab.WithContext(ctx))
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	items := make([]Item, 0, len(projects))
	for _, p := range projects {
		it := Item{
			Source:  "gitlab",
			Kind:    "project",
			Title:   p.PathWithNamespace,
			URL:     p.WebURL,
			Summary: summarize(p.Description),
			Stars:   p.StarCount,
		}
		if p.LastActivityAt != nil {
			it.UpdatedAt = *p.LastActivityAt
		}
		items = append(items, it)
	}
	return items, nil
}
