package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNoSources indicates a collector was built without any source.
var ErrNoSources = errors.New("no evidence sources configured")

// MaxSummary caps how much of a description or commit message an item keeps.
const MaxSummary = 200

// Item is one piece of the candidate's verifiable work.
type Item struct {
	Source    string    `json:"source"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Summary   string    `json:"summary,omitempty"`
	Language  string    `json:"language,omitempty"`
	Stars     int       `json:"stars,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// String renders the item as one prompt line.
func (i Item) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", i.Source, i.Kind, i.Title)
	if i.Language != "" {
		fmt.Fprintf(&b, " (%s)", i.Language)
	}
	if i.Summary != "" {
		b.WriteString(" - ")
		b.WriteString(i.Summary)
	}
	if i.URL != "" {
		fmt.Fprintf(&b, " <%s>", i.URL)
	}
	return b.String()
}

// Source fetches evidence from one system.
type Source interface {
	Name() string
	Collect(ctx context.Context, limit int) ([]Item, error)
}

// Collector gathers evidence from every source and caches the merged list.
// A failing source is logged and skipped; the others still contribute.
type Collector struct {
	sources []Source
	limit   int
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	cached  []Item
	fetched time.Time
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithLimit sets the per-source item limit.
func WithLimit(n int) CollectorOption {
	return func(c *Collector) { c.limit = n }
}

// WithTTL sets how long collected evidence is reused. Zero disables caching.
func WithTTL(ttl time.Duration) CollectorOption {
	return func(c *Collector) { c.ttl = ttl }
}

// WithLogger sets the logger for source failures.
func WithLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) { c.logger = logger }
}

// NewCollector creates a collector over sources.
func NewCollector(sources []Source, opts ...CollectorOption) *Collector {
	c := &Collector{
		sources: sources,
		limit:   10,
		ttl:     10 * time.Minute,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect returns evidence from all sources, newest first. It errors only when
// there are no sources or every source failed.
func (c *Collector) Collect(ctx context.Context) ([]Item, error) {
	if len(c.sources) == 0 {
		return nil, ErrNoSources
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && c.ttl > 0 && c.now().Sub(c.fetched) < c.ttl {
		return c.cached, nil
	}

	var (
		items []Item
		errs  []error
	)
	for _, src := range c.sources {
		got, err := src.Collect(ctx, c.limit)
		if err != nil {
			c.logger.Warn("evidence source failed", "source", src.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		items = append(items, got...)
	}
	if len(errs) == len(c.sources) {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	if items == nil {
		items = []Item{}
	}
	c.cached = items
	c.fetched = c.now()
	return items, nil
}

// Lines renders items as prompt lines.
func Lines(items []Item) []string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.String()
	}
	return lines
}

func summarize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > MaxSummary {
		return string(r[:MaxSummary-3]) + "..."
	}
	return s
}
