package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// maxRedirects matches net/http's default redirect limit.
const maxRedirects = 10

// SourcePolicy restricts what a Loader may read for sources that come from
// an untrusted caller. The zero value allows inline text and Google Docs
// only: no local files and no URLs.
type SourcePolicy struct {
	// AllowedHosts lists hosts whose http(s) URLs may be fetched. An entry
	// with a leading dot also matches every subdomain.
	AllowedHosts []string
}

// Check reports whether source may be loaded.
func (p SourcePolicy) Check(source string) error {
	switch {
	case strings.HasPrefix(source, TextPrefix), strings.HasPrefix(source, GoogleDocPrefix):
		return nil
	case isURL(source):
		return p.checkURL(source)
	default:
		return fmt.Errorf("%w: local files cannot be read; send %q text, %q IDs or an allowed URL",
			ErrSourceNotAllowed, TextPrefix, GoogleDocPrefix)
	}
}

func (p SourcePolicy) checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrSourceNotAllowed, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range p.AllowedHosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if host == strings.TrimPrefix(allowed, ".") {
			return nil
		}
		if strings.HasPrefix(allowed, ".") && strings.HasSuffix(host, allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: host %q is not in the allowed hosts", ErrSourceNotAllowed, host)
}

// redirectCheck applies the policy to every redirect hop.
func (p SourcePolicy) redirectCheck(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}
	return p.checkURL(req.URL.String())
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

type policyKey struct{}

// WithSourcePolicy makes every Load under ctx subject to p.
func WithSourcePolicy(ctx context.Context, p SourcePolicy) context.Context {
	return context.WithValue(ctx, policyKey{}, p)
}

func sourcePolicyFrom(ctx context.Context) (SourcePolicy, bool) {
	p, ok := ctx.Value(policyKey{}).(SourcePolicy)
	return p, ok
}
