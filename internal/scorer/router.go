package scorer

import (
	"context"
	"log/slog"

	"github.com/Veraticus/docmatch/internal/model"
)

// RouterOptions selects which sites use the remote model.
type RouterOptions struct {
	Sites    []string
	Disabled bool
}

// Router sends pairs from whitelisted sites to the remote scorer and every
// other pair to the fallback.
type Router struct {
	remote   Scorer
	fallback Scorer
	sites    map[string]struct{}
	disabled bool
}

// NewRouter creates a router. A nil remote routes everything to the fallback.
func NewRouter(remote, fallback Scorer, opts RouterOptions) *Router {
	sites := make(map[string]struct{}, len(opts.Sites))
	for _, s := range opts.Sites {
		sites[s] = struct{}{}
	}
	return &Router{
		remote:   remote,
		fallback: fallback,
		sites:    sites,
		disabled: opts.Disabled,
	}
}

// UsesRemote reports whether documents from site are scored remotely.
func (r *Router) UsesRemote(site string) bool {
	if r.disabled || r.remote == nil {
		return false
	}
	_, ok := r.sites[site]
	return ok
}

// Score implements Scorer. The site is taken from a, or b when a has none.
func (r *Router) Score(ctx context.Context, a, b model.Document) (float64, error) {
	site := a.Site
	if site == "" {
		site = b.Site
	}

	if r.UsesRemote(site) {
		slog.Debug("Scoring with remote model", "site", site, "a", a.ID, "b", b.ID)
		return r.remote.Score(ctx, a, b)
	}

	slog.Debug("Scoring with fallback", "site", site, "a", a.ID, "b", b.ID)
	return r.fallback.Score(ctx, a, b)
}
