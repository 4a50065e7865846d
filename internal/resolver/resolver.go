package resolver

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/hjhkhvffsd/movie-web-app/internal/cache"
	"github.com/hjhkhvffsd/movie-web-app/internal/config"
	"github.com/hjhkhvffsd/movie-web-app/internal/metrics"
	"github.com/hjhkhvffsd/movie-web-app/internal/models"
	"github.com/hjhkhvffsd/movie-web-app/internal/retry"
	"github.com/hjhkhvffsd/movie-web-app/internal/transport"
)

// ajaxPath is the provider's sideband endpoint for stream and episode
// lookups. All actions post to the same path.
const ajaxPath = "/ajax/get_cdn_series/"

// Resolver orchestrates stream resolution against the provider: it
// fetches and parses item documents, resolves streams and episode
// trees through the AJAX sideband, memoizes results, and retries
// remote operations.
type Resolver struct {
	client *transport.Client
	memo   *cache.Memoizer
	retry  retry.Options

	// cacheSeriesStreams enables memoization of per-episode streams.
	// Off by default: episode stream URLs rotate upstream.
	cacheSeriesStreams bool
}

// New creates a Resolver over the given transport and memoizer, wired
// from config.
func New(client *transport.Client, memo *cache.Memoizer, cfg *config.Config) *Resolver {
	return &Resolver{
		client: client,
		memo:   memo,
		retry: retry.Options{
			MaxAttempts:         cfg.RetryAttempts,
			RetryUpstreamErrors: cfg.RetryUpstreamErrors,
		},
		cacheSeriesStreams: cfg.CacheSeriesStreams,
	}
}

// postAjax posts a form to the sideband endpoint and counts the request
// per action and outcome.
func (r *Resolver) postAjax(ctx context.Context, form url.Values) (*transport.AjaxResponse, error) {
	resp, err := r.client.PostForm(ctx, ajaxPath, form)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(form.Get("action"), status).Inc()

	return resp, err
}

// movieForm builds the get_movie request: the translator flags select
// which stream variant the provider serves.
func movieForm(itemID int, tr models.Translator, favsID string) url.Values {
	form := url.Values{}
	form.Set("id", strconv.Itoa(itemID))
	form.Set("translator_id", strconv.Itoa(tr.ID))
	form.Set("favs", favsID)
	form.Set("is_camrip", boolFlag(tr.IsCamrip))
	form.Set("is_ads", boolFlag(tr.IsAds))
	form.Set("is_director", boolFlag(tr.IsDirector))
	form.Set("action", "get_movie")
	return form
}

// streamForm builds the get_stream request for one episode leaf.
func streamForm(itemID int, tr models.Translator, favsID string, season, episode int) url.Values {
	form := url.Values{}
	form.Set("id", strconv.Itoa(itemID))
	form.Set("translator_id", strconv.Itoa(tr.ID))
	form.Set("favs", favsID)
	form.Set("season", strconv.Itoa(season))
	form.Set("episode", strconv.Itoa(episode))
	form.Set("action", "get_stream")
	return form
}

// episodesForm builds the get_episodes request: the response carries
// the translator's full season/episode tree plus a default stream.
func episodesForm(itemID int, tr models.Translator, favsID string) url.Values {
	form := url.Values{}
	form.Set("id", strconv.Itoa(itemID))
	form.Set("translator_id", strconv.Itoa(tr.ID))
	form.Set("favs", favsID)
	form.Set("action", "get_episodes")
	return form
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// absoluteURL resolves provider-relative URLs (thumbnail sheets are
// served as absolute paths) against the configured origin.
func (r *Resolver) absoluteURL(raw string) string {
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return r.client.BaseURL() + raw
}

// do wraps a remote operation with the configured retry policy.
func do[T any](ctx context.Context, r *Resolver, op func(ctx context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, r.retry, op)
}
