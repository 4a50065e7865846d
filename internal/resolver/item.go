package resolver

import (
	"context"

	"github.com/hjhkhvffsd/movie-web-app/internal/cache"
	"github.com/hjhkhvffsd/movie-web-app/internal/config"
	"github.com/hjhkhvffsd/movie-web-app/internal/models"
	"github.com/hjhkhvffsd/movie-web-app/internal/parser"
	"github.com/hjhkhvffsd/movie-web-app/internal/transport"
)

// AssembleOptions selects the initially active translator and, for
// series, the (season, episode) to land on. Zero values mean "use the
// provider defaults".
type AssembleOptions struct {
	TranslatorID int
	Season       int
	Episode      int
}

// Assemble builds a canonical item from its provider page path: the
// document is fetched (memoized by path) and parsed, the active
// translator is selected, and that translator's stream slot is
// resolved. All other slots stay empty until a translator switch.
func (r *Resolver) Assemble(ctx context.Context, path string, opts AssembleOptions) (models.Item, error) {
	logger := config.GetLogger()
	logger.Info().Str("path", path).Msg("Assembling item")

	html, err := do(ctx, r, func(ctx context.Context) (string, error) {
		return cache.Memoize(ctx, r.memo, itemKey(path), func(ctx context.Context) (string, error) {
			return r.client.FetchPage(ctx, path, nil)
		})
	})
	if err != nil {
		return models.Item{}, err
	}

	doc, err := transport.ParseDocument(html)
	if err != nil {
		return models.Item{}, err
	}

	parsed, err := parser.ParseItem(doc)
	if err != nil {
		return models.Item{}, err
	}
	item := *parsed

	// Active translator: the requested one when the item carries it,
	// else the first in document order.
	active := 0
	if opts.TranslatorID != 0 {
		if idx := item.TranslatorIndex(opts.TranslatorID); idx >= 0 {
			active = idx
		}
	}
	tr := item.Translators[active]

	switch item.Kind {
	case models.KindMovie:
		stream, err := r.MovieStream(ctx, item.ID, tr, item.FavsID)
		if err != nil {
			return models.Item{}, err
		}
		item = item.WithMovieStream(active, stream)

	case models.KindSeries:
		var want *models.SwitchState
		if opts.Season != 0 {
			want = &models.SwitchState{Season: opts.Season, Episode: opts.Episode}
		}

		res, err := r.EpisodesTree(ctx, item.ID, tr, item.FavsID, want)
		if err != nil {
			return models.Item{}, err
		}
		item = item.WithSeasonTree(active, res.Tree)
		item = item.WithEpisodeStream(active, res.Effective.Season, res.Effective.Episode, res.Leaf)
	}

	logger.Info().
		Int("itemID", item.ID).
		Str("kind", item.Kind.String()).
		Int("translatorID", tr.ID).
		Msg("Assembled item")
	return item, nil
}
