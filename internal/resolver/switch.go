package resolver

import (
	"context"

	"github.com/hjhkhvffsd/movie-web-app/internal/apperrors"
	"github.com/hjhkhvffsd/movie-web-app/internal/config"
	"github.com/hjhkhvffsd/movie-web-app/internal/models"
)

// Switch resolves a translator switch (and, for series, a desired
// season/episode) against an already-assembled item. It decides what is
// already known, fetches only the missing pieces, and returns a new
// item value with the results merged; the input item is never mutated.
// The SeriesSwitchResult reports the effective landing state plus what
// was fetched: Tree is set only when the translator's tree was
// unfetched, Leaf only when a stream fetch occurred.
func (r *Resolver) Switch(ctx context.Context, item models.Item, translatorID int, want models.SwitchState) (models.Item, models.SeriesSwitchResult, error) {
	idx := item.TranslatorIndex(translatorID)
	if idx < 0 {
		return item, models.SeriesSwitchResult{}, apperrors.NewTranslatorNotFoundError(translatorID)
	}

	switch item.Kind {
	case models.KindSeries:
		return r.seriesSwitch(ctx, item, idx, want)
	default:
		return r.movieSwitch(ctx, item, idx)
	}
}

// movieSwitch is the movie path: a non-empty slot is terminal, an empty
// one needs a single stream fetch.
func (r *Resolver) movieSwitch(ctx context.Context, item models.Item, idx int) (models.Item, models.SeriesSwitchResult, error) {
	tr := item.Translators[idx]

	if existing := item.MovieStreams[idx]; existing != nil {
		logger := config.GetLogger()
		logger.Debug().
			Int("itemID", item.ID).
			Int("translatorID", tr.ID).
			Msg("Movie translator switch hit an existing stream")
		return item, models.SeriesSwitchResult{}, nil
	}

	stream, err := r.MovieStream(ctx, item.ID, tr, item.FavsID)
	if err != nil {
		return item, models.SeriesSwitchResult{}, err
	}
	return item.WithMovieStream(idx, stream), models.SeriesSwitchResult{Leaf: stream}, nil
}

// seriesSwitch is the series decision procedure: fetch the tree if
// unknown, clamp the desired (season, episode) to a leaf that exists
// under the new translator, then fetch the leaf's stream only if it is
// still unresolved.
func (r *Resolver) seriesSwitch(ctx context.Context, item models.Item, idx int, want models.SwitchState) (models.Item, models.SeriesSwitchResult, error) {
	logger := config.GetLogger()
	tr := item.Translators[idx]
	next := item
	result := models.SeriesSwitchResult{}

	tree := item.SeasonTrees[idx]
	if tree == nil {
		res, err := r.EpisodesTree(ctx, item.ID, tr, item.FavsID, nil)
		if err != nil {
			return item, models.SeriesSwitchResult{}, err
		}
		tree = res.Tree
		next = next.WithSeasonTree(idx, tree)
		if res.Leaf != nil {
			next = next.WithEpisodeStream(idx, res.Effective.Season, res.Effective.Episode, res.Leaf)
		}
		// Report the merged tree: its default leaf is already resolved.
		result.Tree = next.SeasonTrees[idx]
		result.Leaf = res.Leaf
	}

	// Clamp before any leaf lookup: a season absent under this
	// translator falls back to the first season and its first episode;
	// a found season with an absent episode falls back to that season's
	// first episode.
	effective := want
	if season := tree.Season(effective.Season); season == nil {
		first, firstEpisode, ok := tree.First()
		if !ok {
			return item, models.SeriesSwitchResult{}, apperrors.NewNotFoundError("season", "first")
		}
		logger.Debug().
			Int("wantSeason", want.Season).
			Int("season", first).
			Int("episode", firstEpisode).
			Msg("Requested season absent under translator, clamped")
		effective = models.SwitchState{Season: first, Episode: firstEpisode}
	} else if tree.Episode(effective.Season, effective.Episode) == nil {
		if len(season.Episodes) == 0 {
			return item, models.SeriesSwitchResult{}, apperrors.NewNotFoundError("episode", "first")
		}
		logger.Debug().
			Int("season", effective.Season).
			Int("wantEpisode", want.Episode).
			Int("episode", season.Episodes[0].Number).
			Msg("Requested episode absent under translator, clamped")
		effective.Episode = season.Episodes[0].Number
	}
	result.Effective = effective

	// The merged tree (including a default leaf from a fresh fetch) is
	// the authority on whether the landing leaf still needs a stream.
	leaf := next.SeasonTrees[idx].Episode(effective.Season, effective.Episode)
	if leaf.Stream == nil {
		stream, err := r.SeriesStream(ctx, item.ID, tr, item.FavsID, effective.Season, effective.Episode)
		if err != nil {
			return item, models.SeriesSwitchResult{}, err
		}
		result.Leaf = stream
		next = next.WithEpisodeStream(idx, effective.Season, effective.Episode, stream)
	}

	return next, result, nil
}
