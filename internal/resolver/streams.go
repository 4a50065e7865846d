package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hjhkhvffsd/movie-web-app/internal/apperrors"
	"github.com/hjhkhvffsd/movie-web-app/internal/cache"
	"github.com/hjhkhvffsd/movie-web-app/internal/config"
	"github.com/hjhkhvffsd/movie-web-app/internal/models"
	"github.com/hjhkhvffsd/movie-web-app/internal/parser"
)

// MovieStream resolves the single stream of a movie translator.
// Memoized per (item, translator); retried.
func (r *Resolver) MovieStream(ctx context.Context, itemID int, tr models.Translator, favsID string) (*models.Stream, error) {
	return do(ctx, r, func(ctx context.Context) (*models.Stream, error) {
		return r.movieStream(ctx, itemID, tr, favsID)
	})
}

func (r *Resolver) movieStream(ctx context.Context, itemID int, tr models.Translator, favsID string) (*models.Stream, error) {
	return cache.Memoize(ctx, r.memo, movieStreamKey(itemID, tr.ID), func(ctx context.Context) (*models.Stream, error) {
		logger := config.GetLogger()
		logger.Debug().Int("itemID", itemID).Int("translatorID", tr.ID).Msg("Resolving movie stream")

		resp, err := r.postAjax(ctx, movieForm(itemID, tr, favsID))
		if err != nil {
			return nil, err
		}
		return parser.ParseStream(resp.URL, r.absoluteURL(resp.ThumbnailsURL), movieStreamID(itemID, tr.ID))
	})
}

// SeriesStream resolves the stream of one episode leaf. Retried; cached
// only when the series stream cache is enabled, since episode stream
// URLs rotate upstream.
func (r *Resolver) SeriesStream(ctx context.Context, itemID int, tr models.Translator, favsID string, season, episode int) (*models.Stream, error) {
	return do(ctx, r, func(ctx context.Context) (*models.Stream, error) {
		return r.seriesStream(ctx, itemID, tr, favsID, season, episode)
	})
}

func (r *Resolver) seriesStream(ctx context.Context, itemID int, tr models.Translator, favsID string, season, episode int) (*models.Stream, error) {
	compute := func(ctx context.Context) (*models.Stream, error) {
		logger := config.GetLogger()
		logger.Debug().
			Int("itemID", itemID).
			Int("translatorID", tr.ID).
			Int("season", season).
			Int("episode", episode).
			Msg("Resolving series stream")

		resp, err := r.postAjax(ctx, streamForm(itemID, tr, favsID, season, episode))
		if err != nil {
			return nil, err
		}
		return parser.ParseStream(resp.URL, r.absoluteURL(resp.ThumbnailsURL), seriesStreamID(itemID, tr.ID, season, episode))
	}

	if !r.cacheSeriesStreams {
		return compute(ctx)
	}
	return cache.Memoize(ctx, r.memo, seriesStreamKey(itemID, tr.ID, season, episode), compute)
}

// episodesResult is the memoized composite of one episode tree fetch.
type episodesResult struct {
	Tree      models.SeasonTree  `json:"tree"`
	Stream    *models.Stream     `json:"stream"`
	Effective models.SwitchState `json:"effective"`
}

// EpisodesTree fetches a translator's full season/episode tree along
// with a stream for the requested or default (season, episode). A nil
// want targets the first season and its first episode in
// provider-reported order. Memoized per (item, translator, hint);
// retried. The returned tree carries only nil leaves; the stream is
// reported separately for the caller to merge.
func (r *Resolver) EpisodesTree(ctx context.Context, itemID int, tr models.Translator, favsID string, want *models.SwitchState) (models.SeriesSwitchResult, error) {
	res, err := do(ctx, r, func(ctx context.Context) (episodesResult, error) {
		return r.episodesTree(ctx, itemID, tr, favsID, want)
	})
	if err != nil {
		return models.SeriesSwitchResult{}, err
	}
	return models.SeriesSwitchResult{Effective: res.Effective, Tree: res.Tree, Leaf: res.Stream}, nil
}

func (r *Resolver) episodesTree(ctx context.Context, itemID int, tr models.Translator, favsID string, want *models.SwitchState) (episodesResult, error) {
	var hint models.SwitchState
	if want != nil {
		hint = *want
	}

	return cache.Memoize(ctx, r.memo, episodesKey(itemID, tr.ID, hint.Season, hint.Episode), func(ctx context.Context) (episodesResult, error) {
		logger := config.GetLogger()
		logger.Debug().Int("itemID", itemID).Int("translatorID", tr.ID).Msg("Fetching episode tree")

		resp, err := r.postAjax(ctx, episodesForm(itemID, tr, favsID))
		if err != nil {
			return episodesResult{}, err
		}

		tree, err := parser.ParseSeasons(resp.SeasonsHTML, resp.EpisodesHTML)
		if err != nil {
			return episodesResult{}, err
		}

		first, firstEpisode, ok := tree.First()
		if !ok {
			return episodesResult{}, fmt.Errorf("empty episode tree for item %d translator %d", itemID, tr.ID)
		}
		effective := models.SwitchState{Season: first, Episode: firstEpisode}
		if want != nil && tree.Episode(want.Season, want.Episode) != nil {
			effective = *want
		}

		// The get_episodes response carries the stream of the default
		// leaf; any other target needs its own fetch.
		var stream *models.Stream
		if effective.Season == first && effective.Episode == firstEpisode {
			stream, err = parser.ParseStream(resp.URL, r.absoluteURL(resp.ThumbnailsURL),
				seriesStreamID(itemID, tr.ID, effective.Season, effective.Episode))
		} else {
			stream, err = r.seriesStream(ctx, itemID, tr, favsID, effective.Season, effective.Episode)
		}
		if err != nil {
			return episodesResult{}, err
		}

		logger.Info().
			Int("itemID", itemID).
			Int("translatorID", tr.ID).
			Int("seasons", len(tree)).
			Int("season", effective.Season).
			Int("episode", effective.Episode).
			Msg("Resolved episode tree")

		return episodesResult{Tree: tree, Stream: stream, Effective: effective}, nil
	})
}

// DownloadSize resolves the download size of one quality via a
// metadata-only request. 0 when the provider reports no length.
// Memoized per (stream, quality); retried.
func (r *Resolver) DownloadSize(ctx context.Context, stream *models.Stream, qualityID string) (int64, error) {
	quality := stream.QualityByID(qualityID)
	if quality == nil {
		return 0, apperrors.NewNotFoundError("quality", qualityID)
	}

	return do(ctx, r, func(ctx context.Context) (int64, error) {
		return r.downloadSize(ctx, stream.ID, quality)
	})
}

func (r *Resolver) downloadSize(ctx context.Context, streamID string, quality *models.Quality) (int64, error) {
	return cache.Memoize(ctx, r.memo, sizeKey(streamID, quality.ID), func(ctx context.Context) (int64, error) {
		return r.client.Head(ctx, quality.URL)
	})
}

// thumbnails fetches the stream's thumbnail sheet payload. Memoized per
// stream. An absent sheet URL yields an empty payload without a fetch.
func (r *Resolver) thumbnails(ctx context.Context, stream *models.Stream) ([]byte, error) {
	if stream.ThumbnailsURL == "" {
		return nil, nil
	}
	return cache.Memoize(ctx, r.memo, thumbKey(stream.ID), func(ctx context.Context) ([]byte, error) {
		return r.client.FetchBytes(ctx, r.absoluteURL(stream.ThumbnailsURL))
	})
}

// StreamDetails fetches the thumbnail sheet and the download size of
// every quality concurrently and joins the results. Any branch failing
// fails the whole operation with no partial result; cancellation
// propagates into every branch.
func (r *Resolver) StreamDetails(ctx context.Context, stream *models.Stream) (*models.StreamDetails, error) {
	g, ctx := errgroup.WithContext(ctx)

	var thumbs []byte
	g.Go(func() error {
		var err error
		thumbs, err = do(ctx, r, func(ctx context.Context) ([]byte, error) {
			return r.thumbnails(ctx, stream)
		})
		return err
	})

	sizes := make([]int64, len(stream.Qualities))
	for i := range stream.Qualities {
		g.Go(func() error {
			quality := &stream.Qualities[i]
			size, err := do(ctx, r, func(ctx context.Context) (int64, error) {
				return r.downloadSize(ctx, stream.ID, quality)
			})
			if err != nil {
				return err
			}
			sizes[i] = size
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	details := &models.StreamDetails{
		Thumbnails: thumbs,
		Sizes:      make(map[string]int64, len(stream.Qualities)),
	}
	for i, q := range stream.Qualities {
		details.Sizes[q.ID] = sizes[i]
	}
	return details, nil
}
