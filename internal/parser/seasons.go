package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hjhkhvffsd/movie-web-app/internal/config"
	"github.com/hjhkhvffsd/movie-web-app/internal/models"
)

// ParseSeasons builds a translator's season tree from the two HTML
// fragments of a get_episodes response. Seasons and episodes keep the
// provider's reported order, which is not necessarily numeric. Every
// leaf starts with a nil stream.
func ParseSeasons(seasonsHTML, episodesHTML string) (models.SeasonTree, error) {
	logger := config.GetLogger()

	seasonsDoc, err := goquery.NewDocumentFromReader(strings.NewReader(seasonsHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse seasons fragment: %w", err)
	}
	episodesDoc, err := goquery.NewDocumentFromReader(strings.NewReader(episodesHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse episodes fragment: %w", err)
	}

	var tree models.SeasonTree
	index := make(map[int]int)

	seasonsDoc.Find(".b-simple_season__item").Each(func(i int, s *goquery.Selection) {
		number, err := strconv.Atoi(s.AttrOr("data-tab_id", ""))
		if err != nil {
			logger.Debug().Str("raw", s.AttrOr("data-tab_id", "")).Msg("Skipping season with non-numeric id")
			return
		}
		if _, exists := index[number]; exists {
			return
		}
		index[number] = len(tree)
		tree = append(tree, models.Season{Number: number, Title: strings.TrimSpace(s.Text())})
	})

	episodesDoc.Find(".b-simple_episode__item").Each(func(i int, s *goquery.Selection) {
		season, err := strconv.Atoi(s.AttrOr("data-season_id", ""))
		if err != nil {
			return
		}
		episode, err := strconv.Atoi(s.AttrOr("data-episode_id", ""))
		if err != nil {
			return
		}

		// An episode under a season missing from the seasons fragment
		// still gets a place in the tree, in encounter order.
		pos, exists := index[season]
		if !exists {
			pos = len(tree)
			index[season] = pos
			tree = append(tree, models.Season{Number: season})
		}

		tree[pos].Episodes = append(tree[pos].Episodes, models.Episode{
			Number: episode,
			Title:  strings.TrimSpace(s.Text()),
		})
	})

	if len(tree) == 0 {
		return nil, fmt.Errorf("no seasons in episodes response")
	}

	logger.Debug().Int("seasons", len(tree)).Msg("Parsed season tree")
	return tree, nil
}
