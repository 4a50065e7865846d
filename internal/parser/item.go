package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hjhkhvffsd/movie-web-app/internal/config"
	"github.com/hjhkhvffsd/movie-web-app/internal/models"
)

var (
	yearPattern = regexp.MustCompile(`(\d{4})`)
	// initCDNPattern matches the player bootstrap call embedded in the
	// page scripts; its second argument is the default translator id.
	// Used only when the translator list element is absent (single
	// translator items render no list).
	initCDNPattern = regexp.MustCompile(`sof\.tv\.initCDN(?:Movies|Series)Events\((\d+),\s*(\d+)`)
)

// ParseItem extracts a base item from a provider content page: identity,
// metadata, the movie/series tag, and the translator list. Stream slots
// are allocated (one per translator) but left unresolved.
func ParseItem(doc *goquery.Document) (*models.Item, error) {
	logger := config.GetLogger()

	id, err := extractItemID(doc)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		ID:     id,
		Kind:   extractKind(doc),
		FavsID: doc.Find("#ctrl_favs").AttrOr("value", ""),
		Title:  strings.TrimSpace(doc.Find(".b-post__title").First().Text()),
	}

	item.OriginalTitle = strings.TrimSpace(doc.Find(".b-post__origtitle").First().Text())
	item.Description = strings.TrimSpace(doc.Find(".b-post__description_text").First().Text())
	item.Poster = doc.Find(".b-sidecover img").AttrOr("src", "")

	if href, exists := doc.Find(`.b-post__info a[href*="/year/"]`).First().Attr("href"); exists {
		if matches := yearPattern.FindStringSubmatch(href); len(matches) > 1 {
			item.Year, _ = strconv.Atoi(matches[1])
		}
	}

	item.Translators = extractTranslators(doc)
	if len(item.Translators) == 0 {
		return nil, fmt.Errorf("no translators found for item %d", id)
	}

	// One slot per (item, translator) pair. Slots start empty; the
	// assembler fills the active translator's slot.
	switch item.Kind {
	case models.KindSeries:
		item.SeasonTrees = make([]models.SeasonTree, len(item.Translators))
	default:
		item.MovieStreams = make([]*models.Stream, len(item.Translators))
	}

	logger.Debug().
		Int("id", item.ID).
		Str("kind", item.Kind.String()).
		Str("title", item.Title).
		Int("translators", len(item.Translators)).
		Msg("Parsed item document")

	return item, nil
}

// extractItemID tries the known carriers of the numeric item id in
// document order of reliability.
func extractItemID(doc *goquery.Document) (int, error) {
	candidates := []struct {
		selector string
		attr     string
	}{
		{"#post_id", "value"},
		{"#send-video-issue", "data-id"},
		{"#user-favorites-holder", "data-post_id"},
	}

	for _, c := range candidates {
		if raw, exists := doc.Find(c.selector).First().Attr(c.attr); exists {
			if id, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && id > 0 {
				return id, nil
			}
		}
	}
	return 0, fmt.Errorf("item id not found in document")
}

// extractKind reads the og:type meta tag. Anything that is not
// explicitly a tv series is treated as a movie.
func extractKind(doc *goquery.Document) models.ItemKind {
	content := doc.Find(`meta[property="og:type"]`).AttrOr("content", "")
	if content == "video.tv_series" {
		return models.KindSeries
	}
	return models.KindMovie
}

// extractTranslators reads the translator list in document order. Items
// with a single translator render no list element; for those the
// default translator id is recovered from the player bootstrap script.
func extractTranslators(doc *goquery.Document) []models.Translator {
	logger := config.GetLogger()

	var translators []models.Translator
	doc.Find("#translators-list [data-translator_id]").Each(func(i int, s *goquery.Selection) {
		raw, _ := s.Attr("data-translator_id")
		id, err := strconv.Atoi(raw)
		if err != nil {
			logger.Debug().Str("raw", raw).Msg("Skipping translator with non-numeric id")
			return
		}

		translators = append(translators, models.Translator{
			ID:         id,
			Name:       strings.TrimSpace(s.Text()),
			IsCamrip:   s.AttrOr("data-camrip", "0") == "1",
			IsAds:      s.AttrOr("data-ads", "0") == "1",
			IsDirector: s.AttrOr("data-director", "0") == "1",
		})
	})

	if len(translators) > 0 {
		return translators
	}

	html, err := doc.Html()
	if err != nil {
		return nil
	}
	matches := initCDNPattern.FindStringSubmatch(html)
	if len(matches) < 3 {
		logger.Debug().Msg("No translator list and no player bootstrap call in document")
		return nil
	}

	id, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil
	}
	return []models.Translator{{ID: id, Name: extractDefaultTranslatorName(doc)}}
}

// extractDefaultTranslatorName pulls the translator name from the info
// table when the item has a single unlisted translator.
func extractDefaultTranslatorName(doc *goquery.Document) string {
	var name string
	doc.Find(".b-post__info tr").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if idx := strings.Index(text, "В переводе:"); idx != -1 {
			name = strings.TrimSpace(text[idx+len("В переводе:"):])
			return false
		}
		return true
	})
	return name
}
