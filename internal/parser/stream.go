package parser

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/hjhkhvffsd/movie-web-app/internal/config"
	"github.com/hjhkhvffsd/movie-web-app/internal/models"
)

// trashChars are the characters the provider builds its junk base64
// fragments from. Every 2- and 3-character combination of these,
// base64-encoded, is interleaved into the stream URL payload.
var trashChars = []string{"@", "#", "!", "^", "$"}

// trashCodes holds the precomputed junk fragments to strip before
// decoding. Built once at package init.
var trashCodes = buildTrashCodes()

func buildTrashCodes() []string {
	var codes []string
	for _, combo := range append(charProduct(trashChars, 2), charProduct(trashChars, 3)...) {
		codes = append(codes, base64.StdEncoding.EncodeToString([]byte(combo)))
	}
	return codes
}

// charProduct returns every string of length repeat drawn from elements
// (cartesian product with repetition).
func charProduct(elements []string, repeat int) []string {
	if repeat == 1 {
		return append([]string(nil), elements...)
	}
	var result []string
	for _, e := range elements {
		for _, rest := range charProduct(elements, repeat-1) {
			result = append(result, e+rest)
		}
	}
	return result
}

// clearTrash reverses the provider's stream URL obfuscation: the "#h"
// marker is dropped, the "//_//" separators are joined, the junk base64
// fragments are stripped, and the remainder is base64-decoded.
func clearTrash(data string) (string, error) {
	joined := strings.Join(strings.Split(strings.ReplaceAll(data, "#h", ""), "//_//"), "")
	for _, code := range trashCodes {
		joined = strings.ReplaceAll(joined, code, "")
	}

	decoded, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(joined, "="))
	if err != nil {
		return "", fmt.Errorf("failed to decode stream payload: %w", err)
	}
	return string(decoded), nil
}

// qualityEntry matches one "[quality]url" entry of the decoded list.
var qualityEntry = regexp.MustCompile(`\[([^\]]+)\](.+)`)

// ParseStream decodes the obfuscated stream URL payload of an AJAX
// response into a canonical Stream. The decoded payload is a
// comma-separated list of "[quality]url or url" entries; the first
// playable link of each entry wins.
func ParseStream(encodedURL, thumbnailsURL, streamID string) (*models.Stream, error) {
	logger := config.GetLogger()

	if encodedURL == "" {
		return nil, fmt.Errorf("empty stream payload for %s", streamID)
	}

	decoded, err := clearTrash(encodedURL)
	if err != nil {
		return nil, err
	}

	var qualities []models.Quality
	for _, entry := range strings.Split(decoded, ",") {
		matches := qualityEntry.FindStringSubmatch(strings.TrimSpace(entry))
		if len(matches) < 3 {
			logger.Debug().Str("entry", entry).Msg("Skipping malformed quality entry")
			continue
		}

		quality := matches[1]
		link := pickLink(strings.Split(matches[2], " or "))
		if link == "" {
			logger.Debug().Str("quality", quality).Msg("No playable link in quality entry")
			continue
		}

		qualities = append(qualities, models.Quality{ID: quality, URL: link})
	}

	if len(qualities) == 0 {
		return nil, fmt.Errorf("no qualities decoded for %s", streamID)
	}

	return &models.Stream{
		ID:            streamID,
		Qualities:     qualities,
		ThumbnailsURL: thumbnailsURL,
	}, nil
}

// pickLink prefers a direct .mp4 link; entries sometimes carry an HLS
// mirror first.
func pickLink(links []string) string {
	for _, link := range links {
		link = strings.TrimSpace(link)
		if strings.HasSuffix(link, ".mp4") {
			return link
		}
	}
	for _, link := range links {
		if link = strings.TrimSpace(link); link != "" {
			return link
		}
	}
	return ""
}
