package models

// Quality is one resolution option of a resolved stream.
type Quality struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Stream is the resolved playable representation of one
// (item, translator[, season, episode]) combination. A Stream is
// immutable once resolved; re-resolving the same combination yields an
// equivalent value. ID is the composite resolve key and the base for
// thumbnail and download-size cache keys.
type Stream struct {
	ID            string    `json:"id"`
	Qualities     []Quality `json:"qualities"`
	ThumbnailsURL string    `json:"thumbnailsUrl"`
}

// QualityByID returns the quality with the given id, or nil.
func (s *Stream) QualityByID(id string) *Quality {
	for i := range s.Qualities {
		if s.Qualities[i].ID == id {
			return &s.Qualities[i]
		}
	}
	return nil
}

// StreamDetails holds the lazily-fetched extras of a stream: the
// thumbnail sheet payload and the download size of every quality,
// keyed by quality id. Produced as a unit; partial results are never
// returned.
type StreamDetails struct {
	Thumbnails []byte           `json:"-"`
	Sizes      map[string]int64 `json:"sizes"`
}
