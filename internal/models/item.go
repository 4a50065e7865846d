package models

// ItemKind discriminates the two item variants. All variant dispatch in
// this codebase is a switch on this tag.
type ItemKind int

const (
	KindMovie ItemKind = iota
	KindSeries
)

// String returns the string representation of the kind.
func (k ItemKind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindSeries:
		return "series"
	default:
		return "unknown"
	}
}

// Item is a provider content item. Items are persistent values: they
// are never mutated in place, and every update goes through a
// With* constructor that returns a structurally-copied new value.
//
// MovieStreams and SeasonTrees are parallel to Translators: exactly one
// slot per (item, translator) pair. For a movie, SeasonTrees is nil and
// MovieStreams holds one *Stream per translator (nil = never fetched).
// For a series, MovieStreams is nil and SeasonTrees holds one tree per
// translator (nil = never fetched; leaves inside a fetched tree may
// still have nil streams).
type Item struct {
	Kind          ItemKind     `json:"kind"`
	ID            int          `json:"id"`
	FavsID        string       `json:"favsId"`
	Title         string       `json:"title"`
	OriginalTitle string       `json:"originalTitle,omitempty"`
	Description   string       `json:"description,omitempty"`
	Poster        string       `json:"poster,omitempty"`
	Year          int          `json:"year,omitempty"`
	Translators   []Translator `json:"translators"`

	MovieStreams []*Stream    `json:"movieStreams,omitempty"`
	SeasonTrees  []SeasonTree `json:"seasonTrees,omitempty"`
}

// TranslatorIndex returns the position of the translator with the given
// id, or -1.
func (it *Item) TranslatorIndex(translatorID int) int {
	for i, tr := range it.Translators {
		if tr.ID == translatorID {
			return i
		}
	}
	return -1
}

// WithMovieStream returns a copy of the item with the stream slot of
// one translator replaced. The receiver is unchanged.
func (it Item) WithMovieStream(translatorIdx int, stream *Stream) Item {
	streams := make([]*Stream, len(it.MovieStreams))
	copy(streams, it.MovieStreams)
	streams[translatorIdx] = stream
	it.MovieStreams = streams
	return it
}

// WithSeasonTree returns a copy of the item with one translator's
// season tree replaced. The receiver is unchanged.
func (it Item) WithSeasonTree(translatorIdx int, tree SeasonTree) Item {
	trees := make([]SeasonTree, len(it.SeasonTrees))
	copy(trees, it.SeasonTrees)
	trees[translatorIdx] = tree
	it.SeasonTrees = trees
	return it
}

// WithEpisodeStream returns a copy of the item with the stream of one
// (translator, season, episode) leaf replaced. The affected tree is
// deep-copied so the original item's tree is untouched. The leaf must
// exist; callers clamp before lookup.
func (it Item) WithEpisodeStream(translatorIdx, season, episode int, stream *Stream) Item {
	tree := it.SeasonTrees[translatorIdx].clone()
	if leaf := tree.Episode(season, episode); leaf != nil {
		leaf.Stream = stream
	}
	return it.WithSeasonTree(translatorIdx, tree)
}
