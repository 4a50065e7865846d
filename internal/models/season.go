package models

// Episode is one entry of a season. Stream is nil until the leaf has
// been resolved for the owning translator.
type Episode struct {
	Number int     `json:"number"`
	Title  string  `json:"title"`
	Stream *Stream `json:"stream,omitempty"`
}

// Season holds its episodes in provider-reported order, which is not
// necessarily numeric.
type Season struct {
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	Episodes []Episode `json:"episodes"`
}

// SeasonTree is one translator's known seasons, in provider-reported
// order. A nil tree means the translator has never been fetched.
type SeasonTree []Season

// Season returns the season with the given number, or nil.
func (t SeasonTree) Season(number int) *Season {
	for i := range t {
		if t[i].Number == number {
			return &t[i]
		}
	}
	return nil
}

// Episode returns the episode leaf at (season, episode), or nil when
// either coordinate is absent from the tree.
func (t SeasonTree) Episode(season, episode int) *Episode {
	s := t.Season(season)
	if s == nil {
		return nil
	}
	for i := range s.Episodes {
		if s.Episodes[i].Number == episode {
			return &s.Episodes[i]
		}
	}
	return nil
}

// First returns the first season and its first episode in provider
// order. ok is false for an empty tree or a first season with no
// episodes.
func (t SeasonTree) First() (season, episode int, ok bool) {
	if len(t) == 0 || len(t[0].Episodes) == 0 {
		return 0, 0, false
	}
	return t[0].Number, t[0].Episodes[0].Number, true
}

// clone deep-copies the tree so leaf replacement never mutates a shared
// Item value.
func (t SeasonTree) clone() SeasonTree {
	if t == nil {
		return nil
	}
	out := make(SeasonTree, len(t))
	for i, s := range t {
		episodes := make([]Episode, len(s.Episodes))
		copy(episodes, s.Episodes)
		out[i] = Season{Number: s.Number, Title: s.Title, Episodes: episodes}
	}
	return out
}
