package resolver

import "fmt"

// Cache key layout. Stream ids double as the key base for the derived
// size and thumbnail entries, so a stream and its details always evict
// independently but address consistently.

func itemKey(path string) string {
	return "item:" + path
}

func movieStreamKey(itemID, translatorID int) string {
	return "stream:" + movieStreamID(itemID, translatorID)
}

func seriesStreamKey(itemID, translatorID, season, episode int) string {
	return "stream:" + seriesStreamID(itemID, translatorID, season, episode)
}

func episodesKey(itemID, translatorID, season, episode int) string {
	return fmt.Sprintf("episodes:%d:%d:%d:%d", itemID, translatorID, season, episode)
}

func sizeKey(streamID, qualityID string) string {
	return "size:" + streamID + ":" + qualityID
}

func thumbKey(streamID string) string {
	return "thumb:" + streamID
}

func movieStreamID(itemID, translatorID int) string {
	return fmt.Sprintf("%d:%d", itemID, translatorID)
}

func seriesStreamID(itemID, translatorID, season, episode int) string {
	return fmt.Sprintf("%d:%d:%d:%d", itemID, translatorID, season, episode)
}
