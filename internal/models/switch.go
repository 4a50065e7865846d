package models

// SwitchState is the (season, episode) the caller wants to land on
// after a translator switch. The resolver may adjust it when the
// requested coordinates do not exist under the new translator.
type SwitchState struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

// SeriesSwitchResult is the outcome of a series translator switch.
// Tree is non-nil only when the translator's tree had to be fetched;
// Leaf is non-nil only when a new leaf stream was fetched. Effective is
// always set and may differ from the requested state after clamping.
type SeriesSwitchResult struct {
	Effective SwitchState
	Tree      SeasonTree
	Leaf      *Stream
}
