package models

// Translator is an upstream-defined alternate audio/subtitle source for
// the same content. Its flags are forwarded verbatim to the provider's
// AJAX endpoint and affect which stream variant is served.
type Translator struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	IsCamrip   bool   `json:"isCamrip"`
	IsAds      bool   `json:"isAds"`
	IsDirector bool   `json:"isDirector"`
}
