package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/hjhkhvffsd/movie-web-app/internal/models"
)

const movieDocHTML = `<html>
<head>
	<meta property="og:type" content="video.movie" />
</head>
<body>
	<input type="hidden" id="post_id" value="12345" />
	<input type="hidden" id="ctrl_favs" value="abc-def-123" />
	<div class="b-post__title"> Тестовый фильм </div>
	<div class="b-post__origtitle">Test Film</div>
	<div class="b-post__description_text">
		A film about testing.
	</div>
	<div class="b-sidecover"><img src="https://static.example/posters/12345.jpg" /></div>
	<table class="b-post__info">
		<tr><td><a href="/year/2019/">2019</a></td></tr>
	</table>
	<ul id="translators-list">
		<li data-translator_id="110" data-camrip="0" data-ads="0" data-director="0">Дубляж</li>
		<li data-translator_id="238" data-camrip="1" data-ads="1" data-director="1">Оригинал</li>
	</ul>
</body>
</html>`

const seriesDocHTML = `<html>
<head>
	<meta property="og:type" content="video.tv_series" />
</head>
<body>
	<div id="send-video-issue" data-id="67890"></div>
	<input type="hidden" id="ctrl_favs" value="favs-token" />
	<div class="b-post__title">Тестовый сериал</div>
	<ul id="translators-list">
		<li data-translator_id="56">Дубляж</li>
	</ul>
</body>
</html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

func TestParseItem_Movie(t *testing.T) {
	item, err := ParseItem(parseDoc(t, movieDocHTML))
	if err != nil {
		t.Fatalf("ParseItem: %v", err)
	}

	if item.Kind != models.KindMovie {
		t.Errorf("Expected movie kind, got %v", item.Kind)
	}
	if item.ID != 12345 {
		t.Errorf("Expected id 12345, got %d", item.ID)
	}
	if item.FavsID != "abc-def-123" {
		t.Errorf("Expected favs token, got %q", item.FavsID)
	}
	if item.Title != "Тестовый фильм" {
		t.Errorf("Unexpected title %q", item.Title)
	}
	if item.OriginalTitle != "Test Film" {
		t.Errorf("Unexpected original title %q", item.OriginalTitle)
	}
	if item.Description != "A film about testing." {
		t.Errorf("Unexpected description %q", item.Description)
	}
	if item.Poster != "https://static.example/posters/12345.jpg" {
		t.Errorf("Unexpected poster %q", item.Poster)
	}
	if item.Year != 2019 {
		t.Errorf("Expected year 2019, got %d", item.Year)
	}

	if len(item.Translators) != 2 {
		t.Fatalf("Expected 2 translators, got %d", len(item.Translators))
	}
	first := item.Translators[0]
	if first.ID != 110 || first.Name != "Дубляж" || first.IsCamrip || first.IsAds || first.IsDirector {
		t.Errorf("Unexpected first translator %+v", first)
	}
	second := item.Translators[1]
	if second.ID != 238 || !second.IsCamrip || !second.IsAds || !second.IsDirector {
		t.Errorf("Unexpected second translator %+v", second)
	}

	if len(item.MovieStreams) != 2 {
		t.Fatalf("Expected one stream slot per translator, got %d", len(item.MovieStreams))
	}
	for i, s := range item.MovieStreams {
		if s != nil {
			t.Errorf("Slot %d should start unresolved", i)
		}
	}
	if item.SeasonTrees != nil {
		t.Error("Movie item should carry no season trees")
	}
}

func TestParseItem_Series(t *testing.T) {
	item, err := ParseItem(parseDoc(t, seriesDocHTML))
	if err != nil {
		t.Fatalf("ParseItem: %v", err)
	}

	if item.Kind != models.KindSeries {
		t.Errorf("Expected series kind, got %v", item.Kind)
	}
	if item.ID != 67890 {
		t.Errorf("Expected id from #send-video-issue, got %d", item.ID)
	}
	if len(item.SeasonTrees) != 1 {
		t.Fatalf("Expected one tree slot per translator, got %d", len(item.SeasonTrees))
	}
	if item.SeasonTrees[0] != nil {
		t.Error("Tree slot should start unfetched")
	}
	if item.MovieStreams != nil {
		t.Error("Series item should carry no movie stream slots")
	}
}

func TestParseItem_SingleTranslatorFallback(t *testing.T) {
	// Items with a single translator render no #translators-list; the
	// default translator id lives in the player bootstrap call.
	html := `<html>
<head><meta property="og:type" content="video.movie" /></head>
<body>
	<input type="hidden" id="post_id" value="111" />
	<div class="b-post__title">Фильм</div>
	<table class="b-post__info">
		<tr><td>В переводе: Дубляж</td></tr>
	</table>
	<script>
		$(function () { sof.tv.initCDNMoviesEvents(111, 110, 0, false, {}); });
	</script>
</body>
</html>`

	item, err := ParseItem(parseDoc(t, html))
	if err != nil {
		t.Fatalf("ParseItem: %v", err)
	}
	if len(item.Translators) != 1 {
		t.Fatalf("Expected 1 translator from bootstrap fallback, got %d", len(item.Translators))
	}
	if item.Translators[0].ID != 110 {
		t.Errorf("Expected translator 110, got %d", item.Translators[0].ID)
	}
	if item.Translators[0].Name != "Дубляж" {
		t.Errorf("Expected name from info table, got %q", item.Translators[0].Name)
	}
}

func TestParseItem_MissingID(t *testing.T) {
	html := `<html><head><meta property="og:type" content="video.movie" /></head><body></body></html>`
	if _, err := ParseItem(parseDoc(t, html)); err == nil {
		t.Error("Expected an error for a document without an item id")
	}
}

func TestParseItem_NoTranslators(t *testing.T) {
	html := `<html>
<head><meta property="og:type" content="video.movie" /></head>
<body><input type="hidden" id="post_id" value="5" /></body>
</html>`
	if _, err := ParseItem(parseDoc(t, html)); err == nil {
		t.Error("Expected an error for a document without translators")
	}
}
