package resolver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hjhkhvffsd/movie-web-app/internal/cache"
	"github.com/hjhkhvffsd/movie-web-app/internal/config"
	"github.com/hjhkhvffsd/movie-web-app/internal/transport"
)

// counters tracks how many times the fake provider served each kind of
// request.
type counters struct {
	mu sync.Mutex
	n  map[string]int
}

func newCounters() *counters {
	return &counters{n: make(map[string]int)}
}

func (c *counters) inc(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[key]++
}

func (c *counters) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[key]
}

// encodePayload obfuscates a stream list the way the provider does.
func encodePayload(plain string) string {
	return "#h" + base64.StdEncoding.EncodeToString([]byte(plain))
}

const moviePagePath = "/films/test-film-101.html"
const seriesPagePath = "/series/test-series-202.html"

const moviePageHTML = `<html>
<head><meta property="og:type" content="video.movie" /></head>
<body>
	<input type="hidden" id="post_id" value="101" />
	<input type="hidden" id="ctrl_favs" value="favs-101" />
	<div class="b-post__title">Фильм</div>
	<ul id="translators-list">
		<li data-translator_id="110">Дубляж</li>
		<li data-translator_id="238" data-camrip="1">Оригинал</li>
	</ul>
</body>
</html>`

const seriesPageHTML = `<html>
<head><meta property="og:type" content="video.tv_series" /></head>
<body>
	<input type="hidden" id="post_id" value="202" />
	<input type="hidden" id="ctrl_favs" value="favs-202" />
	<div class="b-post__title">Сериал</div>
	<ul id="translators-list">
		<li data-translator_id="56">Дубляж</li>
		<li data-translator_id="238">Оригинал</li>
	</ul>
</body>
</html>`

// Seasons in provider order 2, 3, 5; episodes 10, 11 under season 2.
const fakeSeasonsHTML = `
	<li class="b-simple_season__item" data-tab_id="2">Сезон 2</li>
	<li class="b-simple_season__item" data-tab_id="3">Сезон 3</li>
	<li class="b-simple_season__item" data-tab_id="5">Сезон 5</li>`

const fakeEpisodesHTML = `
	<li class="b-simple_episode__item" data-season_id="2" data-episode_id="10">Серия 10</li>
	<li class="b-simple_episode__item" data-season_id="2" data-episode_id="11">Серия 11</li>
	<li class="b-simple_episode__item" data-season_id="3" data-episode_id="1">Серия 1</li>
	<li class="b-simple_episode__item" data-season_id="5" data-episode_id="1">Серия 1</li>`

// newFakeProvider spins up a provider double serving the item pages,
// the AJAX sideband, quality files (HEAD) and thumbnail sheets.
func newFakeProvider(t *testing.T, calls *counters) *httptest.Server {
	t.Helper()

	var baseURL string
	mux := http.NewServeMux()

	writeEnvelope := func(w http.ResponseWriter, resp transport.AjaxResponse) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}

	mux.HandleFunc(moviePagePath, func(w http.ResponseWriter, r *http.Request) {
		calls.inc("page")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(moviePageHTML))
	})
	mux.HandleFunc(seriesPagePath, func(w http.ResponseWriter, r *http.Request) {
		calls.inc("page")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(seriesPageHTML))
	})

	mux.HandleFunc("/ajax/get_cdn_series/", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		action := r.PostForm.Get("action")
		calls.inc(action)

		switch action {
		case "get_movie":
			writeEnvelope(w, transport.AjaxResponse{
				Success:       true,
				URL:           encodePayload("[360p]" + baseURL + "/v/360.mp4,[720p]" + baseURL + "/v/720.mp4"),
				ThumbnailsURL: "/thumbs/movie.vtt",
			})
		case "get_stream":
			season, episode := r.PostForm.Get("season"), r.PostForm.Get("episode")
			writeEnvelope(w, transport.AjaxResponse{
				Success:       true,
				URL:           encodePayload("[360p]" + baseURL + "/v/s" + season + "e" + episode + ".mp4"),
				ThumbnailsURL: "/thumbs/s" + season + "e" + episode + ".vtt",
			})
		case "get_episodes":
			writeEnvelope(w, transport.AjaxResponse{
				Success:       true,
				URL:           encodePayload("[360p]" + baseURL + "/v/s2e10.mp4"),
				ThumbnailsURL: "/thumbs/s2e10.vtt",
				SeasonsHTML:   fakeSeasonsHTML,
				EpisodesHTML:  fakeEpisodesHTML,
			})
		default:
			writeEnvelope(w, transport.AjaxResponse{Success: false, Message: "unknown action"})
		}
	})

	mux.HandleFunc("/v/", func(w http.ResponseWriter, r *http.Request) {
		calls.inc("head")
		if strings.Contains(r.URL.Path, "720") {
			w.Header().Set("Content-Length", "2000000")
		} else {
			w.Header().Set("Content-Length", "1000000")
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/thumbs/", func(w http.ResponseWriter, r *http.Request) {
		calls.inc("thumbs")
		_, _ = w.Write([]byte("WEBVTT"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	baseURL = server.URL
	return server
}

// newFailingAjaxServer serves a provider double whose AJAX endpoint
// always declares failure with the given message.
func newFailingAjaxServer(t *testing.T, calls *counters, message string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		calls.inc("failing_" + r.PostForm.Get("action"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(transport.AjaxResponse{Success: false, Message: message})
	}))
	t.Cleanup(server.Close)
	return server
}

// newTestResolver builds a resolver over a fresh memory cache and the
// given provider double. The returned cache allows asserting on
// persisted entries.
func newTestResolver(t *testing.T, serverURL string, mod func(*config.Config)) (*Resolver, cache.Cache) {
	t.Helper()

	cfg := &config.Config{
		ProviderDomain:      serverURL,
		ClientTimeout:       "5s",
		UserAgent:           "test-agent",
		RetryAttempts:       4,
		RetryUpstreamErrors: true,
	}
	if mod != nil {
		mod(cfg)
	}

	client, err := transport.New(cfg)
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}

	c, err := cache.New("memory", cache.ProviderConfig{Size: 256, TTL: time.Hour})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	memo := cache.NewMemoizer(c)
	t.Cleanup(func() { _ = memo.Close() })

	return New(client, memo, cfg), c
}
