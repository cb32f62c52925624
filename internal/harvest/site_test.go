package harvest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"xkcdharvest/internal/config"
)

// fakeSite serves an index page, detail pages and asset pages.
type fakeSite struct {
	srv *httptest.Server

	mu           sync.Mutex
	hits         map[string]int
	indexLinks   []string
	indexStatus  int
	detailStatus map[int]int
	assetStatus  map[int]int
	headings     map[int]string
	delay        time.Duration
	onDetail     func(id int)

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func newFakeSite(t *testing.T, ids ...int) *fakeSite {
	t.Helper()

	s := &fakeSite{
		hits:         make(map[string]int),
		detailStatus: make(map[int]int),
		assetStatus:  make(map[int]int),
		headings:     make(map[int]string),
	}

	for _, id := range ids {
		s.indexLinks = append(s.indexLinks, detailPath(id))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /wiki/index.php/List", s.serveIndex)
	mux.HandleFunc("GET /wiki/index.php/{page}", s.serveDetail)
	mux.HandleFunc("GET /asset/{id}", s.serveAsset)

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)

	return s
}

func detailPath(id int) string {
	return fmt.Sprintf("/wiki/index.php/%d:_Title_%d", id, id)
}

func (s *fakeSite) indexURL() string {
	return s.srv.URL + "/wiki/index.php/List"
}

func (s *fakeSite) detailURL(id int) string {
	return s.srv.URL + detailPath(id)
}

func (s *fakeSite) config() *config.Config {
	cfg := config.Default()
	cfg.Harvester.Sources.IndexURL = s.indexURL()
	cfg.Harvester.Sources.DetailBaseURL = s.srv.URL
	cfg.Harvester.Sources.AssetBaseURL = s.srv.URL + "/asset"
	cfg.Harvester.RateLimit.Requests = 1000
	cfg.Harvester.RateLimit.PeriodMs = 1000
	cfg.Harvester.Retry.TimeoutSec = 5
	cfg.Harvester.Concurrency.MaxWorkers = 4

	return cfg
}

func (s *fakeSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hits[path]
}

func (s *fakeSite) totalHits(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0

	for path, n := range s.hits {
		if strings.HasPrefix(path, prefix) {
			total += n
		}
	}

	return total
}

func (s *fakeSite) begin(r *http.Request) func() {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	n := s.inFlight.Add(1)
	for {
		peak := s.maxInFlight.Load()
		if n <= peak || s.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	return func() { s.inFlight.Add(-1) }
}

func (s *fakeSite) serveIndex(w http.ResponseWriter, r *http.Request) {
	defer s.begin(r)()

	if s.indexStatus != 0 {
		http.Error(w, "unavailable", s.indexStatus)

		return
	}

	var b strings.Builder

	b.WriteString(`<html><body><h1>List of all comics</h1><table>`)

	for _, href := range s.indexLinks {
		fmt.Fprintf(&b, `<tr><td><a href="%s">%s</a> <span class="create">Create</span></td></tr>`, href, href)
	}

	b.WriteString(`</table></body></html>`)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, b.String())
}

func (s *fakeSite) serveDetail(w http.ResponseWriter, r *http.Request) {
	defer s.begin(r)()

	idText, _, _ := strings.Cut(r.PathValue("page"), ":")

	id, err := strconv.Atoi(idText)
	if err != nil {
		http.NotFound(w, r)

		return
	}

	if s.onDetail != nil {
		s.onDetail(id)
	}

	if status := s.detailStatus[id]; status != 0 {
		http.Error(w, "unavailable", status)

		return
	}

	heading, ok := s.headings[id]
	if !ok {
		heading = fmt.Sprintf("%d: Title %d", id, id)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><body>
<h1 id="firstHeading">%s</h1>
<div id="content">
<h2><span class="mw-headline" id="Explanation">Explanation</span></h2>
<p>Explanation of %d.</p>
<h2><span class="mw-headline" id="Transcript">Transcript</span></h2>
<dl><dd>Cueball: %d</dd></dl>
<h1><span class="mw-headline" id="Discussion">Discussion</span></h1>
<p>Comments.</p>
</div></body></html>`, heading, id, id)
}

func (s *fakeSite) serveAsset(w http.ResponseWriter, r *http.Request) {
	defer s.begin(r)()

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)

		return
	}

	if status := s.assetStatus[id]; status != 0 {
		http.Error(w, "unavailable", status)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><body>
<div id="comic"><img src="//imgs.xkcd.com/comics/c%d.png" title="hover %d" alt="alt %d" /></div>
Image URL (for hotlinking/embedding): https://imgs.xkcd.com/comics/c%d.png
</body></html>`, id, id, id, id)
}
