package scraper

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"msescraper/internal/fetch"
	"msescraper/internal/utils"
	"msescraper/models"

	"github.com/stretchr/testify/assert"
)

// fakeExchange serves an issuer dropdown and a history endpoint that renders
// one row per calendar day in the requested window.
type fakeExchange struct {
	t        *testing.T
	options  []string
	noSelect bool
	// failing issuers answer history requests with 500
	failing map[string]bool
	// empty issuers answer without a results table
	empty map[string]bool
	// delay holds each history response open
	delay time.Duration
	// onHistory runs before each history response
	onHistory func()

	inFlight atomic.Int32
	peak     atomic.Int32

	mu    sync.Mutex
	posts map[string][]string
}

func newFakeExchange(t *testing.T, options ...string) *fakeExchange {
	return &fakeExchange{
		t:       t,
		options: options,
		failing: map[string]bool{},
		empty:   map[string]bool{},
		posts:   map[string][]string{},
	}
}

func (f *fakeExchange) start() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /list", f.serveList)
	mux.HandleFunc("POST /history/{code}", f.serveHistory)
	srv := httptest.NewServer(mux)
	f.t.Cleanup(srv.Close)
	return srv
}

func (f *fakeExchange) serveList(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("User-Agent") != fetch.DefaultUserAgent {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if f.noSelect {
		io.WriteString(w, "<html><body><p>maintenance</p></body></html>")
		return
	}
	var sb strings.Builder
	sb.WriteString(`<html><body><form><select id="Code" name="Code">`)
	for _, option := range f.options {
		fmt.Fprintf(&sb, `<option value="%s">%s</option>`, option, option)
	}
	sb.WriteString(`</select></form></body></html>`)
	io.WriteString(w, sb.String())
}

func (f *fakeExchange) serveHistory(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	assert.Equal(f.t, code, r.PostForm.Get("Code"))
	assert.Equal(f.t, "Прикажи", r.PostForm.Get("action"))

	f.mu.Lock()
	f.posts[code] = append(f.posts[code], r.PostForm.Get("FromDate")+"-"+r.PostForm.Get("ToDate"))
	f.mu.Unlock()

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.onHistory != nil {
		f.onHistory()
	}
	time.Sleep(f.delay)

	if f.failing[code] {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if f.empty[code] {
		io.WriteString(w, "<html><body><p>Нема податоци</p></body></html>")
		return
	}

	from, err1 := time.Parse(models.DateLayout, r.PostForm.Get("FromDate"))
	to, err2 := time.Parse(models.DateLayout, r.PostForm.Get("ToDate"))
	if err1 != nil || err2 != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	io.WriteString(w, historyPage(code, from, to))
}

func (f *fakeExchange) maxInFlight() int {
	return int(f.peak.Load())
}

func (f *fakeExchange) windows(code string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.posts[code]...)
}

func historyPage(code string, from, to time.Time) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><table id="resultsTable"><thead><tr>`)
	for _, h := range []string{"Датум", "Цена", "Макс", "Мин", "Просечна", "%", "Количина", "Промет", "Вкупен"} {
		fmt.Fprintf(&sb, "<th>%s</th>", h)
	}
	sb.WriteString("</tr></thead><tbody>")
	// newest first, as the exchange renders it
	for d := to; !d.Before(from); d = d.AddDate(0, 0, -1) {
		fmt.Fprintf(&sb,
			"<tr><td> %s </td><td>%s,00</td><td>1</td><td>2</td><td>3</td><td>0,00</td><td>%d</td><td>4</td><td>5</td></tr>",
			d.Format(models.DateLayout), code, d.Day())
	}
	sb.WriteString("</tbody></table></body></html>")
	return sb.String()
}

func testConfig(t *testing.T, srv *httptest.Server) *utils.Config {
	dir := t.TempDir()
	config := utils.DefaultConfig()
	config.Scraper.ListURL = srv.URL + "/list"
	config.Scraper.HistoryURL = srv.URL + "/history/"
	config.Scraper.Timeout = 5
	config.Scraper.Workers = 3
	config.Output.IssuersFile = filepath.Join(dir, "issuers.csv")
	config.Output.DataFile = filepath.Join(dir, "out", "data.csv")
	return config
}

var fixedNow = time.Date(2024, 10, 16, 14, 30, 0, 0, time.UTC)

func newTestScraper(t *testing.T, config *utils.Config, logOut io.Writer) *Scraper {
	if logOut == nil {
		logOut = io.Discard
	}
	s := NewScraper(
		utils.NewLoggerTo(logOut, true),
		fetch.NewHTTPClient(config.FetchOptions()),
		config,
	)
	s.now = func() time.Time { return fixedNow }
	return s
}
