package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComicServer(t *testing.T, ids ...int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /wiki/index.php/List", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<table>")

		for _, id := range ids {
			fmt.Fprintf(w, `<tr><td><a href="/wiki/index.php/%d:_Title_%d">%d</a><span class="create">c</span></td></tr>`, id, id, id)
		}

		fmt.Fprint(w, "</table>")
	})
	mux.HandleFunc("GET /wiki/index.php/{page}", func(w http.ResponseWriter, r *http.Request) {
		id, _, _ := strings.Cut(r.PathValue("page"), ":")
		fmt.Fprintf(w, `<h1>%s: Title %s</h1><div>
<h2><span id="Explanation">Explanation</span></h2><p>About %s.</p>
<h2><span id="Transcript">Transcript</span></h2><dl><dd>Line %s</dd></dl>
<h1>Discussion</h1></div>`, id, id, id, id)
	})
	mux.HandleFunc("GET /asset/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		fmt.Fprintf(w, `<div id="comic"><img alt="alt %s"></div>https://imgs.xkcd.com/comics/%s.png`, id, id)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func writeTestConfig(t *testing.T, srvURL, dir string) string {
	t.Helper()

	content := fmt.Sprintf(`harvester:
  sources:
    index_url: "%[1]s/wiki/index.php/List"
    detail_base_url: "%[1]s"
    asset_base_url: "%[1]s/asset"
  rate_limit:
    requests: 1000
    period_ms: 1000
  retry:
    timeout_sec: 5
  store:
    existing: "%[2]s/base.jsonl"
  output:
    dir: "%[2]s"
logging:
  level: "error"
`, srvURL, dir)

	path := filepath.Join(dir, "harvester.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var buf bytes.Buffer

	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	require.NoError(t, rootCmd.Execute(), buf.String())

	return buf.String()
}

func TestHarvesterCommands(t *testing.T) {
	srv := newComicServer(t, 2, 1)
	dir := t.TempDir()
	configFile := writeTestConfig(t, srv.URL, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.jsonl"), nil, 0644))

	out := execute(t, "resume-point", "--config", configFile)
	assert.True(t, strings.HasPrefix(out, "0\t"), out)

	out = execute(t, "run", "--config", configFile)
	partition := filepath.Join(dir, "xkcd-metadata-1-2.jsonl")
	assert.Contains(t, out, partition)
	assert.FileExists(t, partition)

	out = execute(t, "resume-point", "--config", configFile)
	assert.True(t, strings.HasPrefix(out, "2\t"), out)

	out = execute(t, "run", "--config", configFile)
	assert.Contains(t, out, "no new records")

	out = execute(t, "inspect", partition, "--config", configFile)
	assert.Contains(t, out, "Title 1")
	assert.Contains(t, out, "Title 2")
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	loaded, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "span.create", loaded.Harvester.Selectors.IndexMarker)
}
