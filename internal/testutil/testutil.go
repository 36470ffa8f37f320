// Package testutil provides shared test helpers for deck origins and card
// directories.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/starford/koinecards/internal/storage"
)

// Scenario files used across package tests.
const (
	GreetingA = "Hello\nDOMAIN: Greetings\nCARD: 1\n--- CARD TEXT BELOW ---\nBody one"
	GreetingB = "World\nDOMAIN: Greetings\n--- CARD TEXT BELOW ---\nBody two"
)

// DeckServer is an httptest origin serving index.json and card files from
// memory. It records how many times each path was requested.
type DeckServer struct {
	*httptest.Server

	mu    sync.Mutex
	hits  map[string]int
	files map[string]string
}

// NewDeckServer starts an origin whose manifest lists manifestFiles and
// which serves the given card files. Listed files missing from files answer
// 404. The server is closed when the test ends.
func NewDeckServer(t *testing.T, manifestFiles []string, files map[string]string) *DeckServer {
	t.Helper()
	manifest, err := json.Marshal(map[string][]string{"files": manifestFiles})
	if err != nil {
		t.Fatal(err)
	}
	ds := &DeckServer{hits: make(map[string]int), files: make(map[string]string, len(files)+1)}
	for k, v := range files {
		ds.files[k] = v
	}
	ds.files["index.json"] = string(manifest)

	ds.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		ds.mu.Lock()
		ds.hits[name]++
		body, ok := ds.files[name]
		ds.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(name, ".json") {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ds.Close)
	return ds
}

// Hits returns how many requests reached path.
func (ds *DeckServer) Hits(path string) int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.hits[strings.TrimPrefix(path, "/")]
}

// Greetings starts the two-card origin used by the end-to-end scenarios.
func Greetings(t *testing.T) *DeckServer {
	t.Helper()
	return NewDeckServer(t, []string{"01_a.txt", "02_b.txt"}, map[string]string{
		"01_a.txt": GreetingA,
		"02_b.txt": GreetingB,
	})
}

// CardsDir creates a temporary cards directory holding files and returns
// its path together with a storage provider rooted at it.
func CardsDir(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
