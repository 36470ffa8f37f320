package manifest

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/testutil"
)

func readManifest(t *testing.T, dir string) models.Manifest {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "index.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	return m
}

func TestWrite_ListsCardFiles(t *testing.T) {
	dir, store := testutil.CardsDir(t, map[string]string{
		"02_b.txt":   "B",
		"01_a.txt":   "A",
		"notes.md":   "ignored",
		"sub/03.txt": "C",
	})

	m, written, err := Write(store, "index.json")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !written {
		t.Error("first write should report a change")
	}
	want := []string{"01_a.txt", "02_b.txt", "sub/03.txt"}
	if diff := cmp.Diff(want, m.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, readManifest(t, dir).Files); diff != "" {
		t.Errorf("on-disk files mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_Idempotent(t *testing.T) {
	_, store := testutil.CardsDir(t, map[string]string{"01_a.txt": "A"})

	if _, _, err := Write(store, "index.json"); err != nil {
		t.Fatal(err)
	}
	_, written, err := Write(store, "index.json")
	if err != nil {
		t.Fatal(err)
	}
	if written {
		t.Error("unchanged manifest should not be rewritten")
	}
}

func TestBuild_Empty(t *testing.T) {
	_, store := testutil.CardsDir(t, nil)
	m, err := Build(store)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := Encode(m)
	if string(data) != "{\n  \"files\": []\n}\n" {
		t.Errorf("encoded = %q", data)
	}
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_RebuildsOnCardChanges(t *testing.T) {
	dir, store := testutil.CardsDir(t, map[string]string{"01_a.txt": "A"})
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if _, _, err := Write(store, "index.json"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var updates int
	go Watch(ctx, store, "index.json", logger, func(*models.Manifest) {
		mu.Lock()
		updates++
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "02_b.txt"), []byte("B"), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return len(readManifest(t, dir).Files) == 2
	}, "new card not added to manifest")

	_ = os.Remove(filepath.Join(dir, "01_a.txt"))
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		files := readManifest(t, dir).Files
		return len(files) == 1 && files[0] == "02_b.txt"
	}, "removed card still in manifest")

	mu.Lock()
	defer mu.Unlock()
	if updates < 2 {
		t.Errorf("updates = %d, want at least 2", updates)
	}
}

func TestWatch_NewDirWatched(t *testing.T) {
	dir, store := testutil.CardsDir(t, nil)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, store, "index.json", logger, nil)
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(dir, "greek")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "01_alpha.txt"), []byte("α"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, "index.json"))
		if err != nil {
			return false
		}
		var m models.Manifest
		_ = json.Unmarshal(data, &m)
		return len(m.Files) == 1 && m.Files[0] == "greek/01_alpha.txt"
	}, "card in new subdir not added to manifest")
}
