package books

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/litchar/pkg/fetcher"
	"github.com/dtnitsch/litchar/pkg/gutenberg"
	"github.com/dtnitsch/litchar/pkg/storage"
)

const rawBook = "The Project Gutenberg eBook of Emma\n" +
	"*** START OF THE PROJECT GUTENBERG EBOOK EMMA ***\n" +
	"Emma Woodhouse, handsome, clever, and rich.\n" +
	"*** END OF THE PROJECT GUTENBERG EBOOK EMMA ***\n" +
	"License text.\n"

func TestSave(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cache/epub/158/pg158.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rawBook)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	client := gutenberg.NewClient(fetcher.NewFetcher(), srv.URL, nil)
	if err := Save(context.Background(), client, &storage.Storage{}, dir, 158); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "158", RawFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != rawBook {
		t.Errorf("raw book = %q", raw)
	}

	cleaned, err := os.ReadFile(filepath.Join(dir, "158", CleanedFile))
	if err != nil {
		t.Fatal(err)
	}
	if want := "Emma Woodhouse, handsome, clever, and rich."; string(cleaned) != want {
		t.Errorf("cleaned book = %q, want %q", cleaned, want)
	}
}

func TestDownloaded(t *testing.T) {
	dir := t.TempDir()
	store := &storage.Storage{}
	if Downloaded(store, dir, 158) {
		t.Fatal("Downloaded() = true before any download")
	}
	if err := store.SaveFile(filepath.Join(dir, "159", CleanedFile), nil); err != nil {
		t.Fatal(err)
	}
	if Downloaded(store, dir, 159) {
		t.Error("Downloaded() = true for an empty text")
	}
	if err := store.SaveFile(filepath.Join(dir, "158", CleanedFile), []byte("Emma Woodhouse")); err != nil {
		t.Fatal(err)
	}
	if !Downloaded(store, dir, 158) {
		t.Error("Downloaded() = false after saving the text")
	}
}
