package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hargabyte/lens/internal/config"
	"github.com/hargabyte/lens/internal/symbols"
)

type memVectors struct {
	ids   []string
	paths map[string]string
}

func (m *memVectors) Add(_ context.Context, identifier, path, content string) error {
	if m.paths == nil {
		m.paths = make(map[string]string)
	}
	m.ids = append(m.ids, identifier)
	m.paths[identifier] = path
	return nil
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexer_Run(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "svc/user.go", `package svc

type User struct {
	ID string
}

func (u *User) Validate() error {
	return nil
}
`)
	writeFile(t, root, "web/app.ts", `export function formatDate(d: Date): string {
  return d.toISOString();
}
`)
	writeFile(t, root, "notes.txt", "not code")
	writeFile(t, root, "node_modules/dep/index.js", "function hidden() {}")

	table, err := symbols.OpenMemory()
	if err != nil {
		t.Fatalf("open table: %v", err)
	}
	defer table.Close()

	vectors := &memVectors{}
	ix := New(root, table, vectors, config.DefaultConfig().Index)

	stats, err := ix.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Files != 2 {
		t.Errorf("Files = %d, want 2", stats.Files)
	}
	if stats.Declarations < 3 {
		t.Errorf("Declarations = %d, want at least User, Validate, formatDate", stats.Declarations)
	}
	if stats.Embedded != stats.Declarations {
		t.Errorf("Embedded = %d, Declarations = %d", stats.Embedded, stats.Declarations)
	}

	decls, err := table.Lookup("Validate")
	if err != nil || len(decls) != 1 {
		t.Fatalf("Lookup(Validate) = %v, %v", decls, err)
	}
	if decls[0].Path != filepath.Join("svc", "user.go") || decls[0].Receiver != "User" {
		t.Errorf("Validate = %+v", decls[0])
	}

	for id := range vectors.paths {
		if vectors.paths[id] == filepath.Join("node_modules", "dep", "index.js") {
			t.Errorf("excluded directory was indexed: %s", id)
		}
	}
}

func TestIndexer_ReindexReplacesFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n\nfunc Old() {}\n")

	table, err := symbols.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer table.Close()

	ix := New(root, table, nil, config.DefaultConfig().Index)
	if _, err := ix.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	writeFile(t, root, "a.go", "package a\n\nfunc New() {}\n")
	if _, err := ix.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if decls, _ := table.Lookup("Old"); len(decls) != 0 {
		t.Errorf("stale declaration survived reindex: %+v", decls)
	}
	if decls, _ := table.Lookup("New"); len(decls) != 1 {
		t.Errorf("new declaration missing: %+v", decls)
	}
}

func TestIndexer_FileFailuresAreNotFatal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")
	writeFile(t, root, "b.go", "package b\n\nfunc B() {}\n")

	table, err := symbols.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	// Closed table makes every per-file write fail.
	table.Close()

	ix := New(root, table, nil, config.DefaultConfig().Index)
	stats, err := ix.Run(context.Background())
	if err != nil {
		t.Fatalf("per-file failures must not abort the walk: %v", err)
	}
	if stats.Failed != 2 {
		t.Errorf("Failed = %d, want 2", stats.Failed)
	}
	if stats.Files != 0 {
		t.Errorf("Files = %d, want 0", stats.Files)
	}
}
