package source

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFSReader_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello\nworld\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewFSReader(dir)

	got, err := r.ReadFile("a.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "hello\nworld\n" {
		t.Errorf("content = %q", got)
	}
}

func TestFSReader_NotFound(t *testing.T) {
	r := NewFSReader(t.TempDir())

	_, err := r.ReadFile("missing.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFSReader_ReadRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(path, []byte("l0\nl1\nl2\nl3\nl4"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewFSReader(dir)

	got, err := r.ReadRange("b.txt", 1, 3)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if got != "l1\nl2" {
		t.Errorf("range = %q, want %q", got, "l1\nl2")
	}
}

func TestSliceLines_Clamping(t *testing.T) {
	content := "a\nb\nc"

	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{"negative start", -5, 2, "a\nb"},
		{"end past eof", 1, 99, "b\nc"},
		{"inverted", 3, 1, ""},
		{"full", 0, 3, "a\nb\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SliceLines(content, tt.start, tt.end); got != tt.want {
				t.Errorf("SliceLines(%d,%d) = %q, want %q", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestScanImports_TypeScript(t *testing.T) {
	content := `import { UserService, AuthGuard } from './services/user';
import Logger from './logger';
import * as path from 'path';
const { helper } = require('./util');
`
	set := ImportSet("src/app.ts", content)

	want := map[string]string{
		"UserService": "src/services/user.ts",
		"AuthGuard":   "src/services/user.ts",
		"Logger":      "src/logger.ts",
		"helper":      "src/util.ts",
	}
	for name, path := range want {
		if set[name] != path {
			t.Errorf("imports[%q] = %q, want %q", name, set[name], path)
		}
	}
}

func TestScanImports_Python(t *testing.T) {
	content := `from .models import User, Role
from ..lib.db import Connection as Conn
import os
`
	set := ImportSet("pkg/app/views.py", content)

	want := map[string]string{
		"User": "pkg/app/models.py",
		"Role": "pkg/app/models.py",
		"Conn": filepath.Join("pkg", "lib", "db.py"),
	}
	for name, path := range want {
		if set[name] != path {
			t.Errorf("imports[%q] = %q, want %q", name, set[name], path)
		}
	}
}

func TestScanImports_Go(t *testing.T) {
	content := `package app

import (
	"fmt"
	sq "database/sql"
)

import "strings"
`
	set := ImportSet("app.go", content)

	if set["fmt"] != "fmt" {
		t.Errorf("imports[fmt] = %q", set["fmt"])
	}
	if set["sq"] != "database/sql" {
		t.Errorf("aliased import = %q, want database/sql", set["sq"])
	}
	if set["strings"] != "strings" {
		t.Errorf("imports[strings] = %q", set["strings"])
	}
}

func TestImportNeighbors_OrderAndDedupe(t *testing.T) {
	content := `import { A } from './x';
import { B } from './y';
import { C } from './x';
`
	got := ImportNeighbors("src/app.ts", content)
	want := []string{"src/x.ts", "src/y.ts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("neighbors = %v, want %v", got, want)
	}
}

func TestScanImports_UnknownExtension(t *testing.T) {
	if got := ScanImports("a.rs", "use foo::bar;"); got != nil {
		t.Errorf("unknown extension should yield nil, got %v", got)
	}
}
