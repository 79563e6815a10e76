package symbols

import "testing"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReplaceFileAndLookup(t *testing.T) {
	db := openTestDB(t)

	decls := []Declaration{
		{Name: "UserService", Kind: "class", StartLine: 10, EndLine: 80, Signature: "class UserService"},
		{Name: "findUser", Kind: "method", StartLine: 20, EndLine: 30, Receiver: "UserService"},
	}
	if err := db.ReplaceFile("src/user_service.ts", decls); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}

	got, err := db.Lookup("UserService")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d declarations, want 1", len(got))
	}
	if got[0].Path != "src/user_service.ts" || got[0].StartLine != 10 || got[0].EndLine != 80 {
		t.Errorf("unexpected declaration: %+v", got[0])
	}
}

func TestReplaceFileIsAtomicPerPath(t *testing.T) {
	db := openTestDB(t)

	first := []Declaration{{Name: "Old", Kind: "type", StartLine: 1, EndLine: 5}}
	if err := db.ReplaceFile("a.ts", first); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	second := []Declaration{{Name: "New", Kind: "type", StartLine: 1, EndLine: 5}}
	if err := db.ReplaceFile("a.ts", second); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}

	old, err := db.Lookup("Old")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("stale declaration survived replace: %+v", old)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestLookupIn(t *testing.T) {
	db := openTestDB(t)

	if err := db.ReplaceFile("a.ts", []Declaration{{Name: "Config", Kind: "type", StartLine: 1, EndLine: 9}}); err != nil {
		t.Fatalf("ReplaceFile a.ts: %v", err)
	}
	if err := db.ReplaceFile("b.ts", []Declaration{{Name: "Config", Kind: "type", StartLine: 4, EndLine: 12}}); err != nil {
		t.Fatalf("ReplaceFile b.ts: %v", err)
	}

	all, err := db.Lookup("Config")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d declarations across files, want 2", len(all))
	}

	scoped, err := db.LookupIn("Config", "b.ts")
	if err != nil {
		t.Fatalf("LookupIn: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Path != "b.ts" {
		t.Fatalf("scoped lookup = %+v, want single b.ts declaration", scoped)
	}
}

func TestDeleteFile(t *testing.T) {
	db := openTestDB(t)

	if err := db.ReplaceFile("a.ts", []Declaration{{Name: "X", Kind: "type", StartLine: 1, EndLine: 2}}); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	if err := db.DeleteFile("a.ts"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d after delete, want 0", count)
	}
}
