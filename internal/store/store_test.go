package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T, a Addressing) (*Store, Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.MainDB = filepath.Join(dir, "vimango.db")
	cfg.IndexDB = filepath.Join(dir, "fts5_vimango.db")

	err := Bootstrap(cfg, BootstrapOptions{
		Addressing: a,
		Contexts:   []string{"work", "home"},
		Folders:    []string{"projects", "journal"},
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, cfg
}

// rawExec writes to a database file behind the Store's back, the way the
// vimango editor and sync process do.
func rawExec(t *testing.T, path, query string, args ...any) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func syncNote(t *testing.T, cfg Config, id, tid int64, title, body, tag string) {
	t.Helper()
	rawExec(t, cfg.MainDB, "UPDATE task SET tid = ? WHERE id = ?", tid, id)
	rawExec(t, cfg.IndexDB, "INSERT INTO fts (title, note, tag, tid) VALUES (?, ?, ?, ?)", title, body, tag, tid)
}

func mustInsert(t *testing.T, s *Store, p AddNoteParams) int64 {
	t.Helper()
	id, err := s.InsertNote(p)
	if err != nil {
		t.Fatalf("insert note %q: %v", p.Title, err)
	}
	return id
}

var allAddressing = []Addressing{AddressingTID, AddressingUUID, AddressingDual}

func TestNewDetectsAddressing(t *testing.T) {
	for _, a := range allAddressing {
		t.Run(a.String(), func(t *testing.T) {
			s, _ := newTestStore(t, a)
			if s.Addressing() != a {
				t.Fatalf("expected addressing %s, got %s", a, s.Addressing())
			}
			if !s.HasIndex() {
				t.Fatalf("expected index to be connected")
			}
		})
	}
}

func TestNewRejectsMissingPrimaryStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MainDB = filepath.Join(t.TempDir(), "missing.db")

	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for missing primary store")
	}
}

func TestInsertNoteLeavesTIDNullAndAssignsFreshIDs(t *testing.T) {
	for _, a := range allAddressing {
		t.Run(a.String(), func(t *testing.T) {
			s, _ := newTestStore(t, a)

			seen := map[int64]bool{}
			for _, title := range []string{"one", "two", "three"} {
				id := mustInsert(t, s, AddNoteParams{Title: title, Body: "body of " + title})
				if seen[id] {
					t.Fatalf("id %d assigned twice", id)
				}
				seen[id] = true

				n, err := s.GetNoteByID(id)
				if err != nil {
					t.Fatalf("get note %d: %v", id, err)
				}
				if n.TID != nil {
					t.Fatalf("expected NULL tid for new note, got %d", *n.TID)
				}
				if n.Context != NoneTitle || n.Folder != NoneTitle {
					t.Fatalf("expected none/none containers, got %q/%q", n.Context, n.Folder)
				}
				if n.Added == "" || n.Modified == "" {
					t.Fatalf("expected timestamps to be set, got %+v", n)
				}
			}
		})
	}
}

func TestInsertNoteRequiresTitleAndBody(t *testing.T) {
	s, _ := newTestStore(t, AddressingTID)

	if _, err := s.InsertNote(AddNoteParams{Title: "  ", Body: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank title, got %v", err)
	}
	if _, err := s.InsertNote(AddNoteParams{Title: "x", Body: ""}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty body, got %v", err)
	}
}

func TestInsertNoteUnknownContextWritesNothing(t *testing.T) {
	s, _ := newTestStore(t, AddressingUUID)

	_, err := s.InsertNote(AddNoteParams{Title: "x", Body: "y", Context: "nowhere"})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
	var refErr *ReferenceError
	if !errors.As(err, &refErr) || refErr.Kind != KindContext || refErr.Name != "nowhere" {
		t.Fatalf("expected context ReferenceError, got %#v", err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Notes != 0 {
		t.Fatalf("expected no notes after failed insert, got %d", stats.Notes)
	}
}

func TestListContainersFiltersDeletedAndSorts(t *testing.T) {
	s, cfg := newTestStore(t, AddressingTID)
	rawExec(t, cfg.MainDB, "UPDATE context SET deleted = 1 WHERE title = 'home'")
	rawExec(t, cfg.MainDB, "INSERT INTO context (tid, title, star, deleted) VALUES (40, 'Errands', 1, 0)")

	contexts, err := s.ListContexts()
	if err != nil {
		t.Fatalf("list contexts: %v", err)
	}

	var titles []string
	for _, c := range contexts {
		titles = append(titles, c.Title)
	}
	want := []string{"Errands", "none", "work"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, titles)
		}
	}
	if !contexts[0].Starred || contexts[0].Ref.TID != 40 {
		t.Fatalf("unexpected Errands row: %+v", contexts[0])
	}

	again, err := s.ListContexts()
	if err != nil {
		t.Fatalf("list contexts again: %v", err)
	}
	if len(again) != len(contexts) {
		t.Fatalf("expected stable listing, got %d then %d", len(contexts), len(again))
	}

	folders, err := s.ListFolders()
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	if len(folders) != 3 {
		t.Fatalf("expected 3 folders, got %d", len(folders))
	}
}

func TestResolveContainerIsIdempotentAndCaseSensitive(t *testing.T) {
	for _, a := range allAddressing {
		t.Run(a.String(), func(t *testing.T) {
			s, _ := newTestStore(t, a)

			first, err := s.ResolveContainer(KindContext, "work")
			if err != nil {
				t.Fatalf("resolve work: %v", err)
			}
			second, err := s.ResolveContainer(KindContext, "work")
			if err != nil {
				t.Fatalf("resolve work again: %v", err)
			}
			if first != second {
				t.Fatalf("expected identical refs, got %v and %v", first, second)
			}

			if _, err := s.ResolveContainer(KindContext, "Work"); !errors.Is(err, ErrReferenceNotFound) {
				t.Fatalf("expected case-sensitive miss, got %v", err)
			}
		})
	}
}

func TestResolveContainerAcceptsUUID(t *testing.T) {
	s, _ := newTestStore(t, AddressingUUID)

	byName, err := s.ResolveContainer(KindFolder, "projects")
	if err != nil {
		t.Fatalf("resolve by name: %v", err)
	}
	if byName.Kind != RefByUUID || byName.UUID == "" {
		t.Fatalf("expected uuid ref, got %+v", byName)
	}

	byUUID, err := s.ResolveContainer(KindFolder, byName.UUID)
	if err != nil {
		t.Fatalf("resolve by uuid: %v", err)
	}
	if byUUID != byName {
		t.Fatalf("expected %v, got %v", byName, byUUID)
	}
}

func TestResolveEmptyNameUsesDefault(t *testing.T) {
	s, _ := newTestStore(t, AddressingDual)

	r, err := s.resolve(KindFolder, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.Outcome != UseDefault {
		t.Fatalf("expected UseDefault, got %v", r.Outcome)
	}
	if r.Ref.TID != NoneTID || r.Ref.UUID != NoneUUID {
		t.Fatalf("expected reserved none ref, got %+v", r.Ref)
	}

	r, err = s.resolve(KindFolder, "missing")
	if err != nil {
		t.Fatalf("resolve missing: %v", err)
	}
	if r.Outcome != NotFound {
		t.Fatalf("expected NotFound, got %v", r.Outcome)
	}
}

func TestSearchRejectsShortQueryBeforeTouchingIndex(t *testing.T) {
	s, _ := newTestStore(t, AddressingTID)
	s.index.Close()
	s.index = nil // any query attempt would now report ErrIndexUnavailable

	for _, q := range []string{"", "ab", "  ab  ", "é"} {
		if _, err := s.SearchNotes(q, 5); !errors.Is(err, ErrQueryTooShort) {
			t.Fatalf("query %q: expected ErrQueryTooShort, got %v", q, err)
		}
	}
	if _, err := s.SearchNotes("abc", 5); !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestSearchJoinsBackAndDropsDeletedNotes(t *testing.T) {
	for _, a := range allAddressing {
		t.Run(a.String(), func(t *testing.T) {
			s, cfg := newTestStore(t, a)

			strong := mustInsert(t, s, AddNoteParams{Title: "Kubernetes notes", Body: "kubernetes cluster setup", Context: "work", Folder: "projects"})
			weak := mustInsert(t, s, AddNoteParams{Title: "Groceries", Body: "milk, eggs, and a long list of things that mention kubernetes once among many other words", Context: "home"})
			gone := mustInsert(t, s, AddNoteParams{Title: "Old kubernetes draft", Body: "kubernetes kubernetes"})

			syncNote(t, cfg, strong, 100, "Kubernetes notes", "kubernetes cluster setup", "kubernetes")
			syncNote(t, cfg, weak, 101, "Groceries", "milk, eggs, and a long list of things that mention kubernetes once among many other words", "")
			syncNote(t, cfg, gone, 102, "Old kubernetes draft", "kubernetes kubernetes", "")
			rawExec(t, cfg.MainDB, "UPDATE task SET deleted = 1 WHERE id = ?", gone)
			// Index entry whose note never reached this primary store.
			rawExec(t, cfg.IndexDB, "INSERT INTO fts (title, note, tag, tid) VALUES ('kubernetes ghost', 'kubernetes', '', 999)")

			results, err := s.SearchNotes("kubernetes", 10)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(results) != 2 {
				t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
			}
			if results[0].ID != strong || results[1].ID != weak {
				t.Fatalf("unexpected ordering: %+v", results)
			}
			if results[0].Rank != 1 || results[1].Rank != 2 {
				t.Fatalf("expected ranks 1,2 got %d,%d", results[0].Rank, results[1].Rank)
			}
			if results[0].Context != "work" || results[0].Folder != "projects" {
				t.Fatalf("expected work/projects, got %s/%s", results[0].Context, results[0].Folder)
			}
			if results[1].Context != "home" || results[1].Folder != NoneTitle {
				t.Fatalf("expected home/none, got %s/%s", results[1].Context, results[1].Folder)
			}
			if results[0].TID == nil || *results[0].TID != 100 {
				t.Fatalf("expected tid 100, got %v", results[0].TID)
			}
		})
	}
}

func TestSearchHonoursLimit(t *testing.T) {
	s, cfg := newTestStore(t, AddressingTID)
	for i := int64(0); i < 4; i++ {
		id := mustInsert(t, s, AddNoteParams{Title: "vim tips", Body: "vim"})
		syncNote(t, cfg, id, 200+i, "vim tips", "vim", "")
	}

	results, err := s.SearchNotes("vim tips", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	s.cfg.DefaultSearchLimit = 2
	results, err = s.SearchNotes("vi*", 0)
	if err != nil {
		t.Fatalf("prefix search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected default limit of 2, got %d", len(results))
	}
}

func TestSearchDoesNotSeeUnsyncedNotes(t *testing.T) {
	s, _ := newTestStore(t, AddressingTID)
	mustInsert(t, s, AddNoteParams{Title: "Fresh idea", Body: "brand new content"})

	results, err := s.SearchNotes("fresh", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected new note to be invisible until sync, got %+v", results)
	}
}

func TestGetNoteByIDAndTIDReturnSameRecord(t *testing.T) {
	for _, a := range allAddressing {
		t.Run(a.String(), func(t *testing.T) {
			s, cfg := newTestStore(t, a)
			id := mustInsert(t, s, AddNoteParams{Title: "Synced", Body: "# h\nbody", Context: "work", Starred: true})
			rawExec(t, cfg.MainDB, "UPDATE task SET tid = 555 WHERE id = ?", id)

			byID, err := s.GetNote(NoteID{ID: id})
			if err != nil {
				t.Fatalf("get by id: %v", err)
			}
			byTID, err := s.GetNote(NoteID{TID: 555})
			if err != nil {
				t.Fatalf("get by tid: %v", err)
			}
			if byID.ID != byTID.ID || byID.Title != byTID.Title || byID.Body != byTID.Body ||
				byID.Modified != byTID.Modified || byID.ContextRef != byTID.ContextRef {
				t.Fatalf("expected identical records, got %+v and %+v", byID, byTID)
			}
			if byID.TID == nil || byTID.TID == nil || *byID.TID != *byTID.TID {
				t.Fatalf("expected both to carry tid 555")
			}
			if !byTID.Starred || byTID.Context != "work" {
				t.Fatalf("unexpected record: %+v", byTID)
			}
		})
	}
}

func TestGetNoteRequiresExactlyOneIdentifier(t *testing.T) {
	s, _ := newTestStore(t, AddressingTID)

	if _, err := s.GetNote(NoteID{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
	if _, err := s.GetNote(NoteID{ID: 1, TID: 1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for both ids, got %v", err)
	}
}

func TestGetNoteHidesDeletedAndArchived(t *testing.T) {
	s, cfg := newTestStore(t, AddressingTID)
	deleted := mustInsert(t, s, AddNoteParams{Title: "a", Body: "a"})
	archived := mustInsert(t, s, AddNoteParams{Title: "b", Body: "b"})
	rawExec(t, cfg.MainDB, "UPDATE task SET deleted = 1 WHERE id = ?", deleted)
	rawExec(t, cfg.MainDB, "UPDATE task SET archived = 1 WHERE id = ?", archived)

	for _, id := range []int64{deleted, archived, 9999} {
		if _, err := s.GetNoteByID(id); !errors.Is(err, ErrNoteNotFound) {
			t.Fatalf("note %d: expected ErrNoteNotFound, got %v", id, err)
		}
	}
}

func TestUpdateNoteAppliesOnlySuppliedFields(t *testing.T) {
	for _, a := range allAddressing {
		t.Run(a.String(), func(t *testing.T) {
			s, _ := newTestStore(t, a)
			id := mustInsert(t, s, AddNoteParams{Title: "Draft", Body: "text", Context: "work", Folder: "projects"})

			title := "Final"
			folder := "journal"
			star := true
			n, err := s.UpdateNote(id, UpdateNoteParams{Title: &title, Folder: &folder, Starred: &star})
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if n.Title != "Final" || n.Folder != "journal" || !n.Starred {
				t.Fatalf("patch not applied: %+v", n)
			}
			if n.Context != "work" || n.Body != "text" {
				t.Fatalf("untouched fields changed: %+v", n)
			}

			none := ""
			n, err = s.UpdateNote(id, UpdateNoteParams{Context: &none})
			if err != nil {
				t.Fatalf("reset context: %v", err)
			}
			if n.Context != NoneTitle {
				t.Fatalf("expected context reset to none, got %q", n.Context)
			}
		})
	}
}

func TestUpdateNoteEmptyPatchOnlyTouchesModified(t *testing.T) {
	s, _ := newTestStore(t, AddressingTID)
	s.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	id := mustInsert(t, s, AddNoteParams{Title: "Stable", Body: "body", Context: "home", Starred: true})

	before, err := s.GetNoteByID(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	s.now = func() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) }
	after, err := s.UpdateNote(id, UpdateNoteParams{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}

	if after.Modified != "2024-01-02 09:00:00" {
		t.Fatalf("expected modified to be bumped, got %q", after.Modified)
	}
	if after.Added != before.Added || after.Title != before.Title || after.Body != before.Body ||
		after.Context != before.Context || after.Folder != before.Folder || after.Starred != before.Starred {
		t.Fatalf("empty patch changed fields: before=%+v after=%+v", before, after)
	}
}

func TestUpdateNoteFailures(t *testing.T) {
	s, cfg := newTestStore(t, AddressingUUID)
	id := mustInsert(t, s, AddNoteParams{Title: "x", Body: "y"})

	missing := "nope"
	if _, err := s.UpdateNote(id, UpdateNoteParams{Folder: &missing}); !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
	if _, err := s.UpdateNote(4242, UpdateNoteParams{}); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
	blank := " "
	if _, err := s.UpdateNote(id, UpdateNoteParams{Title: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	rawExec(t, cfg.MainDB, "UPDATE task SET deleted = 1 WHERE id = ?", id)
	if _, err := s.UpdateNote(id, UpdateNoteParams{}); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound for deleted note, got %v", err)
	}
}

func TestIndexHandleRejectsWrites(t *testing.T) {
	s, _ := newTestStore(t, AddressingTID)

	if _, err := s.index.Exec("INSERT INTO fts (title, note, tag, tid) VALUES ('x', 'y', 'z', 1)"); err == nil {
		t.Fatalf("expected write to read-only index to fail")
	}
	if _, err := s.index.Exec("DELETE FROM fts"); err == nil {
		t.Fatalf("expected delete on read-only index to fail")
	}
}

func TestDualAddressingWritesBothKeysAndFallsBackToTID(t *testing.T) {
	s, cfg := newTestStore(t, AddressingDual)
	work, err := s.ResolveContainer(KindContext, "work")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	id := mustInsert(t, s, AddNoteParams{Title: "dual", Body: "b", Context: "work"})

	var tid sql.NullInt64
	var uid sql.NullString
	if err := s.main.QueryRow("SELECT context_tid, context_uuid FROM task WHERE id = ?", id).Scan(&tid, &uid); err != nil {
		t.Fatalf("read raw row: %v", err)
	}
	if !tid.Valid || tid.Int64 != work.TID || !uid.Valid || uid.String != work.UUID {
		t.Fatalf("expected both keys %v, got tid=%v uuid=%v", work, tid, uid)
	}

	// A row written by an older client carries only the tid.
	rawExec(t, cfg.MainDB, "UPDATE task SET context_uuid = NULL WHERE id = ?", id)
	n, err := s.GetNoteByID(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n.Context != "work" {
		t.Fatalf("expected tid fallback to find work, got %q", n.Context)
	}
	if n.ContextRef.Kind != RefByTID || n.ContextRef.TID != work.TID {
		t.Fatalf("expected tid ref, got %+v", n.ContextRef)
	}
}

func TestCreateGetListEndToEnd(t *testing.T) {
	s, _ := newTestStore(t, AddressingUUID)
	work, err := s.ResolveContainer(KindContext, "work")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	id := mustInsert(t, s, AddNoteParams{Title: "Ideas", Body: "# heading\ntext", Context: "work"})
	n, err := s.GetNoteByID(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n.Title != "Ideas" || n.Body != "# heading\ntext" {
		t.Fatalf("unexpected note: %+v", n)
	}
	if n.ContextRef != work {
		t.Fatalf("expected context ref %v, got %v", work, n.ContextRef)
	}
	if n.TID != nil {
		t.Fatalf("expected absent tid")
	}

	contexts, err := s.ListContexts()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, c := range contexts {
		if c.Title == "work" {
			found = c.Ref == work
		}
	}
	if !found {
		t.Fatalf("expected work context unchanged in %+v", contexts)
	}
}

func TestStatsCountsUnsyncedNotes(t *testing.T) {
	s, cfg := newTestStore(t, AddressingTID)
	a := mustInsert(t, s, AddNoteParams{Title: "a", Body: "a"})
	mustInsert(t, s, AddNoteParams{Title: "b", Body: "b"})
	syncNote(t, cfg, a, 7, "a", "a", "")

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Notes != 2 || stats.Unsynced != 1 || stats.IndexEntries != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Contexts != 3 || stats.Folders != 3 || stats.Addressing != "tid" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRecentNotesNewestFirst(t *testing.T) {
	s, _ := newTestStore(t, AddressingTID)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	older := mustInsert(t, s, AddNoteParams{Title: "older", Body: "x"})
	s.now = func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) }
	newer := mustInsert(t, s, AddNoteParams{Title: "newer", Body: "x"})

	notes, err := s.RecentNotes(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(notes) != 2 || notes[0].ID != newer || notes[1].ID != older {
		t.Fatalf("unexpected order: %+v", notes)
	}
}

func TestBootstrapRefusesExistingFiles(t *testing.T) {
	_, cfg := newTestStore(t, AddressingTID)
	if err := Bootstrap(cfg, BootstrapOptions{}); err == nil {
		t.Fatalf("expected bootstrap to refuse existing files")
	}
}

func TestSanitizeFTS(t *testing.T) {
	cases := map[string]string{
		"fix auth bug":    `"fix" "auth" "bug"`,
		`"quoted" term`:   `"quoted" "term"`,
		"vim keym*":       `"vim" "keym"*`,
		`say "hi"there`:   `"say" "hi""there"`,
		"NEAR(a b) * ***": `"NEAR(a" "b)"`,
	}
	for in, want := range cases {
		if got := sanitizeFTS(in); got != want {
			t.Fatalf("sanitizeFTS(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Category
	}{
		{ErrQueryTooShort, CategoryValidation},
		{errors.Join(ErrInvalidInput, errors.New("title")), CategoryValidation},
		{ErrNoteNotFound, CategoryNotFound},
		{&ReferenceError{Kind: KindFolder, Name: "x"}, CategoryNotFound},
		{ErrIndexUnavailable, CategoryStorage},
		{errors.New("database is locked"), CategoryStorage},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestParseAddressing(t *testing.T) {
	for in, want := range map[string]Addressing{"tid": AddressingTID, "UUID": AddressingUUID, " dual ": AddressingDual, "": AddressingTID} {
		got, err := ParseAddressing(in)
		if err != nil || got != want {
			t.Fatalf("ParseAddressing(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAddressing("guid"); err == nil {
		t.Fatalf("expected error for unknown addressing")
	}
}
