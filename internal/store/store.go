// Package store implements the data-access layer for vimango-mcp.
//
// It owns two SQLite handles: the vimango primary store, opened read-write,
// and the FTS5 search index maintained by the vimango sync process, opened
// read-only at the connection level. Everything else (MCP tools, HTTP API,
// CLI, TUI) talks to this.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// ─── Errors ──────────────────────────────────────────────────────────────────

var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrQueryTooShort     = errors.New("search query must be at least 3 characters long")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIndexUnavailable  = errors.New("search index is not connected")
)

// ReferenceError reports a context or folder name that does not resolve.
type ReferenceError struct {
	Kind ContainerKind
	Name string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *ReferenceError) Unwrap() error { return ErrReferenceNotFound }

// Category groups errors the way callers report them.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryStorage    Category = "storage"
)

// Classify reports the category of an error returned by the Store.
// Anything not recognised is a storage failure.
func Classify(err error) Category {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrQueryTooShort):
		return CategoryValidation
	case errors.Is(err, ErrNoteNotFound), errors.Is(err, ErrReferenceNotFound):
		return CategoryNotFound
	default:
		return CategoryStorage
	}
}

// MinQueryLength is the shortest search query sent to the index.
const MinQueryLength = 3

// ─── Types ───────────────────────────────────────────────────────────────────

type Note struct {
	ID         int64        `json:"id"`
	TID        *int64       `json:"tid,omitempty"`
	Title      string       `json:"title"`
	Body       string       `json:"note"`
	Context    string       `json:"context"`
	Folder     string       `json:"folder"`
	ContextRef ContainerRef `json:"context_ref"`
	FolderRef  ContainerRef `json:"folder_ref"`
	Starred    bool         `json:"star"`
	Added      string       `json:"added"`
	Modified   string       `json:"modified"`
}

type Container struct {
	ID      int64        `json:"id"`
	Title   string       `json:"title"`
	Starred bool         `json:"star"`
	Ref     ContainerRef `json:"ref"`
}

type SearchResult struct {
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
	ID      int64   `json:"id"`
	TID     *int64  `json:"tid,omitempty"`
	Title   string  `json:"title"`
	Context string  `json:"context"`
	Folder  string  `json:"folder"`
}

// NoteID addresses a note by exactly one of its local id or its tid.
type NoteID struct {
	ID  int64
	TID int64
}

type AddNoteParams struct {
	Title   string `json:"title"`
	Body    string `json:"note"`
	Context string `json:"context,omitempty"`
	Folder  string `json:"folder,omitempty"`
	Starred bool   `json:"star,omitempty"`
}

type UpdateNoteParams struct {
	Title   *string `json:"title,omitempty"`
	Context *string `json:"context,omitempty"`
	Folder  *string `json:"folder,omitempty"`
	Starred *bool   `json:"star,omitempty"`
}

// Empty reports whether the patch changes nothing but the modified time.
func (p UpdateNoteParams) Empty() bool {
	return p.Title == nil && p.Context == nil && p.Folder == nil && p.Starred == nil
}

type Stats struct {
	Notes          int    `json:"notes"`
	Unsynced       int    `json:"unsynced"`
	Contexts       int    `json:"contexts"`
	Folders        int    `json:"folders"`
	IndexEntries   int    `json:"index_entries"`
	IndexAvailable bool   `json:"index_available"`
	Addressing     string `json:"addressing"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

type Config struct {
	MainDB             string
	IndexDB            string
	BusyTimeout        time.Duration
	DefaultSearchLimit int
	MaxSearchResults   int
}

func DefaultConfig() Config {
	return Config{
		BusyTimeout:        2 * time.Second,
		DefaultSearchLimit: 5,
		MaxSearchResults:   50,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

type Store struct {
	mu     sync.Mutex
	main   *sql.DB
	index  *sql.DB
	cfg    Config
	schema schema
	now    func() time.Time
}

func New(cfg Config) (*Store, error) {
	if cfg.MainDB == "" {
		return nil, fmt.Errorf("vimango: primary store path is empty")
	}
	if cfg.DefaultSearchLimit <= 0 {
		cfg.DefaultSearchLimit = 5
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 50
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 2 * time.Second
	}

	// Opening a missing path would silently create an empty database.
	if _, err := os.Stat(cfg.MainDB); err != nil {
		return nil, fmt.Errorf("vimango: primary store: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.MainDB)
	if err != nil {
		return nil, fmt.Errorf("vimango: open primary store: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("vimango: pragma %q: %w", p, err)
		}
	}

	sc, err := detectSchema(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("vimango: inspect primary store: %w", err)
	}

	s := &Store{main: db, cfg: cfg, schema: sc, now: time.Now}

	if cfg.IndexDB != "" {
		idx, err := openIndex(cfg.IndexDB, cfg.BusyTimeout)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("vimango: open search index: %w", err)
		}
		s.index = idx
	}

	return s, nil
}

// openIndex opens the FTS database with mode=ro and query_only so a stray
// write fails inside SQLite instead of reaching the file.
func openIndex(path string, busy time.Duration) (*sql.DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("mode", "ro")
	q.Add("_pragma", "query_only(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: q.Encode()}).String()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = 'fts'").Scan(&n); err != nil {
		db.Close()
		return nil, err
	}
	if n == 0 {
		db.Close()
		return nil, fmt.Errorf("%s has no fts table", path)
	}
	return db, nil
}

func (s *Store) Close() error {
	var errs []error
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	errs = append(errs, s.main.Close())
	return errors.Join(errs...)
}

// Addressing reports the container addressing of the opened primary store.
func (s *Store) Addressing() Addressing {
	return s.schema.addressing
}

// HasIndex reports whether search is available.
func (s *Store) HasIndex() bool {
	return s.index != nil
}

// ─── Notes ───────────────────────────────────────────────────────────────────

// InsertNote adds a note to the primary store and returns its local id. The
// tid stays NULL until the sync process assigns one, and the search index
// is not touched.
func (s *Store) InsertNote(p AddNoteParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(p.Title) == "" {
		return 0, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Body) == "" {
		return 0, fmt.Errorf("%w: note body is required", ErrInvalidInput)
	}

	ctxRef, err := s.resolveOrFail(KindContext, p.Context)
	if err != nil {
		return 0, err
	}
	fldRef, err := s.resolveOrFail(KindFolder, p.Folder)
	if err != nil {
		return 0, err
	}

	ts := s.timestamp()
	cols := []string{"title", "note", "star", "added", "modified", "deleted"}
	args := []any{p.Title, p.Body, boolInt(p.Starred), ts, ts, 0}
	if s.schema.hasArchived {
		cols = append(cols, "archived")
		args = append(args, 0)
	}
	c, v := s.schema.assignments(KindContext, ctxRef)
	cols, args = append(cols, c...), append(args, v...)
	c, v = s.schema.assignments(KindFolder, fldRef)
	cols, args = append(cols, c...), append(args, v...)

	res, err := s.main.Exec(
		fmt.Sprintf("INSERT INTO task (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders(len(cols))),
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}
	return res.LastInsertId()
}

// GetNote looks a note up by whichever identifier id carries.
func (s *Store) GetNote(id NoteID) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getNote(id)
}

func (s *Store) GetNoteByID(id int64) (*Note, error) {
	return s.GetNote(NoteID{ID: id})
}

func (s *Store) GetNoteByTID(tid int64) (*Note, error) {
	return s.GetNote(NoteID{TID: tid})
}

func (s *Store) getNote(id NoteID) (*Note, error) {
	var where string
	var arg int64
	switch {
	case id.ID != 0 && id.TID != 0:
		return nil, fmt.Errorf("%w: give either id or tid, not both", ErrInvalidInput)
	case id.ID != 0:
		where, arg = "task.id = ?", id.ID
	case id.TID != 0:
		where, arg = "task.tid = ?", id.TID
	default:
		return nil, fmt.Errorf("%w: id or tid is required", ErrInvalidInput)
	}

	row := s.main.QueryRow(s.schema.noteSelect()+" WHERE "+where+" AND "+s.schema.liveTask(), arg)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// UpdateNote applies a partial patch. Fields left nil keep their value; the
// modified time is always bumped, so an empty patch is a touch.
func (s *Store) UpdateNote(id int64, p UpdateNoteParams) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getNote(NoteID{ID: id}); err != nil {
		return nil, err
	}

	sets := []string{"modified = ?"}
	args := []any{s.timestamp()}

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	for _, f := range []struct {
		kind ContainerKind
		name *string
	}{{KindContext, p.Context}, {KindFolder, p.Folder}} {
		if f.name == nil {
			continue
		}
		ref, err := s.resolveOrFail(f.kind, *f.name)
		if err != nil {
			return nil, err
		}
		cols, vals := s.schema.assignments(f.kind, ref)
		for i, col := range cols {
			sets = append(sets, col+" = ?")
			args = append(args, vals[i])
		}
	}
	if p.Starred != nil {
		sets = append(sets, "star = ?")
		args = append(args, boolInt(*p.Starred))
	}

	args = append(args, id)
	res, err := s.main.Exec(
		"UPDATE task SET "+strings.Join(sets, ", ")+" WHERE id = ? AND "+strings.ReplaceAll(s.schema.liveTask(), "task.", ""),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Deleted by another process between the lookup and the update.
		return nil, ErrNoteNotFound
	}

	return s.getNote(NoteID{ID: id})
}

// RecentNotes returns live notes, most recently modified first.
func (s *Store) RecentNotes(limit int) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.main.Query(
		s.schema.noteSelect()+" WHERE "+s.schema.liveTask()+" ORDER BY task.modified DESC, task.id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent notes: %w", err)
	}
	defer rows.Close()

	var results []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *n)
	}
	return results, rows.Err()
}

// ─── Contexts & Folders ──────────────────────────────────────────────────────

func (s *Store) ListContexts() ([]Container, error) {
	return s.listContainers(KindContext)
}

func (s *Store) ListFolders() ([]Container, error) {
	return s.listContainers(KindFolder)
}

func (s *Store) listContainers(kind ContainerKind) ([]Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.main.Query(fmt.Sprintf(
		`SELECT id, %s, title, COALESCE(star, 0) FROM %s
		 WHERE deleted = 0
		 ORDER BY title COLLATE NOCASE, id`,
		s.schema.containerKeyColumns(), kind.table(),
	))
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	defer rows.Close()

	var results []Container
	for rows.Next() {
		var c Container
		var tid sql.NullInt64
		var id sql.NullString
		if err := rows.Scan(&c.ID, &tid, &id, &c.Title, &c.Starred); err != nil {
			return nil, err
		}
		c.Ref, _ = refFromKeys(s.schema.addressing, tid, id)
		results = append(results, c)
	}
	return results, rows.Err()
}

// ResolveContainer maps a context or folder name to its reference. Names
// match case-sensitively against non-deleted rows; in uuid-aware files a
// uuid string is accepted as well.
func (s *Store) ResolveContainer(kind ContainerKind, name string) (ContainerRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok, err := s.lookupContainer(kind, name)
	if err != nil {
		return ContainerRef{}, err
	}
	if !ok {
		return ContainerRef{}, &ReferenceError{Kind: kind, Name: name}
	}
	return ref, nil
}

// resolve is shared by insert and update: an empty name selects the
// reserved "none" container.
func (s *Store) resolve(kind ContainerKind, name string) (Resolution, error) {
	if strings.TrimSpace(name) == "" {
		return Resolution{Outcome: UseDefault, Ref: noneRef(s.schema.addressing)}, nil
	}
	ref, ok, err := s.lookupContainer(kind, name)
	if err != nil {
		return Resolution{}, err
	}
	if !ok {
		return Resolution{Outcome: NotFound}, nil
	}
	return Resolution{Outcome: Resolved, Ref: ref}, nil
}

func (s *Store) resolveOrFail(kind ContainerKind, name string) (ContainerRef, error) {
	r, err := s.resolve(kind, name)
	if err != nil {
		return ContainerRef{}, err
	}
	if r.Outcome == NotFound {
		return ContainerRef{}, &ReferenceError{Kind: kind, Name: name}
	}
	return r.Ref, nil
}

func (s *Store) lookupContainer(kind ContainerKind, name string) (ContainerRef, bool, error) {
	where := "title = ?"
	args := []any{name}
	if s.schema.addressing.usesUUID() && looksLikeUUID(name) {
		where = "(title = ? OR uuid = ?)"
		args = append(args, strings.ToLower(name))
	}

	var tid sql.NullInt64
	var id sql.NullString
	err := s.main.QueryRow(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s AND deleted = 0 ORDER BY id LIMIT 1",
		s.schema.containerKeyColumns(), kind.table(), where,
	), args...).Scan(&tid, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return ContainerRef{}, false, nil
	}
	if err != nil {
		return ContainerRef{}, false, fmt.Errorf("resolve %s %q: %w", kind, name, err)
	}

	ref, ok := refFromKeys(s.schema.addressing, tid, id)
	if !ok {
		return ContainerRef{}, false, fmt.Errorf("%s %q has no %s yet; wait for sync", kind, name, s.schema.addressing)
	}
	return ref, true, nil
}

// ─── Search ──────────────────────────────────────────────────────────────────

// SearchNotes runs query against the FTS index and joins the hits back to
// the primary store. The index only supplies candidate tids; titles and
// container names come from the primary store, and hits whose note is gone,
// deleted or archived there are dropped.
func (s *Store) SearchNotes(query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return nil, ErrQueryTooShort
	}
	if s.index == nil {
		return nil, ErrIndexUnavailable
	}

	if limit <= 0 {
		limit = s.cfg.DefaultSearchLimit
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Over-fetch so hits dropped by the join do not starve the result.
	rows, err := s.index.Query(
		`SELECT tid, bm25(fts, 2.0, 1.0, 5.0) AS score
		 FROM fts WHERE fts MATCH ?
		 ORDER BY score LIMIT ?`,
		ftsQuery, limit*2,
	)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	type hit struct {
		tid   int64
		score float64
	}
	var hits []hit
	for rows.Next() {
		var tid sql.NullInt64
		var score float64
		if err := rows.Scan(&tid, &score); err != nil {
			rows.Close()
			return nil, err
		}
		if tid.Valid {
			hits = append(hits, hit{tid: tid.Int64, score: score})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(hits) == 0 {
		return nil, nil
	}

	values := make([]string, len(hits))
	args := make([]any, 0, len(hits)*3)
	for i, h := range hits {
		values[i] = "(?, ?, ?)"
		args = append(args, i+1, h.tid, h.score)
	}

	ctxJoin, ctxTitle := s.schema.join(KindContext)
	fldJoin, fldTitle := s.schema.join(KindFolder)
	joined, err := s.main.Query(
		"WITH matches(rank, tid, score) AS (VALUES "+strings.Join(values, ", ")+") "+
			"SELECT matches.score, task.id, task.tid, task.title, "+ctxTitle+", "+fldTitle+
			" FROM matches JOIN task ON task.tid = matches.tid"+ctxJoin+fldJoin+
			" WHERE "+s.schema.liveTask()+
			" ORDER BY matches.rank",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("search join: %w", err)
	}
	defer joined.Close()

	var results []SearchResult
	for joined.Next() {
		var r SearchResult
		var tid sql.NullInt64
		if err := joined.Scan(&r.Score, &r.ID, &tid, &r.Title, &r.Context, &r.Folder); err != nil {
			return nil, err
		}
		if tid.Valid {
			v := tid.Int64
			r.TID = &v
		}
		if len(results) == limit {
			break
		}
		r.Rank = len(results) + 1
		results = append(results, r)
	}
	return results, joined.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

func (s *Store) Stats() (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &Stats{Addressing: s.schema.addressing.String(), IndexAvailable: s.index != nil}
	live := s.schema.liveTask()
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM task WHERE " + live, &stats.Notes},
		{"SELECT COUNT(*) FROM task WHERE tid IS NULL AND " + live, &stats.Unsynced},
		{"SELECT COUNT(*) FROM context WHERE deleted = 0", &stats.Contexts},
		{"SELECT COUNT(*) FROM folder WHERE deleted = 0", &stats.Folders},
	}
	for _, c := range counts {
		if err := s.main.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}
	if s.index != nil {
		if err := s.index.QueryRow("SELECT COUNT(*) FROM fts").Scan(&stats.IndexEntries); err != nil {
			return nil, fmt.Errorf("stats: index: %w", err)
		}
	}
	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var n Note
	var tid, ctxTID, fldTID sql.NullInt64
	var ctxUUID, fldUUID sql.NullString
	if err := row.Scan(
		&n.ID, &tid, &n.Title, &n.Body, &n.Starred, &n.Added, &n.Modified,
		&ctxTID, &ctxUUID, &fldTID, &fldUUID,
		&n.Context, &n.Folder,
	); err != nil {
		return nil, err
	}
	if tid.Valid {
		v := tid.Int64
		n.TID = &v
	}
	n.ContextRef = rawRef(ctxTID, ctxUUID)
	n.FolderRef = rawRef(fldTID, fldUUID)
	return &n, nil
}

// rawRef reports what a task row stores, preferring the uuid when present.
func rawRef(tid sql.NullInt64, id sql.NullString) ContainerRef {
	ref := ContainerRef{Kind: RefByTID}
	if tid.Valid {
		ref.TID = tid.Int64
	}
	if id.Valid && id.String != "" {
		ref.Kind = RefByUUID
		ref.UUID = id.String
	}
	return ref
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(TimeLayout)
}

// TimeLayout matches SQLite's datetime('now').
const TimeLayout = "2006-01-02 15:04:05"

// sanitizeFTS quotes each term so FTS5 operators in user input cannot
// produce syntax errors. A trailing * is kept as a prefix match.
// "vim keym*" → `"vim" "keym"*`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	out := words[:0]
	for _, w := range words {
		prefix := strings.HasSuffix(w, "*")
		w = strings.Trim(w, `"*`)
		if w == "" {
			continue
		}
		term := `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
		if prefix {
			term += "*"
		}
		out = append(out, term)
	}
	return strings.Join(out, " ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt(n int64) *int64 {
	if n == 0 {
		return nil
	}
	return &n
}
