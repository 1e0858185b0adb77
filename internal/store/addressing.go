package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ─── Addressing ──────────────────────────────────────────────────────────────
//
// vimango databases exist in three generations. Old files point notes at
// their containers through the integer tid, new ones through a uuid, and
// files caught mid-migration carry both columns. The Store detects which
// one it opened and every query that touches container columns goes
// through the helpers below.

type Addressing int

const (
	AddressingTID Addressing = iota
	AddressingUUID
	AddressingDual
)

func (a Addressing) String() string {
	switch a {
	case AddressingTID:
		return "tid"
	case AddressingUUID:
		return "uuid"
	case AddressingDual:
		return "dual"
	default:
		return fmt.Sprintf("addressing(%d)", int(a))
	}
}

// ParseAddressing parses the names printed by Addressing.String.
func ParseAddressing(s string) (Addressing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tid", "legacy", "":
		return AddressingTID, nil
	case "uuid":
		return AddressingUUID, nil
	case "dual":
		return AddressingDual, nil
	}
	return 0, fmt.Errorf("unknown addressing %q (want tid, uuid or dual)", s)
}

func (a Addressing) usesTID() bool  { return a == AddressingTID || a == AddressingDual }
func (a Addressing) usesUUID() bool { return a == AddressingUUID || a == AddressingDual }

// ContainerKind selects the context or folder table.
type ContainerKind int

const (
	KindContext ContainerKind = iota
	KindFolder
)

func (k ContainerKind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "context"
}

// Reserved "none" container present in every vimango database.
const (
	NoneTID   int64 = 1
	NoneUUID        = "00000000-0000-0000-0000-000000000001"
	NoneTitle       = "none"
)

type RefKind int

const (
	RefByTID RefKind = iota
	RefByUUID
)

// ContainerRef points a note at a context or folder. Kind says which key is
// authoritative; in dual-addressed files both keys are carried when known.
type ContainerRef struct {
	Kind RefKind `json:"kind"`
	TID  int64   `json:"tid,omitempty"`
	UUID string  `json:"uuid,omitempty"`
}

func (r ContainerRef) String() string {
	if r.Kind == RefByUUID {
		return "uuid:" + r.UUID
	}
	return fmt.Sprintf("tid:%d", r.TID)
}

// IsZero reports whether the ref carries no key at all.
func (r ContainerRef) IsZero() bool {
	return r.TID == 0 && r.UUID == ""
}

func noneRef(a Addressing) ContainerRef {
	switch a {
	case AddressingUUID:
		return ContainerRef{Kind: RefByUUID, UUID: NoneUUID}
	case AddressingDual:
		return ContainerRef{Kind: RefByUUID, TID: NoneTID, UUID: NoneUUID}
	default:
		return ContainerRef{Kind: RefByTID, TID: NoneTID}
	}
}

// refFromKeys builds a ref from the key columns of a container row. ok is
// false when the row has no key usable under the given addressing, which
// happens for containers the sync process has not reached yet.
func refFromKeys(a Addressing, tid sql.NullInt64, id sql.NullString) (ContainerRef, bool) {
	ref := ContainerRef{}
	if tid.Valid {
		ref.TID = tid.Int64
	}
	if id.Valid {
		ref.UUID = id.String
	}
	switch a {
	case AddressingUUID:
		ref.Kind = RefByUUID
		ref.TID = 0
		return ref, ref.UUID != ""
	case AddressingDual:
		if ref.UUID != "" {
			ref.Kind = RefByUUID
			return ref, true
		}
		ref.Kind = RefByTID
		return ref, ref.TID != 0
	default:
		ref.Kind = RefByTID
		return ref, tid.Valid
	}
}

// ─── Resolution ──────────────────────────────────────────────────────────────

type Outcome int

const (
	Resolved Outcome = iota
	NotFound
	UseDefault
)

// Resolution is the result of turning a user-supplied container name into
// a ContainerRef. Insert and update share it so both treat names the same.
type Resolution struct {
	Outcome Outcome
	Ref     ContainerRef
}

// ─── Schema detection ────────────────────────────────────────────────────────

type schema struct {
	addressing  Addressing
	hasArchived bool
}

func detectSchema(db *sql.DB) (schema, error) {
	taskCols, err := tableColumns(db, "task")
	if err != nil {
		return schema{}, err
	}
	if len(taskCols) == 0 {
		return schema{}, fmt.Errorf("no task table in primary store")
	}

	hasTID := taskCols["context_tid"] && taskCols["folder_tid"]
	hasUUID := taskCols["context_uuid"] && taskCols["folder_uuid"]

	var sc schema
	switch {
	case hasTID && hasUUID:
		sc.addressing = AddressingDual
	case hasUUID:
		sc.addressing = AddressingUUID
	case hasTID:
		sc.addressing = AddressingTID
	default:
		return schema{}, fmt.Errorf("task table has neither context_tid/folder_tid nor context_uuid/folder_uuid columns")
	}
	sc.hasArchived = taskCols["archived"]

	for _, table := range []string{"context", "folder"} {
		cols, err := tableColumns(db, table)
		if err != nil {
			return schema{}, err
		}
		if len(cols) == 0 {
			return schema{}, fmt.Errorf("no %s table in primary store", table)
		}
		if sc.addressing.usesUUID() && !cols["uuid"] {
			return schema{}, fmt.Errorf("task uses uuid container columns but %s has no uuid column", table)
		}
	}
	return sc, nil
}

func tableColumns(db *sql.DB, tableName string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, typ string
		var notNull int
		var defaultValue any
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// ─── SQL fragments ───────────────────────────────────────────────────────────

func (k ContainerKind) table() string { return k.String() }

func (k ContainerKind) alias() string {
	if k == KindFolder {
		return "f"
	}
	return "c"
}

// containerKeyColumns lists the key columns selected from a container row.
func (sc schema) containerKeyColumns() string {
	if sc.addressing.usesUUID() {
		return "tid, uuid"
	}
	return "tid, NULL"
}

// assignments returns the task columns and values that store ref.
func (sc schema) assignments(kind ContainerKind, ref ContainerRef) ([]string, []any) {
	prefix := kind.String()
	switch sc.addressing {
	case AddressingUUID:
		return []string{prefix + "_uuid"}, []any{ref.UUID}
	case AddressingDual:
		return []string{prefix + "_tid", prefix + "_uuid"}, []any{nullableInt(ref.TID), nullableString(ref.UUID)}
	default:
		return []string{prefix + "_tid"}, []any{ref.TID}
	}
}

// refColumns returns the task columns holding the container keys, NULL
// standing in for columns the schema lacks so the scan shape is fixed.
func (sc schema) refColumns(kind ContainerKind) string {
	prefix := "task." + kind.String()
	switch sc.addressing {
	case AddressingUUID:
		return "NULL, " + prefix + "_uuid"
	case AddressingDual:
		return prefix + "_tid, " + prefix + "_uuid"
	default:
		return prefix + "_tid, NULL"
	}
}

// join returns the LEFT JOIN(s) recovering a container title and the
// expression selecting it. Dual files prefer the uuid match and fall back to
// the tid for rows whose uuid is missing or not yet known.
func (sc schema) join(kind ContainerKind) (string, string) {
	table := kind.table()
	a := kind.alias()
	prefix := "task." + kind.String()
	switch sc.addressing {
	case AddressingUUID:
		return fmt.Sprintf(" LEFT JOIN %s %s ON %s.uuid = %s_uuid", table, a, a, prefix),
			fmt.Sprintf("COALESCE(%s.title, '%s')", a, NoneTitle)
	case AddressingDual:
		join := fmt.Sprintf(" LEFT JOIN %s %su ON %su.uuid = %s_uuid LEFT JOIN %s %st ON %st.tid = %s_tid",
			table, a, a, prefix, table, a, a, prefix)
		return join, fmt.Sprintf("COALESCE(%su.title, %st.title, '%s')", a, a, NoneTitle)
	default:
		return fmt.Sprintf(" LEFT JOIN %s %s ON %s.tid = %s_tid", table, a, a, prefix),
			fmt.Sprintf("COALESCE(%s.title, '%s')", a, NoneTitle)
	}
}

// liveTask filters out soft-deleted (and, where the column exists, archived) notes.
func (sc schema) liveTask() string {
	if sc.hasArchived {
		return "task.deleted = 0 AND task.archived = 0"
	}
	return "task.deleted = 0"
}

// noteSelect is the column list and FROM clause scanned by scanNote.
func (sc schema) noteSelect() string {
	ctxJoin, ctxTitle := sc.join(KindContext)
	fldJoin, fldTitle := sc.join(KindFolder)
	return `SELECT task.id, task.tid, task.title, COALESCE(task.note, ''), COALESCE(task.star, 0),
	        COALESCE(task.added, ''), COALESCE(task.modified, ''), ` +
		sc.refColumns(KindContext) + ", " + sc.refColumns(KindFolder) + ", " +
		ctxTitle + ", " + fldTitle +
		" FROM task" + ctxJoin + fldJoin
}

// looksLikeUUID reports whether a container argument should also be tried
// against the uuid column.
func looksLikeUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
