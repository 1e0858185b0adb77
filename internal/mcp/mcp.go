// Package mcp implements the Model Context Protocol server for vimango-mcp.
//
// It exposes the vimango notes database as MCP tools over stdio, so any
// agent (Claude Code, OpenCode, Gemini CLI, Codex, ...) can create, search,
// read and re-file notes by adding vimango-mcp as an MCP server.
//
// Tool profiles allow agents to load only the tools they need:
//
//	vimango-mcp mcp                         → all 6 tools (default)
//	vimango-mcp mcp --tools=read            → list, search and get only
//	vimango-mcp mcp --tools=write           → create_note, update_note
//	vimango-mcp mcp --tools=read,create_note → combine profiles and names
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/vimango/vimango-mcp/internal/store"
)

// ─── Tool Profiles ───────────────────────────────────────────────────────────
//
// "read"   tools that never modify the primary store.
// "write"  tools that insert or patch notes.
// "all"    every tool registered (the default).

var ProfileRead = map[string]bool{
	"list_contexts": true,
	"list_folders":  true,
	"search_notes":  true,
	"get_note":      true,
}

var ProfileWrite = map[string]bool{
	"create_note": true,
	"update_note": true,
}

// Profiles maps profile names to their tool sets.
var Profiles = map[string]map[string]bool{
	"read":  ProfileRead,
	"write": ProfileWrite,
}

// ResolveTools takes a comma-separated string of profile names and/or
// individual tool names and returns the set of tool names to register.
// An empty input means "all".
func ResolveTools(input string) map[string]bool {
	input = strings.TrimSpace(input)
	if input == "" || input == "all" {
		return nil // nil means register everything
	}

	result := make(map[string]bool)
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if token == "all" {
			return nil
		}
		if profile, ok := Profiles[token]; ok {
			for tool := range profile {
				result[tool] = true
			}
		} else {
			result[token] = true
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// NewServer creates an MCP server with all tools registered.
func NewServer(s *store.Store, version string) *server.MCPServer {
	return NewServerWithTools(s, version, nil)
}

const serverInstructions = `vimango-mcp gives access to the user's vimango notes. ` +
	`Use search_notes to find notes by keyword, get_note to read one in full, ` +
	`list_contexts and list_folders to see how notes are organised, ` +
	`create_note to capture something new and update_note to retitle, ` +
	`star or re-file an existing note. New notes get a tid only after the ` +
	`vimango sync runs, and only then become searchable.`

// NewServerWithTools creates an MCP server registering only the tools in
// the allowlist. If allowlist is nil, all tools are registered.
func NewServerWithTools(s *store.Store, version string, allowlist map[string]bool) *server.MCPServer {
	srv := server.NewMCPServer(
		"vimango",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	registerTools(srv, s, allowlist)
	return srv
}

func shouldRegister(name string, allowlist map[string]bool) bool {
	if allowlist == nil {
		return true
	}
	return allowlist[name]
}

func registerTools(srv *server.MCPServer, s *store.Store, allowlist map[string]bool) {
	// ─── create_note (profile: write) ──────────────────────────────────
	if shouldRegister("create_note", allowlist) {
		srv.AddTool(
			mcp.NewTool("create_note",
				mcp.WithDescription("Create a new vimango note. Context and folder are given by name (case-sensitive) and default to 'none'. The note receives a local id immediately; its tid is assigned later by vimango sync, and it is not searchable until then."),
				mcp.WithTitleAnnotation("Create Note"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(false),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("title",
					mcp.Required(),
					mcp.MinLength(1),
					mcp.Description("Note title"),
				),
				mcp.WithString("note",
					mcp.Required(),
					mcp.MinLength(1),
					mcp.Description("Note body in markdown"),
				),
				mcp.WithString("context",
					mcp.Description("Context name, e.g. 'work' (default: none)"),
				),
				mcp.WithString("folder",
					mcp.Description("Folder name (default: none)"),
				),
				mcp.WithBoolean("star",
					mcp.Description("Star the note (default: false)"),
				),
			),
			handleCreateNote(s),
		)
	}

	// ─── list_contexts (profile: read) ─────────────────────────────────
	if shouldRegister("list_contexts", allowlist) {
		srv.AddTool(
			mcp.NewTool("list_contexts",
				mcp.WithDescription("List all contexts that notes can be assigned to. Use the names shown here for the context argument of create_note and update_note."),
				mcp.WithTitleAnnotation("List Contexts"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			handleListContainers(s, store.KindContext),
		)
	}

	// ─── list_folders (profile: read) ──────────────────────────────────
	if shouldRegister("list_folders", allowlist) {
		srv.AddTool(
			mcp.NewTool("list_folders",
				mcp.WithDescription("List all folders that notes can be filed in. Use the names shown here for the folder argument of create_note and update_note."),
				mcp.WithTitleAnnotation("List Folders"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			handleListContainers(s, store.KindFolder),
		)
	}

	// ─── search_notes (profile: read) ──────────────────────────────────
	if shouldRegister("search_notes", allowlist) {
		srv.AddTool(
			mcp.NewTool("search_notes",
				mcp.WithDescription("Full-text search over synced vimango notes, best matches first. Title and tag matches weigh more than body matches. End a word with * for a prefix match. Follow up with get_note to read a result."),
				mcp.WithTitleAnnotation("Search Notes"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("query",
					mcp.Required(),
					mcp.MinLength(store.MinQueryLength),
					mcp.Description("Search terms, at least 3 characters"),
				),
				mcp.WithNumber("limit",
					mcp.Min(1),
					mcp.Description("Max results (default: 5)"),
				),
			),
			handleSearchNotes(s),
		)
	}

	// ─── get_note (profile: read) ──────────────────────────────────────
	if shouldRegister("get_note", allowlist) {
		srv.AddTool(
			mcp.NewTool("get_note",
				mcp.WithDescription("Get the full content of a note. Pass exactly one of id (local id, always present) or tid (sync id, present once synced)."),
				mcp.WithTitleAnnotation("Get Note"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithNumber("id",
					mcp.Min(1),
					mcp.Description("Local note id"),
				),
				mcp.WithNumber("tid",
					mcp.Min(1),
					mcp.Description("Sync id assigned by vimango sync"),
				),
			),
			handleGetNote(s),
		)
	}

	// ─── update_note (profile: write) ──────────────────────────────────
	if shouldRegister("update_note", allowlist) {
		srv.AddTool(
			mcp.NewTool("update_note",
				mcp.WithDescription("Change the title, context, folder or star of an existing note. Only the fields you pass are changed; the note body is never modified. An empty context or folder resets it to 'none'."),
				mcp.WithTitleAnnotation("Update Note"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithNumber("id",
					mcp.Required(),
					mcp.Min(1),
					mcp.Description("Local note id"),
				),
				mcp.WithString("title",
					mcp.Description("New title"),
				),
				mcp.WithString("context",
					mcp.Description("New context name"),
				),
				mcp.WithString("folder",
					mcp.Description("New folder name"),
				),
				mcp.WithBoolean("star",
					mcp.Description("Star (true) or unstar (false) the note"),
				),
			),
			handleUpdateNote(s),
		)
	}
}

// ─── Tool Handlers ───────────────────────────────────────────────────────────

func handleCreateNote(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, _ := req.GetArguments()["title"].(string)
		body, _ := req.GetArguments()["note"].(string)
		contextName, _ := req.GetArguments()["context"].(string)
		folder, _ := req.GetArguments()["folder"].(string)

		if strings.TrimSpace(title) == "" {
			return validationError("title is required"), nil
		}
		if strings.TrimSpace(body) == "" {
			return validationError("note is required"), nil
		}

		id, err := s.InsertNote(store.AddNoteParams{
			Title:   title,
			Body:    body,
			Context: contextName,
			Folder:  folder,
			Starred: boolArg(req, "star", false),
		})
		if err != nil {
			return toolError("create_note", err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Created note %q with id %d in folder %q and context %q (tid pending sync)",
			title, id, orNone(folder), orNone(contextName),
		)), nil
	}
}

func handleListContainers(s *store.Store, kind store.ContainerKind) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var (
			items []store.Container
			err   error
		)
		if kind == store.KindFolder {
			items, err = s.ListFolders()
		} else {
			items, err = s.ListContexts()
		}
		if err != nil {
			return toolError("list_"+kind.String()+"s", err), nil
		}

		if len(items) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No %ss found.", kind)), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%ss (%d):\n", capitalize(kind.String()), len(items))
		for _, c := range items {
			star := ""
			if c.Starred {
				star = " ★"
			}
			fmt.Fprintf(&b, "- %s%s [%s]\n", c.Title, star, c.Ref)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleSearchNotes(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, _ := req.GetArguments()["query"].(string)
		limit := intArg(req, "limit", 0)
		if _, set := req.GetArguments()["limit"]; set && limit < 1 {
			return validationError("limit must be at least 1"), nil
		}

		results, err := s.SearchNotes(query, limit)
		if err != nil {
			return toolError("search_notes", err), nil
		}

		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No notes found for: %q", query)), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d notes for %q:\n\n", len(results), query)
		for _, r := range results {
			fmt.Fprintf(&b, "[%d] %s\n    context: %s | folder: %s | id: %d | tid: %s\n\n",
				r.Rank, r.Title, r.Context, r.Folder, r.ID, formatTID(r.TID))
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleGetNote(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, hasID, err := idArg(req, "id")
		if err != nil {
			return validationError(err.Error()), nil
		}
		tid, hasTID, err := idArg(req, "tid")
		if err != nil {
			return validationError(err.Error()), nil
		}
		if hasID == hasTID {
			return validationError("provide exactly one of id or tid"), nil
		}

		n, err := s.GetNote(store.NoteID{ID: id, TID: tid})
		if err != nil {
			return toolError("get_note", err), nil
		}

		return mcp.NewToolResultText(formatNote(n)), nil
	}
}

func handleUpdateNote(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok, err := idArg(req, "id")
		if err != nil {
			return validationError(err.Error()), nil
		}
		if !ok {
			return validationError("id is required"), nil
		}

		patch := store.UpdateNoteParams{}
		if v, ok := req.GetArguments()["title"].(string); ok {
			if strings.TrimSpace(v) == "" {
				return validationError("title cannot be empty"), nil
			}
			patch.Title = &v
		}
		if v, ok := req.GetArguments()["context"].(string); ok {
			patch.Context = &v
		}
		if v, ok := req.GetArguments()["folder"].(string); ok {
			patch.Folder = &v
		}
		if v, ok := req.GetArguments()["star"].(bool); ok {
			patch.Starred = &v
		}

		n, err := s.UpdateNote(id, patch)
		if err != nil {
			return toolError("update_note", err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Updated note #%d %q (context: %s, folder: %s, starred: %s)",
			n.ID, n.Title, n.Context, n.Folder, yesNo(n.Starred),
		)), nil
	}
}

// ─── Errors ──────────────────────────────────────────────────────────────────

func validationError(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError(string(store.CategoryValidation) + ": " + msg)
}

// toolError turns a store error into a tool failure. Storage failures are
// logged since the agent only sees the message.
func toolError(tool string, err error) *mcp.CallToolResult {
	cat := store.Classify(err)
	if cat == store.CategoryStorage {
		slog.Error("tool failed", "tool", tool, "err", err)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", cat, err))
}

// ─── Formatting ──────────────────────────────────────────────────────────────

func formatNote(n *store.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", n.Title)
	fmt.Fprintf(&b, "Context: %s\n", n.Context)
	fmt.Fprintf(&b, "Folder: %s\n", n.Folder)
	fmt.Fprintf(&b, "Starred: %s\n", yesNo(n.Starred))
	fmt.Fprintf(&b, "tid: %s\n", formatTID(n.TID))
	fmt.Fprintf(&b, "id: %d\n", n.ID)
	fmt.Fprintf(&b, "Modified: %s\n", n.Modified)
	b.WriteString("\n")
	b.WriteString(n.Body)
	return b.String()
}

func formatTID(tid *int64) string {
	if tid == nil {
		return "pending sync"
	}
	return fmt.Sprintf("%d", *tid)
}

func orNone(name string) string {
	if strings.TrimSpace(name) == "" {
		return store.NoneTitle
	}
	return name
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// idArg reads a positive integer identifier. JSON numbers arrive as float64.
func idArg(req mcp.CallToolRequest, key string) (int64, bool, error) {
	raw, present := req.GetArguments()[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	v, ok := raw.(float64)
	if !ok || v != math.Trunc(v) {
		return 0, false, fmt.Errorf("%s must be an integer", key)
	}
	if v < 1 {
		return 0, false, fmt.Errorf("%s must be a positive integer", key)
	}
	return int64(v), true, nil
}
