package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vimango/vimango-mcp/internal/store"
)

var (
	titleColor   = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
	starColor    = color.New(color.FgYellow)
	okColor      = color.New(color.FgGreen)
	pendingColor = color.New(color.FgYellow, color.Italic)
)

func searchCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search notes in the FTS index",
		Long: `Search notes in the FTS index, best match first.

Each term is matched as a phrase; a trailing * matches a prefix (vim*).
Notes created since the last vimango sync are not in the index yet.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			query := strings.Join(args, " ")
			results, err := s.SearchNotes(query, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, results)
			}
			if len(results) == 0 {
				fmt.Fprintf(out, "No notes found for %q\n", query)
				return nil
			}
			fmt.Fprintf(out, "Found %d notes for %q:\n\n", len(results), query)
			for _, r := range results {
				fmt.Fprintf(out, "%s %s\n", dimColor.Sprintf("[%d]", r.Rank), titleColor.Sprint(r.Title))
				fmt.Fprintf(out, "    %s / %s  id %d  %s\n", r.Context, r.Folder, r.ID, tidLabel(r.TID))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default search.default_limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func getCmd(a *app) *cobra.Command {
	var (
		id, tid int64
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "get (--id N | --tid N)",
		Short: "Show one note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.GetNote(store.NoteID{ID: id, TID: tid})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, n)
			}
			printNote(out, n)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "local note id")
	cmd.Flags().Int64Var(&tid, "tid", 0, "synchronization id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.MarkFlagsMutuallyExclusive("id", "tid")
	cmd.MarkFlagsOneRequired("id", "tid")
	return cmd
}

func containersCmd(a *app, kind store.ContainerKind) *cobra.Command {
	var asJSON bool

	name := kind.String() + "s"
	cmd := &cobra.Command{
		Use:   name,
		Short: "List " + name,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var items []store.Container
			if kind == store.KindFolder {
				items, err = s.ListFolders()
			} else {
				items, err = s.ListContexts()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, items)
			}
			for _, c := range items {
				star := " "
				if c.Starred {
					star = starColor.Sprint("★")
				}
				fmt.Fprintf(out, "%s %-24s %s\n", star, c.Title, dimColor.Sprint(c.Ref.String()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func createCmd(a *app) *cobra.Command {
	var p store.AddNoteParams

	cmd := &cobra.Command{
		Use:   "create <title> <body>",
		Short: "Create a note",
		Long: `Create a note. Context and folder default to "none".

The note gets a tid, and becomes searchable, after the next vimango sync.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Title, p.Body = args[0], args[1]

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.InsertNote(p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s created note %d %q\n", okColor.Sprint("✓"), id, p.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.Context, "context", "", "context name or uuid")
	cmd.Flags().StringVar(&p.Folder, "folder", "", "folder name or uuid")
	cmd.Flags().BoolVar(&p.Starred, "star", false, "star the note")
	return cmd
}

func updateCmd(a *app) *cobra.Command {
	var (
		title, context, folder string
		star, unstar           bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a note's title, context, folder or star",
		Long: `Change a note's title, context, folder or star. Flags that are not
given are left alone; with no flags only the modified time changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if _, err := fmt.Sscan(args[0], &id); err != nil || id < 1 {
				return fmt.Errorf("%w: note id must be a positive integer", store.ErrInvalidInput)
			}

			var patch store.UpdateNoteParams
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("context") {
				patch.Context = &context
			}
			if flags.Changed("folder") {
				patch.Folder = &folder
			}
			if flags.Changed("star") || flags.Changed("unstar") {
				starred := star && !unstar
				patch.Starred = &starred
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.UpdateNote(id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated note %d %q (%s / %s)\n", okColor.Sprint("✓"), n.ID, n.Title, n.Context, n.Folder)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&context, "context", "", "move to this context (name or uuid)")
	cmd.Flags().StringVar(&folder, "folder", "", "move to this folder (name or uuid)")
	cmd.Flags().BoolVar(&star, "star", false, "star the note")
	cmd.Flags().BoolVar(&unstar, "unstar", false, "unstar the note")
	cmd.MarkFlagsMutuallyExclusive("star", "unstar")
	return cmd
}

func statsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show note and index counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, st)
			}
			index := pendingColor.Sprint("unavailable")
			if st.IndexAvailable {
				index = okColor.Sprintf("%d entries", st.IndexEntries)
			}
			fmt.Fprintf(out, "Notes:       %d (%d awaiting sync)\n", st.Notes, st.Unsynced)
			fmt.Fprintf(out, "Contexts:    %d\n", st.Contexts)
			fmt.Fprintf(out, "Folders:     %d\n", st.Folders)
			fmt.Fprintf(out, "Index:       %s\n", index)
			fmt.Fprintf(out, "Addressing:  %s\n", st.Addressing)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

// ─── Output helpers ──────────────────────────────────────────────────────────

func printNote(w io.Writer, n *store.Note) {
	star := ""
	if n.Starred {
		star = " " + starColor.Sprint("★")
	}
	fmt.Fprintf(w, "%s%s\n", titleColor.Sprint(n.Title), star)
	fmt.Fprintf(w, "%s\n", dimColor.Sprintf("id %d  %s  context %s  folder %s  modified %s",
		n.ID, tidLabel(n.TID), n.Context, n.Folder, n.Modified))
	fmt.Fprintf(w, "\n%s\n", n.Body)
}

func tidLabel(tid *int64) string {
	if tid == nil {
		return pendingColor.Sprint("tid pending sync")
	}
	return fmt.Sprintf("tid %d", *tid)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
