package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aibomm/capsule/internal/ai"
	"aibomm/capsule/internal/capture"
	"aibomm/capsule/internal/db"
)

var (
	addTags     string
	addCategory string

	listJSON   bool
	listSearch string
	listOpen   bool

	showJSON bool
)

var addCmd = &cobra.Command{
	Use:   "add <text...>",
	Short: "Save a note as typed, without AI",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		st := capture.NewEditState(strings.Join(args, " "))
		if addTags != "" {
			st = capture.AddTag(st, addTags)
		}
		if addCategory != "" {
			st = capture.SetCategory(st, ai.ParseCategory(addCategory))
		}
		s := capture.NewSession(cmd.Context(), nil, "", capture.WithState(st), capture.WithLogger(appLog))
		defer s.Close()

		draft, err := s.Draft()
		if err != nil {
			return err
		}
		note, err := d.CreateNote(noteInput(draft, ""))
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s %s\n", shortID(note.ID), note.Title)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, open first, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		var notes []db.Note
		if listSearch != "" {
			notes, err = d.SearchNotes(listSearch)
		} else {
			notes, err = d.AllNotes()
		}
		if err != nil {
			return fmt.Errorf("listing notes: %w", err)
		}
		if listOpen {
			notes = openOnly(notes)
		}

		if listJSON {
			if notes == nil {
				notes = []db.Note{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(notes)
		}

		if len(notes) == 0 {
			fmt.Println("No notes.")
			return nil
		}
		for _, n := range notes {
			printNoteLine(os.Stdout, n)
		}
		fmt.Printf("\n%d note(s)\n", len(notes))
		return nil
	},
}

func openOnly(notes []db.Note) []db.Note {
	var out []db.Note
	for _, n := range notes {
		if !n.IsDone {
			out = append(out, n)
		}
	}
	return out
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show every field of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		note, err := ResolveNote(d, args[0])
		if err != nil {
			return err
		}
		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(note)
		}
		printNoteDetail(os.Stdout, note)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a note between open and done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		note, err := ResolveNote(d, args[0])
		if err != nil {
			return err
		}
		note, err = d.ToggleNote(note.ID)
		if err != nil {
			return err
		}
		state := "open"
		if note.IsDone {
			state = "done"
		}
		fmt.Printf("%s %s -> %s\n", shortID(note.ID), note.Title, state)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		note, err := ResolveNote(d, args[0])
		if err != nil {
			return err
		}
		if err := d.DeleteNote(note.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted %s %s\n", shortID(note.ID), note.Title)
		return nil
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the title of the most recently updated note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		title, err := d.LatestTitle()
		if errors.Is(err, db.ErrNotFound) {
			fmt.Println("No notes yet")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(title)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addTags, "tags", "", "Comma-separated tags")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Category: text, audio, image, link, task")

	listCmd.Flags().BoolVar(&listJSON, "json", false, "JSON output")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Full-text search over title, content and tags")
	listCmd.Flags().BoolVar(&listOpen, "open", false, "Only notes not marked done")

	showCmd.Flags().BoolVar(&showJSON, "json", false, "JSON output")

	rootCmd.AddCommand(addCmd, listCmd, showCmd, toggleCmd, deleteCmd, latestCmd)
}
