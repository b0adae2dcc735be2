package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"aibomm/capsule/internal/ai"
	"aibomm/capsule/internal/capture"
	"aibomm/capsule/internal/db"
	"aibomm/capsule/internal/dispatch"
)

var (
	captureText        string
	captureMode        string
	captureImage       string
	captureAI          bool
	captureField       string
	captureID          string
	captureInteractive bool
	captureNoSave      bool
	captureNoDispatch  bool
)

var captureCmd = &cobra.Command{
	Use:   "capture [text...]",
	Short: "Capture a note, optionally organizing it with AI",
	Long: `Opens a capture session on the given text (or an existing note with --id).

With --ai the text is sent to the model once, the result is merged into the
note and any detected intent (alarm, calendar, message) is dispatched before
saving. With --interactive a line-based session starts instead: plain lines
are appended to the note and slash commands drive it:

  /ai            organize the note with AI (runs in the background)
  /undo          revert the last AI change
  /tag <tags>    add comma-separated tags
  /category <c>  set the category
  /show          print the current state
  /save          save and exit
  /quit          exit without saving`,
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := parseField(captureField)
		if err != nil {
			return err
		}

		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		proc, err := newProcessor(appConfig.AI, appLog)
		if err != nil {
			return fmt.Errorf("building AI processor: %w", err)
		}

		var existing *db.Note
		st := capture.NewEditState("")
		if captureID != "" {
			existing, err = ResolveNote(d, captureID)
			if err != nil {
				return err
			}
			st = stateFromNote(existing)
		}

		text := captureText
		if text == "" && len(args) > 0 {
			text = strings.Join(args, " ")
		}
		s := capture.NewSession(cmd.Context(), proc, "",
			capture.WithState(st), capture.WithField(field), capture.WithLogger(appLog))
		defer s.Close()
		if err := applyCaptureMode(s, captureMode, text, captureImage); err != nil {
			return err
		}

		run := &captureRun{
			session:    s,
			db:         d,
			handler:    newDispatcher(appConfig.Dispatch),
			out:        os.Stdout,
			existing:   existing,
			noDispatch: captureNoDispatch,
		}
		if existing != nil {
			run.refined = deref(existing.RefinedText)
		}

		if captureInteractive {
			run.prompt = term.IsTerminal(int(os.Stdin.Fd()))
			return run.interactive(cmd.Context(), os.Stdin)
		}

		if captureAI {
			if err := run.runAI(cmd.Context()); err != nil {
				return err
			}
		}
		if captureNoSave {
			run.show()
			return nil
		}
		return run.save()
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureText, "text", "t", "", "Note text (or voice transcript with --mode voice)")
	captureCmd.Flags().StringVar(&captureMode, "mode", "text", "Capture mode: text, voice, image")
	captureCmd.Flags().StringVar(&captureImage, "image", "", "Image file name for --mode image")
	captureCmd.Flags().BoolVar(&captureAI, "ai", false, "Organize with AI immediately, dispatch the intent, then save")
	captureCmd.Flags().StringVar(&captureField, "field", "refined", "Result field that replaces the text: refined or summary")
	captureCmd.Flags().StringVar(&captureID, "id", "", "Edit an existing note instead of creating one")
	captureCmd.Flags().BoolVarP(&captureInteractive, "interactive", "i", false, "Line-based capture session on stdin")
	captureCmd.Flags().BoolVar(&captureNoSave, "no-save", false, "Print the result instead of saving")
	captureCmd.Flags().BoolVar(&captureNoDispatch, "no-dispatch", false, "Do not perform detected intents")
	rootCmd.AddCommand(captureCmd)
}

func parseField(s string) (capture.Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "refined":
		return capture.FieldRefined, nil
	case "summary":
		return capture.FieldSummary, nil
	default:
		return 0, fmt.Errorf("invalid --field %q (want refined or summary)", s)
	}
}

// applyCaptureMode seeds the session for the chosen input mode. Text
// replaces the note text; a voice transcript is appended after it; an image
// sets the image category and names the image when there is no text.
func applyCaptureMode(s *capture.Session, mode, text, image string) error {
	switch strings.ToLower(mode) {
	case "", "text":
		if text != "" {
			return s.Edit(text)
		}
		return nil
	case "voice":
		if err := s.AppendText(text); err != nil {
			return err
		}
		return s.SetCategory(ai.CategoryAudio)
	case "image":
		if image == "" {
			return errors.New("--mode image needs --image")
		}
		if text != "" {
			if err := s.Edit(text); err != nil {
				return err
			}
		}
		return s.AttachImage(image)
	default:
		return fmt.Errorf("invalid --mode %q (want text, voice or image)", mode)
	}
}

// captureRun drives one capture session from the command line.
type captureRun struct {
	session    *capture.Session
	db         *db.DB
	handler    dispatch.Handler
	out        io.Writer
	existing   *db.Note
	noDispatch bool
	prompt     bool // print "> " before each line; set when stdin is a terminal

	mu      sync.Mutex // guards out and refined
	refined string
	wg      sync.WaitGroup
}

func (r *captureRun) printf(format string, a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, a...)
}

// runAI performs one round-trip, reports it and dispatches the intent.
func (r *captureRun) runAI(ctx context.Context) error {
	start := time.Now()
	p, err := r.session.RunAI()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.refined = p.Result.RefinedContent
	reportProcessed(r.out, p, formatDurationShort(time.Since(start)))
	r.mu.Unlock()

	if !r.noDispatch {
		var buf strings.Builder
		dispatchIntent(ctx, &buf, r.handler, p.Result, r.session.State().CurrentText)
		if buf.Len() > 0 {
			r.printf("%s", buf.String())
		}
	}
	return nil
}

// startAI runs a round-trip in the background so the user can keep typing.
func (r *captureRun) startAI(ctx context.Context) {
	if r.session.Processing() {
		r.printf("[ai] %v\n", capture.ErrBusy)
		return
	}
	r.printf("[ai] organizing...\n")
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.runAI(ctx); err != nil && !errors.Is(err, capture.ErrClosed) {
			r.printf("[ai] %v\n", err)
		}
	}()
}

func (r *captureRun) show() {
	st := r.session.State()
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s\n", st.CurrentText)
	fmt.Fprintf(r.out, "  category: %s  phase: %s\n", st.Category, st.Phase())
	if len(st.Tags) > 0 {
		fmt.Fprintf(r.out, "  tags:     %s\n", st.TagString())
	}
	if st.Summary != "" {
		fmt.Fprintf(r.out, "  summary:  %s\n", st.Summary)
	}
	if st.Intent.Actionable() {
		fmt.Fprintf(r.out, "  intent:   %s %s\n", st.Intent, ai.EncodePayload(st.IntentPayload))
	}
}

// save persists the session as one whole-note write.
func (r *captureRun) save() error {
	draft, err := r.session.Draft()
	if err != nil {
		return err
	}
	r.mu.Lock()
	in := noteInput(draft, r.refined)
	r.mu.Unlock()

	var note *db.Note
	if r.existing != nil {
		note, err = r.db.UpdateNote(r.existing.ID, in)
	} else {
		note, err = r.db.CreateNote(in)
	}
	if err != nil {
		appLog.Error("saving note failed", "session", r.session.ID, "error", err.Error())
		return fmt.Errorf("saving note: %w", err)
	}
	appLog.Info("note saved", "id", note.ID, "ai_processed", note.IsAIProcessed, "category", note.Category)
	r.printf("Saved %s %s\n", shortID(note.ID), note.Title)
	return nil
}

func (r *captureRun) showPrompt() {
	if r.prompt {
		r.printf("> ")
	}
}

// interactive reads lines from in until /save, /quit or EOF. EOF saves.
func (r *captureRun) interactive(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for r.showPrompt(); scanner.Scan(); r.showPrompt() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := r.session.AppendText(line); err != nil {
				return err
			}
			continue
		}

		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch verb {
		case "/ai":
			r.startAI(ctx)
		case "/undo":
			undone, err := r.session.Undo()
			if err != nil {
				return err
			}
			if undone {
				r.mu.Lock()
				r.refined = ""
				r.mu.Unlock()
				r.printf("[undo] AI change reverted\n")
			} else {
				r.printf("[undo] nothing to undo\n")
			}
		case "/tag":
			if err := r.session.AddTag(arg); err != nil {
				return err
			}
		case "/category":
			if err := r.session.SetCategory(ai.ParseCategory(arg)); err != nil {
				return err
			}
		case "/show":
			r.wg.Wait()
			r.show()
		case "/save":
			r.wg.Wait()
			return r.save()
		case "/quit":
			r.session.Close()
			r.wg.Wait()
			r.printf("Discarded\n")
			return nil
		default:
			r.printf("unknown command %s\n", verb)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	r.wg.Wait()
	return r.save()
}
