package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aibomm/capsule/internal/ai"
	"aibomm/capsule/internal/capture"
)

var (
	processRaw      bool
	processOriginal string
	processJSON     bool

	reprocessField      string
	reprocessNoDispatch bool
)

// processOutput is the JSON form of a process run.
type processOutput struct {
	Source string    `json:"source"`
	Reason string    `json:"reason,omitempty"`
	Result ai.Result `json:"result"`
}

var processCmd = &cobra.Command{
	Use:   "process [text...]",
	Short: "Organize text with AI and print the result without saving",
	Long: `Runs one AI round-trip on the text (arguments or stdin) and prints the
interpreted result. Failures fall back to a locally derived result.

With --raw, stdin is treated as a model reply instead: it is run through
extraction and parsing only, which is useful for checking how a reply is read.
An unreadable reply falls back like any other round-trip; the reason is
printed alongside the fallback result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := argsOrStdin(args, os.Stdin)
		if err != nil {
			return err
		}

		start := time.Now()
		var p ai.Processed
		if processRaw {
			p = interpretRaw(input, processOriginal)
		} else {
			if strings.TrimSpace(input) == "" {
				return capture.ErrEmptyText
			}
			proc, err := newProcessor(appConfig.AI, appLog)
			if err != nil {
				return fmt.Errorf("building AI processor: %w", err)
			}
			p = proc.Process(cmd.Context(), input)
		}

		if processJSON {
			out := processOutput{Source: p.Source.String(), Result: p.Result}
			if p.Reason != nil {
				out.Reason = p.Reason.Error()
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		reportProcessed(os.Stdout, p, formatDurationShort(time.Since(start)))
		return nil
	},
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <id>",
	Short: "Run AI on a stored note and save the merged result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := parseField(reprocessField)
		if err != nil {
			return err
		}

		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		note, err := ResolveNote(d, args[0])
		if err != nil {
			return err
		}
		proc, err := newProcessor(appConfig.AI, appLog)
		if err != nil {
			return fmt.Errorf("building AI processor: %w", err)
		}

		s := capture.NewSession(cmd.Context(), proc, "",
			capture.WithState(stateFromNote(note)), capture.WithField(field), capture.WithLogger(appLog))
		defer s.Close()

		run := &captureRun{
			session:    s,
			db:         d,
			handler:    newDispatcher(appConfig.Dispatch),
			out:        os.Stdout,
			existing:   note,
			noDispatch: reprocessNoDispatch,
		}
		if err := run.runAI(cmd.Context()); err != nil {
			return err
		}
		return run.save()
	},
}

func init() {
	processCmd.Flags().BoolVar(&processRaw, "raw", false, "Treat stdin as a raw model reply")
	processCmd.Flags().StringVar(&processOriginal, "original", "", "Original note text for --raw defaults and fallback")
	processCmd.Flags().BoolVar(&processJSON, "json", false, "JSON output")

	reprocessCmd.Flags().StringVar(&reprocessField, "field", "refined", "Result field that replaces the text: refined or summary")
	reprocessCmd.Flags().BoolVar(&reprocessNoDispatch, "no-dispatch", false, "Do not perform detected intents")

	rootCmd.AddCommand(processCmd, reprocessCmd)
}

// interpretRaw reads a model reply the way Process would. Without an
// original, the trimmed reply stands in for it, so an unreadable reply
// still yields the fallback result rather than an error.
func interpretRaw(raw, original string) ai.Processed {
	if original == "" {
		original = strings.TrimSpace(raw)
	}
	r, err := ai.Interpret(raw, original)
	if err != nil {
		appLog.Warn("raw reply fell back", "reason", err.Error())
		return ai.Processed{Result: ai.Fallback(original, err), Source: ai.SourceFallback, Reason: err}
	}
	return ai.Processed{Result: r, Source: ai.SourceModel}
}

// argsOrStdin joins args, or reads r when there are none.
func argsOrStdin(args []string, r io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}
