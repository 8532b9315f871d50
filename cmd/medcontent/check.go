package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/medcontent/internal/compliance"
	"github.com/jonathan/medcontent/internal/ingestion"
	"github.com/jonathan/medcontent/internal/observability"
	"github.com/jonathan/medcontent/internal/persuasion"
	"github.com/jonathan/medcontent/internal/repair"
)

// errNotCompliant is returned by scan --strict for text with violations.
var errNotCompliant = errors.New("text is not compliant")

var (
	scanJSON   bool
	scanStrict bool
	scanWatch  bool
	fixJSON    bool
	fixWrite   bool
	scoreJSON  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Check text against medical advertising rules",
	Long:  "Scan a file (or stdin) for prohibited medical advertising expressions and print the report. HTML input is reduced to text first.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

var fixCmd = &cobra.Command{
	Use:   "fix [file]",
	Short: "Replace fixable violations with compliant wording",
	Long:  "Auto-fix a file (or stdin). The fixed text goes to stdout, or back into the file with --write; the applied changes go to stderr.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFix,
}

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score how persuasive a text is",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScore,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the report as JSON")
	scanCmd.Flags().BoolVar(&scanStrict, "strict", false, "Exit with an error when the text is not compliant")
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "Re-scan the file whenever it changes")
	fixCmd.Flags().BoolVar(&fixJSON, "json", false, "Print the fixed text and changes as JSON")
	fixCmd.Flags().BoolVar(&fixWrite, "write", false, "Write the fixed text back to the file")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the breakdown as JSON")

	rootCmd.AddCommand(scanCmd, fixCmd, scoreCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	scanner := compliance.NewScanner(nil)
	out := cmd.OutOrStdout()

	if scanWatch {
		if len(args) == 0 || args[0] == "-" {
			return fmt.Errorf("--watch needs a file argument")
		}
		return watchFile(contextOrBackground(cmd), args[0], func() {
			if _, err := scanFile(scanner, args[0], out); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
		})
	}

	content, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	text, err := ingestion.Normalize(content)
	if err != nil {
		return err
	}
	report, err := printScan(scanner, text, out)
	if err != nil {
		return err
	}
	if scanStrict && !report.IsCompliant {
		return errNotCompliant
	}
	return nil
}

func scanFile(scanner *compliance.Scanner, path string, out io.Writer) (compliance.Report, error) {
	text, err := ingestion.IngestFromFile(path)
	if err != nil {
		return compliance.Report{}, err
	}
	return printScan(scanner, text, out)
}

func printScan(scanner *compliance.Scanner, text string, out io.Writer) (compliance.Report, error) {
	report := scanner.Scan(text)
	if scanJSON {
		return report, writeJSON(out, report)
	}
	observability.NewPrinter(out).PrintReport(report)
	return report, nil
}

func runFix(cmd *cobra.Command, args []string) error {
	content, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	// Raw text so that --write keeps the file's formatting.
	fixed, changes := repair.NewFixer(nil).Fix(content)

	if fixWrite {
		if len(args) == 0 || args[0] == "-" {
			return fmt.Errorf("--write needs a file argument")
		}
		if len(changes) > 0 {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], []byte(fixed), info.Mode().Perm()); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}
		}
	}

	if fixJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"text": fixed, "changes": changes})
	}
	observability.NewPrinter(cmd.ErrOrStderr()).PrintChanges(changes)
	if !fixWrite {
		_, err = io.WriteString(cmd.OutOrStdout(), fixed)
	}
	return err
}

func runScore(cmd *cobra.Command, args []string) error {
	content, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	text, err := ingestion.Normalize(content)
	if err != nil {
		return err
	}

	breakdown := persuasion.NewScorer().Score(text)
	if scoreJSON {
		return writeJSON(cmd.OutOrStdout(), breakdown)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintBreakdown(breakdown)
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
