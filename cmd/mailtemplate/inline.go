package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mailtemplate/pkg/inliner"
)

func newInlineCmd() *cobra.Command {
	var (
		output string
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "inline [file]",
		Short: "Inline the <style> block of an HTML file without substituting placeholders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "<stdin>"
			var (
				input []byte
				err   error
			)
			if len(args) == 1 {
				name = args[0]
				input, err = os.ReadFile(name)
			} else {
				input, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}

			result, err := inliner.New().Inline(string(input))
			if err != nil {
				return fmt.Errorf("failed to inline CSS: %w", err)
			}

			if err := writeOutput(cmd.OutOrStdout(), result.HTML, output); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			errOut := cmd.ErrOrStderr()
			for _, w := range result.Warnings {
				fmt.Fprintf(errOut, "warning: %s\n", w)
			}
			if stats {
				showProcessingStats(errOut, result, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print processing statistics to stderr")
	return cmd
}

func showProcessingStats(w io.Writer, result *inliner.InlineResult, filename string) {
	fmt.Fprintf(w, "\nProcessing Statistics for %s:\n", filename)
	fmt.Fprintf(w, "  Inlined styles: %d\n", result.InlinedStyles)
	fmt.Fprintf(w, "  CSS rules parsed: %d\n", result.ProcessingStats.CSSRulesParsed)
	fmt.Fprintf(w, "  HTML elements processed: %d\n", result.ProcessingStats.HTMLElementsProcessed)
	fmt.Fprintf(w, "  Elements styled: %d\n", result.ProcessingStats.ElementsStyled)
	fmt.Fprintf(w, "  Selectors matched: %d\n", result.ProcessingStats.SelectorsMatched)
	fmt.Fprintf(w, "  Processing time: %dms\n", result.ProcessingStats.ProcessingTimeMs)
}
