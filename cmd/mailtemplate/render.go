package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mailtemplate/pkg/templater"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		dataFile string
		sets     []string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "render <template> <language>",
		Short: "Render a template with data and print the HTML",
		Example: `  mailtemplate render greeting en --set user_first_name=John --set dashboard_url=https://app.skillzzy.com
  echo '{"candidate_skills":["Go","SQL"]}' | mailtemplate render candidate-interview-scheduled ua --data -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readData(cmd.InOrStdin(), dataFile, sets)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), root.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			out, err := a.service.Render(cmd.Context(), templater.Request{
				TemplateName: args[0],
				Language:     args[1],
				Data:         data,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, output)
		},
	}

	cmd.Flags().StringVarP(&dataFile, "data", "d", "", `JSON object file with template data ("-" for stdin)`)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Template value as key=value; repeatable, applied after --data")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// readData merges the JSON object from file (or stdin for "-") with the
// key=value pairs of sets.
func readData(stdin io.Reader, file string, sets []string) (map[string]any, error) {
	data := make(map[string]any)

	if file != "" {
		var (
			raw []byte
			err error
		)
		if file == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, fmt.Errorf("data must be a JSON object: %w", err)
		}
		if data == nil {
			data = make(map[string]any)
		}
	}

	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", kv)
		}
		data[key] = value
	}
	return data, nil
}

func writeOutput(w io.Writer, content, filename string) error {
	if filename == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	return os.WriteFile(filename, []byte(content), 0o644)
}
