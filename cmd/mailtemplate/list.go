package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var (
		asJSON    bool
		variables bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available templates and their languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), root.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			list := a.service.Templates()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			for _, name := range a.service.TemplateNames() {
				fmt.Fprintf(out, "%s\t%s\n", name, strings.Join(list[name], ","))
				if !variables {
					continue
				}
				for _, lang := range list[name] {
					vars, err := a.service.Variables(name, lang)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "  %s: %s\n", lang, strings.Join(vars, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&variables, "variables", false, "Also print the placeholders of each document")
	return cmd
}
