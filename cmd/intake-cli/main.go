package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cyber-assist-backend/internal/intake"
)

func main() {
	root := &cobra.Command{
		Use:   "intake-cli",
		Short: "Walk through the guided incident report in a terminal",
	}
	root.AddCommand(newRunCmd(), newFieldsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an intake and read answers from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := intake.LoadSchema(schemaPath)
			if err != nil {
				return err
			}
			r := &repl{
				machine: intake.NewMachine(schema),
				in:      cmd.InOrStdin(),
				out:     cmd.OutOrStdout(),
				stat:    statFile,
			}
			return r.run()
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "intake schema YAML (default: built-in incident report)")
	return cmd
}

func newFieldsCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the report fields in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := intake.LoadSchema(schemaPath)
			if err != nil {
				return err
			}
			for i := 0; i < schema.Count(); i++ {
				f, _ := schema.FieldAt(i)
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s (%s)\n", i+1, f.Key, bounds(f))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "intake schema YAML")
	return cmd
}

func bounds(f intake.Field) string {
	s := fmt.Sprintf("%d-%d chars", f.MinLength, f.MaxLength)
	if f.Format != intake.FormatNone {
		s += ", " + string(f.Format)
	}
	return s
}

func statFile(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}
