package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skosovsky/codebridge"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		args     string
		function string
	)
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a JSON file holding one definition or an array of definitions",
		Long: "Check a JSON file holding one definition or an array of definitions.\n" +
			"With --args, also validate a JSON arguments object against the definition named by --function.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			data, err := os.ReadFile(argv[0])
			if err != nil {
				return err
			}
			defs, err := codebridge.ParseDefinitions(data)
			out := cmd.OutOrStdout()
			for _, d := range defs {
				_, _ = fmt.Fprintf(out, "ok %s\n", d.Function.Name)
			}
			if err != nil {
				a.logger.Debug("definitions rejected", "file", argv[0], "error", err)
				return err
			}
			if args == "" {
				return nil
			}
			def, err := pickDefinition(defs, function)
			if err != nil {
				return err
			}
			if err := codebridge.ValidateArguments(def, []byte(args)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "ok arguments for %s\n", def.Function.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&args, "args", "", "JSON arguments to validate.")
	cmd.Flags().StringVar(&function, "function", "", "Definition to validate --args against (default: the only one).")
	return cmd
}

func pickDefinition(defs []codebridge.Definition, name string) (codebridge.Definition, error) {
	if name == "" {
		if len(defs) != 1 {
			return codebridge.Definition{}, errors.New("--function is required when the file holds several definitions")
		}
		return defs[0], nil
	}
	for _, d := range defs {
		if d.Function.Name == name {
			return d, nil
		}
	}
	return codebridge.Definition{}, fmt.Errorf("%w: %q", codebridge.ErrToolNotFound, name)
}
