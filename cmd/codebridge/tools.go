package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skosovsky/codebridge"
	"github.com/skosovsky/codebridge/internal/demotools"
)

func newToolsCmd(a *app) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the definitions of the built-in demo tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tools, err := demotools.Tools(a.toolOptions()...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if list {
				for _, t := range tools {
					_, _ = fmt.Fprintln(out, listLine(t))
				}
				return nil
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(codebridge.Definitions(tools...))
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "Print one line per tool: name, version, tags and description.")
	return cmd
}

// listLine renders "name@version [tag,tag] (dangerous): description".
func listLine(t codebridge.Tool) string {
	var b strings.Builder
	b.WriteString(t.Name())
	if tm, ok := t.(codebridge.ToolMetadata); ok {
		if v := tm.Version(); v != "" {
			b.WriteString("@" + v)
		}
		if tags := tm.Tags(); len(tags) > 0 {
			b.WriteString(" [" + strings.Join(tags, ",") + "]")
		}
		if tm.IsDangerous() {
			b.WriteString(" (dangerous)")
		}
	}
	b.WriteString(": " + t.Description())
	return b.String()
}

func (a *app) toolOptions() []codebridge.ToolOption {
	if a.cfg.Strict {
		return []codebridge.ToolOption{codebridge.WithStrict()}
	}
	return nil
}
