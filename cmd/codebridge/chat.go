package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skosovsky/codebridge"
	"github.com/skosovsky/codebridge/chat"
	"github.com/skosovsky/codebridge/conversation"
	"github.com/skosovsky/codebridge/internal/demotools"
	"github.com/skosovsky/codebridge/openai"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		model      string
		toolChoice string
		showCalls  bool
	)
	cmd := &cobra.Command{
		Use:   "chat PROMPT",
		Short: "Ask the configured model a question with the demo tools available",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			if model != "" {
				a.cfg.Model = model
			}
			client, err := openai.New(
				openai.WithAPIKey(a.cfg.APIKey),
				openai.WithBaseURL(a.cfg.BaseURL),
				openai.WithRetry(a.cfg.Retry.MaxRetries, a.cfg.Retry.WaitMin, a.cfg.Retry.WaitMax),
				openai.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			reg, err := demotools.Registry([]codebridge.RegistryOption{
				codebridge.WithDefaultTimeout(a.cfg.ToolTimeout),
				codebridge.WithMaxConcurrency(a.cfg.MaxConcurrency),
			}, a.toolOptions()...)
			if err != nil {
				return err
			}
			reg.Use(codebridge.WithLogging(a.logger))
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = reg.Shutdown(ctx)
			}()

			opts := []conversation.Option{
				conversation.WithModel(a.cfg.Model),
				conversation.WithSystemPrompt(a.cfg.SystemPrompt),
				conversation.WithMaxIterations(a.cfg.MaxIterations),
				conversation.WithLogger(a.logger),
			}
			if toolChoice != "" {
				choice, err := parseToolChoice(toolChoice)
				if err != nil {
					return err
				}
				opts = append(opts, conversation.WithToolChoice(choice))
			}
			runner := conversation.NewRunner(client, reg, opts...)
			res, err := runner.Run(cmd.Context(), chat.NewHistory(), strings.Join(argv, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if showCalls {
				for _, rec := range res.ToolCalls {
					_, _ = fmt.Fprintf(out, "-> %s(%s) = %s\n", rec.Call.Function.Name, rec.Arguments, rec.Result.Content())
				}
			}
			_, _ = fmt.Fprintln(out, res.Response.Message.Content)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model override.")
	cmd.Flags().StringVar(&toolChoice, "tool-choice", "", "auto, none, required or a tool name.")
	cmd.Flags().BoolVar(&showCalls, "show-calls", false, "Print every tool call before the answer.")
	return cmd
}

func parseToolChoice(s string) (*chat.ToolChoice, error) {
	switch s {
	case chat.ToolChoiceModeAuto:
		return chat.ToolChoiceAuto(), nil
	case chat.ToolChoiceModeNone:
		return chat.ToolChoiceNone(), nil
	case chat.ToolChoiceModeRequired:
		return chat.ToolChoiceRequired(), nil
	}
	if err := codebridge.ValidateName(s); err != nil {
		return nil, err
	}
	return chat.ForceTool(s), nil
}
