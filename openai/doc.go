// Package openai is a chat.Completer for the OpenAI chat-completions API and
// compatible servers. Requests go through hashicorp/go-retryablehttp, so
// rate-limit and server errors are retried with exponential backoff.
//
//	client, err := openai.New(openai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	if err != nil {
//		return err
//	}
//	resp, err := client.Complete(ctx, chat.Request{
//		Model:    "gpt-4o-mini",
//		Messages: []chat.Message{chat.UserMessage("What's the weather like in Boston?")},
//		Tools:    registry.Definitions(),
//	})
package openai
