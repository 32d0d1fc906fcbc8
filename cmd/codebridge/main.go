// Command codebridge inspects, validates and exercises tool definitions for
// chat-completion APIs.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
