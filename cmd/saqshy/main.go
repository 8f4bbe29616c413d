package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	// Import for side effects: register all capabilities via init()
	// Analyzers
	_ "github.com/nauanbek/saqshy/internal/analyzers/behavior"
	_ "github.com/nauanbek/saqshy/internal/analyzers/content"
	_ "github.com/nauanbek/saqshy/internal/analyzers/network"
	_ "github.com/nauanbek/saqshy/internal/analyzers/profile"

	// LLM adjudicators
	_ "github.com/nauanbek/saqshy/internal/adapters/llm/bedrock"
	_ "github.com/nauanbek/saqshy/internal/adapters/llm/openai"
)

var version = "dev"

func main() {
	// 0 = success, 1 = dependency unreachable / runtime error,
	// 2 = config/usage error
	ctx := kong.Parse(&CLI,
		kong.Name("saqshy"),
		kong.Description("saqshy - spam-detection decision core for group chats"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Exit(func(code int) {
			if code != 0 {
				os.Exit(2)
			}
			os.Exit(0)
		}),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if code, ok := exitCode(err); ok {
			os.Exit(code)
		}
		os.Exit(1)
	}
}
