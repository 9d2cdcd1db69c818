package coretools

import (
	"context"
	"fmt"
	"time"

	"toolgate/pkg/permission"
	"toolgate/pkg/ratelimit"
	"toolgate/pkg/schema"
	"toolgate/pkg/tool"
)

func documentGeneratorTool(gen ContentGenerator) tool.Definition {
	return tool.Definition{
		Name:         "document-generator",
		DisplayName:  "Create Document",
		Description:  "Generates a document from a prompt in the requested format.",
		Aliases:      []string{"CreateDocument", "create_document", "generate_document"},
		Category:     tool.CategoryGeneration,
		Capabilities: []string{permission.CapContentGenerate},
		Parameters: []schema.ParamSpec{
			{Name: "prompt", Type: "string", Description: "What the document should contain", Required: true, MinLength: intPtr(1)},
			{Name: "format", Type: "string", Description: "Output format", Enum: []interface{}{"markdown", "html", "text"}},
			{Name: "max_tokens", Type: "integer", Description: "Generation token budget", Minimum: floatPtr(1), Maximum: floatPtr(100000)},
		},
		RateLimit: &ratelimit.Policy{MaxRequests: 10, Window: 60 * time.Second},
		Active:    true,
		EstimateCost: func(params map[string]interface{}) float64 {
			return 0.002 * float64(intArg(params, "max_tokens", 1000)) / 1000
		},
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if gen == nil {
				return tool.Fail("generation backend not configured"), nil
			}
			out, err := gen.Generate(ctx, GenerateRequest{
				Kind:         "document",
				Prompt:       strArg(params, "prompt"),
				Format:       strArgDefault(params, "format", "markdown"),
				TokensBudget: intArg(params, "max_tokens", 0),
			})
			if err != nil {
				return nil, fmt.Errorf("generate document: %w", err)
			}
			res := tool.Ok(out.Content)
			res.Metadata.TokensUsed = out.TokensUsed
			return res, nil
		}),
	}
}
