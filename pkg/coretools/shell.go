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

func commandExecutorTool(runner CommandRunner) tool.Definition {
	return tool.Definition{
		Name:         "command-executor",
		DisplayName:  "Run Command",
		Description:  "Runs a shell command inside the caller's sandbox.",
		Aliases:      []string{"Bash", "Shell", "exec", "run_command"},
		Category:     tool.CategoryShell,
		Capabilities: []string{permission.CapSystemExecute},
		Parameters: []schema.ParamSpec{
			{Name: "command", Type: "string", Description: "Shell command line to run", Required: true, MinLength: intPtr(1)},
			{Name: "working_dir", Type: "string", Description: "Working directory for the command"},
			{Name: "timeout_ms", Type: "integer", Description: "Command timeout in milliseconds", Minimum: floatPtr(1), Maximum: floatPtr(600000)},
			{Name: "env", Type: "object", Description: "Extra environment variables"},
			{Name: "stdin", Type: "string", Description: "Data piped to the command's stdin"},
		},
		RateLimit: &ratelimit.Policy{MaxRequests: 10, Window: 60 * time.Second},
		Active:    true,
		EstimateCost: func(params map[string]interface{}) float64 {
			return 0.01
		},
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if runner == nil {
				return tool.Fail("command backend not configured"), nil
			}
			req := RunRequest{
				Command:    strArg(params, "command"),
				WorkingDir: strArg(params, "working_dir"),
				Env:        mapArg(params, "env"),
				Stdin:      strArg(params, "stdin"),
				Timeout:    time.Duration(intArg(params, "timeout_ms", 0)) * time.Millisecond,
			}
			if callCtx != nil {
				req.SandboxID = callCtx.SandboxID
				if req.WorkingDir == "" {
					req.WorkingDir = callCtx.WorkingDir
				}
			}
			out, err := runner.Run(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("run command: %w", err)
			}
			res := &tool.Result{
				Success: out.ExitCode == 0,
				Output:  out.Stdout,
				Data: map[string]interface{}{
					"exit_code": out.ExitCode,
					"stderr":    out.Stderr,
				},
			}
			if !res.Success {
				res.Error = fmt.Sprintf("command exited with code %d", out.ExitCode)
			}
			return res, nil
		}),
	}
}

func codeExecutorTool(runner CodeRunner) tool.Definition {
	return tool.Definition{
		Name:         "code-executor",
		DisplayName:  "Run Code",
		Description:  "Runs a code snippet in a sandboxed interpreter.",
		Aliases:      []string{"Python", "python", "run_code", "execute_code"},
		Category:     tool.CategoryCode,
		Capabilities: []string{permission.CapCodeExecute},
		Parameters: []schema.ParamSpec{
			{Name: "code", Type: "string", Description: "Source code to run", Required: true, MinLength: intPtr(1)},
			{Name: "language", Type: "string", Description: "Interpreter language", Enum: []interface{}{"python", "javascript", "ruby"}},
			{Name: "timeout_ms", Type: "integer", Description: "Execution timeout in milliseconds", Minimum: floatPtr(1), Maximum: floatPtr(600000)},
		},
		RateLimit: &ratelimit.Policy{MaxRequests: 5, Window: 60 * time.Second},
		Active:    true,
		EstimateCost: func(params map[string]interface{}) float64 {
			return 0.02
		},
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if runner == nil {
				return tool.Fail("code backend not configured"), nil
			}
			lang := strArgDefault(params, "language", "python")
			timeout := time.Duration(intArg(params, "timeout_ms", 0)) * time.Millisecond
			out, err := runner.RunCode(ctx, lang, strArg(params, "code"), timeout)
			if err != nil {
				return nil, fmt.Errorf("run %s code: %w", lang, err)
			}
			res := &tool.Result{
				Success: out.ExitCode == 0,
				Output:  out.Stdout,
				Data: map[string]interface{}{
					"exit_code": out.ExitCode,
					"stderr":    out.Stderr,
					"language":  lang,
				},
			}
			if !res.Success {
				res.Error = fmt.Sprintf("interpreter exited with code %d", out.ExitCode)
			}
			return res, nil
		}),
	}
}
