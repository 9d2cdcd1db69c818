package coretools

import (
	"context"
	"fmt"
	"strings"

	"toolgate/pkg/permission"
	"toolgate/pkg/schema"
	"toolgate/pkg/tool"
)

func fileSearcherTool(fs FileSystem) tool.Definition {
	return tool.Definition{
		Name:         "file-searcher",
		DisplayName:  "Find Files",
		Description:  "Finds workspace files whose paths match a glob pattern.",
		Aliases:      []string{"Glob", "glob", "find_files", "search_files"},
		Category:     tool.CategorySearch,
		Capabilities: []string{permission.CapFileRead},
		Parameters: []schema.ParamSpec{
			{Name: "pattern", Type: "string", Description: "Glob pattern, e.g. **/*.go", Required: true, MinLength: intPtr(1)},
			{Name: "path", Type: "string", Description: "Directory to search from, defaults to the workspace root"},
		},
		Active: true,
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if fs == nil {
				return tool.Fail("filesystem backend not configured"), nil
			}
			root := searchRoot(params, callCtx)
			matches, err := fs.Glob(ctx, root, strArg(params, "pattern"))
			if err != nil {
				return nil, fmt.Errorf("glob %q: %w", strArg(params, "pattern"), err)
			}
			res := tool.Ok(strings.Join(matches, "\n"))
			res.Data = map[string]interface{}{"count": len(matches)}
			return res, nil
		}),
	}
}

func contentSearcherTool(fs FileSystem) tool.Definition {
	return tool.Definition{
		Name:         "content-searcher",
		DisplayName:  "Search Content",
		Description:  "Searches workspace file contents with a regular expression.",
		Aliases:      []string{"Grep", "grep", "search_content", "grep_search"},
		Category:     tool.CategorySearch,
		Capabilities: []string{permission.CapFileRead},
		Parameters: []schema.ParamSpec{
			{Name: "pattern", Type: "string", Description: "Regular expression to match", Required: true, MinLength: intPtr(1)},
			{Name: "path", Type: "string", Description: "Directory to search in, defaults to the workspace root"},
		},
		Active: true,
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if fs == nil {
				return tool.Fail("filesystem backend not configured"), nil
			}
			root := searchRoot(params, callCtx)
			matches, err := fs.Grep(ctx, root, strArg(params, "pattern"))
			if err != nil {
				return nil, fmt.Errorf("grep %q: %w", strArg(params, "pattern"), err)
			}
			lines := make([]string, 0, len(matches))
			for _, m := range matches {
				lines = append(lines, fmt.Sprintf("%s:%d:%s", m.Path, m.Line, m.Text))
			}
			res := tool.Ok(strings.Join(lines, "\n"))
			res.Data = map[string]interface{}{"count": len(matches)}
			return res, nil
		}),
	}
}

// searchRoot resolves the search directory from the explicit path argument
// first, then the caller's working directory.
func searchRoot(params map[string]interface{}, callCtx *tool.CallContext) string {
	if p := strArg(params, "path"); p != "" {
		return p
	}
	if callCtx != nil && callCtx.WorkingDir != "" {
		return callCtx.WorkingDir
	}
	return "."
}
