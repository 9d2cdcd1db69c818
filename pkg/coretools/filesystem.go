package coretools

import (
	"context"
	"fmt"
	"strings"

	"toolgate/pkg/permission"
	"toolgate/pkg/schema"
	"toolgate/pkg/tool"
)

func fileReaderTool(fs FileSystem) tool.Definition {
	return tool.Definition{
		Name:         "file-reader",
		DisplayName:  "Read File",
		Description:  "Reads a file from the workspace, optionally a line range.",
		Aliases:      []string{"Read", "read_file", "ReadFile"},
		Category:     tool.CategoryFilesystem,
		Capabilities: []string{permission.CapFileRead},
		Parameters: []schema.ParamSpec{
			{Name: "file_path", Type: "string", Description: "Absolute or workspace-relative file path", Required: true, MinLength: intPtr(1)},
			{Name: "offset", Type: "integer", Description: "First line to read, zero-based", Minimum: floatPtr(0)},
			{Name: "limit", Type: "integer", Description: "Maximum number of lines", Minimum: floatPtr(1)},
		},
		Active: true,
		EstimateCost: func(params map[string]interface{}) float64 {
			return 0.001
		},
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if fs == nil {
				return tool.Fail("filesystem backend not configured"), nil
			}
			content, err := fs.Read(ctx, strArg(params, "file_path"), intArg(params, "offset", 0), intArg(params, "limit", 0))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", strArg(params, "file_path"), err)
			}
			return tool.Ok(content), nil
		}),
	}
}

func fileWriterTool(fs FileSystem) tool.Definition {
	return tool.Definition{
		Name:         "file-writer",
		DisplayName:  "Write File",
		Description:  "Writes content to a workspace file, replacing it if present.",
		Aliases:      []string{"Write", "write_file", "WriteFile"},
		Category:     tool.CategoryFilesystem,
		Capabilities: []string{permission.CapFileWrite},
		Parameters: []schema.ParamSpec{
			{Name: "file_path", Type: "string", Description: "Destination file path", Required: true, MinLength: intPtr(1)},
			{Name: "content", Type: "string", Description: "Full file content", Required: true},
		},
		Active: true,
		EstimateCost: func(params map[string]interface{}) float64 {
			return 0.001 + float64(len(strArg(params, "content")))/1e6
		},
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if fs == nil {
				return tool.Fail("filesystem backend not configured"), nil
			}
			path := strArg(params, "file_path")
			if err := fs.Write(ctx, path, strArg(params, "content")); err != nil {
				return nil, fmt.Errorf("write %s: %w", path, err)
			}
			return tool.Ok(fmt.Sprintf("wrote %s", path)), nil
		}),
	}
}

func fileEditorTool(fs FileSystem) tool.Definition {
	return tool.Definition{
		Name:         "file-editor",
		DisplayName:  "Edit File",
		Description:  "Replaces an exact text fragment inside a workspace file.",
		Aliases:      []string{"Edit", "edit_file", "apply_edit", "EditFile"},
		Category:     tool.CategoryFilesystem,
		Capabilities: []string{permission.CapFileRead, permission.CapFileWrite},
		Parameters: []schema.ParamSpec{
			{Name: "file_path", Type: "string", Description: "File to edit", Required: true, MinLength: intPtr(1)},
			{Name: "old_text", Type: "string", Description: "Exact text to replace", Required: true, MinLength: intPtr(1)},
			{Name: "new_text", Type: "string", Description: "Replacement text", Required: true},
			{Name: "replace_all", Type: "boolean", Description: "Replace every occurrence instead of exactly one"},
		},
		Active: true,
		EstimateCost: func(params map[string]interface{}) float64 {
			return 0.001
		},
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if fs == nil {
				return tool.Fail("filesystem backend not configured"), nil
			}
			path := strArg(params, "file_path")
			n, err := fs.Edit(ctx, path, strArg(params, "old_text"), strArg(params, "new_text"), boolArg(params, "replace_all"))
			if err != nil {
				return nil, fmt.Errorf("edit %s: %w", path, err)
			}
			res := tool.Ok(fmt.Sprintf("replaced %d occurrence(s) in %s", n, path))
			res.Data = map[string]interface{}{"replacements": n}
			return res, nil
		}),
	}
}

func directoryListerTool(fs FileSystem) tool.Definition {
	return tool.Definition{
		Name:         "directory-lister",
		DisplayName:  "List Directory",
		Description:  "Lists the entries of a workspace directory.",
		Aliases:      []string{"LS", "ls", "list_directory", "list_dir"},
		Category:     tool.CategoryFilesystem,
		Capabilities: []string{permission.CapFileRead},
		Parameters: []schema.ParamSpec{
			{Name: "path", Type: "string", Description: "Directory to list", Required: true, MinLength: intPtr(1)},
		},
		Active: true,
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if fs == nil {
				return tool.Fail("filesystem backend not configured"), nil
			}
			entries, err := fs.List(ctx, strArg(params, "path"))
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", strArg(params, "path"), err)
			}
			names := make([]string, 0, len(entries))
			items := make([]interface{}, 0, len(entries))
			for _, e := range entries {
				name := e.Name
				if e.IsDir {
					name += "/"
				}
				names = append(names, name)
				items = append(items, map[string]interface{}{
					"name": e.Name, "is_dir": e.IsDir, "size": e.Size,
				})
			}
			res := tool.Ok(strings.Join(names, "\n"))
			res.Data = map[string]interface{}{"entries": items}
			return res, nil
		}),
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
