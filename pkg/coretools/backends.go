package coretools

import (
	"context"
	"time"
)

// The built-in tools only define catalog entries; the bodies live behind
// these narrow collaborator interfaces, implemented by the host process
// (sandboxed runtimes, web backends, a workspace filesystem layer).

// FileInfo describes one directory entry.
type FileInfo struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// FileSystem is the workspace filesystem collaborator.
type FileSystem interface {
	Read(ctx context.Context, path string, offset, limit int) (string, error)
	Write(ctx context.Context, path, content string) error
	Edit(ctx context.Context, path, oldText, newText string, replaceAll bool) (int, error)
	List(ctx context.Context, dir string) ([]FileInfo, error)
	Glob(ctx context.Context, root, pattern string) ([]string, error)
	Grep(ctx context.Context, root, pattern string) ([]GrepMatch, error)
}

// GrepMatch is one content-search hit.
type GrepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// RunRequest asks the command collaborator to execute one command.
type RunRequest struct {
	Command    string
	WorkingDir string
	Env        map[string]string
	Stdin      string
	Timeout    time.Duration
	SandboxID  string
}

// RunResult carries what the sandbox reports back.
type RunResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// CommandRunner is the sandboxed shell collaborator.
type CommandRunner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// CodeRunner is the sandboxed interpreter collaborator.
type CodeRunner interface {
	RunCode(ctx context.Context, language, code string, timeout time.Duration) (RunResult, error)
}

// SearchHit is one web search result.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Page is one fetched web page.
type Page struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

// WebClient is the web access collaborator.
type WebClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchHit, error)
	Fetch(ctx context.Context, url string) (Page, error)
}

// GenerateRequest asks the generation collaborator for content.
type GenerateRequest struct {
	Kind         string // document or code
	Prompt       string
	Format       string
	TokensBudget int
}

// GenerateResult is the produced content plus token accounting.
type GenerateResult struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
}

// ContentGenerator is the document/code generation collaborator.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// Backends bundles every collaborator the built-in tools dispatch to. Nil
// fields disable the corresponding tools at run time with a clear error.
type Backends struct {
	FS        FileSystem
	Shell     CommandRunner
	Code      CodeRunner
	Web       WebClient
	Generator ContentGenerator
}
