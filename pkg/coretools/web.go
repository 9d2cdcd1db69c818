package coretools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolgate/pkg/permission"
	"toolgate/pkg/ratelimit"
	"toolgate/pkg/schema"
	"toolgate/pkg/tool"
)

func webSearcherTool(web WebClient) tool.Definition {
	return tool.Definition{
		Name:         "web-searcher",
		DisplayName:  "Web Search",
		Description:  "Searches the web and returns ranked results.",
		Aliases:      []string{"WebSearch", "web_search", "search_web"},
		Category:     tool.CategoryWeb,
		Capabilities: []string{permission.CapWebSearch},
		Parameters: []schema.ParamSpec{
			{Name: "query", Type: "string", Description: "Search query", Required: true, MinLength: intPtr(1)},
			{Name: "max_results", Type: "integer", Description: "Maximum results to return", Minimum: floatPtr(1), Maximum: floatPtr(50)},
		},
		RateLimit: &ratelimit.Policy{MaxRequests: 20, Window: 60 * time.Second},
		Active:    true,
		EstimateCost: func(params map[string]interface{}) float64 {
			return 0.005
		},
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if web == nil {
				return tool.Fail("web backend not configured"), nil
			}
			query := strArg(params, "query")
			hits, err := web.Search(ctx, query, intArg(params, "max_results", 10))
			if err != nil {
				return nil, fmt.Errorf("web search %q: %w", query, err)
			}
			lines := make([]string, 0, len(hits))
			items := make([]interface{}, 0, len(hits))
			for _, h := range hits {
				lines = append(lines, fmt.Sprintf("%s\n  %s\n  %s", h.Title, h.URL, h.Snippet))
				items = append(items, map[string]interface{}{
					"title": h.Title, "url": h.URL, "snippet": h.Snippet,
				})
			}
			res := tool.Ok(strings.Join(lines, "\n"))
			res.Data = map[string]interface{}{"results": items, "count": len(hits)}
			return res, nil
		}),
	}
}

func webFetcherTool(web WebClient) tool.Definition {
	return tool.Definition{
		Name:         "web-fetcher",
		DisplayName:  "Fetch URL",
		Description:  "Fetches a web page and returns its content.",
		Aliases:      []string{"WebFetch", "web_fetch", "fetch_url", "http_get"},
		Category:     tool.CategoryWeb,
		Capabilities: []string{permission.CapWebFetch},
		Parameters: []schema.ParamSpec{
			{Name: "url", Type: "string", Description: "URL to fetch", Required: true, Pattern: "^https?://"},
		},
		RateLimit: &ratelimit.Policy{MaxRequests: 20, Window: 60 * time.Second},
		Active:    true,
		EstimateCost: func(params map[string]interface{}) float64 {
			return 0.005
		},
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			if web == nil {
				return tool.Fail("web backend not configured"), nil
			}
			url := strArg(params, "url")
			page, err := web.Fetch(ctx, url)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: %w", url, err)
			}
			res := tool.Ok(page.Body)
			res.Data = map[string]interface{}{
				"url":          page.URL,
				"content_type": page.ContentType,
			}
			return res, nil
		}),
	}
}
