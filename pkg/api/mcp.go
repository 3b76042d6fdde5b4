package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/curso-registry/pkg/catalog"
	"github.com/hazyhaar/curso-registry/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the normalization MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, n *catalog.Normalizer, cat *catalog.Catalog) {
	registerNormalizeTerm(srv, n)
	registerNormalizeBatch(srv, n)
	registerCatalogInfo(srv, n, cat)
}

func registerNormalizeTerm(srv *server.MCPServer, n *catalog.Normalizer) {
	tool := mcp.NewTool("normalize_term",
		mcp.WithDescription("Normalize a scraped course name against the official university catalog (accent and case insensitive, fuzzy matched)."),
		mcp.WithString("term", mcp.Required(), mcp.Description("The course name to normalize")),
	)

	kit.RegisterMCPTool(srv, tool, normalizeTermEndpoint(n),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			term, _ := args["term"].(string)
			if term == "" {
				return nil, fmt.Errorf("term is required")
			}
			return &kit.MCPDecodeResult{Request: &normalizeTermReq{Term: term}}, nil
		})
}

func registerNormalizeBatch(srv *server.MCPServer, n *catalog.Normalizer) {
	tool := mcp.NewTool("normalize_batch",
		mcp.WithDescription("Normalize multiple course names (up to 100) against the official catalog."),
		mcp.WithString("terms", mcp.Required(), mcp.Description("Comma-separated list of course names to normalize")),
	)

	kit.RegisterMCPTool(srv, tool, normalizeBatchEndpoint(n),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			termsStr, _ := args["terms"].(string)
			terms := strings.Split(termsStr, ",")
			for i := range terms {
				terms[i] = strings.TrimSpace(terms[i])
			}
			return &kit.MCPDecodeResult{Request: &normalizeBatchReq{Terms: terms}}, nil
		})
}

func registerCatalogInfo(srv *server.MCPServer, n *catalog.Normalizer, cat *catalog.Catalog) {
	tool := mcp.NewTool("catalog_info",
		mcp.WithDescription("Report the loaded official course catalog: names, size and cache occupancy."),
	)

	kit.RegisterMCPTool(srv, tool, func(_ context.Context, _ any) (any, error) {
		return struct {
			catalogResponse
			CachedTerms int `json:"cached_terms"`
		}{
			catalogResponse: catalogResponse{Courses: cat.Names(), Count: cat.Len()},
			CachedTerms:     n.CacheLen(),
		}, nil
	}, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}
