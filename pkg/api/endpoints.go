package api

import (
	"context"
	"fmt"

	"github.com/hazyhaar/curso-registry/pkg/catalog"
	"github.com/hazyhaar/curso-registry/pkg/kit"
)

// Shared request/response types used by both HTTP and MCP transports.

// TermResult is one normalization outcome, echoing the input term.
type TermResult struct {
	Term      string  `json:"term"`
	Canonical string  `json:"canonical"`
	Score     float64 `json:"score"`
	Matched   bool    `json:"matched"`
}

type batchResponse struct {
	Results []TermResult `json:"results"`
}

type catalogResponse struct {
	Courses []string `json:"courses"`
	Count   int      `json:"count"`
}

type normalizeTermReq struct {
	Term string
}

type normalizeBatchReq struct {
	Terms []string
}

// Endpoints returns the core kit.Endpoints backed by the normalization engine.

func normalizeTermEndpoint(n *catalog.Normalizer) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*normalizeTermReq)
		return toTermResult(req.Term, n.Normalize(req.Term)), nil
	}
}

func normalizeBatchEndpoint(n *catalog.Normalizer) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*normalizeBatchReq)
		if len(req.Terms) == 0 {
			return nil, fmt.Errorf("terms array is empty")
		}
		if len(req.Terms) > 100 {
			return nil, fmt.Errorf("too many terms (max 100, got %d)", len(req.Terms))
		}
		results := make([]TermResult, len(req.Terms))
		for i, term := range req.Terms {
			results[i] = toTermResult(term, n.Normalize(term))
		}
		return batchResponse{Results: results}, nil
	}
}

func listCatalogEndpoint(cat *catalog.Catalog) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		names := cat.Names()
		return catalogResponse{Courses: names, Count: len(names)}, nil
	}
}

func toTermResult(term string, res catalog.Result) TermResult {
	return TermResult{
		Term:      term,
		Canonical: res.Canonical,
		Score:     res.Score,
		Matched:   res.Matched,
	}
}
