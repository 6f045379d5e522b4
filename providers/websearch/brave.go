package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/flowstack/flowstack/engine"
	"github.com/flowstack/flowstack/internal/utils"
)

// braveResponse mirrors the Brave Search API fields consumed here.
type braveResponse struct {
	Query struct {
		Original string `json:"original"`
	} `json:"query"`
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// searchBrave queries the Brave Search API. The subscription token rides
// on a custom header rather than a Bearer token.
func (s *Service) searchBrave(ctx context.Context, query, apiKey string, numResults int) (*engine.WebSearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(numResults))
	params.Set("offset", "0")
	params.Set("safesearch", "moderate")

	headers := map[string]string{
		"X-Subscription-Token": apiKey,
	}

	data, err := utils.DoGetSync[braveResponse](ctx, s.httpClient, s.braveBaseURL, params, headers)
	if err != nil {
		return nil, fmt.Errorf("Brave search failed: %w", err)
	}

	results := make([]engine.WebSearchResult, 0, len(data.Web.Results))
	for _, webResult := range data.Web.Results {
		results = append(results, engine.WebSearchResult{
			Title:   webResult.Title,
			URL:     webResult.URL,
			Snippet: cleanSnippet(webResult.Description),
		})
	}

	echoed := data.Query.Original
	if echoed == "" {
		echoed = query
	}

	return &engine.WebSearchResponse{
		Query:   echoed,
		Results: results,
		Engine:  "brave",
	}, nil
}
