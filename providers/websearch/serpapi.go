package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/flowstack/flowstack/engine"
	"github.com/flowstack/flowstack/internal/utils"
)

// serpapiResponse mirrors the SerpAPI fields consumed here: organic
// results plus the optional answer box.
type serpapiResponse struct {
	SearchParameters struct {
		Query  string `json:"q"`
		Engine string `json:"engine"`
	} `json:"search_parameters"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	AnswerBox struct {
		Link    string `json:"link"`
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answer_box"`
}

// searchSerpAPI queries SerpAPI's Google engine. An answer box, when
// present, is promoted to the front of the result list.
func (s *Service) searchSerpAPI(ctx context.Context, query, apiKey string, numResults int) (*engine.WebSearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", apiKey)
	params.Set("engine", "google")
	params.Set("num", strconv.Itoa(numResults))
	params.Set("output", "json")

	data, err := utils.DoGetSync[serpapiResponse](ctx, s.httpClient, s.serpapiBaseURL, params, nil)
	if err != nil {
		return nil, fmt.Errorf("SerpAPI search failed: %w", err)
	}

	results := make([]engine.WebSearchResult, 0, len(data.OrganicResults)+1)

	if data.AnswerBox.Answer != "" || data.AnswerBox.Snippet != "" {
		snippet := data.AnswerBox.Answer
		if snippet == "" {
			snippet = data.AnswerBox.Snippet
		}
		results = append(results, engine.WebSearchResult{
			Title:   "Answer Box",
			URL:     data.AnswerBox.Link,
			Snippet: cleanSnippet(snippet),
		})
	}

	for _, organic := range data.OrganicResults {
		results = append(results, engine.WebSearchResult{
			Title:   organic.Title,
			URL:     organic.Link,
			Snippet: cleanSnippet(organic.Snippet),
		})
	}

	return &engine.WebSearchResponse{
		Query:   data.SearchParameters.Query,
		Results: results,
		Engine:  "google_via_serpapi",
	}, nil
}
