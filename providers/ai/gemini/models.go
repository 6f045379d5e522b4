package gemini

import (
	"context"
	"fmt"
	"net/http"

	"github.com/flowstack/flowstack/internal/utils"
	"github.com/flowstack/flowstack/providers/ai"
)

// apiRequest is the JSON body sent to the generateContent endpoint.
type apiRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// apiResponse mirrors the generateContent response fields consumed here.
type apiResponse struct {
	Candidates []struct {
		Content struct {
			Role  string `json:"role"`
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// requestFromGeneric converts the provider-neutral request into Gemini wire
// format: "assistant" becomes "model", system prompts have no dedicated
// role and are folded into the first user turn.
func requestFromGeneric(request ai.ChatRequest) apiRequest {
	contents := make([]content, 0, len(request.Messages))
	for _, message := range request.Messages {
		role := "user"
		if message.Role == ai.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: message.Content}},
		})
	}

	if request.SystemPrompt != "" && len(contents) > 0 {
		contents[0].Parts[0].Text = request.SystemPrompt + "\n\n" + contents[0].Parts[0].Text
	}

	config := &generationConfig{
		Temperature:     request.Temperature,
		MaxOutputTokens: maxOutputTokens,
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = request.MaxTokens
	}

	return apiRequest{Contents: contents, GenerationConfig: config}
}

// postGenerateContent sends the request; the key already rides on the URL,
// so no Authorization header is attached.
func postGenerateContent(ctx context.Context, client *http.Client, endpoint string, body apiRequest) (*apiResponse, error) {
	return utils.DoPostSync[apiResponse](ctx, client, endpoint, "", body)
}

// extractCandidate pulls the first candidate's text out of the response.
func extractCandidate(response apiResponse) (string, string, error) {
	if len(response.Candidates) == 0 {
		return "", "", fmt.Errorf("no candidates in Gemini response")
	}

	candidate := response.Candidates[0]
	if len(candidate.Content.Parts) == 0 {
		return "", "", fmt.Errorf("empty candidate content in Gemini response")
	}

	text := ""
	for _, candidatePart := range candidate.Content.Parts {
		text += candidatePart.Text
	}

	return text, candidate.FinishReason, nil
}
