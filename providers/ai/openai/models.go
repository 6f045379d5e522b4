package openai

import "github.com/flowstack/flowstack/providers/ai"

// apiRequest is the JSON body sent to the chat-completions endpoint.
type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiResponse mirrors the fields of the chat-completions response consumed
// by this package.
type apiResponse struct {
	Id      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// requestFromGeneric converts the provider-neutral request into OpenAI wire
// format, prepending the system prompt as a system-role message.
func requestFromGeneric(request ai.ChatRequest) apiRequest {
	messages := make([]apiMessage, 0, len(request.Messages)+1)

	if request.SystemPrompt != "" {
		messages = append(messages, apiMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}
	for _, message := range request.Messages {
		messages = append(messages, apiMessage{Role: string(message.Role), Content: message.Content})
	}

	return apiRequest{
		Model:       request.Model,
		Messages:    messages,
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
	}
}

// responseToGeneric converts the OpenAI wire response into the
// provider-neutral shape, keeping only the first choice.
func responseToGeneric(response apiResponse) *ai.ChatResponse {
	first := response.Choices[0]
	return &ai.ChatResponse{
		Model:        response.Model,
		Content:      first.Message.Content,
		FinishReason: first.FinishReason,
	}
}
