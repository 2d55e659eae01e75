package chat

import "context"

// Part is an atomic unit of turn content.
type Part struct {
	Text string `json:"text"`
}

// Turn is one prior message in the conversation, oldest first. Roles follow
// the provider convention ("user" / "model") and are passed through as-is.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Request is the provider-agnostic conversation request. An empty prompt is
// allowed; the provider decides what to make of it.
type Request struct {
	Prompt            string `json:"prompt"`
	SystemInstruction string `json:"system_instruction"`
	History           []Turn `json:"history"`
}

// Source is a web citation the provider attached to a grounded answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Response is the stable chat contract returned to the client. Text is never
// empty: every failure path substitutes an in-character fallback line.
type Response struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// GenerateInput is the prepared conversation handed to a chat provider.
type GenerateInput struct {
	SystemInstruction string
	Temperature       float64
	EnableSearch      bool
	Turns             []Turn
}

// GenerateOutput is a provider result after normalization: sources already
// filtered to entries carrying both a title and a URL, in provider order.
type GenerateOutput struct {
	Text    string
	Sources []Source
}

// Provider generates a model response for a prepared conversation.
type Provider interface {
	Generate(ctx context.Context, in GenerateInput) (GenerateOutput, error)
}
