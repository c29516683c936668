package server

import (
	"context"

	"github-mcp/internal/tools"
)

// Caller is what both transports need from the tool layer.
type Caller interface {
	Tools() []tools.ToolSpec
	Call(ctx context.Context, name string, args tools.Arguments) (tools.Envelope, error)
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type ToolsList struct {
	Tools []Tool `json:"tools"`
}

type CallRequest struct {
	Name string         `json:"name"`
	Args map[string]any `json:"arguments"`
}

type ResourcesList struct {
	Resources []any `json:"resources"`
}

type ResourceTemplatesList struct {
	ResourceTemplates []any `json:"resourceTemplates"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
