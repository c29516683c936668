// Package tools declares the GitHub tools exposed over MCP and dispatches
// invocations of them to the GitHub API.
//
// A call goes through lookup, argument validation, a tool-specific handler
// and finally normalization into an Envelope. Upstream failures are reported
// inside the Envelope with IsError set; everything else that stops a call
// (unknown tool, missing argument, internal fault) is returned as an *Error.
package tools

import "encoding/json"

const (
	GetUser    = "get_user"
	CreateRepo = "create_repo"
	PushToRepo = "push_to_repo"
)

// DefaultCommitMessage is used by push_to_repo when no message is given.
const DefaultCommitMessage = "Update via GitHub MCP"

// Param describes one tool argument.
type Param struct {
	Key         string
	Type        string
	Required    bool
	Default     any
	Description string
}

// ToolSpec is the static declaration of a tool.
type ToolSpec struct {
	Name        string
	Description string
	Params      []Param
}

var registry = []ToolSpec{
	{
		Name:        GetUser,
		Description: "Get a GitHub user's public profile",
		Params: []Param{
			{Key: "username", Type: "string", Required: true, Description: "GitHub login of the user"},
		},
	},
	{
		Name:        CreateRepo,
		Description: "Create a new repository for the authenticated user",
		Params: []Param{
			{Key: "repo_name", Type: "string", Required: true, Description: "Name of the repository"},
			{Key: "description", Type: "string", Description: "Short description of the repository"},
			{Key: "private", Type: "boolean", Default: false, Description: "Whether the repository is private"},
		},
	},
	{
		Name:        PushToRepo,
		Description: "Create or update a file in one of the authenticated user's repositories",
		Params: []Param{
			{Key: "repo_name", Type: "string", Required: true, Description: "Name of the repository"},
			{Key: "file_path", Type: "string", Required: true, Description: "Path of the file inside the repository"},
			{Key: "content", Type: "string", Required: true, Description: "New file content as text"},
			{Key: "message", Type: "string", Default: DefaultCommitMessage, Description: "Commit message"},
		},
	},
}

var registryIndex = func() map[string]int {
	idx := make(map[string]int, len(registry))
	for i, spec := range registry {
		idx[spec.Name] = i
	}
	return idx
}()

// ListTools returns every tool in declaration order. The result is a copy.
func ListTools() []ToolSpec {
	out := make([]ToolSpec, len(registry))
	for i, spec := range registry {
		out[i] = spec.clone()
	}
	return out
}

// Lookup finds a tool by name.
func Lookup(name string) (ToolSpec, bool) {
	i, ok := registryIndex[name]
	if !ok {
		return ToolSpec{}, false
	}
	return registry[i].clone(), true
}

func (s ToolSpec) clone() ToolSpec {
	s.Params = append([]Param(nil), s.Params...)
	return s
}

// RequiredKeys lists the required parameter keys in declaration order.
func (s ToolSpec) RequiredKeys() []string {
	var keys []string
	for _, p := range s.Params {
		if p.Required {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// InputSchema renders the tool's parameters as a JSON Schema object.
func (s ToolSpec) InputSchema() map[string]any {
	properties := make(map[string]any, len(s.Params))
	for _, p := range s.Params {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Key] = prop
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if required := s.RequiredKeys(); len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// RawInputSchema is InputSchema encoded as JSON.
func (s ToolSpec) RawInputSchema() json.RawMessage {
	raw, err := json.Marshal(s.InputSchema())
	if err != nil {
		// The schema is built from static strings, bools and maps.
		panic(err)
	}
	return raw
}
