package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github-mcp/internal/tools"
)

// Name is reported to MCP clients during initialization.
const Name = "github-mcp"

// NewMCPServer registers every tool of caller on an MCP server. Protocol
// errors from the caller are returned to mcp-go as Go errors; envelopes
// become regular tool results.
func NewMCPServer(caller Caller, version string) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(Name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithRecovery(),
	)
	for _, spec := range caller.Tools() {
		tool := mcp.NewToolWithRawSchema(spec.Name, spec.Description, spec.RawInputSchema())
		s.AddTool(tool, toolHandler(caller, spec.Name))
	}
	return s
}

// callErrorKey carries a *callError slot through mcp-go into toolHandler.
type callErrorKey struct{}

type callError struct {
	err *tools.Error
}

func toolHandler(caller Caller, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env, err := caller.Call(ctx, name, tools.Arguments(req.GetArguments()))
		if err != nil {
			if slot, ok := ctx.Value(callErrorKey{}).(*callError); ok {
				slot.err = tools.AsError(err)
			}
			return nil, err
		}
		return toCallToolResult(env), nil
	}
}

func toCallToolResult(env tools.Envelope) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(env.Content))
	for _, c := range env.Content {
		content = append(content, mcp.NewTextContent(c.Text))
	}
	return &mcp.CallToolResult{Content: content, IsError: env.IsError}
}

// Handler answers JSON-RPC messages with an mcp-go server. mcp-go reports
// every tool handler error as an internal error; Handler rewrites the code
// of those responses to the one the tool layer assigned.
type Handler struct {
	mcp *mcpserver.MCPServer
}

// NewHandler builds the MCP server for caller and wraps it.
func NewHandler(caller Caller, version string) *Handler {
	return &Handler{mcp: NewMCPServer(caller, version)}
}

// HandleMessage processes one JSON-RPC message. It returns nil for
// notifications.
func (h *Handler) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	slot := &callError{}
	resp := h.mcp.HandleMessage(context.WithValue(ctx, callErrorKey{}, slot), raw)
	if slot.err == nil {
		return resp
	}
	switch e := resp.(type) {
	case mcp.JSONRPCError:
		e.Error.Code = slot.err.JSONRPCCode()
		e.Error.Message = slot.err.Message
		return e
	case *mcp.JSONRPCError:
		e.Error.Code = slot.err.JSONRPCCode()
		e.Error.Message = slot.err.Message
		return e
	}
	return resp
}

// ServeStdio speaks newline-delimited JSON-RPC on in/out until in is
// exhausted or ctx is cancelled. Both are a clean shutdown and return nil.
func ServeStdio(ctx context.Context, h *Handler, in io.Reader, out io.Writer, errLog *log.Logger) error {
	if errLog == nil {
		errLog = log.New(io.Discard, "", 0)
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	w := bufio.NewWriter(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading stdin: %w", err)
		case line := <-lines:
			resp := h.HandleMessage(ctx, bytes.TrimSpace(line))
			if resp == nil {
				continue
			}
			data, err := json.Marshal(resp)
			if err != nil {
				errLog.Printf("encoding response: %v", err)
				continue
			}
			data = append(data, '\n')
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("writing stdout: %w", err)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("writing stdout: %w", err)
			}
		}
	}
}
