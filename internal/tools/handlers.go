package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github-mcp/internal/github"
)

// invocation is a decoded call of one tool, ready to run against the
// upstream.
type invocation interface {
	execute(ctx context.Context, up Upstream) (json.RawMessage, error)
}

type getUserCall struct {
	username string
}

type createRepoCall struct {
	name        string
	description *string
	private     any
}

type pushToRepoCall struct {
	repo     string
	filePath string
	content  string
	message  string
}

// decode builds the invocation for an already validated call.
func decode(spec ToolSpec, args Arguments) (invocation, error) {
	switch spec.Name {
	case GetUser:
		return getUserCall{username: stringArg(args, "username")}, nil
	case CreateRepo:
		call := createRepoCall{name: stringArg(args, "repo_name"), private: boolArg(args, "private", false)}
		if v, ok := args["description"]; ok && v != nil {
			d := stringArg(args, "description")
			call.description = &d
		}
		return call, nil
	case PushToRepo:
		call := pushToRepoCall{
			repo:     stringArg(args, "repo_name"),
			filePath: stringArg(args, "file_path"),
			content:  stringArg(args, "content"),
			message:  stringArg(args, "message"),
		}
		if strings.Trim(call.filePath, "/ ") == "" {
			return nil, InvalidRequest("file_path %q does not name a file", call.filePath)
		}
		if isEmpty(call.message) {
			call.message = DefaultCommitMessage
		}
		return call, nil
	default:
		return nil, newError(CodeInternal, "tool %s has no handler", spec.Name)
	}
}

func (c getUserCall) execute(ctx context.Context, up Upstream) (json.RawMessage, error) {
	return up.Get(ctx, github.UserPath(c.username))
}

func (c createRepoCall) execute(ctx context.Context, up Upstream) (json.RawMessage, error) {
	return up.Post(ctx, github.UserReposPath(), github.CreateRepoRequest{
		Name:        c.name,
		Description: c.description,
		Private:     c.private,
	})
}

// execute resolves the owner, looks for an existing file to update, then
// writes. Only a 404 on the lookup means "new file"; any other lookup
// failure aborts the push.
func (c pushToRepoCall) execute(ctx context.Context, up Upstream) (json.RawMessage, error) {
	identity, err := up.Get(ctx, github.AuthenticatedUserPath())
	if err != nil {
		return nil, err
	}
	owner := gjson.GetBytes(identity, "login").String()
	if owner == "" {
		return nil, newError(CodeInternal, "authenticated identity has no login")
	}

	path := github.ContentsPath(owner, c.repo, c.filePath)
	req := github.PutContentsRequest{
		Message: c.message,
		Content: base64.StdEncoding.EncodeToString([]byte(c.content)),
	}

	existing, err := up.Get(ctx, path)
	switch {
	case err == nil:
		req.SHA = gjson.GetBytes(existing, "sha").String()
	case github.IsNotFound(err):
	default:
		return nil, err
	}

	return up.Put(ctx, path, req)
}

// stringArg renders an argument as a string. Values cast cannot convert are
// formatted with %v so that the upstream gets to reject them.
func stringArg(args Arguments, key string) string {
	v := args[key]
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// boolArg coerces an argument to bool, falling back to def when absent. A
// value that is not boolean-like is returned as is.
func boolArg(args Arguments, key string, def bool) any {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return v
	}
	return b
}
