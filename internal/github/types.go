package github

import (
	"net/url"
	"strings"
)

// CreateRepoRequest is the body of POST /user/repos. Description is omitted
// from the wire when nil. Private is usually a bool but is typed any so that
// values the caller could not coerce reach GitHub unchanged.
type CreateRepoRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Private     any     `json:"private"`
}

// PutContentsRequest is the body of PUT /repos/{owner}/{repo}/contents/{path}.
// Content must already be base64-encoded. SHA is required by GitHub when the
// file exists.
type PutContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

// UserPath is GET /users/{username}.
func UserPath(username string) string {
	return "/users/" + url.PathEscape(username)
}

// AuthenticatedUserPath is GET /user.
func AuthenticatedUserPath() string { return "/user" }

// UserReposPath is POST /user/repos.
func UserReposPath() string { return "/user/repos" }

// ContentsPath is /repos/{owner}/{repo}/contents/{filePath}. Slashes in
// filePath separate segments and are kept; everything else is escaped.
func ContentsPath(owner, repo, filePath string) string {
	segments := strings.Split(strings.Trim(filePath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/contents/" + strings.Join(segments, "/")
}
