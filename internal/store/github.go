package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/guonaihong/gout"
	"go.uber.org/zap"
)

// GitHubStore persists the document as one file in a GitHub repository via
// the contents API.  The blob SHA returned on read is the version token:
// an update must carry the SHA of the content it replaces and the API
// rejects the commit when the file has moved on.  Every accepted write is
// a commit, so the message doubles as a minimal audit trail.
type GitHubStore struct {
	token   string
	repo    string // "owner/name"
	path    string // path of the JSON file inside the repository
	apiBase string
}

// NewGitHubStore builds a store for the given repository and file path.
// The token needs contents read/write permission on the repository.
func NewGitHubStore(token, repo, path string) *GitHubStore {
	return &GitHubStore{
		token:   token,
		repo:    repo,
		path:    path,
		apiBase: "https://api.github.com",
	}
}

// contentsResponse is the subset of the contents API response the store
// needs.  Content is base64 with embedded newlines.
type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// contentsWrite is the PUT body for creating or updating the file.  SHA is
// omitted on create.
type contentsWrite struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

func (s *GitHubStore) url() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", s.apiBase, s.repo, s.path)
}

func (s *GitHubStore) headers() gout.H {
	return gout.H{
		"Authorization":        "Bearer " + s.token,
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
}

// Read fetches the file.  404 means the document does not exist yet.
func (s *GitHubStore) Read(ctx context.Context) ([]byte, string, error) {
	var rsp contentsResponse
	var code int
	err := gout.GET(s.url()).
		WithContext(ctx).
		SetHeader(s.headers()).
		Code(&code).
		BindJSON(&rsp).
		Do()
	if err != nil {
		return nil, "", fmt.Errorf("%w: github read: %v", ErrUnavailable, err)
	}
	switch {
	case code == http.StatusNotFound:
		return nil, "", nil
	case code != http.StatusOK:
		return nil, "", fmt.Errorf("%w: github read: status %d", ErrUnavailable, code)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(rsp.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("%w: github read: decode content: %v", ErrUnavailable, err)
	}
	return raw, rsp.SHA, nil
}

// githubWriteResponse wraps the commit response; only the new blob SHA is
// needed to hand the caller a fresh token.
type githubWriteResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// Write commits the new content conditionally.  The API answers 409 (and
// in some failure shapes 422) when the supplied SHA is stale or when a
// create races an existing file; both are conflicts, not errors.
func (s *GitHubStore) Write(ctx context.Context, raw []byte, token, message string) (WriteOutcome, string, error) {
	body := contentsWrite{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(raw),
		SHA:     token,
	}
	var rsp githubWriteResponse
	var code int
	err := gout.PUT(s.url()).
		WithContext(ctx).
		SetHeader(s.headers()).
		SetJSON(body).
		Code(&code).
		BindJSON(&rsp).
		Do()
	if err != nil {
		return WriteConflict, "", fmt.Errorf("%w: github write: %v", ErrUnavailable, err)
	}
	switch code {
	case http.StatusCreated:
		return WriteCreated, rsp.Content.SHA, nil
	case http.StatusOK:
		return WriteUpdated, rsp.Content.SHA, nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		zap.S().Infow("github write conflict", "repo", s.repo, "path", s.path)
		return WriteConflict, "", nil
	default:
		return WriteConflict, "", fmt.Errorf("%w: github write: status %d", ErrUnavailable, code)
	}
}
