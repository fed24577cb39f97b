package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(&config.GitHubConfig{
		APIBaseURL: srv.URL,
		Timeout:    5 * time.Second,
	})
	return client, srv
}

func TestGetRepositorySendsCredential(t *testing.T) {
	var gotAuth, gotAccept string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		assert.Equal(t, "/repos/alice/secrets", r.URL.Path)
		w.Write([]byte(`{"name":"secrets","full_name":"alice/secrets","private":true,"default_branch":"main"}`))
	}))
	defer srv.Close()

	repo, err := client.GetRepository(context.Background(), "ghp_token", "alice/secrets")
	require.NoError(t, err)

	assert.Equal(t, "token ghp_token", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Equal(t, "main", repo.DefaultBranch)
	assert.True(t, repo.Private)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"404 映射为上游不存在", http.StatusNotFound, xerr.ErrUpstreamNotFound},
		{"401 映射为上游无权限", http.StatusUnauthorized, xerr.ErrUpstreamForbidden},
		{"403 映射为上游无权限", http.StatusForbidden, xerr.ErrUpstreamForbidden},
		{"500 映射为上游不可用", http.StatusInternalServerError, xerr.ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := client.GetRepository(context.Background(), "cred", "alice/secrets")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNetworkErrorIsUpstreamUnavailable(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // 连接被拒绝

	_, err := client.GetRepository(context.Background(), "cred", "alice/secrets")
	assert.ErrorIs(t, err, xerr.ErrUpstreamUnavailable)
}

func TestListUserReposQueryParams(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("visibility"))
		assert.Equal(t, "owner", r.URL.Query().Get("affiliation"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Write([]byte(`[{"full_name":"alice/secrets"},{"full_name":"alice/notes"}]`))
	}))
	defer srv.Close()

	repos, err := client.ListUserRepos(context.Background(), "cred")
	require.NoError(t, err)
	assert.Len(t, repos, 2)
}

func TestListDirectoryEscapesPathAndRef(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/alice/secrets/contents/docs/my notes", r.URL.Path)
		assert.Equal(t, "dev", r.URL.Query().Get("ref"))
		w.Write([]byte(`[{"name":"a.md","path":"docs/my notes/a.md","type":"file","size":10}]`))
	}))
	defer srv.Close()

	entries, err := client.ListDirectory(context.Background(), "cred", "alice/secrets", "docs/my notes", "dev")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "file", entries[0].Type)
}

func TestGetBlobDecodesWrappedBase64(t *testing.T) {
	// GitHub 的 blob 内容是带换行的 base64
	encoded := base64.StdEncoding.EncodeToString([]byte("hello world"))
	wrapped := encoded[:8] + "\n" + encoded[8:] + "\n"

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/alice/secrets/git/blobs/abc123", r.URL.Path)
		body, _ := json.Marshal(map[string]any{"content": wrapped, "encoding": "base64", "size": 11})
		w.Write(body)
	}))
	defer srv.Close()

	data, err := client.GetBlob(context.Background(), "cred", "alice/secrets", "abc123")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
}

func TestGetBlobRejectsUnknownEncoding(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":"whatever","encoding":"utf-8"}`))
	}))
	defer srv.Close()

	_, err := client.GetBlob(context.Background(), "cred", "alice/secrets", "abc123")
	assert.ErrorIs(t, err, xerr.ErrUpstreamUnavailable)
}

func TestGetTreeRecursive(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/alice/secrets/git/trees/main", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		w.Write([]byte(`{"sha":"root","tree":[{"path":"a.txt","type":"blob","sha":"s1","size":3},{"path":"dir","type":"tree","sha":"s2"}],"truncated":false}`))
	}))
	defer srv.Close()

	tree, err := client.GetTreeRecursive(context.Background(), "cred", "alice/secrets", "main")
	require.NoError(t, err)
	assert.Len(t, tree.Tree, 2)
	assert.False(t, tree.Truncated)
}
