package handlers

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/github"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/repositories"
	"github.com/privolio/privolio/internal/services/explorer"
	"github.com/privolio/privolio/internal/services/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct{}

func (stubUserRepo) CreateUser(*models.User) error                  { return nil }
func (stubUserRepo) UpdateUser(*models.User) error                  { return nil }
func (stubUserRepo) GetUserByUsername(string) (*models.User, error) { return nil, nil }
func (stubUserRepo) GetUserByEmail(string) (*models.User, error)    { return nil, nil }
func (stubUserRepo) GetUserByID(uint64) (*models.User, error)       { return nil, nil }

// shareTestEnv 组装一条从路由到内存存储的完整分享访问链路
type shareTestEnv struct {
	router   *gin.Engine
	linkRepo repositories.ShareLinkRepository
	sealer   *utils.CredentialSealer
}

func newShareTestEnv(t *testing.T, upstream http.Handler) *shareTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		GitHub: config.GitHubConfig{APIBaseURL: srv.URL, Timeout: 5 * time.Second, CacheTTL: time.Minute},
		Share:  config.ShareConfig{MaxFileSize: 1 << 20},
	}
	sealer, err := utils.NewCredentialSealer(hex.EncodeToString([]byte(strings.Repeat("s", 32))))
	require.NoError(t, err)

	linkRepo := repositories.NewMemoryShareLinkRepository()
	gate := share.NewAccessGate(linkRepo, nil)
	contentService := explorer.NewContentService(github.NewClient(&cfg.GitHub), nil, sealer, cfg)
	handler := NewShareHandler(gate, contentService, stubUserRepo{})

	r := gin.New()
	r.GET("/share/:token", handler.AccessShare)
	r.GET("/share/:token/tree", handler.GetShareTree)
	r.GET("/share/:token/file", handler.GetShareFile)
	r.GET("/share/:token/archive", handler.DownloadShareArchive)

	return &shareTestEnv{router: r, linkRepo: linkRepo, sealer: sealer}
}

func (e *shareTestEnv) seedLink(t *testing.T, link *models.ShareLink) *models.ShareLink {
	t.Helper()
	if link.OwnerCredential == "" {
		sealed, err := e.sealer.Seal("owner-pat")
		require.NoError(t, err)
		link.OwnerCredential = sealed
	}
	require.NoError(t, e.linkRepo.Create(link))
	return link
}

func (e *shareTestEnv) get(path string) (*httptest.ResponseRecorder, xerr.Response) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	e.router.ServeHTTP(w, req)

	var resp xerr.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func maxViewsPtr(v uint32) *uint32 { return &v }

func TestAccessShareConsumesView(t *testing.T) {
	env := newShareTestEnv(t, http.NotFoundHandler())
	link := env.seedLink(t, &models.ShareLink{
		Token:        "feedfacefeedfacefeedfacefeedface",
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		MaxViews:     maxViewsPtr(2),
		IsActive:     true,
	})

	w, resp := env.get("/share/" + link.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xerr.SuccessCode, resp.Code)
	assert.NotContains(t, w.Body.String(), link.OwnerCredential, "响应不能泄露凭证字段")

	stored, err := env.linkRepo.FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stored.CurrentViews)
}

func TestAccessShareTerminalStatusCodes(t *testing.T) {
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name     string
		link     *models.ShareLink
		wantCode int
	}{
		{
			name: "过期链接",
			link: &models.ShareLink{
				Token: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", UserID: 1,
				RepoFullName: "alice/secrets", Branch: "main",
				ExpiresAt: &past, IsActive: true,
			},
			wantCode: xerr.LinkExpiredCode,
		},
		{
			name: "次数用尽",
			link: &models.ShareLink{
				Token: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", UserID: 1,
				RepoFullName: "alice/secrets", Branch: "main",
				MaxViews: maxViewsPtr(1), CurrentViews: 1, IsActive: true,
			},
			wantCode: xerr.ViewLimitCode,
		},
		{
			name: "已停用",
			link: &models.ShareLink{
				Token: "cccccccccccccccccccccccccccccccc", UserID: 1,
				RepoFullName: "alice/secrets", Branch: "main",
				IsActive: false,
			},
			wantCode: xerr.LinkDeactivatedCode,
		},
	}

	env := newShareTestEnv(t, http.NotFoundHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.seedLink(t, tt.link)

			w, resp := env.get("/share/" + tt.link.Token)
			assert.Equal(t, http.StatusGone, w.Code, "三种终态统一返回 410")
			assert.Equal(t, tt.wantCode, resp.Code, "业务码区分拒绝原因")
		})
	}
}

func TestAccessShareUnknownToken(t *testing.T) {
	env := newShareTestEnv(t, http.NotFoundHandler())

	w, resp := env.get("/share/0123456789abcdef0123456789abcdef")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, xerr.LinkNotFoundCode, resp.Code)
}

func TestGetShareTreeDoesNotConsume(t *testing.T) {
	env := newShareTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"README.md","path":"README.md","type":"file","size":5}]`))
	}))
	link := env.seedLink(t, &models.ShareLink{
		Token:        "dddddddddddddddddddddddddddddddd",
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		MaxViews:     maxViewsPtr(1),
		IsActive:     true,
	})

	for i := 0; i < 3; i++ {
		w, _ := env.get("/share/" + link.Token + "/tree")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	stored, err := env.linkRepo.FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), stored.CurrentViews)
}

func TestGetShareFileBinaryRejected(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00})
	env := newShareTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]any{
			"name": "logo.png", "path": "logo.png", "type": "file",
			"size": 3, "content": content, "encoding": "base64",
		})
		w.Write(body)
	}))
	link := env.seedLink(t, &models.ShareLink{
		Token:        "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		IsActive:     true,
	})

	w, resp := env.get("/share/" + link.Token + "/file?path=logo.png")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, xerr.BinaryContentCode, resp.Code)
}

func TestGetShareFileRequiresPath(t *testing.T) {
	env := newShareTestEnv(t, http.NotFoundHandler())
	link := env.seedLink(t, &models.ShareLink{
		Token:        "ffffffffffffffffffffffffffffffff",
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		IsActive:     true,
	})

	w, resp := env.get("/share/" + link.Token + "/file")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerr.InvalidParamsCode, resp.Code)
}

func TestDownloadArchiveConsumesView(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("hello"))
	env := newShareTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/git/trees/"):
			w.Write([]byte(`{"sha":"root","tree":[{"path":"a.txt","type":"blob","sha":"s1","size":5}],"truncated":false}`))
		case strings.Contains(r.URL.Path, "/git/blobs/"):
			body, _ := json.Marshal(map[string]any{"content": content, "encoding": "base64", "size": 5})
			w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	link := env.seedLink(t, &models.ShareLink{
		Token:        "0000000000000000000000000000abcd",
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		IsActive:     true,
	})

	w, _ := env.get("/share/" + link.Token + "/archive")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "alice-secrets.zip")

	stored, err := env.linkRepo.FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stored.CurrentViews, "归档下载消耗一次访问")
}
