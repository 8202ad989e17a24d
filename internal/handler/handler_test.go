package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/service"
	"github.com/abhishek-bajpai1/athletecho/internal/storage"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

// APIResponse is the decoded reply envelope.
type APIResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestRouter(uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if uid != "" {
		r.Use(func(c *gin.Context) {
			c.Set("user_id", uid)
			c.Set("platform", "web")
			c.Set("access_token", "token-"+uid)
			c.Next()
		})
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

type mockAuthService struct {
	loginURLFunc func(ctx context.Context) (string, error)
	callbackFunc func(ctx context.Context, state, code string, device service.DeviceInfo) (*service.LoginResponse, error)
	refreshFunc  func(ctx context.Context, refreshToken string) (*service.LoginResponse, error)
	logoutFunc   func(ctx context.Context, uid, platform, accessToken string) error
}

func (m *mockAuthService) LoginURL(ctx context.Context) (string, error) {
	return m.loginURLFunc(ctx)
}

func (m *mockAuthService) Callback(ctx context.Context, state, code string, device service.DeviceInfo) (*service.LoginResponse, error) {
	return m.callbackFunc(ctx, state, code, device)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.LoginResponse, error) {
	return m.refreshFunc(ctx, refreshToken)
}

func (m *mockAuthService) Logout(ctx context.Context, uid, platform, accessToken string) error {
	return m.logoutFunc(ctx, uid, platform, accessToken)
}

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		loginURLFunc: func(context.Context) (string, error) { return "https://accounts.example.com/auth?state=s1", nil },
	})
	r := setupTestRouter("")
	r.GET("/auth/google/login", h.Login)

	w, resp := doJSON(t, r, http.MethodGet, "/auth/google/login", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)
	assert.JSONEq(t, `{"url":"https://accounts.example.com/auth?state=s1"}`, string(resp.Data))

	req := httptest.NewRequest(http.MethodGet, "/auth/google/login?redirect=true", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://accounts.example.com/auth?state=s1", w.Header().Get("Location"))
}

func TestAuthHandler_Callback(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		callbackFunc: func(_ context.Context, state, code string, device service.DeviceInfo) (*service.LoginResponse, error) {
			if state != "s1" {
				return nil, apperrors.ErrInvalidOAuthState
			}
			assert.Equal(t, "c1", code)
			assert.Equal(t, "dev-1", device.DeviceID)
			assert.Equal(t, "android", device.Platform)
			return &service.LoginResponse{UID: "u1", AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}, nil
		},
	})
	r := setupTestRouter("")
	r.GET("/auth/google/callback", h.Callback)

	tests := []struct {
		name     string
		url      string
		wantCode int
	}{
		{"success", "/auth/google/callback?state=s1&code=c1&device_id=dev-1&platform=android", apperrors.CodeSuccess},
		{"stale state", "/auth/google/callback?state=old&code=c1&device_id=dev-1&platform=android", apperrors.CodeInvalidOAuthState},
		{"missing code", "/auth/google/callback?state=s1", apperrors.CodeInvalidOAuthState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := doJSON(t, r, http.MethodGet, tt.url, nil)
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantCode == apperrors.CodeSuccess {
				var lr service.LoginResponse
				require.NoError(t, json.Unmarshal(resp.Data, &lr))
				assert.Equal(t, "u1", lr.UID)
			}
		})
	}
}

func TestAuthHandler_RefreshAndLogout(t *testing.T) {
	var loggedOut []string
	h := NewAuthHandler(&mockAuthService{
		refreshFunc: func(_ context.Context, token string) (*service.LoginResponse, error) {
			if token != "r1" {
				return nil, apperrors.ErrTokenInvalid
			}
			return &service.LoginResponse{UID: "u1", AccessToken: "a2", RefreshToken: "r2"}, nil
		},
		logoutFunc: func(_ context.Context, uid, platform, token string) error {
			loggedOut = append(loggedOut, uid, platform, token)
			return nil
		},
	})
	r := setupTestRouter("u1")
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)

	_, resp := doJSON(t, r, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: "r1"})
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)

	_, resp = doJSON(t, r, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: "nope"})
	assert.Equal(t, apperrors.CodeTokenInvalid, resp.Code)

	_, resp = doJSON(t, r, http.MethodPost, "/auth/refresh", map[string]string{})
	assert.Equal(t, apperrors.CodeInvalidParams, resp.Code)

	_, resp = doJSON(t, r, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)
	assert.Equal(t, []string{"u1", "web", "token-u1"}, loggedOut)
}

type mockConnectionService struct {
	calls []string
	err   error
}

func (m *mockConnectionService) SendRequest(_ context.Context, from, to string) (*model.Connection, error) {
	m.calls = append(m.calls, "send:"+from+">"+to)
	if m.err != nil {
		return nil, m.err
	}
	return model.NewConnectionRequest(from, to), nil
}

func (m *mockConnectionService) Accept(_ context.Context, actor, other string) (*model.Connection, error) {
	m.calls = append(m.calls, "accept:"+actor+">"+other)
	if m.err != nil {
		return nil, m.err
	}
	conn := model.NewConnectionRequest(other, actor)
	conn.Status = model.ConnectionAccepted
	return conn, nil
}

func (m *mockConnectionService) Remove(_ context.Context, actor, other string) error {
	m.calls = append(m.calls, "remove:"+actor+">"+other)
	return m.err
}

func (m *mockConnectionService) Status(_ context.Context, _, _ string) (model.RelationStatus, error) {
	return model.RelationSent, m.err
}

func (m *mockConnectionService) List(_ context.Context, viewer string) ([]model.ConnectionView, error) {
	return model.ViewsFor([]*model.Connection{model.NewConnectionRequest(viewer, "u2")}, viewer), m.err
}

func (m *mockConnectionService) Statuses(_ context.Context, viewer string) (map[string]model.RelationStatus, error) {
	accepted := model.NewConnectionRequest("u4", viewer)
	accepted.Status = model.ConnectionAccepted
	return model.StatusMap([]*model.Connection{model.NewConnectionRequest(viewer, "u2"), accepted}, viewer), m.err
}

func TestConnectionHandler(t *testing.T) {
	svc := &mockConnectionService{}
	h := NewConnectionHandler(svc)
	r := setupTestRouter("u1")
	r.GET("/connections", h.List)
	r.GET("/connections/statuses", h.Statuses)
	r.GET("/connections/:uid/status", h.Status)
	r.POST("/connections/:uid", h.Send)
	r.POST("/connections/:uid/accept", h.Accept)
	r.DELETE("/connections/:uid", h.Remove)

	_, resp := doJSON(t, r, http.MethodPost, "/connections/u2", nil)
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)

	_, resp = doJSON(t, r, http.MethodGet, "/connections/u2/status", nil)
	assert.JSONEq(t, `{"status":"sent"}`, string(resp.Data))

	_, resp = doJSON(t, r, http.MethodGet, "/connections", nil)
	var views []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "u2", views[0]["other_uid"])
	assert.Equal(t, "sent", views[0]["relation"])

	_, resp = doJSON(t, r, http.MethodGet, "/connections/statuses", nil)
	assert.JSONEq(t, `{"u2":"sent","u4":"connected"}`, string(resp.Data))

	_, resp = doJSON(t, r, http.MethodPost, "/connections/u3/accept", nil)
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)

	_, resp = doJSON(t, r, http.MethodDelete, "/connections/u2", nil)
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)

	assert.Equal(t, []string{"send:u1>u2", "accept:u1>u3", "remove:u1>u2"}, svc.calls)

	svc.err = apperrors.ErrCannotConnectSelf
	_, resp = doJSON(t, r, http.MethodPost, "/connections/u1", nil)
	assert.Equal(t, apperrors.CodeCannotConnectSelf, resp.Code)
}

type mockMessagingService struct {
	sent []string
}

func (m *mockMessagingService) GetOrCreateConversation(_ context.Context, a, b string) (string, error) {
	if a == b {
		return "", apperrors.ErrSelfConversation
	}
	return model.PairKey(a, b), nil
}

func (m *mockMessagingService) SendMessage(_ context.Context, key, sender, text string) (*model.Message, error) {
	if text == "" {
		return nil, apperrors.ErrEmptyText
	}
	m.sent = append(m.sent, key+":"+sender+":"+text)
	return &model.Message{ID: 7, ConversationID: key, SenderID: sender, Text: text}, nil
}

func (m *mockMessagingService) MarkRead(_ context.Context, _, _ string) (int64, error) {
	return 2, nil
}

func (m *mockMessagingService) ListConversations(_ context.Context, _ string) ([]*model.ConversationSummary, error) {
	return []*model.ConversationSummary{}, nil
}

func (m *mockMessagingService) ListMessages(_ context.Context, _, viewer string) ([]*model.Message, error) {
	if viewer != "u1" {
		return nil, apperrors.ErrNotParticipant
	}
	return []*model.Message{}, nil
}

func TestConversationHandler(t *testing.T) {
	svc := &mockMessagingService{}
	h := NewConversationHandler(svc)
	r := setupTestRouter("u1")
	r.GET("/conversations", h.List)
	r.POST("/conversations", h.Open)
	r.GET("/conversations/:id/messages", h.Messages)
	r.POST("/conversations/:id/messages", h.Send)
	r.POST("/conversations/:id/read", h.Read)

	_, resp := doJSON(t, r, http.MethodPost, "/conversations", OpenRequest{PeerID: "u2"})
	require.Equal(t, apperrors.CodeSuccess, resp.Code)
	var opened struct {
		ConversationID string `json:"conversation_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &opened))
	assert.Equal(t, model.PairKey("u1", "u2"), opened.ConversationID)

	_, resp = doJSON(t, r, http.MethodPost, "/conversations", OpenRequest{PeerID: "u1"})
	assert.Equal(t, apperrors.CodeSelfConversation, resp.Code)

	_, resp = doJSON(t, r, http.MethodPost, "/conversations", map[string]string{})
	assert.Equal(t, apperrors.CodeInvalidParams, resp.Code)

	_, resp = doJSON(t, r, http.MethodPost, "/conversations/"+opened.ConversationID+"/messages", SendRequest{Text: "hi"})
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)
	assert.Contains(t, string(resp.Data), `"id":"7"`)

	_, resp = doJSON(t, r, http.MethodPost, "/conversations/"+opened.ConversationID+"/messages", SendRequest{Text: ""})
	assert.Equal(t, apperrors.CodeEmptyText, resp.Code)
	assert.Len(t, svc.sent, 1)

	_, resp = doJSON(t, r, http.MethodPost, "/conversations/"+opened.ConversationID+"/read", nil)
	assert.JSONEq(t, `{"marked":2}`, string(resp.Data))

	_, resp = doJSON(t, r, http.MethodGet, "/conversations/"+opened.ConversationID+"/messages", nil)
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)
}

type mockFeedService struct {
	posts       map[int64]*model.Post
	lastRequest *service.CreatePostRequest
	imageBody   string
}

func (m *mockFeedService) CreatePost(_ context.Context, author string, req *service.CreatePostRequest) (*model.Post, error) {
	m.lastRequest = req
	if req.Image != nil {
		raw, _ := io.ReadAll(req.Image.Body)
		m.imageBody = string(raw)
	}
	if req.Content == "" && req.Image == nil {
		return nil, apperrors.ErrEmptyPost
	}
	p := &model.Post{ID: 1, AuthorID: author, Content: req.Content, Sport: model.Sport(req.Sport)}
	m.posts[p.ID] = p
	return p, nil
}

func (m *mockFeedService) CreateTextPost(ctx context.Context, author string, req *service.CreatePostRequest) (*model.Post, error) {
	return m.CreatePost(ctx, author, req)
}

func (m *mockFeedService) ToggleLike(_ context.Context, postID int64, uid string, currentlyLiked bool) (*model.Post, error) {
	p, ok := m.posts[postID]
	if !ok {
		return nil, apperrors.ErrPostNotFound
	}
	if currentlyLiked {
		p.LikedBy = nil
	} else {
		p.LikedBy = []string{uid}
	}
	return p, nil
}

func (m *mockFeedService) AddComment(_ context.Context, postID int64, author, text string) (*model.Comment, error) {
	return &model.Comment{ID: 9, PostID: postID, AuthorID: author, Text: text}, nil
}

func (m *mockFeedService) DeletePost(_ context.Context, postID int64, actor string) error {
	p, ok := m.posts[postID]
	if !ok {
		return apperrors.ErrPostNotFound
	}
	if p.AuthorID != actor {
		return apperrors.ErrNotPostAuthor
	}
	delete(m.posts, postID)
	return nil
}

func (m *mockFeedService) RecentFeed(_ context.Context, sport string) ([]*model.Post, error) {
	filter, ok := model.ParseSportFilter(sport)
	if !ok {
		return nil, apperrors.ErrInvalidSport
	}
	posts := make([]*model.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p)
	}
	return model.FilterBySport(posts, filter), nil
}

func (m *mockFeedService) ListComments(_ context.Context, _ int64) ([]*model.Comment, error) {
	return []*model.Comment{}, nil
}

func TestPostHandler_CreateMultipart(t *testing.T) {
	svc := &mockFeedService{posts: map[int64]*model.Post{}}
	h := NewPostHandler(svc)
	r := setupTestRouter("u1")
	r.POST("/posts", h.Create)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("content", "match day"))
	require.NoError(t, mw.WriteField("sport", "Cricket"))
	part, err := mw.CreateFormFile("image", "pitch.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/posts", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)
	require.NotNil(t, svc.lastRequest.Image)
	assert.Equal(t, "pitch.png", svc.lastRequest.Image.Filename)
	assert.Equal(t, "png-bytes", svc.imageBody)
	assert.Equal(t, "Cricket", svc.lastRequest.Sport)
}

func TestPostHandler_CreateWithoutImage(t *testing.T) {
	svc := &mockFeedService{posts: map[int64]*model.Post{}}
	h := NewPostHandler(svc)
	r := setupTestRouter("u1")
	r.POST("/posts", h.Create)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("sport", "Tennis"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/posts", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeEmptyPost, resp.Code)
	assert.Nil(t, svc.lastRequest.Image)
}

func TestPostHandler_LikeDeleteAndFeed(t *testing.T) {
	svc := &mockFeedService{posts: map[int64]*model.Post{
		1: {ID: 1, AuthorID: "u1", Content: "mine", Sport: model.SportCricket},
		2: {ID: 2, AuthorID: "u2", Content: "theirs", Sport: model.SportTennis},
	}}
	h := NewPostHandler(svc)
	r := setupTestRouter("u1")
	r.GET("/posts", h.Feed)
	r.POST("/posts/text", h.CreateText)
	r.POST("/posts/:id/like", h.Like)
	r.DELETE("/posts/:id", h.Delete)
	r.POST("/posts/:id/comments", h.Comment)

	_, resp := doJSON(t, r, http.MethodPost, "/posts/2/like", LikeRequest{Liked: false})
	require.Equal(t, apperrors.CodeSuccess, resp.Code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, true, view["liked_by_me"])
	assert.Equal(t, float64(1), view["like_count"])
	assert.Equal(t, "2", view["id"])

	_, resp = doJSON(t, r, http.MethodPost, "/posts/2/like", LikeRequest{Liked: true})
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, false, view["liked_by_me"])

	_, resp = doJSON(t, r, http.MethodPost, "/posts/abc/like", LikeRequest{})
	assert.Equal(t, apperrors.CodeInvalidParams, resp.Code)

	_, resp = doJSON(t, r, http.MethodGet, "/posts?sport=Tennis", nil)
	var feed []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "theirs", feed[0]["content"])

	_, resp = doJSON(t, r, http.MethodGet, "/posts?sport=Curling", nil)
	assert.Equal(t, apperrors.CodeInvalidSport, resp.Code)

	_, resp = doJSON(t, r, http.MethodDelete, "/posts/2", nil)
	assert.Equal(t, apperrors.CodeNotPostAuthor, resp.Code)

	_, resp = doJSON(t, r, http.MethodDelete, "/posts/1", nil)
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)

	_, resp = doJSON(t, r, http.MethodPost, "/posts/2/comments", CommentRequest{Text: "well played"})
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)
	assert.Contains(t, string(resp.Data), `"post_id":"2"`)

	_, resp = doJSON(t, r, http.MethodPost, "/posts/text", TextPostRequest{Content: "fallback", Sport: "Other"})
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)
	assert.Nil(t, svc.lastRequest.Image)
}

type mockUserService struct {
	profiles map[string]*model.UserProfile
	uploaded *storage.Image
}

func (m *mockUserService) GetProfile(_ context.Context, uid string) (*model.UserProfile, error) {
	p, ok := m.profiles[uid]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return p, nil
}

func (m *mockUserService) UpdateProfile(_ context.Context, uid string, update *model.ProfileUpdate) (*model.UserProfile, error) {
	p := m.profiles[uid]
	update.Apply(p)
	return p, nil
}

func (m *mockUserService) UploadAvatar(_ context.Context, uid string, img *storage.Image) (string, error) {
	m.uploaded = img
	return "https://cdn.example.com/avatars/" + uid, nil
}

func (m *mockUserService) ListOthers(_ context.Context, viewer string) ([]*model.UserProfile, error) {
	out := make([]*model.UserProfile, 0, len(m.profiles))
	for uid, p := range m.profiles {
		if uid != viewer {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestUserHandler(t *testing.T) {
	svc := &mockUserService{profiles: map[string]*model.UserProfile{
		"u1": {UID: "u1", DisplayName: "Asha"},
		"u2": {UID: "u2", DisplayName: "Ravi"},
	}}
	h := NewUserHandler(svc)
	r := setupTestRouter("u1")
	r.GET("/users", h.List)
	r.GET("/user/profile", h.Me)
	r.PUT("/user/profile", h.Update)
	r.POST("/user/avatar", h.UploadPhoto)
	r.GET("/users/:uid", h.Get)

	_, resp := doJSON(t, r, http.MethodGet, "/user/profile", nil)
	assert.Contains(t, string(resp.Data), `"display_name":"Asha"`)

	_, resp = doJSON(t, r, http.MethodGet, "/users/ghost", nil)
	assert.Equal(t, apperrors.CodeUserNotFound, resp.Code)

	_, resp = doJSON(t, r, http.MethodGet, "/users", nil)
	var list []model.UserProfile
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "u2", list[0].UID)

	_, resp = doJSON(t, r, http.MethodPut, "/user/profile", map[string]string{"title": "Opening batter"})
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)
	assert.Equal(t, "Opening batter", svc.profiles["u1"].Title)
	assert.Equal(t, "Asha", svc.profiles["u1"].DisplayName)

	// avatar field is required
	_, resp = doJSON(t, r, http.MethodPost, "/user/avatar", nil)
	assert.Equal(t, apperrors.CodeInvalidParams, resp.Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", "me.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpg"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/user/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.JSONEq(t, `{"photo_url":"https://cdn.example.com/avatars/u1"}`, string(resp.Data))
	require.NotNil(t, svc.uploaded)
	assert.Equal(t, "me.jpg", svc.uploaded.Filename)
}

func TestCoachingHandler(t *testing.T) {
	catalog, err := service.ParseCoachingCatalog([]byte(`
coaches:
  - name: Meera
    sport: Cricket
    experience: 8 years
  - name: Karan
    sport: Football
facilities:
  - title: Indoor nets
    features: [bowling machine]
`))
	require.NoError(t, err)
	h := NewCoachingHandler(catalog)
	r := setupTestRouter("u1")
	r.GET("/coaching/coaches", h.Coaches)
	r.GET("/coaching/facilities", h.Facilities)

	_, resp := doJSON(t, r, http.MethodGet, "/coaching/coaches?sport=cricket", nil)
	var coaches []model.Coach
	require.NoError(t, json.Unmarshal(resp.Data, &coaches))
	require.Len(t, coaches, 1)
	assert.Equal(t, "Meera", coaches[0].Name)

	_, resp = doJSON(t, r, http.MethodGet, "/coaching/facilities", nil)
	var facilities []model.Facility
	require.NoError(t, json.Unmarshal(resp.Data, &facilities))
	require.Len(t, facilities, 1)
	assert.Equal(t, []string{"bowling machine"}, facilities[0].Features)
}
