package service

import (
	"context"
	"io"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
	"github.com/abhishek-bajpai1/athletecho/internal/repository"
	"github.com/abhishek-bajpai1/athletecho/internal/storage"
	"github.com/abhishek-bajpai1/athletecho/internal/workerpool"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
	"github.com/abhishek-bajpai1/athletecho/pkg/snowflake"
)

// In-memory stores with the same conditional semantics as the PostgreSQL
// and Redis repositories.

type memUsers struct {
	mu    sync.Mutex
	users map[string]*model.UserProfile
	calls int
}

func newMemUsers(uids ...string) *memUsers {
	m := &memUsers{users: make(map[string]*model.UserProfile)}
	for _, uid := range uids {
		m.users[uid] = &model.UserProfile{UID: uid, DisplayName: "Name " + uid, PhotoURL: "https://img/" + uid}
	}
	return m
}

func (m *memUsers) UpsertSignIn(_ context.Context, id *model.Identity) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.users[id.UID]
	if !ok {
		u = &model.UserProfile{UID: id.UID, CreateAt: time.Now()}
		m.users[id.UID] = u
	}
	u.DisplayName = id.DisplayName
	u.PhotoURL = id.PhotoURL
	u.Email = id.Email
	u.Online = true
	u.LastSeen = time.Now()
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetPresence(_ context.Context, uid string, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.users[uid]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Online = online
	u.LastSeen = time.Now()
	return nil
}

func (m *memUsers) GetByUID(_ context.Context, uid string) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.users[uid]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, p *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.users[p.UID]; !ok {
		return apperrors.ErrUserNotFound
	}
	cp := *p
	m.users[p.UID] = &cp
	return nil
}

func (m *memUsers) UpdatePhoto(_ context.Context, uid, photoURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.users[uid]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.PhotoURL = photoURL
	return nil
}

func (m *memUsers) ListExcept(_ context.Context, uid string) ([]*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []*model.UserProfile
	for id, u := range m.users {
		if id != uid {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (m *memUsers) get(uid string) model.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[uid]
}

type memConnections struct {
	mu      sync.Mutex
	records map[string]*model.Connection
}

func newMemConnections() *memConnections {
	return &memConnections{records: make(map[string]*model.Connection)}
}

func (m *memConnections) CreateIfAbsent(_ context.Context, c *model.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[c.ID]; ok {
		return apperrors.ErrConnectionExists
	}
	now := time.Now()
	c.CreateAt, c.UpdateAt = now, now
	cp := *c
	m.records[c.ID] = &cp
	return nil
}

func (m *memConnections) Get(_ context.Context, id string) (*model.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[id]
	if !ok {
		return nil, apperrors.ErrConnectionNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memConnections) Accept(_ context.Context, id, acceptor string) (*model.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[id]
	if !ok || c.Status != model.ConnectionPending || c.RequestedBy == acceptor {
		return nil, apperrors.ErrConnectionNotFound
	}
	c.Status = model.ConnectionAccepted
	c.UpdateAt = time.Now()
	cp := *c
	return &cp, nil
}

func (m *memConnections) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	delete(m.records, id)
	return ok, nil
}

func (m *memConnections) ListForUser(_ context.Context, uid string) ([]*model.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Connection
	for _, c := range m.records {
		if c.HasParticipant(uid) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memConnections) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type memConversations struct {
	mu            sync.Mutex
	conversations map[string]*model.Conversation
	messages      map[string][]*model.Message
	calls         int
}

func newMemConversations() *memConversations {
	return &memConversations{
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]*model.Message),
	}
}

func (m *memConversations) CreateIfAbsent(_ context.Context, c *model.Conversation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.conversations[c.ID]; ok {
		return false, nil
	}
	now := time.Now()
	cp := *c
	cp.LastTime, cp.CreateAt = now, now
	m.conversations[c.ID] = &cp
	return true, nil
}

func (m *memConversations) Get(_ context.Context, id string) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c, ok := m.conversations[id]
	if !ok {
		return nil, apperrors.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memConversations) AppendMessage(_ context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c, ok := m.conversations[msg.ConversationID]
	if !ok {
		return apperrors.ErrConversationNotFound
	}
	msg.SentAt = time.Now()
	msg.Read = false
	cp := *msg
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], &cp)
	c.LastMessage = msg.Text
	c.LastTime = msg.SentAt
	return nil
}

func (m *memConversations) MarkRead(_ context.Context, id, viewer string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var n int64
	for _, msg := range m.messages[id] {
		if msg.SenderID != viewer && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}

func (m *memConversations) ListForUser(_ context.Context, uid string) ([]*model.ConversationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []*model.ConversationSummary
	for _, c := range m.conversations {
		if !c.HasParticipant(uid) {
			continue
		}
		unread := 0
		for _, msg := range m.messages[c.ID] {
			if msg.SenderID != uid && !msg.Read {
				unread++
			}
		}
		cp := *c
		out = append(out, &model.ConversationSummary{Conversation: &cp, OtherUID: cp.Other(uid), UnreadCount: unread})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastTime.After(out[j].LastTime) })
	return out, nil
}

func (m *memConversations) ListMessages(_ context.Context, id string) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := make([]*model.Message, 0, len(m.messages[id]))
	for _, msg := range m.messages[id] {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memConversations) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type memPosts struct {
	mu       sync.Mutex
	posts    map[int64]*model.Post
	comments map[int64][]*model.Comment
	order    []int64
}

func newMemPosts() *memPosts {
	return &memPosts{
		posts:    make(map[int64]*model.Post),
		comments: make(map[int64][]*model.Comment),
	}
}

func (m *memPosts) Create(_ context.Context, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreateAt = time.Now()
	p.LikedBy = []string{}
	cp := *p
	m.posts[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memPosts) Get(_ context.Context, id int64) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, apperrors.ErrPostNotFound
	}
	cp := *p
	cp.LikedBy = slices.Clone(p.LikedBy)
	return &cp, nil
}

func (m *memPosts) SetLike(_ context.Context, id int64, uid string, liked bool) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, apperrors.ErrPostNotFound
	}
	p.LikedBy = slices.DeleteFunc(p.LikedBy, func(s string) bool { return s == uid })
	if liked {
		p.LikedBy = append(p.LikedBy, uid)
	}
	cp := *p
	cp.LikedBy = slices.Clone(p.LikedBy)
	return &cp, nil
}

func (m *memPosts) DeleteByAuthor(_ context.Context, id int64, actor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return apperrors.ErrPostNotFound
	}
	if p.AuthorID != actor {
		return apperrors.ErrNotPostAuthor
	}
	delete(m.posts, id)
	delete(m.comments, id)
	m.order = slices.DeleteFunc(m.order, func(v int64) bool { return v == id })
	return nil
}

func (m *memPosts) Recent(_ context.Context, limit int) ([]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Post
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.posts[m.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPosts) AddComment(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[c.PostID]
	if !ok {
		return apperrors.ErrPostNotFound
	}
	c.CreateAt = time.Now()
	cp := *c
	m.comments[c.PostID] = append(m.comments[c.PostID], &cp)
	p.CommentCount++
	return nil
}

func (m *memPosts) ListComments(_ context.Context, postID int64) ([]*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Comment, 0, len(m.comments[postID]))
	for _, c := range m.comments[postID] {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

type memPresence struct {
	mu    sync.Mutex
	conns map[string]map[string]bool

	// afterDisconnect runs once the lock is released, like a racing Attach
	afterDisconnect func()
}

func newMemPresence() *memPresence {
	return &memPresence{conns: make(map[string]map[string]bool)}
}

func (m *memPresence) Connect(_ context.Context, uid, connID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns[uid] == nil {
		m.conns[uid] = make(map[string]bool)
	}
	m.conns[uid][connID] = true
	return int64(len(m.conns[uid])), nil
}

func (m *memPresence) Disconnect(_ context.Context, uid, connID string) (int64, error) {
	m.mu.Lock()
	delete(m.conns[uid], connID)
	n := int64(len(m.conns[uid]))
	hook := m.afterDisconnect
	m.afterDisconnect = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return n, nil
}

func (m *memPresence) Touch(context.Context, string, string) error { return nil }

func (m *memPresence) Count(_ context.Context, uid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.conns[uid])), nil
}

type memSessions struct {
	mu       sync.Mutex
	byToken  map[string]*repository.SessionInfo
	byDevice map[string]string
}

func newMemSessions() *memSessions {
	return &memSessions{
		byToken:  make(map[string]*repository.SessionInfo),
		byDevice: make(map[string]string),
	}
}

func (m *memSessions) SaveToken(_ context.Context, info *repository.SessionInfo, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := info.UID + ":" + info.Platform
	if old, ok := m.byDevice[key]; ok && old != token {
		delete(m.byToken, old)
	}
	cp := *info
	m.byToken[token] = &cp
	m.byDevice[key] = token
	return nil
}

func (m *memSessions) GetSession(_ context.Context, token string) (*repository.SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.byToken[token]
	if !ok {
		return nil, nil
	}
	cp := *info
	return &cp, nil
}

func (m *memSessions) DeleteToken(_ context.Context, uid, platform, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byToken, token)
	key := uid + ":" + platform
	if m.byDevice[key] == token {
		delete(m.byDevice, key)
	}
	return nil
}

type memStates struct {
	mu     sync.Mutex
	states map[string]bool
}

func newMemStates() *memStates {
	return &memStates{states: make(map[string]bool)}
}

func (m *memStates) Save(_ context.Context, state string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = true
	return nil
}

func (m *memStates) Consume(_ context.Context, state string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.states[state]
	delete(m.states, state)
	return ok, nil
}

// fakeImages accepts uploads unless err is set.
type fakeImages struct {
	err     error
	uploads int
}

func (f *fakeImages) Upload(_ context.Context, folder string, img *storage.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, img.Body); err != nil {
		return "", err
	}
	f.uploads++
	return "https://cdn.example.com/" + folder + "/" + img.Filename, nil
}

// fakeProvider accepts the code "good".
type fakeProvider struct {
	identity *model.Identity
}

func (f *fakeProvider) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeProvider) Identify(_ context.Context, code string) (*model.Identity, error) {
	if code != "good" {
		return nil, io.ErrUnexpectedEOF
	}
	cp := *f.identity
	return &cp, nil
}

// topicLog records published topics and forwards them to a hub.
type topicLog struct {
	mu     sync.Mutex
	topics []string
	hub    *realtime.Hub
}

func (l *topicLog) Publish(ctx context.Context, topics ...string) error {
	l.mu.Lock()
	l.topics = append(l.topics, topics...)
	l.mu.Unlock()
	if l.hub != nil {
		return l.hub.Publish(ctx, topics...)
	}
	return nil
}

func (l *topicLog) published() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.topics...)
}

func newTestHub(t *testing.T) *realtime.Hub {
	t.Helper()
	pool := workerpool.New(4, 128, nil)
	t.Cleanup(pool.Shutdown)
	return realtime.NewHub(pool, nil, nil)
}

func newTestSnowflake(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return node
}

// latest collects snapshots delivered by a subscription.
type latest[T any] struct {
	mu  sync.Mutex
	all []T
}

func (l *latest[T]) deliver(v T) {
	l.mu.Lock()
	l.all = append(l.all, v)
	l.mu.Unlock()
}

func (l *latest[T]) last() (T, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	if len(l.all) == 0 {
		return zero, 0
	}
	return l.all[len(l.all)-1], len(l.all)
}
