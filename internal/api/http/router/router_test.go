package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/dtroode/chatdemo-server/internal/api/http/context"
	"github.com/dtroode/chatdemo-server/internal/captcha"
	"github.com/dtroode/chatdemo-server/internal/completion"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/realtime"
	"github.com/dtroode/chatdemo-server/internal/repository/memory"
	"github.com/dtroode/chatdemo-server/internal/seed"
	"github.com/dtroode/chatdemo-server/internal/service"
	storagememory "github.com/dtroode/chatdemo-server/internal/storage/memory"
	"github.com/dtroode/chatdemo-server/internal/testutil"
	"github.com/dtroode/chatdemo-server/internal/token"
)

type testAPI struct {
	t        *testing.T
	srv      *httptest.Server
	sessions *service.Session
	messages *service.Messages
	hub      *realtime.Hub
}

type startResponse struct {
	Token string     `json:"token"`
	View  model.View `json:"view"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	l := testutil.MakeNoopLogger()

	groupStore := memory.NewGroupRepository()
	sessionStore := memory.NewSessionRepository()
	hub := realtime.NewHub(l)
	autoReply := service.NewAutoReply("user-2", completion.NewStatic("Hey!"), 1, 8, l)
	messages := service.NewMessages(memory.NewMessageRepository(), groupStore, sessionStore, hub, autoReply, l)
	autoReply.Start(ctx, messages.AppendReply)

	generator := captcha.NewGenerator()
	sessions := service.NewSession(
		sessionStore,
		service.NewIdentity(memory.NewUserRepository(seed.Users()...), "user123", l),
		service.NewGroups(groupStore, l),
		messages,
		generator,
		hub,
		l,
	)

	r := New(Deps{
		SessionService: sessions,
		TokenManager:   token.NewJWT("test-secret", time.Hour),
		ContextManager: httpcontext.NewManager(),
		Renderer:       generator,
		Attachments:    service.NewAttachments(storagememory.New(), messages, l),
		Connections:    hub,
		MaxAttachment:  1 << 20,
		Logger:         l,
	})
	srv := httptest.NewServer(r.Register())

	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
		cancel()
		autoReply.Wait()
	})

	return &testAPI{t: t, srv: srv, sessions: sessions, messages: messages, hub: hub}
}

func (a *testAPI) do(method, path, tok string, body any, out any) int {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) start() startResponse {
	a.t.Helper()
	var res startResponse
	require.Equal(a.t, http.StatusCreated, a.do(http.MethodPost, "/api/sessions", "", nil, &res))
	return res
}

func (a *testAPI) code(sessionID string) string {
	a.t.Helper()
	code, err := a.sessions.CaptchaCode(context.Background(), sessionID)
	require.NoError(a.t, err)
	return code
}

func (a *testAPI) login(email string) string {
	a.t.Helper()
	s := a.start()
	var view model.View
	status := a.do(http.MethodPost, "/api/session/login", s.Token, map[string]string{
		"login":    email,
		"password": "user123",
		"captcha":  a.code(s.View.SessionID),
	}, &view)
	require.Equal(a.t, http.StatusOK, status)
	require.Equal(a.t, model.StateAuthenticated, view.State)
	return s.Token
}

func TestAPI_Health(t *testing.T) {
	api := newTestAPI(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_RequiresToken(t *testing.T) {
	api := newTestAPI(t)

	var body map[string]string
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/session", "", nil, &body))
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/session", "forged", nil, &body))
}

func TestAPI_LoginFlow(t *testing.T) {
	api := newTestAPI(t)
	s := api.start()
	assert.Equal(t, model.StateLoggedOut, s.View.State)
	assert.NotEmpty(t, s.Token)

	req, err := http.NewRequest(http.MethodGet, api.srv.URL+"/api/session/captcha", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	resp, err := api.srv.Client().Do(req)
	require.NoError(t, err)
	png, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	before := api.code(s.View.SessionID)

	var errBody map[string]string
	status := api.do(http.MethodPost, "/api/session/login", s.Token, map[string]string{
		"login": "user1@example.com", "password": "user123",
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, before, api.code(s.View.SessionID))

	status = api.do(http.MethodPost, "/api/session/login", s.Token, map[string]string{
		"login": "user1@example.com", "password": "user123", "captcha": "0000000",
	}, &errBody)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid verification code", errBody["error"])
	assert.NotEqual(t, before, api.code(s.View.SessionID))

	var view model.View
	status = api.do(http.MethodPost, "/api/session/login", s.Token, map[string]string{
		"login": "USER1@example.com", "password": "user123", "captcha": strings.ToLower(api.code(s.View.SessionID)),
	}, &view)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.StateAuthenticated, view.State)
	require.NotNil(t, view.User)
	assert.Equal(t, "user-1", view.User.ID)
	assert.Len(t, view.Friends, seed.UserCount-1)

	status = api.do(http.MethodPost, "/api/session/logout", s.Token, nil, &view)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.StateLoggedOut, view.State)
	assert.Nil(t, view.User)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/session", s.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/session", s.Token, nil, &errBody))
}

func TestAPI_Register(t *testing.T) {
	api := newTestAPI(t)
	s := api.start()

	var view model.View
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/session/register/start", s.Token, nil, &view))
	assert.Equal(t, model.StateRegistering, view.State)

	var errBody map[string]string
	status := api.do(http.MethodPost, "/api/session/register", s.Token, map[string]string{
		"name": "Neo", "email": "neo@example.com", "password": "123", "captcha": api.code(s.View.SessionID),
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)

	status = api.do(http.MethodPost, "/api/session/register", s.Token, map[string]string{
		"name": "Neo", "email": "neo@example.com", "password": "123456", "captcha": api.code(s.View.SessionID),
	}, &view)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, model.StateAuthenticated, view.State)
	require.NotNil(t, view.User)
	assert.Equal(t, "Neo", view.User.Name)
	assert.Len(t, view.Friends, seed.UserCount)

	// The new account logs in with the shared demo password.
	api.login("neo@example.com")
}

func TestAPI_ScenarioPersonalMessage(t *testing.T) {
	api := newTestAPI(t)
	tok := api.login("user1@example.com")

	var view model.View
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/session/target", tok, model.PersonalTarget("user-2"), &view))
	require.NotNil(t, view.Peer)
	assert.Equal(t, "user-2", view.Peer.ID)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodPost, "/api/messages", tok, map[string]string{"text": "   "}, nil))

	var msg model.Message
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/messages", tok, map[string]string{"text": "hello"}, &msg))
	assert.Equal(t, "user-1", msg.SenderID)
	assert.Equal(t, "user-2", msg.RecipientID)
	assert.Equal(t, "hello", msg.Text)

	require.Eventually(t, func() bool {
		n, _ := api.messages.Len(context.Background())
		return n == 2
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/session", tok, nil, &view))
	require.Len(t, view.Thread, 2)
	assert.Equal(t, "user-2", view.Thread[1].SenderID)
	assert.Equal(t, "user-1", view.Thread[1].RecipientID)
	assert.Equal(t, "Hey!", view.Thread[1].Text)
}

func TestAPI_ScenarioDeniedGroup(t *testing.T) {
	api := newTestAPI(t)
	u1 := api.login("user1@example.com")
	u3 := api.login("user3@example.com")

	var group model.Group
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/groups", u1, map[string]any{
		"name": "Trip", "members": []string{"user-1", "user-3"},
	}, &group))
	assert.Equal(t, []string{"user-1", "user-3"}, group.Members)

	var errBody map[string]string
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, "/api/groups/"+group.ID, u3, map[string]any{
		"denied_members": []string{"user-1"},
	}, &errBody))

	require.Equal(t, http.StatusOK, api.do(http.MethodPatch, "/api/groups/"+group.ID, u1, map[string]any{
		"denied_members": []string{"user-3", "user-1"},
	}, &group))
	assert.Equal(t, []string{"user-3"}, group.DeniedMembers)

	var msg model.Message
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/messages", u1, map[string]string{"text": "plans"}, &msg))
	assert.Equal(t, group.ID, msg.GroupID)

	var view model.View
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/session/target", u3, model.GroupTarget(group.ID), &view))
	assert.True(t, view.Denied)
	assert.Empty(t, view.Thread)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/messages", u3, map[string]string{"text": "hi"}, &errBody))

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/session", u1, nil, &view))
	assert.False(t, view.Denied)
	require.Len(t, view.Thread, 1)
	require.Len(t, view.Groups, 1)
	assert.Equal(t, 2, view.Groups[0].MemberCount)
}

func (a *testAPI) upload(tok, filename, content string) model.Attachment {
	a.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(a.t, err)
	_, err = part.Write([]byte(content))
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/api/attachments", &body)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var att model.Attachment
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&att))
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	return att
}

func TestAPI_Attachments(t *testing.T) {
	api := newTestAPI(t)
	tok := api.login("user1@example.com")

	att := api.upload(tok, "notes.txt", "remember the milk")
	assert.Equal(t, "notes.txt", att.Name)
	assert.Equal(t, int64(17), att.Size)

	req, err := http.NewRequest(http.MethodGet, api.srv.URL+"/api/attachments/"+att.Reference, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := api.srv.Client().Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "remember the milk", string(data))

	var view model.View
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/session/target", tok, model.PersonalTarget("user-5"), &view))

	var msg model.Message
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/messages", tok, map[string]any{"attachment": att}, &msg))
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, att.Reference, msg.Attachment.Reference)
	assert.Empty(t, msg.Text)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/attachments/missing/file.txt", tok, nil, &errBody))

	unknown := model.Attachment{Name: "ghost.txt", Reference: "missing/ghost.txt"}
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/messages", tok, map[string]any{"attachment": unknown}, &errBody))
}

func TestAPI_AttachmentDiscard(t *testing.T) {
	api := newTestAPI(t)
	owner := api.login("user1@example.com")
	other := api.login("user3@example.com")

	var view model.View
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/session/target", owner, model.PersonalTarget("user-5"), &view))

	sent := api.upload(owner, "sent.txt", "already delivered")
	var msg model.Message
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/messages", owner, map[string]any{"attachment": sent}, &msg))

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, api.do(http.MethodDelete, "/api/attachments/"+sent.Reference, owner, nil, &errBody))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/attachments/"+sent.Reference, other, nil, &errBody))

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/attachments/"+sent.Reference, owner, nil, nil))

	draft := api.upload(owner, "draft.txt", "never mind")
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/attachments/"+draft.Reference, other, nil, &errBody))
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/attachments/"+draft.Reference, owner, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/attachments/"+draft.Reference, owner, nil, &errBody))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/attachments/"+draft.Reference, owner, nil, &errBody))
}

func TestAPI_WebSocketPush(t *testing.T) {
	api := newTestAPI(t)
	tok := api.login("user4@example.com")

	url := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/api/ws?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	sender := api.login("user1@example.com")
	var view model.View
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/session/target", sender, model.PersonalTarget("user-4"), &view))

	require.Eventually(t, func() bool { return api.hub.Connected("user-4") == 1 }, time.Second, 5*time.Millisecond)

	var msg model.Message
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/messages", sender, map[string]string{"text": "ping"}, &msg))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var ev realtime.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, realtime.EventMessage, ev.Type)
	assert.Equal(t, msg.ID, ev.Message.ID)
	assert.Equal(t, "ping", ev.Message.Text)
}

func TestAPI_WebSocketClosedOnLogout(t *testing.T) {
	api := newTestAPI(t)
	tok := api.login("user4@example.com")

	url := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/api/ws?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return api.hub.Connected("user-4") == 1 }, time.Second, 5*time.Millisecond)

	var view model.View
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/session/logout", tok, nil, &view))
	require.Equal(t, model.StateLoggedOut, view.State)
	assert.Zero(t, api.hub.Connected("user-4"))

	sender := api.login("user1@example.com")
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/session/target", sender, model.PersonalTarget("user-4"), &view))
	var msg model.Message
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/messages", sender, map[string]string{"text": "secret"}, &msg))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.NotContains(t, string(data), "secret")

	var body map[string]string
	assert.Equal(t, http.StatusConflict, api.do(http.MethodGet, "/api/ws?token="+tok, "", nil, &body))
}
