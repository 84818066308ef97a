package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/realtime"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
	"github.com/dmitrijs2005/clubhouse/internal/server/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const welcome = "WELCOME123"

type testEnv struct {
	t   *testing.T
	srv *httptest.Server
	svc Services
	rm  repomanager.RepositoryManager
	db  dbx.DBTX
	fs  afero.Fs
}

func newTestEnv(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := dbx.Open(ctx, filepath.Join(t.TempDir(), "club.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.SecretKey = "test-secret"
	cfg.LoginRateLimit = 0
	if tweak != nil {
		tweak(cfg)
	}

	fs := afero.NewMemMapFs()
	store, err := storage.NewLocalStore(fs, "uploads")
	require.NoError(t, err)

	hub := realtime.NewHub(logging.Nop())
	chat := services.NewChatService(db, rm, hub, cfg, logging.Nop())
	svc := Services{
		Users:    services.NewUserService(db, rm, cfg),
		Invites:  services.NewInviteService(db, rm),
		Chat:     chat,
		Forum:    services.NewForumService(db, rm),
		Files:    services.NewFileService(db, rm, store, logging.Nop()),
		Calendar: services.NewCalendarService(db, rm),
		Habits:   services.NewHabitService(db, rm),
		Polls:    services.NewPollService(db, rm),
	}
	_, err = svc.Invites.EnsureInitial(ctx, welcome)
	require.NoError(t, err)

	s, err := NewServer(cfg, svc, realtime.NewHandler(hub, chat, logging.Nop()), NewIPRateLimiter(cfg.LoginRateLimit), logging.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &testEnv{t: t, srv: srv, svc: svc, rm: rm, db: db, fs: fs}
}

// invite mints a fresh code as if an admin had asked for one.
func (e *testEnv) invite() string {
	e.t.Helper()
	inv, err := e.svc.Invites.Generate(context.Background(), nil)
	require.NoError(e.t, err)
	return inv.Code
}

func (e *testEnv) identity(name string) auth.Identity {
	e.t.Helper()
	u, err := e.rm.Users(e.db).GetByUsername(context.Background(), name)
	require.NoError(e.t, err)
	return auth.Identity{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

type result struct {
	Status   int
	Location string
	Header   http.Header
	Body     string
}

// client is a browser: it keeps cookies and never follows redirects.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (e *testEnv) newClient() *client {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &client{
		t:    e.t,
		base: e.srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *client) do(req *http.Request) result {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return result{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Header: resp.Header, Body: string(body)}
}

func (c *client) get(path string) result {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *client) post(path string, form url.Values) result {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postJSON(path string, v any) result {
	c.t.Helper()
	b, err := json.Marshal(v)
	require.NoError(c.t, err)
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(b))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) upload(name, content string) result {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(c.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.base+"/files", &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

// register signs the client up and leaves it logged in.
func (c *client) register(invite, username, password string) {
	c.t.Helper()
	res := c.post("/register", url.Values{"invite_code": {invite}, "username": {username}, "password": {password}})
	require.Equal(c.t, http.StatusSeeOther, res.Status)
	require.Equal(c.t, "/", res.Location)
}

// follow checks for a redirect and returns the page it lands on.
func (c *client) follow(res result) result {
	c.t.Helper()
	require.Equal(c.t, http.StatusSeeOther, res.Status, res.Body)
	return c.get(res.Location)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	res := env.newClient().get("/healthz")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "ok", res.Body)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.newClient()

	for _, path := range []string{"/", "/chat", "/forum", "/files", "/calendar", "/habits", "/polls", "/admin/generate_invite"} {
		res := c.get(path)
		assert.Equal(t, http.StatusSeeOther, res.Status, path)
		assert.Equal(t, "/login", res.Location, path)
	}

	res := c.get("/login")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, `name="password"`)
}

func TestWelcomeScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.newClient()

	alice.register(welcome, "alice", "s3cret")

	res := alice.get("/")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "Welcome, alice")
	// first account is admin and sees the admin links
	assert.Contains(t, res.Body, "/admin/generate_invite")

	res = alice.get("/admin/generate_invite")
	require.Equal(t, http.StatusOK, res.Status)
	require.True(t, strings.HasPrefix(res.Body, "Generated Code: "), res.Body)
	code := strings.TrimPrefix(res.Body, "Generated Code: ")

	res = alice.get("/admin/invites")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, welcome+"\tused by #")
	assert.Contains(t, res.Body, code+"\tunused")

	// the welcome code is spent
	bob := env.newClient()
	res = bob.follow(bob.post("/register", url.Values{"invite_code": {welcome}, "username": {"bob"}, "password": {"pw"}}))
	assert.Contains(t, res.Body, "Invalid or used invite code")

	bob.register(code, "bob", "pw")
	assert.False(t, env.identity("bob").IsAdmin)

	res = bob.get("/admin/generate_invite")
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Contains(t, res.Body, "Access Denied")
}

func TestRegister_UsernameTaken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.newClient().register(welcome, "alice", "pw")

	c := env.newClient()
	res := c.follow(c.post("/register", url.Values{"invite_code": {env.invite()}, "username": {"alice"}, "password": {"pw"}}))
	assert.Contains(t, res.Body, "Username already exists")
}

func TestLoginLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	env.newClient().register(welcome, "alice", "right")

	c := env.newClient()
	res := c.follow(c.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}}))
	assert.Contains(t, res.Body, "Invalid username or password")

	// unknown users get the same answer
	res = c.follow(c.post("/login", url.Values{"username": {"nobody"}, "password": {"wrong"}}))
	assert.Contains(t, res.Body, "Invalid username or password")

	res = c.post("/login", url.Values{"username": {"alice"}, "password": {"right"}})
	require.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, "/", res.Location)

	assert.Equal(t, http.StatusOK, c.get("/").Status)
	// signed-in users are sent home from the guest pages
	assert.Equal(t, "/", c.get("/login").Location)
	assert.Equal(t, "/", c.get("/register").Location)

	res = c.get("/logout")
	assert.Equal(t, "/login", res.Location)
	assert.Equal(t, "/login", c.get("/").Location)
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.LoginRateLimit = 2 })
	c := env.newClient()

	form := url.Values{"username": {"x"}, "password": {"y"}}
	assert.Equal(t, http.StatusSeeOther, c.post("/login", form).Status)
	assert.Equal(t, http.StatusSeeOther, c.post("/login", form).Status)

	res := c.post("/login", form)
	assert.Equal(t, http.StatusTooManyRequests, res.Status)
	assert.Equal(t, "60", res.Header.Get("Retry-After"))

	// reading the page is not throttled
	assert.Equal(t, http.StatusOK, c.get("/login").Status)
}

func TestForum(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.newClient()
	c.register(welcome, "alice", "pw")

	res := c.get("/forum")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "Coding &amp; Tech")

	res = c.follow(c.post("/forum/1/new", url.Values{"title": {""}, "content": {"body"}}))
	assert.Contains(t, res.Body, "Title is required")

	res = c.post("/forum/1/new", url.Values{"title": {"Go tips"}, "content": {"use <b>gofmt</b>"}})
	require.Equal(t, http.StatusSeeOther, res.Status)
	threadURL := res.Location
	require.True(t, strings.HasPrefix(threadURL, "/thread/"), threadURL)

	res = c.post(threadURL, url.Values{"content": {"and go vet"}})
	assert.Equal(t, threadURL, res.Location)

	res = c.get(threadURL)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "Go tips")
	assert.Contains(t, res.Body, "use &lt;b&gt;gofmt&lt;/b&gt;")
	assert.Contains(t, res.Body, "and go vet")

	res = c.get("/forum/1")
	assert.Contains(t, res.Body, "Go tips")
	assert.Contains(t, res.Body, "2 posts")

	assert.Equal(t, http.StatusNotFound, c.get("/forum/999").Status)
	assert.Equal(t, http.StatusNotFound, c.get("/thread/999").Status)
	assert.Equal(t, http.StatusNotFound, c.post("/forum/999/new", url.Values{"title": {"t"}, "content": {"c"}}).Status)
}

func TestFiles(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.newClient()
	alice.register(welcome, "alice", "pw")
	bob := env.newClient()
	bob.register(env.invite(), "bob", "pw")
	carol := env.newClient()
	carol.register(env.invite(), "carol", "pw")

	res := bob.follow(bob.upload("notes v1.txt", "hello files"))
	assert.Contains(t, res.Body, "File uploaded successfully")
	assert.Contains(t, res.Body, "notes v1.txt")

	list, err := env.svc.Files.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	f := list[0]
	fileURL := fmt.Sprintf("/files/download/%d", f.ID)

	res = carol.get(fileURL)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "hello files", res.Body)
	assert.Contains(t, res.Header.Get("Content-Disposition"), `filename="notes v1.txt"`)

	// carol is neither owner nor admin
	res = carol.get(fmt.Sprintf("/files/delete/%d", f.ID))
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Contains(t, res.Body, "Access Denied")
	ok, err := afero.Exists(env.fs, filepath.Join("uploads", f.Filename))
	require.NoError(t, err)
	assert.True(t, ok)

	// alice is admin
	res = alice.follow(alice.get(fmt.Sprintf("/files/delete/%d", f.ID)))
	assert.Contains(t, res.Body, "File deleted")
	ok, err = afero.Exists(env.fs, filepath.Join("uploads", f.Filename))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, http.StatusNotFound, alice.get(fileURL).Status)
}

func TestFiles_NoFilePart(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.newClient()
	c.register(welcome, "alice", "pw")

	res := c.follow(c.post("/files", url.Values{"x": {"y"}}))
	assert.Contains(t, res.Body, "No file part")
}

func TestCalendarAPI(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.newClient()
	c.register(welcome, "alice", "pw")

	res := c.get("/api/events")
	require.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `{"events":[]}`, res.Body)

	res = c.postJSON("/api/events", map[string]string{"title": "Exam", "start": "2024-05-01T09:00", "end": "2024-05-01T11:00", "type": "test"})
	require.Equal(t, http.StatusOK, res.Status, res.Body)
	assert.JSONEq(t, `{"status":"success","id":1}`, res.Body)

	res = c.postJSON("/api/events", map[string]string{"title": "Meetup", "start": "2024-05-02T18:30", "type": "social"})
	require.Equal(t, http.StatusOK, res.Status, res.Body)

	res = c.get("/api/events")
	require.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `{"events":[
		{"id":1,"title":"Exam","start":"2024-05-01T09:00:00","end":"2024-05-01T11:00:00","backgroundColor":"#cf6679","borderColor":"#cf6679"},
		{"id":2,"title":"Meetup","start":"2024-05-02T18:30:00","end":null,"backgroundColor":"#bb86fc","borderColor":"#bb86fc"}
	]}`, res.Body)

	res = c.postJSON("/api/events", map[string]string{"title": "", "start": "2024-05-01T09:00", "type": "test"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Contains(t, res.Body, "Title is required")

	req, err := http.NewRequest(http.MethodPost, c.base+"/api/events", strings.NewReader("{"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, c.do(req).Status)
}

func TestHabits(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.newClient()
	alice.register(welcome, "alice", "pw")
	bob := env.newClient()
	bob.register(env.invite(), "bob", "pw")

	res := bob.post("/habits", url.Values{"name": {"Read"}})
	assert.Equal(t, "/habits", res.Location)

	list, err := env.svc.Habits.ListToday(context.Background(), env.identity("bob"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	toggle := fmt.Sprintf("/habits/toggle/%d", list[0].ID)

	assert.Equal(t, "/habits", bob.get(toggle).Location)
	list, err = env.svc.Habits.ListToday(context.Background(), env.identity("bob"))
	require.NoError(t, err)
	assert.True(t, list[0].DoneToday)

	// even an admin cannot tick someone else's habit
	res = alice.get(toggle)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Contains(t, res.Body, "Access Denied")

	assert.Equal(t, http.StatusNotFound, bob.get("/habits/toggle/999").Status)

	res = bob.follow(bob.post("/habits", url.Values{"name": {" "}}))
	assert.Contains(t, res.Body, "Name is required")

	res = bob.post("/habits", url.Values{"name": {strings.Repeat("n", 201)}})
	assert.Equal(t, http.StatusSeeOther, res.Status)
	res = bob.follow(res)
	assert.Contains(t, res.Body, "Name longer than 200 characters")
	list, err = env.svc.Habits.ListToday(context.Background(), env.identity("bob"))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPolls(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.newClient()
	alice.register(welcome, "alice", "pw")
	bob := env.newClient()
	bob.register(env.invite(), "bob", "pw")

	res := bob.follow(bob.post("/polls", url.Values{"question": {"Tabs?"}, "option": {"yes", " "}}))
	assert.Contains(t, res.Body, "At least 2 options are required")

	res = bob.post("/polls", url.Values{"question": {"Tabs?"}, "option": {"A", "B", ""}})
	require.Equal(t, "/polls", res.Location)

	polls, err := env.svc.Polls.List(context.Background(), env.identity("bob"))
	require.NoError(t, err)
	require.Len(t, polls, 1)
	id := polls[0].ID

	assert.Equal(t, "/polls", bob.get(fmt.Sprintf("/polls/vote/%d/1", id)).Location)
	assert.Equal(t, "/polls", bob.get(fmt.Sprintf("/polls/vote/%d/0", id)).Location)

	polls, err = env.svc.Polls.List(context.Background(), env.identity("bob"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, polls[0].Counts)
	assert.Equal(t, 1, polls[0].Total)
	assert.Equal(t, 0, polls[0].MyVote)

	res = bob.follow(bob.get(fmt.Sprintf("/polls/vote/%d/7", id)))
	assert.Contains(t, res.Body, "Option 7 out of range")
	assert.Equal(t, http.StatusNotFound, bob.get("/polls/vote/999/0").Status)

	// alice is admin and may close bob's poll
	assert.Equal(t, "/polls", alice.post(fmt.Sprintf("/polls/close/%d", id), nil).Location)

	res = bob.get(fmt.Sprintf("/polls/vote/%d/1", id))
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Contains(t, res.Body, "Poll Closed")
}

func TestPolls_CloseForbidden(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.newClient()
	alice.register(welcome, "alice", "pw")
	bob := env.newClient()
	bob.register(env.invite(), "bob", "pw")

	alice.post("/polls", url.Values{"question": {"Lunch?"}, "option": {"Pizza", "Sushi"}})
	polls, err := env.svc.Polls.List(context.Background(), env.identity("alice"))
	require.NoError(t, err)
	require.Len(t, polls, 1)

	res := bob.post(fmt.Sprintf("/polls/close/%d", polls[0].ID), nil)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Contains(t, res.Body, "Access Denied")
}

func TestChatPageShowsHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.newClient()
	c.register(welcome, "alice", "pw")

	_, err := env.svc.Chat.Send(context.Background(), env.identity("alice"), "hi <there>")
	require.NoError(t, err)

	res := c.get("/chat")
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "hi &lt;there&gt;")
	assert.Contains(t, res.Body, `data-user="alice"`)
	assert.Contains(t, res.Body, "/static/chat.js")

	res = c.get("/static/chat.js")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "send_message")
}

func TestStaleCookieIsCleared(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.newClient()

	u, err := url.Parse(c.base)
	require.NoError(t, err)
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: "clubhouse_session", Value: "forged"}})

	res := c.get("/")
	assert.Equal(t, "/login", res.Location)
	assert.Empty(t, c.http.Jar.Cookies(u))
}
