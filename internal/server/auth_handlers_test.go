package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"paddock/internal/config"
	"paddock/internal/models"
	"paddock/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_SignsInAndRedirects(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, postForm("/register/", url.Values{
		"username":  {"lando"},
		"email":     {"Lando@McLaren.test"},
		"password1": {"Papaya-Rules-4"},
		"password2": {"Papaya-Rules-4"},
	}))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	session := responseCookie(resp, sessionCookie)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	flash := responseCookie(resp, flashCookie)
	require.NotNil(t, flash)

	var user models.User
	require.NoError(t, env.db.Where("username = ?", "lando").First(&user).Error)
	assert.Equal(t, "lando@mclaren.test", user.Email)

	page := decodePage(t, env.do(t, get("/", session, flash)))
	assert.Equal(t, "feed", page.View)
	require.NotNil(t, page.User)
	assert.Equal(t, "lando", page.User.Username)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, LevelSuccess, page.Messages[0].Level)
}

func TestRegister_InvalidFormRerenders(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "max")

	resp := env.do(t, postForm("/register/", url.Values{
		"username":  {"max"},
		"email":     {"not-an-email"},
		"password1": {"Orange-Army-1"},
		"password2": {"Orange-Army-2"},
	}))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, responseCookie(resp, sessionCookie))

	page := decodePage(t, resp)
	assert.Equal(t, "register", page.View)
	var ctx registerContext
	require.NoError(t, json.Unmarshal(page.Context, &ctx))
	assert.Contains(t, ctx.Errors, "email")
	assert.Contains(t, ctx.Errors, "password2")
	assert.Equal(t, "max", ctx.Form["username"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "george")

	t.Run("wrong password re-renders", func(t *testing.T) {
		resp := env.do(t, postForm("/login/", url.Values{"username": {"george"}, "password": {"nope"}}))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		page := decodePage(t, resp)
		assert.Equal(t, "login", page.View)
		var ctx loginContext
		require.NoError(t, json.Unmarshal(page.Context, &ctx))
		assert.Equal(t, "george", ctx.Username)
		assert.NotEmpty(t, ctx.Error)
	})

	t.Run("redirects to next", func(t *testing.T) {
		resp := env.do(t, postForm("/login/?next=%2Fcreate%2F", url.Values{
			"username": {"george"},
			"password": {testutil.TestPassword},
		}))
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/create/", resp.Header.Get("Location"))
		assert.NotNil(t, responseCookie(resp, sessionCookie))
	})

	t.Run("ignores foreign next", func(t *testing.T) {
		resp := env.do(t, postForm("/login/", url.Values{
			"username": {"george"},
			"password": {testutil.TestPassword},
			"next":     {"//evil.example/phish"},
		}))
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})
}

func TestLoginRequired_RedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/create/", "/1/edit/", "/1/delete/"} {
		resp := env.do(t, get(target))
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, target)
		assert.Equal(t, "/login/?next="+url.QueryEscape(target), resp.Header.Get("Location"))
	}

	resp := env.do(t, postForm("/react/1/push/", url.Values{}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login/")
}

func TestAnonymousOnly_BouncesSignedInUsers(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "yuki")
	session := env.sessionFor(t, user)

	for _, target := range []string{"/login/", "/register/"} {
		resp := env.do(t, get(target, session))
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, target)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	}
}

func TestBearerTokenIsAccepted(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alex")
	token, _, err := env.server.authService.IssueSession(user)
	require.NoError(t, err)

	req := get("/create/")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := env.do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogout_RevokesSession(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "logan")
	session := env.sessionFor(t, user)

	resp := env.do(t, get("/create/", session))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, postForm("/logout/", url.Values{}, session))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	cleared := responseCookie(resp, sessionCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// The old token is blacklisted even if the client keeps sending it.
	resp = env.do(t, get("/create/", session))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login/")
}

func TestGarbageSessionCookieIsCleared(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, get("/", &http.Cookie{Name: sessionCookie, Value: "not-a-token"}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := responseCookie(resp, sessionCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.RateLimitEnabled = true })

	form := url.Values{"username": {"nobody"}, "password": {"wrong"}}
	for i := 0; i < 10; i++ {
		resp := env.do(t, postForm("/login/", form))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "attempt %d", i+1)
	}
	resp := env.do(t, postForm("/login/", form))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	env.mr.FastForward(6 * time.Minute)
	resp = env.do(t, postForm("/login/", form))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
