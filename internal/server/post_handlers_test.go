package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"paddock/internal/models"
	"paddock/internal/service"
	"paddock/internal/testutil"
	"paddock/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idString(id uint) string {
	return fmt.Sprintf("%d", id)
}

func TestFeed_ListsAndFilters(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "checo")
	testutil.CreatePost(t, env.db, user.ID, "Box box", models.CategoryRaceUpdate)
	testutil.CreatePost(t, env.db, user.ID, "Checo on the podium meme", models.CategoryMeme)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"all newest first", "/", []string{"Checo on the podium meme", "Box box"}},
		{"category filter", "/?type=meme", []string{"Checo on the podium meme"}},
		{"malformed team ignored", "/?team=abc", []string{"Checo on the podium meme", "Box box"}},
		{"unknown type matches nothing", "/?type=rumour", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, get(tt.target))
			require.Equal(t, http.StatusOK, resp.StatusCode)
			page := decodePage(t, resp)
			assert.Equal(t, "feed", page.View)
			assert.Nil(t, page.User)

			var feed service.Feed
			require.NoError(t, json.Unmarshal(page.Context, &feed))
			var texts []string
			for _, p := range feed.Posts {
				texts = append(texts, p.Text)
			}
			assert.Equal(t, tt.want, texts)
			assert.Len(t, feed.Categories, len(models.Categories()))
			assert.Len(t, feed.Reactions, len(models.ReactionTypes()))
		})
	}
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "oscar")
	session := env.sessionFor(t, user)
	mclaren := testutil.CreateTeam(t, env.db, "McLaren", "#FF8000", "Oscar Piastri")
	ferrari := testutil.CreateTeam(t, env.db, "Ferrari", "#E8002D", "Charles Leclerc")

	t.Run("form lists the grid", func(t *testing.T) {
		resp := env.do(t, get("/create/", session))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decodePage(t, resp)
		assert.Equal(t, "post_form", page.View)
		var ctx postFormContext
		require.NoError(t, json.Unmarshal(page.Context, &ctx))
		assert.Len(t, ctx.Teams, 2)
		assert.Len(t, ctx.Drivers, 2)
		assert.Equal(t, models.MaxPollOptions, ctx.PollFields)
		assert.Equal(t, string(models.DefaultCategory), ctx.Form.Category)
	})

	t.Run("tagged post", func(t *testing.T) {
		resp := env.do(t, postForm("/create/", url.Values{
			"text":     {"Maiden win in Hungary!"},
			"category": {string(models.CategoryRaceUpdate)},
			"team":     {idString(mclaren.ID)},
			"driver":   {idString(mclaren.Drivers[0].ID)},
		}, session))
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		var post models.Post
		require.NoError(t, env.db.Where("text = ?", "Maiden win in Hungary!").First(&post).Error)
		assert.Equal(t, user.ID, post.UserID)
		require.NotNil(t, post.DriverID)
		assert.Equal(t, mclaren.Drivers[0].ID, *post.DriverID)
	})

	t.Run("invalid form re-renders with errors", func(t *testing.T) {
		resp := env.do(t, postForm("/create/", url.Values{
			"text":   {"   "},
			"team":   {idString(ferrari.ID)},
			"driver": {idString(mclaren.Drivers[0].ID)},
		}, session))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		page := decodePage(t, resp)
		assert.Equal(t, "post_form", page.View)
		var ctx postFormContext
		require.NoError(t, json.Unmarshal(page.Context, &ctx))
		assert.Contains(t, ctx.Errors, "text")
		assert.Equal(t, idString(ferrari.ID), ctx.Form.Team)
	})

	t.Run("driver outside team", func(t *testing.T) {
		resp := env.do(t, postForm("/create/", url.Values{
			"text":   {"Swap seats?"},
			"team":   {idString(ferrari.ID)},
			"driver": {idString(mclaren.Drivers[0].ID)},
		}, session))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var ctx postFormContext
		require.NoError(t, json.Unmarshal(decodePage(t, resp).Context, &ctx))
		assert.Contains(t, ctx.Errors, "driver")
	})
}

func TestCreatePost_PollOptions(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "stefano")
	session := env.sessionFor(t, user)

	resp := env.do(t, postForm("/create/", url.Values{
		"text":     {"Best circuit?"},
		"category": {string(models.CategoryPoll)},
		"option_1": {"Suzuka"},
		"option_2": {"  "},
	}, session))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/create/", resp.Header.Get("Location"))
	flash := responseCookie(resp, flashCookie)
	require.NotNil(t, flash)

	var count int64
	env.db.Model(&models.Post{}).Count(&count)
	assert.Zero(t, count, "a rejected poll leaves no post behind")

	page := decodePage(t, env.do(t, get("/create/", session, flash)))
	require.Len(t, page.Messages, 1)
	assert.Equal(t, LevelError, page.Messages[0].Level)
	assert.Equal(t, validation.ErrTooFewPollOptions, page.Messages[0].Text)

	resp = env.do(t, postForm("/create/", url.Values{
		"text":     {"Best circuit?"},
		"category": {string(models.CategoryPoll)},
		"option_1": {"Suzuka"},
		"option_3": {"Spa"},
		"option_4": {"Interlagos"},
	}, session))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var poll models.Poll
	require.NoError(t, env.db.Preload("Options").First(&poll).Error)
	require.Len(t, poll.Options, 3)
	assert.Equal(t, "Spa", poll.Options[1].Text)
}

func TestCreatePost_WithPhoto(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "kimi")
	session := env.sessionFor(t, user)

	resp := env.do(t, postMultipart(t, "/create/", url.Values{
		"text":     {"Leave me alone, I know what I'm doing"},
		"category": {string(models.CategoryMeme)},
	}, testutil.TinyPNG(t, 64, 32), session))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	require.NotEmpty(t, post.Photo)
	assert.FileExists(t, filepath.Join(env.store.Dir, post.Photo))

	resp = env.do(t, get("/media/"+post.Photo))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, postMultipart(t, "/create/", url.Values{
		"text": {"Not a photo"},
	}, []byte("plain text pretending to be a photo"), session))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var ctx postFormContext
	require.NoError(t, json.Unmarshal(decodePage(t, resp).Context, &ctx))
	assert.Contains(t, ctx.Errors, "photo")
}

func TestEditPost(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "nico")
	other := testutil.CreateUser(t, env.db, "lewis")
	post := testutil.CreatePost(t, env.db, author.ID, "Unfinished buisness", models.CategoryOpinion)
	target := "/" + idString(post.ID) + "/edit/"

	t.Run("form is prefilled", func(t *testing.T) {
		resp := env.do(t, get(target, env.sessionFor(t, author)))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var ctx postFormContext
		require.NoError(t, json.Unmarshal(decodePage(t, resp).Context, &ctx))
		assert.Equal(t, "Unfinished buisness", ctx.Form.Text)
		require.NotNil(t, ctx.Post)
		assert.Equal(t, post.ID, ctx.Post.ID)
	})

	t.Run("other users get 404", func(t *testing.T) {
		resp := env.do(t, get(target, env.sessionFor(t, other)))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp = env.do(t, postForm(target, url.Values{"text": {"hijack"}}, env.sessionFor(t, other)))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid edit re-renders", func(t *testing.T) {
		resp := env.do(t, postForm(target, url.Values{
			"text":     {"Now a poll"},
			"category": {string(models.CategoryPoll)},
		}, env.sessionFor(t, author)))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var ctx postFormContext
		require.NoError(t, json.Unmarshal(decodePage(t, resp).Context, &ctx))
		assert.Contains(t, ctx.Errors, "category")
	})

	t.Run("author saves", func(t *testing.T) {
		resp := env.do(t, postForm(target, url.Values{
			"text":     {"Unfinished business"},
			"category": {string(models.CategoryOpinion)},
		}, env.sessionFor(t, author)))
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)

		var saved models.Post
		require.NoError(t, env.db.First(&saved, post.ID).Error)
		assert.Equal(t, "Unfinished business", saved.Text)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp := env.do(t, get("/pole/edit/", env.sessionFor(t, author)))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestEditPost_RemovesPhoto(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "jenson")
	session := env.sessionFor(t, author)

	resp := env.do(t, postMultipart(t, "/create/", url.Values{"text": {"Canada 2011"}}, testutil.TinyPNG(t, 20, 20), session))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	photoPath := filepath.Join(env.store.Dir, post.Photo)
	require.FileExists(t, photoPath)

	resp = env.do(t, postForm("/"+idString(post.ID)+"/edit/", url.Values{
		"text":         {"Canada 2011, from last to first"},
		"remove_photo": {"on"},
	}, session))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	require.NoError(t, env.db.First(&post, post.ID).Error)
	assert.Empty(t, post.Photo)
	_, err := os.Stat(photoPath)
	assert.True(t, os.IsNotExist(err))
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "fernando")
	other := testutil.CreateUser(t, env.db, "flavio")
	post := testutil.CreatePollPost(t, env.db, author.ID, "El Plan?", "Yes", "No")
	target := "/" + idString(post.ID) + "/delete/"

	resp := env.do(t, get(target, env.sessionFor(t, author)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "post_confirm_delete", decodePage(t, resp).View)

	resp = env.do(t, postForm(target, url.Values{}, env.sessionFor(t, other)))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, postForm(target, url.Values{}, env.sessionFor(t, author)))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var posts, options int64
	env.db.Model(&models.Post{}).Count(&posts)
	env.db.Model(&models.PollOption{}).Count(&options)
	assert.Zero(t, posts)
	assert.Zero(t, options)
}
