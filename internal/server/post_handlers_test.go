package server

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartPost(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "small.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func postPath(id uint) string {
	return "/api/posts/" + strconv.FormatUint(uint64(id), 10)
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	leo := env.createUser(t, "leo", false)
	group := env.createGroup(t, "cats")
	token := tokenFor(t, leo)

	t.Run("anonymous", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/posts", "", fiber.Map{"text": "hi"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("with group", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/posts", token, fiber.Map{
			"text":     "meow",
			"group_id": group.ID,
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		post := decode[models.Post](t, resp)
		assert.Equal(t, "meow", post.Text)
		assert.Equal(t, leo.ID, post.AuthorID)
		require.NotNil(t, post.GroupID)
		assert.Equal(t, group.ID, *post.GroupID)
	})

	t.Run("unknown group", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/posts", token, fiber.Map{
			"text":     "meow",
			"group_id": 999,
		})
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decode[models.ErrorResponse](t, resp).Fields, "group")
	})

	t.Run("blank text", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/posts", token, fiber.Map{"text": "   "})
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decode[models.ErrorResponse](t, resp).Fields, "text")
	})
}

func TestCreatePost_ClearsIndexCache(t *testing.T) {
	env := newTestEnv(t)
	leo := env.createUser(t, "leo", false)
	env.createPosts(t, leo, nil, 1)

	assert.Len(t, decode[service.PostPage](t, env.do(t, http.MethodGet, "/", "", nil)).Items, 1)

	resp := env.do(t, http.MethodPost, "/api/posts", tokenFor(t, leo), fiber.Map{"text": "second"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	page := decode[service.PostPage](t, env.do(t, http.MethodGet, "/", "", nil))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "second", page.Items[0].Text)
}

func TestCreatePost_MultipartImage(t *testing.T) {
	env := newTestEnv(t)
	leo := env.createUser(t, "leo", false)
	group := env.createGroup(t, "cats")

	body, contentType := multipartPost(t, map[string]string{
		"text":  "with picture",
		"group": fmt.Sprint(group.ID),
	}, pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, leo))
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	post := decode[models.Post](t, resp)
	assert.Regexp(t, `^posts/[0-9a-f-]+\.png$`, post.Image)
	assert.Equal(t, "/media/"+post.Image, post.ImageURL)
	require.NotNil(t, post.GroupID)

	media := env.do(t, http.MethodGet, post.ImageURL, "", nil)
	require.Equal(t, fiber.StatusOK, media.StatusCode)
	assert.Equal(t, "image/png", media.Header.Get("Content-Type"))
	got, err := io.ReadAll(media.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes(t), got)

	require.NotEmpty(t, post.ThumbnailURL)
	thumb := env.do(t, http.MethodGet, post.ThumbnailURL, "", nil)
	require.Equal(t, fiber.StatusOK, thumb.StatusCode)
	assert.Equal(t, "image/jpeg", thumb.Header.Get("Content-Type"))
}

func TestCreatePost_RejectsNonImageUpload(t *testing.T) {
	env := newTestEnv(t)
	leo := env.createUser(t, "leo", false)

	body, contentType := multipartPost(t, map[string]string{"text": "broken"}, []byte("not an image"))
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, leo))
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[models.ErrorResponse](t, resp).Fields, "image")

	var count int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetPost(t *testing.T) {
	env := newTestEnv(t)
	leo := env.createUser(t, "leo", false)
	posts := env.createPosts(t, leo, nil, 3)
	require.NoError(t, env.db.Create(&models.Comment{PostID: posts[0].ID, AuthorID: leo.ID, Text: "first!"}).Error)

	resp := env.do(t, http.MethodGet, postPath(posts[0].ID), "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	detail := decode[models.PostDetail](t, resp)
	assert.Equal(t, posts[0].Text, detail.Post.Text)
	assert.Equal(t, int64(3), detail.AuthorPostCount)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "first!", detail.Comments[0].Text)

	resp = env.do(t, http.MethodGet, "/api/posts/999", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/posts/abc", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReadEndpoints_HideAuthorEmail(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	group := env.createGroup(t, "cats")
	post := env.createPosts(t, alice, group, 1)[0]
	require.NoError(t, env.db.Create(&models.Comment{PostID: post.ID, AuthorID: alice.ID, Text: "mine"}).Error)
	require.NoError(t, env.db.Create(&models.Follow{UserID: bob.ID, AuthorID: alice.ID}).Error)

	paths := []struct {
		path  string
		token string
	}{
		{"/", ""},
		{postPath(post.ID), ""},
		{"/api/profiles/alice", ""},
		{"/api/groups/cats/posts", ""},
		{"/api/follow", tokenFor(t, bob)},
	}
	for _, tt := range paths {
		t.Run(tt.path, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), `"alice"`)
			assert.NotContains(t, string(body), "alice@example.com")
		})
	}
}

func TestUpdatePost(t *testing.T) {
	env := newTestEnv(t)
	leo := env.createUser(t, "leo", false)
	mia := env.createUser(t, "mia", false)
	group := env.createGroup(t, "cats")
	post := env.createPosts(t, leo, group, 1)[0]

	t.Run("non-author is redirected", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, postPath(post.ID), tokenFor(t, mia), fiber.Map{"text": "hijack"})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, postPath(post.ID), resp.Header.Get("Location"))

		var stored models.Post
		require.NoError(t, env.db.First(&stored, post.ID).Error)
		assert.Equal(t, post.Text, stored.Text)
	})

	t.Run("author edits text and clears group", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, postPath(post.ID), tokenFor(t, leo), fiber.Map{
			"text":        "edited",
			"clear_group": true,
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		updated := decode[models.Post](t, resp)
		assert.Equal(t, "edited", updated.Text)
		assert.Nil(t, updated.GroupID)
		assert.Equal(t, leo.ID, updated.AuthorID)
		assert.True(t, updated.CreatedAt.Equal(post.CreatedAt))
	})

	t.Run("missing post", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/api/posts/999", tokenFor(t, leo), fiber.Map{"text": "x"})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	leo := env.createUser(t, "leo", false)
	mia := env.createUser(t, "mia", false)
	post := env.createPosts(t, leo, nil, 1)[0]

	resp := env.do(t, http.MethodDelete, postPath(post.ID), tokenFor(t, mia), nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, postPath(post.ID), tokenFor(t, leo), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, postPath(post.ID), "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPostImages_RemovedWhenReplacedOrDeleted(t *testing.T) {
	env := newTestEnv(t)
	leo := env.createUser(t, "leo", false)
	token := tokenFor(t, leo)

	send := func(method, path string) models.Post {
		body, contentType := multipartPost(t, map[string]string{"text": "picture"}, pngBytes(t))
		req := httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Less(t, resp.StatusCode, 300)
		return decode[models.Post](t, resp)
	}
	status := func(url string) int {
		return env.do(t, http.MethodGet, url, "", nil).StatusCode
	}

	created := send(http.MethodPost, "/api/posts")
	require.Equal(t, fiber.StatusOK, status(created.ImageURL))

	replaced := send(http.MethodPut, postPath(created.ID))
	require.NotEqual(t, created.Image, replaced.Image)
	assert.Equal(t, fiber.StatusNotFound, status(created.ImageURL))
	assert.Equal(t, fiber.StatusNotFound, status(created.ThumbnailURL))
	assert.Equal(t, fiber.StatusOK, status(replaced.ImageURL))

	resp := env.do(t, http.MethodDelete, postPath(created.ID), token, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, status(replaced.ImageURL))
	assert.Equal(t, fiber.StatusNotFound, status(replaced.ThumbnailURL))
}

func TestCreateComment(t *testing.T) {
	env := newTestEnv(t)
	leo := env.createUser(t, "leo", false)
	mia := env.createUser(t, "mia", false)
	post := env.createPosts(t, leo, nil, 1)[0]
	token := tokenFor(t, mia)

	resp := env.do(t, http.MethodPost, postPath(post.ID)+"/comments", token, fiber.Map{"text": "nice"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	comment := decode[models.Comment](t, resp)
	assert.Equal(t, mia.ID, comment.AuthorID)
	assert.Equal(t, post.ID, comment.PostID)

	resp = env.do(t, http.MethodPost, postPath(post.ID)+"/comments", "", fiber.Map{"text": "nice"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, postPath(post.ID)+"/comments", token, fiber.Map{"text": ""})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/posts/999/comments", token, fiber.Map{"text": "nice"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
