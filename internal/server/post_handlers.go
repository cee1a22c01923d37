package server

import (
	"io"
	"strconv"
	"strings"

	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// postForm is the decoded body of a create or edit request. Pointers stay nil
// for fields the client did not send.
type postForm struct {
	Text       *string `json:"text"`
	GroupID    *uint   `json:"group_id"`
	ClearGroup bool    `json:"clear_group"`
	Image      *string `json:"-"`
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// readPostForm decodes JSON or multipart bodies. A multipart `image` file is
// stored before the post is written; the returned reference is set on the form.
func (s *Server) readPostForm(c *fiber.Ctx) (*postForm, error) {
	if !isMultipart(c) {
		var form postForm
		if err := c.BodyParser(&form); err != nil {
			return nil, models.NewValidationError("Invalid request body")
		}
		return &form, nil
	}

	mf, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart body")
	}

	var form postForm
	if values, ok := mf.Value["text"]; ok && len(values) > 0 {
		text := values[0]
		form.Text = &text
	}
	if values, ok := mf.Value["group"]; ok && len(values) > 0 {
		raw := strings.TrimSpace(values[0])
		if raw == "" {
			form.ClearGroup = true
		} else {
			id, convErr := strconv.ParseUint(raw, 10, 32)
			if convErr != nil || id == 0 {
				return nil, models.NewFieldValidationError("group", "Select a valid group")
			}
			groupID := uint(id)
			form.GroupID = &groupID
		}
	}

	if files := mf.File["image"]; len(files) > 0 {
		fh := files[0]
		if fh.Size > s.assets.MaxBytes {
			return nil, models.NewFieldValidationError("image", "File too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		defer func() { _ = f.Close() }()

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		ref, err := s.assets.Save(c.UserContext(), storage.UploadInput{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Content:     content,
		})
		if err != nil {
			return nil, err
		}
		form.Image = &ref
	}
	return &form, nil
}

func (s *Server) discardUpload(c *fiber.Ctx, form *postForm) {
	if form != nil && form.Image != nil {
		_ = s.assets.Delete(c.UserContext(), *form.Image)
	}
}

func redirectToPost(c *fiber.Ctx, postID uint) error {
	return c.Redirect("/api/posts/"+strconv.FormatUint(uint64(postID), 10), fiber.StatusFound)
}

// Index handles GET / and GET /api/posts
// @Summary Global feed
// @Description Every post, newest first. Pages are cached until the cache is cleared.
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} service.PostPage
// @Router /posts [get]
func (s *Server) Index(c *fiber.Ctx) error {
	body, err := s.feedService.RenderIndex(c.UserContext(), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(body)
}

// GetPost handles GET /api/posts/:id
// @Summary Post detail
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Accepts JSON or multipart/form-data with an optional `image` file
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body object{text=string,group_id=int} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, err := s.readPostForm(c)
	if err != nil {
		return respondError(c, err)
	}

	in := service.CreatePostInput{
		AuthorID: currentUserID(c),
		GroupID:  form.GroupID,
	}
	if form.Text != nil {
		in.Text = *form.Text
	}
	if form.Image != nil {
		in.Image = *form.Image
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		s.discardUpload(c, form)
		return respondError(c, err)
	}

	s.clearFeedCache(c)
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit post
// @Description Only the author may edit. Anyone else is redirected to the post.
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{text=string,group_id=int,clear_group=bool} true "Changes"
// @Success 200 {object} models.Post
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	form, err := s.readPostForm(c)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		EditorID:   currentUserID(c),
		PostID:     id,
		Text:       form.Text,
		GroupID:    form.GroupID,
		ClearGroup: form.ClearGroup,
		Image:      form.Image,
	})
	if err != nil {
		s.discardUpload(c, form)
		if models.IsCode(err, models.CodePermissionDenied) {
			return redirectToPost(c, id)
		}
		return respondError(c, err)
	}

	s.clearFeedCache(c)
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Success 302
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	err = s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		EditorID: currentUserID(c),
		PostID:   id,
	})
	if err != nil {
		if models.IsCode(err, models.CodePermissionDenied) {
			return redirectToPost(c, id)
		}
		return respondError(c, err)
	}

	s.clearFeedCache(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Add comment
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: currentUserID(c),
		PostID:   postID,
		Text:     req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
