package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/thinknows/x-server/internal/model"
    "github.com/thinknows/x-server/internal/repository"
)

// PostHandler bundles dependencies for post endpoints.
type PostHandler struct {
    Posts *repository.PostRepo
}

func NewPostHandler(posts *repository.PostRepo) *PostHandler { return &PostHandler{Posts: posts} }

type createPostReq struct {
    Title    string   `json:"title"`
    Content  string   `json:"content"`
    Category string   `json:"category"`
    Tags     []string `json:"tags"`
    Status   string   `json:"status"`
}

type updatePostReq struct {
    Title    *string  `json:"title"`
    Content  *string  `json:"content"`
    Category *string  `json:"category"`
    Tags     []string `json:"tags"`
}

// pageResponse is the paging envelope for list endpoints.
type pageResponse struct {
    Content       any  `json:"content"`
    Page          int  `json:"page"`
    Size          int  `json:"size"`
    TotalPages    int  `json:"totalPages"`
    TotalElements int  `json:"totalElements"`
    HasPrevious   bool `json:"hasPrevious"`
    HasNext       bool `json:"hasNext"`
}

func newPageResponse(content any, page, size, total int) pageResponse {
    pages := 0
    if size > 0 {
        pages = (total + size - 1) / size
    }
    return pageResponse{
        Content:       content,
        Page:          page,
        Size:          size,
        TotalPages:    pages,
        TotalElements: total,
        HasPrevious:   page > 0,
        HasNext:       page+1 < pages,
    }
}

// Create makes a new post owned by the caller (protected).
func (h *PostHandler) Create(c echo.Context) error {
    var req createPostReq
    if err := c.Bind(&req); err != nil {
        return respondError(c, http.StatusBadRequest, "invalid body")
    }
    if strings.TrimSpace(req.Title) == "" {
        return respondError(c, http.StatusBadRequest, "Title is required")
    }
    if strings.TrimSpace(req.Content) == "" {
        return respondError(c, http.StatusBadRequest, "Content is required")
    }
    status := req.Status
    if status != model.PostStatusDraft {
        status = model.PostStatusPublished
    }

    post := &model.Post{
        Title:      req.Title,
        Content:    req.Content,
        AuthorID:   currentUserID(c),
        AuthorName: currentUsername(c),
        Status:     status,
        Category:   req.Category,
        Tags:       req.Tags,
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Posts.Create(ctx, post); err != nil {
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
    created, err := h.Posts.GetByID(ctx, post.ID)
    if err != nil {
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
    return respond(c, http.StatusOK, "Post created successfully", created)
}

// Get returns a single post by id.
func (h *PostHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return respondError(c, http.StatusBadRequest, "invalid post id")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    post, err := h.Posts.GetByID(ctx, id)
    switch {
    case err == nil:
        return respond(c, http.StatusOK, "Post retrieved successfully", post)
    case errors.Is(err, repository.ErrNotFound):
        return respondError(c, http.StatusNotFound, "Post not found")
    default:
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
}

// Update changes the caller's own post (protected).
func (h *PostHandler) Update(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return respondError(c, http.StatusBadRequest, "invalid post id")
    }
    var req updatePostReq
    if err := c.Bind(&req); err != nil {
        return respondError(c, http.StatusBadRequest, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    post, err := h.Posts.Update(ctx, id, currentUserID(c), req.Title, req.Content, req.Category, req.Tags)
    switch {
    case err == nil:
        return respond(c, http.StatusOK, "Post updated successfully", post)
    case errors.Is(err, repository.ErrNotFound):
        return respondError(c, http.StatusNotFound, "Post not found")
    case errors.Is(err, repository.ErrForbidden):
        return respondError(c, http.StatusForbidden, "You can only update your own posts")
    default:
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
}

// Delete removes the caller's own post (protected).
func (h *PostHandler) Delete(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return respondError(c, http.StatusBadRequest, "invalid post id")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    err = h.Posts.Delete(ctx, id, currentUserID(c))
    switch {
    case err == nil:
        return respond(c, http.StatusOK, "Post deleted successfully", nil)
    case errors.Is(err, repository.ErrNotFound):
        return respondError(c, http.StatusNotFound, "Post not found")
    case errors.Is(err, repository.ErrForbidden):
        return respondError(c, http.StatusForbidden, "You can only delete your own posts")
    default:
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
}

// List returns a page of posts.  Supported query params: page, size,
// sort ("field,asc|desc"), tag, category, authorId.
func (h *PostHandler) List(c echo.Context) error {
    page := queryInt(c, "page", 0)
    size := queryInt(c, "size", 10)
    if page < 0 {
        page = 0
    }
    if size < 1 || size > 100 {
        size = 10
    }

    sortField, ascending := parseSort(c.QueryParam("sort"))

    var filter repository.PostFilter
    filter.Tag = c.QueryParam("tag")
    filter.Category = c.QueryParam("category")
    if raw := c.QueryParam("authorId"); raw != "" {
        id, err := strconv.ParseUint(raw, 10, 64)
        if err != nil {
            return respondError(c, http.StatusBadRequest, "invalid authorId")
        }
        filter.AuthorID = id
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    posts, total, err := h.Posts.List(ctx, filter, sortField, ascending, page, size)
    if err != nil {
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
    if posts == nil {
        posts = []model.Post{}
    }
    return respond(c, http.StatusOK, "Posts retrieved successfully", newPageResponse(posts, page, size, total))
}

// ListByAuthor returns a page of one author's posts, newest first.
func (h *PostHandler) ListByAuthor(c echo.Context) error {
    authorID, err := strconv.ParseUint(c.Param("authorId"), 10, 64)
    if err != nil {
        return respondError(c, http.StatusBadRequest, "invalid author id")
    }
    page := queryInt(c, "page", 0)
    size := queryInt(c, "size", 10)
    if page < 0 {
        page = 0
    }
    if size < 1 || size > 100 {
        size = 10
    }
    sortField, ascending := parseSort(c.QueryParam("sort"))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    posts, total, err := h.Posts.List(ctx, repository.PostFilter{AuthorID: authorID}, sortField, ascending, page, size)
    if err != nil {
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
    if posts == nil {
        posts = []model.Post{}
    }
    return respond(c, http.StatusOK, "Posts retrieved successfully", newPageResponse(posts, page, size, total))
}

func queryInt(c echo.Context, name string, def int) int {
    raw := c.QueryParam(name)
    if raw == "" {
        return def
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return def
    }
    return n
}

// parseSort splits "field,asc" / "field,desc"; bare field means descending.
func parseSort(raw string) (string, bool) {
    if raw == "" {
        return "createdat", false
    }
    field, dir, found := strings.Cut(raw, ",")
    if !found {
        return field, false
    }
    return field, strings.EqualFold(dir, "asc")
}
