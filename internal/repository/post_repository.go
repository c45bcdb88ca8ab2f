package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/thinknows/x-server/internal/model"
)

// PostRepo persists posts in the 'posts' table.
type PostRepo struct{ DB *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{DB: db} }

// PostFilter narrows List results.  Zero values mean "no constraint".
type PostFilter struct {
	AuthorID uint64
	Tag      string
	Category string
}

// Sort fields accepted by List; anything else falls back to created_at.
var postSortColumns = map[string]string{
	"title":      "title",
	"authorname": "author_name",
	"category":   "category",
	"updatedat":  "updated_at",
	"createdat":  "created_at",
}

// Create inserts a post and fills in its ID.
func (r *PostRepo) Create(ctx context.Context, p *model.Post) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO posts (title, content, author_id, author_name, status, category, tags)
		 VALUES (?,?,?,?,?,?,?)`,
		p.Title, p.Content, p.AuthorID, p.AuthorName, p.Status, p.Category, joinTags(p.Tags))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches one post. Returns ErrNotFound when absent.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (*model.Post, error) {
	p, err := scanPost(r.DB.QueryRowContext(ctx, selectPost+" WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// Update applies non-nil fields to the post with the given id.  Only the
// author may update a post; anyone else gets ErrForbidden.
func (r *PostRepo) Update(ctx context.Context, id, callerID uint64, title, content, category *string, tags []string) (*model.Post, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != callerID {
		return nil, ErrForbidden
	}
	if title != nil {
		p.Title = *title
	}
	if content != nil {
		p.Content = *content
	}
	if category != nil {
		p.Category = *category
	}
	if tags != nil {
		p.Tags = tags
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE posts SET title=?, content=?, category=?, tags=?, updated_at=NOW() WHERE id=?",
		p.Title, p.Content, p.Category, joinTags(p.Tags), id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a post.  Only the author may delete it.
func (r *PostRepo) Delete(ctx context.Context, id, callerID uint64) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.AuthorID != callerID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM posts WHERE id=?", id)
	return err
}

// List returns one page of posts matching the filter plus the total match
// count.  sortField is matched against the whitelist case-insensitively.
func (r *PostRepo) List(ctx context.Context, f PostFilter, sortField string, ascending bool, page, size int) ([]model.Post, int, error) {
	var (
		where []string
		args  []any
	)
	if f.AuthorID != 0 {
		where = append(where, "author_id=?")
		args = append(args, f.AuthorID)
	}
	if f.Tag != "" {
		where = append(where, "FIND_IN_SET(?, tags) > 0")
		args = append(args, f.Tag)
	}
	if f.Category != "" {
		where = append(where, "category=?")
		args = append(args, f.Category)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts"+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := postSortColumns[strings.ToLower(sortField)]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT ? OFFSET ?", selectPost, cond, col, dir)
	rows, err := r.DB.QueryContext(ctx, query, append(args, size, page*size)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, *p)
	}
	return posts, total, rows.Err()
}

const selectPost = `SELECT id, title, content, author_id, author_name,
	status, category, tags, created_at, updated_at FROM posts`

func scanPost(row rowScanner) (*model.Post, error) {
	var (
		p    model.Post
		tags sql.NullString
	)
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.AuthorName,
		&p.Status, &p.Category, &tags, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Tags = splitTags(tags.String)
	return &p, nil
}

func joinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
