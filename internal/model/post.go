package model

import "time"

// Post statuses.  Deleted posts are kept out of scope; deletion is physical.
const (
    PostStatusDraft     = "DRAFT"
    PostStatusPublished = "PUBLISHED"
)

// Post mirrors the `posts` table.  Tags are stored as a comma-separated
// string in the database and split at the repository boundary.
type Post struct {
    ID         uint64    `json:"id"`
    Title      string    `json:"title"`
    Content    string    `json:"content"`
    AuthorID   uint64    `json:"authorId"`
    AuthorName string    `json:"authorName"`
    Status     string    `json:"status"`
    Category   string    `json:"category"`
    Tags       []string  `json:"tags"`
    CreatedAt  time.Time `json:"createdAt"`
    UpdatedAt  time.Time `json:"updatedAt"`
}
