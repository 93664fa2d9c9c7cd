package types

import "time"

// Comment represents a comment left on a post, with like tracking.
type Comment struct {
	// ID is the unique identifier of the comment.
	ID int `json:"id" db:"id"`

	// UserID references the comment's owning user.
	UserID int `json:"userId" db:"user_id"`

	// PostID is the identifier of the post the comment belongs to. It is
	// carried as an opaque reference: comments may outlive their post.
	PostID string `json:"postId" db:"post_id"`

	// Content is the comment body.
	Content string `json:"content" db:"content"`

	// Likes is the set of user ids that currently like the comment.
	Likes []int `json:"likes"`

	// NumberOfLikes is the denormalized size of the Likes set. It is kept
	// in sync with the set in the same transaction as every toggle.
	NumberOfLikes int `json:"numberOfLikes" db:"number_of_likes"`

	// CreatedAt is the timestamp when the comment was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the comment.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
