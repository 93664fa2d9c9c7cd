package types

import "time"

// DefaultPostImage is the placeholder image URL used when a post is
// created without an uploaded image.
const DefaultPostImage = "https://www.hostinger.com/tutorials/wp-content/uploads/sites/2/2021/09/how-to-write-a-blog-post.png"

// Post represents a blog post owned by a single user.
type Post struct {
	// ID is the unique identifier of the post.
	ID int `json:"id" db:"id"`

	// UserID references the post's owning user.
	UserID int `json:"userId" db:"user_id"`

	// Title is the post title, unique across all posts.
	Title string `json:"title" db:"title"`

	// Slug is the URL-safe derivation of the title, unique across all posts.
	// It is derived once at creation and only changes when explicitly supplied.
	Slug string `json:"slug" db:"slug"`

	// Content is the post body.
	Content string `json:"content" db:"content"`

	// Category is the post's category label.
	Category string `json:"category" db:"category"`

	// Image is the public URL of the post's cover image.
	Image string `json:"image" db:"image"`

	// CreatedAt is the timestamp when the post was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the post.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
