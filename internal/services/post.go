package services

import (
	"context"
	"strings"

	"github.com/bloghub/apiserver/internal/store"
	"github.com/bloghub/apiserver/types"
	"github.com/sirupsen/logrus"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	List(ctx context.Context, filter store.PostFilter, offset, limit int, ascending bool) ([]types.Post, int, error)
	Get(ctx context.Context, id int) (types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id int) error
}

// MediaStorage defines the upload operations the post and user services need.
type MediaStorage interface {
	Upload(ctx context.Context, folder, filename string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

// ImageUpload carries an uploaded image through the service layer.
type ImageUpload struct {
	Filename    string
	Data        []byte
	ContentType string
}

// PostUpdate carries the optional fields of a post update. Nil fields are
// left untouched; a non-nil Slug overrides derivation, otherwise the slug
// keeps its creation-time value even when the title changes.
type PostUpdate struct {
	Title    *string
	Slug     *string
	Content  *string
	Category *string
}

const postImageFolder = "posts"

// PostService encapsulates post use-cases, including image hosting.
type PostService struct {
	repo   PostRepository
	media  MediaStorage
	events *EventPublisher
	log    *logrus.Logger
}

func NewPostService(repo PostRepository, media MediaStorage, events *EventPublisher, log *logrus.Logger) *PostService {
	return &PostService{repo: repo, media: media, events: events, log: log}
}

func (s *PostService) List(ctx context.Context, filter store.PostFilter, offset, limit int, ascending bool) ([]types.Post, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, filter, offset, limit, ascending)
}

func (s *PostService) Get(ctx context.Context, id int) (types.Post, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new post. The slug is derived from the title; an uploaded
// image is hosted and its URL recorded, otherwise the placeholder is used.
func (s *PostService) Create(ctx context.Context, post types.Post, image *ImageUpload) (types.Post, error) {
	post.Slug = Slugify(post.Title)

	if image != nil {
		url, err := s.media.Upload(ctx, postImageFolder, image.Filename, image.Data, image.ContentType)
		if err != nil {
			return types.Post{}, err
		}
		post.Image = url
	}
	if post.Image == "" {
		post.Image = types.DefaultPostImage
	}

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		return types.Post{}, err
	}

	s.events.Publish(ctx, EventPostCreated, created)
	return created, nil
}

// Update applies a partial update to a post, replacing the hosted image when
// a new one is supplied (the previous image object is removed).
func (s *PostService) Update(ctx context.Context, post types.Post, update PostUpdate, image *ImageUpload) (types.Post, error) {
	if update.Title != nil {
		post.Title = *update.Title
	}
	if update.Slug != nil {
		post.Slug = *update.Slug
	}
	if update.Content != nil {
		post.Content = *update.Content
	}
	if update.Category != nil {
		post.Category = *update.Category
	}

	if image != nil {
		previous := post.Image
		url, err := s.media.Upload(ctx, postImageFolder, image.Filename, image.Data, image.ContentType)
		if err != nil {
			return types.Post{}, err
		}
		post.Image = url
		if previous != "" && previous != types.DefaultPostImage {
			if err := s.media.Remove(ctx, previous); err != nil {
				s.log.WithError(err).WithField("url", previous).Warn("failed to remove replaced post image")
			}
		}
	}

	return s.repo.Update(ctx, post)
}

// Delete removes a post and, best effort, its hosted image. Comments that
// reference the post are left in place.
func (s *PostService) Delete(ctx context.Context, post types.Post) error {
	if err := s.repo.Delete(ctx, post.ID); err != nil {
		return err
	}

	if post.Image != "" && post.Image != types.DefaultPostImage {
		if err := s.media.Remove(ctx, post.Image); err != nil {
			s.log.WithError(err).WithField("url", post.Image).Warn("failed to remove deleted post image")
		}
	}

	s.events.Publish(ctx, EventPostDeleted, post)
	return nil
}

// Slugify derives a post's URL-safe slug from its title: lowercase, with
// runs of whitespace replaced by single hyphens.
func Slugify(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(title))), "-")
}
