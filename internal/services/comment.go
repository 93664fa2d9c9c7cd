package services

import (
	"context"

	"github.com/bloghub/apiserver/types"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Get(ctx context.Context, id int) (types.Comment, error)
	List(ctx context.Context, offset, limit int, ascending bool) ([]types.Comment, int, error)
	ListByPost(ctx context.Context, postID string) ([]types.Comment, error)
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
	UpdateContent(ctx context.Context, id int, content string) (types.Comment, error)
	Delete(ctx context.Context, id int) error
	ToggleLike(ctx context.Context, id, userID int) (types.Comment, error)
}

// CommentService encapsulates comment use-cases.
type CommentService struct {
	repo   CommentRepository
	events *EventPublisher
}

func NewCommentService(repo CommentRepository, events *EventPublisher) *CommentService {
	return &CommentService{repo: repo, events: events}
}

func (s *CommentService) Get(ctx context.Context, id int) (types.Comment, error) {
	return s.repo.Get(ctx, id)
}

func (s *CommentService) List(ctx context.Context, offset, limit int, ascending bool) ([]types.Comment, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit, ascending)
}

func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]types.Comment, error) {
	return s.repo.ListByPost(ctx, postID)
}

func (s *CommentService) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	created, err := s.repo.Create(ctx, comment)
	if err != nil {
		return types.Comment{}, err
	}
	s.events.Publish(ctx, EventCommentCreated, created)
	return created, nil
}

func (s *CommentService) UpdateContent(ctx context.Context, id int, content string) (types.Comment, error) {
	return s.repo.UpdateContent(ctx, id, content)
}

func (s *CommentService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// ToggleLike flips the caller's membership in the comment's likes set and
// returns the comment with the updated set and counter.
func (s *CommentService) ToggleLike(ctx context.Context, id, userID int) (types.Comment, error) {
	updated, err := s.repo.ToggleLike(ctx, id, userID)
	if err != nil {
		return types.Comment{}, err
	}
	s.events.Publish(ctx, EventCommentLiked, updated)
	return updated, nil
}
