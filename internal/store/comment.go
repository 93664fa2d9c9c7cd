package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bloghub/apiserver/types"
)

// CommentRepository handles persistence for comments and their likes.
type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentColumns = `id, user_id, post_id, content, number_of_likes, created_at, updated_at`

func scanComment(row interface{ Scan(dest ...any) error }) (types.Comment, error) {
	var comment types.Comment
	err := row.Scan(
		&comment.ID,
		&comment.UserID,
		&comment.PostID,
		&comment.Content,
		&comment.NumberOfLikes,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	return comment, err
}

func (r *CommentRepository) Get(ctx context.Context, id int) (types.Comment, error) {
	const query = `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE id = $1`
	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Comment{}, ErrNotFound
		}
		return types.Comment{}, err
	}
	if comment.Likes, err = r.likes(ctx, comment.ID); err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}

// List returns a page of all comments sorted by creation time, plus the
// total count. Used by the admin view.
func (r *CommentRepository) List(ctx context.Context, offset, limit int, ascending bool) ([]types.Comment, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	const countQuery = `SELECT COUNT(1) FROM comments`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	listQuery := `
		SELECT ` + commentColumns + `
		FROM comments
		ORDER BY created_at ` + direction + `
		OFFSET $1 LIMIT $2`
	comments, err := r.queryComments(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ListByPost returns all comments of a post, newest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]types.Comment, error) {
	const query = `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at DESC`
	return r.queryComments(ctx, query, postID)
}

func (r *CommentRepository) queryComments(ctx context.Context, query string, args ...any) ([]types.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]types.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range comments {
		if comments[i].Likes, err = r.likes(ctx, comments[i].ID); err != nil {
			return nil, err
		}
	}
	return comments, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	const query = `
		INSERT INTO comments (user_id, post_id, content, number_of_likes, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		comment.UserID,
		comment.PostID,
		comment.Content,
		comment.CreatedAt,
		comment.UpdatedAt,
	).Scan(&comment.ID); err != nil {
		return types.Comment{}, err
	}
	comment.Likes = []int{}
	comment.NumberOfLikes = 0
	return comment, nil
}

// UpdateContent replaces the comment body.
func (r *CommentRepository) UpdateContent(ctx context.Context, id int, content string) (types.Comment, error) {
	const query = `
		UPDATE comments
		SET content = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, content, time.Now(), id)
	if err != nil {
		return types.Comment{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Comment{}, err
	}
	if affected == 0 {
		return types.Comment{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *CommentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM comments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike adds userID to the comment's likes set, or removes it when
// already present. The membership change and the number_of_likes counter
// move in one transaction so the counter always equals the set size.
func (r *CommentRepository) ToggleLike(ctx context.Context, id, userID int) (types.Comment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Comment{}, err
	}
	defer tx.Rollback()

	var exists bool
	const checkQuery = `
		SELECT EXISTS (
			SELECT 1 FROM comments WHERE id = $1
		)`
	if err := tx.QueryRowContext(ctx, checkQuery, id).Scan(&exists); err != nil {
		return types.Comment{}, err
	}
	if !exists {
		return types.Comment{}, ErrNotFound
	}

	const deleteQuery = `DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`
	result, err := tx.ExecContext(ctx, deleteQuery, id, userID)
	if err != nil {
		return types.Comment{}, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return types.Comment{}, err
	}
	if removed == 0 {
		const insertQuery = `INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, insertQuery, id, userID); err != nil {
			return types.Comment{}, err
		}
	}

	const syncQuery = `
		UPDATE comments
		SET number_of_likes = (
			SELECT COUNT(1) FROM comment_likes WHERE comment_id = $1
		),
			updated_at = $2
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, syncQuery, id, time.Now()); err != nil {
		return types.Comment{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Comment{}, err
	}
	return r.Get(ctx, id)
}

func (r *CommentRepository) likes(ctx context.Context, commentID int) ([]int, error) {
	const query = `SELECT user_id FROM comment_likes WHERE comment_id = $1 ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	likes := make([]int, 0)
	for rows.Next() {
		var userID int
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		likes = append(likes, userID)
	}
	return likes, rows.Err()
}
