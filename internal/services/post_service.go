package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/signalex/signalex-be/internal/models"
	"github.com/signalex/signalex-be/internal/signals"
)

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	GetPostByID(ctx context.Context, id string) (models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, title, body, authorID string) (models.Post, error)
	UpdatePost(ctx context.Context, id, title, body string) (models.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// PostService provides business logic for post management, publishing
// lifecycle signals the same way UserService does.
type PostService struct {
	db       *sql.DB
	registry *signals.Registry
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB, registry *signals.Registry) *PostService {
	return &PostService{db: db, registry: registry}
}

// GetPostByID retrieves a single post by its ID.
func (s *PostService) GetPostByID(ctx context.Context, id string) (models.Post, error) {
	var post models.Post
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, body, author_id, created_at, updated_at FROM posts WHERE id = ?", id)
	err := row.Scan(&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Post{}, fmt.Errorf("post with ID %s not found", id)
		}
		return models.Post{}, err
	}
	return post, nil
}

// GetAllPosts retrieves all posts, newest first.
func (s *PostService) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, body, author_id, created_at, updated_at FROM posts ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// CreatePost stores a new post and fires the post post-save signal with
// Created=true.
func (s *PostService) CreatePost(ctx context.Context, title, body, authorID string) (models.Post, error) {
	now := time.Now().UTC()
	post := models.Post{
		ID:        uuid.New().String(),
		Title:     title,
		Body:      body,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO posts(id, title, body, author_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)",
		post.ID, post.Title, post.Body, post.AuthorID, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return models.Post{}, err
	}

	if err := s.registry.PostSave(signals.SenderPost).Send(ctx, signals.Event{
		Sender:   signals.SenderPost,
		Instance: post,
		Created:  true,
	}); err != nil {
		return post, fmt.Errorf("post created but post-save failed: %w", err)
	}
	return post, nil
}

// UpdatePost updates a post's title and body and fires the post
// post-save signal with Created=false.
func (s *PostService) UpdatePost(ctx context.Context, id, title, body string) (models.Post, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE posts SET title = ?, body = ?, updated_at = ? WHERE id = ?",
		title, body, time.Now().UTC(), id)
	if err != nil {
		return models.Post{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Post{}, fmt.Errorf("post with ID %s not found", id)
	}

	post, err := s.GetPostByID(ctx, id)
	if err != nil {
		return models.Post{}, err
	}

	if err := s.registry.PostSave(signals.SenderPost).Send(ctx, signals.Event{
		Sender:   signals.SenderPost,
		Instance: post,
	}); err != nil {
		return post, fmt.Errorf("post updated but post-save failed: %w", err)
	}
	return post, nil
}

// DeletePost removes a post. The post pre-delete signal fires before
// the DELETE, so receivers observe the row while it still exists; a
// receiver failure aborts the deletion.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	post, err := s.GetPostByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.registry.PreDelete(signals.SenderPost).Send(ctx, signals.Event{
		Sender:   signals.SenderPost,
		Instance: post,
	}); err != nil {
		return fmt.Errorf("pre-delete aborted removal of post %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	return err
}
