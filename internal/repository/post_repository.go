package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository/base"
	"github.com/google/uuid"
)

const postColumns = `
	id, owner_id, title, description, subject, location, grade, schedules,
	start_time, end_time, max_student, approved_student, visibility, created_at, updated_at`

type postRepo struct {
	base.Repository
}

func NewPostRepository(db base.DBTX) PostRepository {
	return &postRepo{Repository: base.NewRepository(db)}
}

func scanPost(row base.Scanner) (*model.Post, error) {
	var post model.Post
	err := row.Scan(
		&post.ID,
		&post.OwnerID,
		&post.Title,
		&post.Description,
		&post.Subject,
		&post.Location,
		&post.Grade,
		&post.Schedules,
		&post.StartTime,
		&post.EndTime,
		&post.MaxStudent,
		&post.ApprovedStudent,
		&post.Visibility,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Create создаёт пост, ID генерируется если не задан
func (r *postRepo) Create(ctx context.Context, post *model.Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}

	query := `
		INSERT INTO posts (id, owner_id, title, description, subject, location, grade, schedules,
			start_time, end_time, max_student, approved_student, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		post.ID,
		post.OwnerID,
		post.Title,
		post.Description,
		post.Subject,
		post.Location,
		post.Grade,
		post.Schedules,
		post.StartTime,
		post.EndTime,
		post.MaxStudent,
		post.ApprovedStudent,
		post.Visibility,
	).Scan(&post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

// GetByID получает пост по ID
func (r *postRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post by id: %w", err)
	}

	return post, nil
}

// List получает все посты, новые первыми
func (r *postRepo) List(ctx context.Context) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`

	rows, err := r.DB().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts, err := base.CollectRows(rows, scanPost)
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return posts, nil
}

// ListByOwner получает все посты репетитора
func (r *postRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.DB().Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list posts by owner: %w", err)
	}

	posts, err := base.CollectRows(rows, scanPost)
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return posts, nil
}

// Update сохраняет изменяемые поля поста
func (r *postRepo) Update(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET title = $2, description = $3, subject = $4, location = $5, grade = $6,
			schedules = $7, start_time = $8, end_time = $9, max_student = $10,
			visibility = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		post.ID,
		post.Title,
		post.Description,
		post.Subject,
		post.Location,
		post.Grade,
		post.Schedules,
		post.StartTime,
		post.EndTime,
		post.MaxStudent,
		post.Visibility,
	).Scan(&post.UpdatedAt)

	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return nil
}

// UpdateCapacity обновляет количество подтверждённых студентов и видимость
func (r *postRepo) UpdateCapacity(ctx context.Context, id uuid.UUID, approvedStudent int, visibility bool) error {
	query := `
		UPDATE posts
		SET approved_student = $2, visibility = $3, updated_at = NOW()
		WHERE id = $1
	`

	affected, err := r.ExecAffected(ctx, query, id, approvedStudent, visibility)
	if err != nil {
		return fmt.Errorf("update post capacity: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update post capacity: post %s not found", id)
	}

	return nil
}

// Delete удаляет пост. Бронирования не трогает.
func (r *postRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return affected > 0, nil
}
