package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/eduline/billing-service/internal/domain"
)

// Коды ошибок PostgreSQL
const (
	pgForeignKeyViolation = "23503"
)

// PostgresContentRepository хранилище учебного контента в PostgreSQL
type PostgresContentRepository struct {
	db *sqlx.DB
}

// NewPostgresContentRepository создает хранилище контента в PostgreSQL
func NewPostgresContentRepository(db *sqlx.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

// UpsertCourse создает или обновляет курс по slug
func (r *PostgresContentRepository) UpsertCourse(ctx context.Context, course *domain.Course) error {
	if course == nil || course.Slug == "" {
		return domain.ErrInvalidInput
	}

	gradeLevels, err := json.Marshal(course.GradeLevels)
	if err != nil {
		return fmt.Errorf("failed to encode grade levels: %w", err)
	}
	tags, err := json.Marshal(course.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO courses (slug, title, subject, grade_levels, description, tags, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (slug) DO UPDATE SET
			title        = EXCLUDED.title,
			subject      = EXCLUDED.subject,
			grade_levels = EXCLUDED.grade_levels,
			description  = EXCLUDED.description,
			tags         = EXCLUDED.tags,
			updated_at   = now()`

	_, err = r.db.ExecContext(ctx, query,
		course.Slug, course.Title, course.Subject,
		gradeLevels, course.Description, tags,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert course %s: %w", course.Slug, err)
	}
	return nil
}

// UpsertLesson создает или обновляет урок по slug.
// Нарушение внешнего ключа на курс превращается в ErrInvalidInput.
func (r *PostgresContentRepository) UpsertLesson(ctx context.Context, lesson *domain.Lesson) error {
	if lesson == nil || lesson.Slug == "" {
		return domain.ErrInvalidInput
	}

	query := `
		INSERT INTO lessons (slug, course_slug, title, position, body, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (slug) DO UPDATE SET
			course_slug = EXCLUDED.course_slug,
			title       = EXCLUDED.title,
			position    = EXCLUDED.position,
			body        = EXCLUDED.body,
			updated_at  = now()`

	_, err := r.db.ExecContext(ctx, query,
		lesson.Slug, lesson.CourseSlug, lesson.Title, lesson.Position, lesson.Body,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("%w: lesson %s references unknown course %s", domain.ErrInvalidInput, lesson.Slug, lesson.CourseSlug)
		}
		return fmt.Errorf("failed to upsert lesson %s: %w", lesson.Slug, err)
	}
	return nil
}

// CourseExists сообщает, есть ли курс с таким slug
func (r *PostgresContentRepository) CourseExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM courses WHERE slug = $1)`
	if err := r.db.GetContext(ctx, &exists, query, slug); err != nil {
		return false, fmt.Errorf("failed to check course %s: %w", slug, err)
	}
	return exists, nil
}

// CountCourses возвращает количество курсов
func (r *PostgresContentRepository) CountCourses(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// CountLessons возвращает количество уроков
func (r *PostgresContentRepository) CountLessons(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM lessons`); err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}
