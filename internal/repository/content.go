package repository

import (
	"context"
	"sync"

	"github.com/eduline/billing-service/internal/domain"
)

// ContentRepository интерфейс хранилища учебного контента
type ContentRepository interface {
	// UpsertCourse создает или обновляет курс по slug
	UpsertCourse(ctx context.Context, course *domain.Course) error
	// UpsertLesson создает или обновляет урок по slug
	UpsertLesson(ctx context.Context, lesson *domain.Lesson) error
	// CourseExists сообщает, есть ли курс с таким slug
	CourseExists(ctx context.Context, slug string) (bool, error)
	// CountCourses возвращает количество курсов
	CountCourses(ctx context.Context) (int, error)
	// CountLessons возвращает количество уроков
	CountLessons(ctx context.Context) (int, error)
}

// InMemoryContentRepository хранилище контента в памяти
type InMemoryContentRepository struct {
	mu      sync.RWMutex
	courses map[string]*domain.Course
	lessons map[string]*domain.Lesson
}

// NewInMemoryContentRepository создает хранилище контента в памяти
func NewInMemoryContentRepository() *InMemoryContentRepository {
	return &InMemoryContentRepository{
		courses: make(map[string]*domain.Course),
		lessons: make(map[string]*domain.Lesson),
	}
}

// UpsertCourse создает или обновляет курс
func (r *InMemoryContentRepository) UpsertCourse(_ context.Context, course *domain.Course) error {
	if course == nil || course.Slug == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *course
	r.courses[course.Slug] = &cp
	return nil
}

// UpsertLesson создает или обновляет урок. Урок без известного курса отклоняется.
func (r *InMemoryContentRepository) UpsertLesson(_ context.Context, lesson *domain.Lesson) error {
	if lesson == nil || lesson.Slug == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.courses[lesson.CourseSlug]; !ok {
		return domain.ErrInvalidInput
	}

	cp := *lesson
	r.lessons[lesson.Slug] = &cp
	return nil
}

// CourseExists сообщает, есть ли курс с таким slug
func (r *InMemoryContentRepository) CourseExists(_ context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.courses[slug]
	return ok, nil
}

// CountCourses возвращает количество курсов
func (r *InMemoryContentRepository) CountCourses(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.courses), nil
}

// CountLessons возвращает количество уроков
func (r *InMemoryContentRepository) CountLessons(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lessons), nil
}
