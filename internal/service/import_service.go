package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/internal/metrics"
	"github.com/eduline/billing-service/internal/repository"
	"github.com/eduline/billing-service/pkg/logger"
)

const (
	coursesFixtureFile = "courses.json"
	lessonsFixtureFile = "lessons.json"
)

// ImportService загружает учебный контент из JSON-фикстур в хранилище.
// Невалидные записи пропускаются, а не валят весь импорт.
type ImportService struct {
	repo        repository.ContentRepository
	fixturesDir string
	validate    *validator.Validate
	metrics     metrics.BillingMetrics
	log         *logger.Logger
}

// NewImportService создает сервис импорта контента
func NewImportService(repo repository.ContentRepository, fixturesDir string, m metrics.BillingMetrics, log *logger.Logger) *ImportService {
	return &ImportService{
		repo:        repo,
		fixturesDir: fixturesDir,
		validate:    validator.New(),
		metrics:     m,
		log:         log,
	}
}

// Run выполняет импорт. В режиме dryRun фикстуры читаются и валидируются,
// но хранилище не изменяется.
func (s *ImportService) Run(ctx context.Context, dryRun bool) (*domain.ImportResult, error) {
	started := time.Now()
	result := &domain.ImportResult{
		RunID:     uuid.New().String(),
		DryRun:    dryRun,
		StartedAt: started.UTC(),
	}

	courses, err := loadFixture[domain.Course](filepath.Join(s.fixturesDir, coursesFixtureFile))
	if err != nil {
		s.metrics.IncImportRun(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to load courses fixture: %w", err)
	}
	lessons, err := loadFixture[domain.Lesson](filepath.Join(s.fixturesDir, lessonsFixtureFile))
	if err != nil {
		s.metrics.IncImportRun(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to load lessons fixture: %w", err)
	}

	importedCourses := make(map[string]bool)

	for i := range courses {
		course := &courses[i]
		if err := s.validate.Struct(course); err != nil {
			s.log.Warn("Skipping invalid course %q: %v", course.Slug, err)
			result.Stats.Skipped++
			continue
		}
		if !dryRun {
			if err := s.repo.UpsertCourse(ctx, course); err != nil {
				s.metrics.IncImportRun(metrics.OutcomeError)
				return nil, fmt.Errorf("failed to import course %s: %w", course.Slug, err)
			}
		}
		importedCourses[course.Slug] = true
		result.Stats.Courses++
	}

	for i := range lessons {
		lesson := &lessons[i]
		if err := s.validate.Struct(lesson); err != nil {
			s.log.Warn("Skipping invalid lesson %q: %v", lesson.Slug, err)
			result.Stats.Skipped++
			continue
		}
		known := importedCourses[lesson.CourseSlug]
		if !known {
			// Курс мог быть загружен предыдущим запуском
			exists, err := s.repo.CourseExists(ctx, lesson.CourseSlug)
			if err != nil {
				s.metrics.IncImportRun(metrics.OutcomeError)
				return nil, fmt.Errorf("failed to check course %s: %w", lesson.CourseSlug, err)
			}
			known = exists
		}
		if !known {
			s.log.Warn("Skipping lesson %q: unknown course %q", lesson.Slug, lesson.CourseSlug)
			result.Stats.Skipped++
			continue
		}
		if !dryRun {
			if err := s.repo.UpsertLesson(ctx, lesson); err != nil {
				s.metrics.IncImportRun(metrics.OutcomeError)
				return nil, fmt.Errorf("failed to import lesson %s: %w", lesson.Slug, err)
			}
		}
		result.Stats.Lessons++
	}

	result.Success = true
	result.DurationMs = time.Since(started).Milliseconds()
	s.metrics.IncImportRun(metrics.OutcomeOK)
	s.log.Info("Content import %s finished: %d courses, %d lessons, %d skipped (dry_run=%v)",
		result.RunID, result.Stats.Courses, result.Stats.Lessons, result.Stats.Skipped, dryRun)

	return result, nil
}

// loadFixture читает JSON-массив записей из файла
func loadFixture[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return items, nil
}
