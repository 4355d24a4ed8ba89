package domain

import "time"

// Course учебный курс, загружаемый из статических JSON-фикстур
type Course struct {
	Slug        string   `json:"slug" db:"slug" validate:"required"`
	Title       string   `json:"title" db:"title" validate:"required"`
	Subject     string   `json:"subject" db:"subject" validate:"required"`
	GradeLevels []int    `json:"grade_levels" validate:"min=1,dive,gte=0,lte=12"`
	Description string   `json:"description" db:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// Lesson урок внутри курса
type Lesson struct {
	Slug       string `json:"slug" db:"slug" validate:"required"`
	CourseSlug string `json:"course_slug" db:"course_slug" validate:"required"`
	Title      string `json:"title" db:"title" validate:"required"`
	Position   int    `json:"position" db:"position" validate:"gte=0"`
	Body       string `json:"body" db:"body"`
}

// ImportStats итоги одного запуска импорта контента
type ImportStats struct {
	Courses int `json:"courses"`
	Lessons int `json:"lessons"`
	Skipped int `json:"skipped"`
}

// ImportResult ответ эндпоинта импорта
type ImportResult struct {
	RunID      string      `json:"run_id"`
	Success    bool        `json:"success"`
	DryRun     bool        `json:"dry_run"`
	Stats      ImportStats `json:"stats"`
	DurationMs int64       `json:"duration_ms"`
	StartedAt  time.Time   `json:"started_at"`
}
