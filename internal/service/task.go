package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/BuzzLyutic/tasklist-api/internal/model"
	"github.com/BuzzLyutic/tasklist-api/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Add(ctx context.Context, t model.Task) (model.Task, error) {
	t.Name = strings.TrimSpace(t.Name) // CHAR-колонка все равно вернет имя без хвостовых пробелов
	if err := s.validate(t); err != nil {
		return t, err
	}

	if t.CreatedOn.IsZero() {
		t.CreatedOn = model.Today()
	}

	return s.repo.Add(ctx, t)
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	if filter.Status != nil && *filter.Status != model.StatusOpen && *filter.Status != model.StatusCompleted {
		return nil, ErrValidation
	}

	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Status == nil {
		return tasks, nil
	}

	// Статус - производное от ClosedOn, поэтому фильтруем уже загруженный срез,
	// а репозиторий остается на фиксированных CRUD-запросах
	filtered := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status() == *filter.Status {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (s *TaskService) MarkCompleted(ctx context.Context, id int64) error {
	return s.repo.MarkCompleted(ctx, id)
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

type Stats struct {
	Total     int   `json:"total"`
	Open      int   `json:"open"`
	Completed int   `json:"completed"`
	NextID    int64 `json:"next_id"`
}

func (s *TaskService) GetStats(ctx context.Context) (Stats, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	next, err := s.repo.NextID(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(tasks), NextID: next}
	for _, t := range tasks {
		if t.Completed() {
			stats.Completed++
		} else {
			stats.Open++
		}
	}
	return stats, nil
}

func (s *TaskService) validate(t model.Task) error {
	if t.Name == "" {
		return ErrValidation
	}
	if utf8.RuneCountInString(t.Name) > model.NameLength {
		return ErrValidation
	}
	return nil
}
