package repo

import (
	"context"

	"github.com/BuzzLyutic/tasklist-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	NextID(ctx context.Context) (int64, error)
	Add(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	MarkCompleted(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
