package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/tasklist-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

// NextID - следующий свободный id: 1 для пустой таблицы, иначе max(Id)+1
func (r *TaskRepo) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(Id), 0) + 1 FROM tasks
	`).Scan(&id)
	return id, err
}

// Add выделяет id через NextID и вставляет строку. Два шага не атомарны:
// конкурентные Add могут взять один id (нарушение PK -> ErrorConflict)
// или пропустить id. Колонка ClosedOn не вставляется вовсе - новая задача
// всегда открыта, что бы ни передал вызывающий.
func (r *TaskRepo) Add(ctx context.Context, t model.Task) (model.Task, error) {
	id, err := r.NextID(ctx)
	if err != nil {
		return t, err
	}
	t.ID = id

	_, err = r.pool.Exec(ctx, `
		INSERT INTO tasks (Id, Name, Description, CreatedOn)
		VALUES ($1, $2, $3, $4)
	`, t.ID, t.Name, t.Description, t.CreatedOn)

	t.ClosedOn = nil
	return t, r.mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		SELECT Id, Name, Description, CreatedOn, ClosedOn
		FROM tasks
		WHERE Id = $1
	`, id))

	if err == pgx.ErrNoRows {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT Id, Name, Description, CreatedOn, ClosedOn
		FROM tasks
		ORDER BY Id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// MarkCompleted проставляет ClosedOn = сегодня (дата процесса, не вызывающего).
// Отсутствующий id - не ошибка: строк нет, менять нечего.
func (r *TaskRepo) MarkCompleted(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE tasks SET ClosedOn = $2 WHERE Id = $1
	`, id, model.Today())
	return err
}

// Delete удаляет строку. Отсутствующий id - тоже не ошибка.
func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE Id = $1", id)
	return err
}

// scanTask - общий маппинг строки в сущность: CHAR-колонка Name приходит
// с хвостовыми пробелами, NULL Description и NULL ClosedOn дают "" и nil.
func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var desc *string
	var closed *time.Time

	if err := row.Scan(&t.ID, &t.Name, &desc, &t.CreatedOn, &closed); err != nil {
		return t, err
	}

	t.Name = strings.TrimRight(t.Name, " ")
	if desc != nil {
		t.Description = *desc
	}
	t.ClosedOn = closed
	return t, nil
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
