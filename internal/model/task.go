package model

import "time"

// NameLength - ширина колонки Name (CHAR) в схеме
const NameLength = 50

const (
	StatusOpen = "open"
	StatusCompleted = "completed"
)

type Task struct {
	ID int64 `json:"id"`
	Name string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedOn time.Time `json:"created_on"`
	ClosedOn *time.Time `json:"closed_on,omitempty"`
}

// Completed - статус задачи не хранится, а выводится из ClosedOn
func (t Task) Completed() bool {
	return t.ClosedOn != nil
}

func (t Task) Status() string {
	if t.Completed() {
		return StatusCompleted
	}
	return StatusOpen
}

type TaskFilter struct {
	Status *string
}

// Today возвращает календарную дату процесса (локальный день, полночь UTC) -
// в том же виде колонка DATE приходит из базы.
func Today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
