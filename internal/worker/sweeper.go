package worker

import (
    "context"
    "sync"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"
    "go.uber.org/zap"

    "github.com/BuzzLyutic/tasklist-api/internal/model"
)

// Sweeper периодически удаляет давно закрытые задачи
type Sweeper struct {
    pool      *pgxpool.Pool
    logger    *zap.Logger
    interval  time.Duration
    retention int
    wg        sync.WaitGroup
    stop      chan struct{}
}

func NewSweeper(pool *pgxpool.Pool, logger *zap.Logger, interval time.Duration, retentionDays int) *Sweeper {
    return &Sweeper{
        pool:      pool,
        logger:    logger,
        interval:  interval,
        retention: retentionDays,
        stop:      make(chan struct{}),
    }
}

func (s *Sweeper) Start(ctx context.Context) {
    if s.retention <= 0 {
        s.logger.Info("Retention sweeper disabled")
        return
    }

    s.logger.Info("Starting retention sweeper",
        zap.Duration("interval", s.interval),
        zap.Int("retention_days", s.retention),
    )

    s.wg.Add(1)
    go s.run(ctx)
}

func (s *Sweeper) Stop() {
    s.logger.Info("Stopping retention sweeper...")
    close(s.stop)
    s.wg.Wait()
    s.logger.Info("Retention sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
    defer s.wg.Done()

    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()

    for {
        select {
        case <-s.stop:
            return
        case <-ctx.Done():
            return
        case <-ticker.C:
            if err := s.sweep(ctx); err != nil {
                s.logger.Error("sweep error", zap.Error(err))
            }
        }
    }
}

func (s *Sweeper) sweep(ctx context.Context) error {
    // Всё, что закрыто строго раньше cutoff, выносим
    cutoff := model.Today().AddDate(0, 0, -s.retention)

    tag, err := s.pool.Exec(ctx, `
        DELETE FROM tasks WHERE ClosedOn IS NOT NULL AND ClosedOn < $1
    `, cutoff)
    if err != nil {
        return err
    }

    if tag.RowsAffected() > 0 {
        s.logger.Info("Swept closed tasks",
            zap.Int64("removed", tag.RowsAffected()),
            zap.Time("cutoff", cutoff),
        )
    }
    return nil
}
