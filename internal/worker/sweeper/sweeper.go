package sweeper

import (
	"context"
	"time"

	expireRequests "github.com/glossworks/GW-SlotService/internal/usecase/expire_requests"
)

// ExpireRequestsUseCase интерфейс sweep use case
type ExpireRequestsUseCase interface {
	Execute(ctx context.Context) (*expireRequests.Response, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Sweeper периодически запускает expire_requests
// Проход идемпотентен, поэтому падение одного тика безопасно -
// следующий подберёт то же самое
type Sweeper struct {
	useCase  ExpireRequestsUseCase
	interval time.Duration
	logger   Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New создает новый sweeper с указанным интервалом между проходами
func New(useCase ExpireRequestsUseCase, interval time.Duration, logger Logger) *Sweeper {
	return &Sweeper{
		useCase:  useCase,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start запускает фоновый цикл; возвращается сразу
// Первый проход выполняется немедленно, чтобы не ждать целый интервал
// после рестарта сервиса
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Sweeper: started, interval=%s", s.interval)

	go func() {
		defer close(s.doneCh)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx)
			case <-s.stopCh:
				s.logger.Info("Sweeper: stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Sweeper: context cancelled")
				return
			}
		}
	}()
}

// Stop останавливает цикл и дожидается завершения текущего прохода
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Sweeper) runOnce(ctx context.Context) {
	resp, err := s.useCase.Execute(ctx)
	if err != nil {
		s.logger.Error("Sweeper: pass failed: %v", err)
		return
	}

	if len(resp.ExpiredIDs) > 0 || resp.Skipped > 0 {
		s.logger.Info("Sweeper: pass done, expired=%d skipped=%d", len(resp.ExpiredIDs), resp.Skipped)
	}
}
