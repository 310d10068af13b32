package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CapacityReconciler пересчитывает места всех постов
type CapacityReconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// Reconciler периодически сверяет approved_student с подтверждёнными записями
type Reconciler struct {
	capacity CapacityReconciler
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewReconciler(capacity CapacityReconciler, interval time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		capacity: capacity,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает сверку сразу и затем каждые interval
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.Info("Starting capacity reconciler", zap.Duration("interval", r.interval))
	go r.run(ctx)
}

// Stop останавливает сверку и ждёт завершения текущего прохода
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info("Stopping capacity reconciler")
		close(r.stopChan)
	})
	<-r.done
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)

	r.reconcile(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.reconcile(ctx)
		case <-r.stopChan:
			r.logger.Info("Capacity reconciler stopped")
			return
		case <-ctx.Done():
			r.logger.Info("Capacity reconciler cancelled")
			return
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	started := time.Now()

	processed, err := r.capacity.ReconcileAll(ctx)
	if err != nil {
		r.logger.Error("Capacity reconciliation failed",
			zap.Int("processed", processed),
			zap.Error(err),
		)
		return
	}

	r.logger.Info("Capacity reconciliation completed",
		zap.Int("posts", processed),
		zap.Duration("took", time.Since(started)),
	)
}
