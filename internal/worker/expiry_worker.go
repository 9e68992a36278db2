// Package worker runs the background sweeps that keep the ledger tidy.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/domain"
)

// ExpiryWorker cancels pending transactions whose payment window has lapsed
// without a gateway callback, freeing the (booking, type) slot for a new
// attempt.
type ExpiryWorker struct {
	uow       application.UnitOfWork
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewExpiryWorker(uow application.UnitOfWork, interval time.Duration, batchSize int, logger *slog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		uow:       uow,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (w *ExpiryWorker) Start(ctx context.Context) {
	w.logger.Info("expiry worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiry worker stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	var expired []*domain.Transaction
	err := w.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		var err error
		expired, err = repos.Transactions.FindExpiredPending(ctx, time.Now(), w.batchSize)
		return err
	})
	if err != nil {
		w.logger.Error("expiry sweep failed", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	var cancelled int
	for _, txn := range expired {
		if err := w.cancelExpired(ctx, txn.Ref); err != nil {
			w.logger.Error("failed to cancel expired transaction",
				"transaction_ref", txn.Ref,
				"error", err)
			continue
		}
		cancelled++
	}

	w.logger.Info("expiry sweep finished",
		"found", len(expired),
		"cancelled", cancelled)
}

// cancelExpired re-reads the transaction under lock so a callback racing the
// sweep wins: a transaction finalized in between is left alone.
func (w *ExpiryWorker) cancelExpired(ctx context.Context, ref string) error {
	return w.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		txn, err := repos.Transactions.FindByRefForUpdate(ctx, ref)
		if err != nil {
			return err
		}
		if !txn.IsExpired(time.Now()) {
			return nil
		}
		if err := txn.Cancel("payment window expired", time.Now()); err != nil {
			return err
		}
		return repos.Transactions.Update(ctx, txn)
	})
}
