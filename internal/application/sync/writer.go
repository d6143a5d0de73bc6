package sync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/sales"
	"github.com/sellerdesk/backend/internal/domain/shared"
	"github.com/sellerdesk/backend/internal/infrastructure/persistence"
)

// ProgressFunc is called after every committed sub-batch with that
// sub-batch's counts, so a long run's progress stays observable and partially
// durable even when the run later times out
type ProgressFunc func(fetched, created, updated, failed int)

// UpsertWriter performs idempotent create-or-update of fetched records.
// Records are processed in sub-batches, each inside its own narrow
// transaction; a single record's validation failure is recorded and isolated,
// never aborting the rest of the sub-batch. The upsert key is always
// (account_type, external_id), lookup-then-save, never insert-only.
type UpsertWriter struct {
	db           *persistence.Database
	subBatchSize int
	logger       *zap.Logger
}

// NewUpsertWriter creates a new UpsertWriter
func NewUpsertWriter(db *persistence.Database, subBatchSize int, logger *zap.Logger) *UpsertWriter {
	if subBatchSize <= 0 {
		subBatchSize = 100
	}
	return &UpsertWriter{
		db:           db,
		subBatchSize: subBatchSize,
		logger:       logger,
	}
}

// WriteCatalogRecords upserts one page of catalog records for the account
func (w *UpsertWriter) WriteCatalogRecords(ctx context.Context, account marketplace.AccountType, records []marketplace.CatalogRecord, progress ProgressFunc) (*BatchOutcome, error) {
	outcome := &BatchOutcome{}

	for start := 0; start < len(records); start += w.subBatchSize {
		end := start + w.subBatchSize
		if end > len(records) {
			end = len(records)
		}
		sub := records[start:end]

		var created, updated int
		var failed []RecordFailure

		err := w.db.Transaction(func(tx *gorm.DB) error {
			repo := persistence.NewGormCatalogItemRepository(tx)
			now := time.Now()

			for _, rec := range sub {
				existing, findErr := repo.FindByAccountAndExternalID(ctx, account, rec.ExternalID)
				switch {
				case findErr == nil:
					if applyErr := existing.ApplyRecord(rec, now); applyErr != nil {
						failed = append(failed, RecordFailure{ExternalID: rec.ExternalID, Reason: applyErr.Error()})
						continue
					}
					if saveErr := repo.Save(ctx, existing); saveErr != nil {
						return saveErr
					}
					updated++
				case errors.Is(findErr, shared.ErrNotFound):
					item, buildErr := marketplace.NewCatalogItemFromRecord(account, rec, now)
					if buildErr != nil {
						failed = append(failed, RecordFailure{ExternalID: rec.ExternalID, Reason: buildErr.Error()})
						continue
					}
					if saveErr := repo.Save(ctx, item); saveErr != nil {
						return saveErr
					}
					created++
				default:
					return findErr
				}
			}
			return nil
		})
		if err != nil {
			w.logger.Error("catalog sub-batch transaction failed",
				zap.String("account", account.String()),
				zap.Int("sub_batch_start", start),
				zap.Error(err),
			)
			return outcome, err
		}

		outcome.Created += created
		outcome.Updated += updated
		outcome.Failed = append(outcome.Failed, failed...)
		if progress != nil {
			progress(len(sub), created, updated, len(failed))
		}
	}

	return outcome, nil
}

// WriteOrderRecords upserts one page of order records for the account. Each
// order's lines are flattened into marketplace order line rows keyed by
// (account, order, line).
func (w *UpsertWriter) WriteOrderRecords(ctx context.Context, account marketplace.AccountType, orders []marketplace.OrderRecord, progress ProgressFunc) (*BatchOutcome, error) {
	outcome := &BatchOutcome{}

	for start := 0; start < len(orders); start += w.subBatchSize {
		end := start + w.subBatchSize
		if end > len(orders) {
			end = len(orders)
		}
		sub := orders[start:end]

		var created, updated int
		var failed []RecordFailure

		err := w.db.Transaction(func(tx *gorm.DB) error {
			repo := persistence.NewGormOrderLineRepository(tx)
			now := time.Now()

			for _, order := range sub {
				for _, line := range order.Lines {
					if line.ProductSKU == "" {
						failed = append(failed, RecordFailure{
							ExternalID: order.ExternalID,
							Reason:     "order line has no product sku",
						})
						continue
					}
					existing, findErr := repo.FindByNaturalKey(ctx, account, order.ExternalID, line.ExternalID)
					switch {
					case findErr == nil:
						existing.ApplyRecord(order, line, now)
						if saveErr := repo.Save(ctx, existing); saveErr != nil {
							return saveErr
						}
						updated++
					case errors.Is(findErr, shared.ErrNotFound):
						if saveErr := repo.Save(ctx, sales.NewOrderLineFromRecord(account, order, line, now)); saveErr != nil {
							return saveErr
						}
						created++
					default:
						return findErr
					}
				}
			}
			return nil
		})
		if err != nil {
			w.logger.Error("order sub-batch transaction failed",
				zap.String("account", account.String()),
				zap.Int("sub_batch_start", start),
				zap.Error(err),
			)
			return outcome, err
		}

		outcome.Created += created
		outcome.Updated += updated
		outcome.Failed = append(outcome.Failed, failed...)
		if progress != nil {
			progress(len(sub), created, updated, len(failed))
		}
	}

	return outcome, nil
}
