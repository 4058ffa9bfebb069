// Package dispatch owns at-least-once forwarding of qualifying orders to the
// availability provider. Jobs are persisted, deduplicated on a deterministic
// idempotency key and drained by a retrying worker.
package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shinertx/jenni-shopify/internal/jenni"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidOrder = errors.New("invalid_order")

const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Job is one queued order delivery. Failed jobs are retained for operator
// inspection, never silently dropped.
type Job struct {
	ID             snowflake.ID   `gorm:"primaryKey;column:id"`
	IdempotencyKey string         `gorm:"column:idempotency_key;uniqueIndex;not null"`
	StoreID        string         `gorm:"column:store_id;not null"`
	OrderID        string         `gorm:"column:order_id;not null"`
	Payload        datatypes.JSON `gorm:"column:payload;not null"`
	Status         string         `gorm:"column:status;not null;default:pending"`
	Attempts       int            `gorm:"column:attempts;not null;default:0"`
	LastError      string         `gorm:"column:last_error"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`
}

func (Job) TableName() string { return "order_jobs" }

// IdempotencyKey derives the dedupe key from the order origin and id, so
// replayed webhook deliveries collapse onto one job.
func IdempotencyKey(storeID, orderID string) string {
	sum := sha256.Sum256([]byte(storeID + ":" + orderID))
	return hex.EncodeToString(sum[:])
}

// Queue accepts orders and signals the worker. Duplicate submissions with
// the same (storeID, orderID) coalesce onto the existing job.
type Queue struct {
	db    *gorm.DB
	genID *snowflake.Node
	log   *zap.Logger
	wake  chan struct{}
}

func NewQueue(db *gorm.DB, genID *snowflake.Node, log *zap.Logger) *Queue {
	return &Queue{
		db:    db,
		genID: genID,
		log:   log.Named("dispatch.queue"),
		wake:  make(chan struct{}, 1),
	}
}

// Submit enqueues one order delivery. Insertion is idempotent on the derived
// key; a duplicate returns without creating a second job.
func (q *Queue) Submit(ctx context.Context, order jenni.Order) error {
	if order.StoreID == "" || order.OrderID == "" {
		return ErrInvalidOrder
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return err
	}

	job := Job{
		ID:             q.genID.Generate(),
		IdempotencyKey: IdempotencyKey(order.StoreID, order.OrderID),
		StoreID:        order.StoreID,
		OrderID:        order.OrderID,
		Payload:        datatypes.JSON(payload),
		Status:         StatusPending,
	}
	result := q.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(&job)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		q.log.Debug("duplicate order coalesced",
			zap.String("store_id", order.StoreID),
			zap.String("order_id", order.OrderID))
		return nil
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// UpdateStatus records a provider delivery-status callback on the retained
// job row.
func (q *Queue) UpdateStatus(ctx context.Context, storeID, orderID, status string) error {
	if storeID == "" || orderID == "" || status == "" {
		return ErrInvalidOrder
	}
	return q.db.WithContext(ctx).Model(&Job{}).
		Where("idempotency_key = ?", IdempotencyKey(storeID, orderID)).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (q *Queue) pending(ctx context.Context, limit int) ([]Job, error) {
	var jobs []Job
	err := q.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (q *Queue) markDelivered(ctx context.Context, job *Job) error {
	return q.db.WithContext(ctx).Model(job).
		Updates(map[string]any{
			"status":     StatusDelivered,
			"attempts":   job.Attempts,
			"last_error": "",
			"updated_at": time.Now().UTC(),
		}).Error
}

func (q *Queue) markFailed(ctx context.Context, job *Job, lastErr error) error {
	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	return q.db.WithContext(ctx).Model(job).
		Updates(map[string]any{
			"status":     StatusFailed,
			"attempts":   job.Attempts,
			"last_error": msg,
			"updated_at": time.Now().UTC(),
		}).Error
}
