// Package audit appends domain events to the document log store.
//
// Audit writes are best-effort by contract: the triggering operation has
// already committed by the time Record is called, and a failed write is
// logged but never surfaced to the caller.
package audit

import (
	"context"
	"time"

	"campusevents/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Recorder appends audit records. Implementations must not return
// errors to callers; failures are reported out-of-band.
type Recorder interface {
	Record(ctx context.Context, action, userID string, meta map[string]any)
}

// writeTimeout bounds each append so a slow sink cannot hold up the
// request goroutine it runs on.
const writeTimeout = 3 * time.Second

// MongoRecorder appends audit records to a Mongo collection.
type MongoRecorder struct {
	logs   *mongo.Collection
	log    *zap.Logger
	source string
}

// NewMongoRecorder builds a Recorder writing to the "logs" collection
// of the given database. Source tags which binary produced the record.
func NewMongoRecorder(client *mongo.Client, dbName, source string, log *zap.Logger) *MongoRecorder {
	return &MongoRecorder{
		logs:   client.Database(dbName).Collection("logs"),
		log:    log,
		source: source,
	}
}

// Record appends one audit record. Errors are logged and swallowed.
func (r *MongoRecorder) Record(ctx context.Context, action, userID string, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	rec := model.AuditRecord{
		Action:    action,
		UserID:    userID,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
		Source:    r.source,
	}

	// Detach from the request context: the primary operation already
	// committed, so its cancellation must not abort the audit write.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if _, err := r.logs.InsertOne(ctx, rec); err != nil {
		r.log.Warn("audit write failed",
			zap.String("action", action),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// Nop is a Recorder that discards everything. Used in tests and when
// no log store is configured.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, string, string, map[string]any) {}
