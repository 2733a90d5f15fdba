package event

import (
	"context"

	"github.com/courier/backend/internal/domain/guide"
	"github.com/courier/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CompletionListener consumes guide operation completion events. Each
// lifecycle operation, successful or failed, emits one; this listener
// turns them into an audit log stream that stands in for the refresh
// signal a front end would subscribe to.
type CompletionListener struct {
	logger *zap.Logger
}

// NewCompletionListener creates a new CompletionListener
func NewCompletionListener(logger *zap.Logger) *CompletionListener {
	return &CompletionListener{logger: logger.Named("guide-ops")}
}

// Handle implements shared.EventHandler
func (l *CompletionListener) Handle(_ context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*guide.OperationCompletedEvent)
	if !ok {
		return nil
	}

	fields := []zap.Field{
		zap.String("guide_id", completed.GuideID.String()),
		zap.String("operation", completed.Operation),
	}
	if completed.Succeeded {
		l.logger.Info("guide operation completed", fields...)
		return nil
	}

	fields = append(fields, zap.String("error_code", completed.ErrorCode))
	if completed.ErrorCode == "RECONCILIATION" {
		// stock moved but the record write failed; the operator must
		// verify inventory manually
		l.logger.Error("guide operation requires manual reconciliation", fields...)
		return nil
	}
	l.logger.Warn("guide operation failed", fields...)
	return nil
}

// EventTypes implements shared.EventHandler
func (l *CompletionListener) EventTypes() []string {
	return []string{guide.EventTypeOperationCompleted}
}

var _ shared.EventHandler = (*CompletionListener)(nil)
