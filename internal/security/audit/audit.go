// Package audit records security-relevant actions: every entry goes to the
// structured log, and actions tied to a known user are additionally written
// as user_log rows in the analytics store. The row write is best-effort;
// its failure never fails the request being audited.
package audit

import (
	"log/slog"

	"github.com/yourorg/adminbase/internal/domain"
)

// UserLogWriter appends user activity rows; satisfied by the telemetry
// service.
type UserLogWriter interface {
	RecordUserLog(userID, action, ipAddress, userAgent string) (*domain.UserLog, error)
}

type Recorder struct {
	logger *slog.Logger
	logs   UserLogWriter
}

func NewRecorder(logger *slog.Logger, logs UserLogWriter) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger, logs: logs}
}

// Record logs the action and, when the actor is known, appends a user_log
// row to the analytics store.
func (r *Recorder) Record(userID, action, ipAddress, userAgent string) {
	r.logger.Info("audit",
		slog.String("action", action),
		slog.String("user_id", userID),
		slog.String("ip_address", ipAddress),
	)

	if userID == "" || r.logs == nil {
		return
	}
	if _, err := r.logs.RecordUserLog(userID, action, ipAddress, userAgent); err != nil {
		r.logger.Warn("audit row not persisted",
			slog.String("action", action),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
