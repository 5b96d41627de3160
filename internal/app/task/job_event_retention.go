package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/service/analytics"
)

// EventRetentionJob 按保留天数清理过期的访问事件，等价于一次 old 模式的重置
type EventRetentionJob struct {
	resetSvc   analytics.ResetService
	daysToKeep int
	logger     *slog.Logger
}

func NewEventRetentionJob(resetSvc analytics.ResetService, daysToKeep int, logger *slog.Logger) *EventRetentionJob {
	return &EventRetentionJob{resetSvc: resetSvc, daysToKeep: daysToKeep, logger: logger}
}

func (j *EventRetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := j.resetSvc.Reset(ctx, model.ResetRequest{
		ResetType:    constant.ResetTypeOld,
		DaysToKeep:   j.daysToKeep,
		ConfirmReset: true,
	})
	if err != nil {
		j.logger.Error("过期事件清理失败", slog.Any("error", err), slog.Int("days_to_keep", j.daysToKeep))
		return
	}

	j.logger.Info("过期事件清理完成",
		slog.Int("days_to_keep", j.daysToKeep),
		slog.Int64("deleted", result.DeletedEvents),
		slog.Int("archives", len(result.ArchivedObjects)),
	)
}

func (j *EventRetentionJob) Name() string {
	return "EventRetentionJob"
}
