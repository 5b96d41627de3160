package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/service/news"
)

// BirthdayNewsJob 每日检查过生日的角色并生成公告
type BirthdayNewsJob struct {
	birthdaySvc news.BirthdayService
	logger      *slog.Logger
}

func NewBirthdayNewsJob(birthdaySvc news.BirthdayService, logger *slog.Logger) *BirthdayNewsJob {
	return &BirthdayNewsJob{birthdaySvc: birthdaySvc, logger: logger}
}

func (j *BirthdayNewsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := j.birthdaySvc.Check(ctx, false)
	if errors.Is(err, constant.ErrTaskRunning) {
		j.logger.Info("生日检查正在其他实例上执行，本次跳过")
		return
	}
	if err != nil {
		j.logger.Error("生日公告任务执行失败", slog.Any("error", err))
		return
	}

	j.logger.Info("生日公告任务执行完成",
		slog.String("date", result.Date),
		slog.Int("matched", result.Matched),
		slog.Int("generated", result.Generated),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
	)
}

func (j *BirthdayNewsJob) Name() string {
	return "BirthdayNewsJob"
}
