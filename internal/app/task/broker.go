// internal/app/task/broker.go
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/service/analytics"
	"github.com/paimon-guide/guide-app/pkg/service/news"
)

// DefaultBirthdayCron 每天 00:05:00 执行生日检查
const DefaultBirthdayCron = "0 5 0 * * *"

// retentionCron 每天凌晨 3:30 清理过期事件
const retentionCron = "0 30 3 * * *"

// BrokerOptions 控制哪些周期任务会被注册
type BrokerOptions struct {
	BirthdayEnabled bool
	BirthdayCron    string
	RetentionDays   int // 0 表示不启用保留清理
}

// Broker 负责周期任务的调度和手动任务的后台执行。
type Broker struct {
	cron        *cron.Cron
	logger      *slog.Logger
	jobQueue    chan Job
	birthdaySvc news.BirthdayService
	resetSvc    analytics.ResetService
	opts        BrokerOptions
}

// NewBroker 是 Broker 的构造函数。
func NewBroker(birthdaySvc news.BirthdayService, resetSvc analytics.ResetService, opts BrokerOptions) *Broker {
	if opts.BirthdayCron == "" {
		opts.BirthdayCron = DefaultBirthdayCron
	}

	slogHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(slogHandler).With("system", "task_broker")

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
			cron.DelayIfStillRunning(cron.DefaultLogger),
		),
	)

	broker := &Broker{
		cron:        c,
		logger:      logger,
		jobQueue:    make(chan Job, 100),
		birthdaySvc: birthdaySvc,
		resetSvc:    resetSvc,
		opts:        opts,
	}
	broker.startWorkerPool()
	return broker
}

// startWorkerPool 启动固定数量的 worker 消费 jobQueue。
func (b *Broker) startWorkerPool() {
	workerCount := runtime.NumCPU()
	if workerCount <= 0 {
		workerCount = 4
	}
	b.logger.Info("Starting task worker pool", "concurrency", workerCount)

	for i := 0; i < workerCount; i++ {
		workerID := i + 1
		go func() {
			for job := range b.jobQueue {
				wrapped := cron.NewChain(
					NewPanicRecoveryWrapper(b.logger),
					NewLoggingWrapper(b.logger),
				).Then(job)

				b.logger.Info("Worker picked up a job", "worker_id", workerID, "job_name", job.Name())
				wrapped.Run()
			}
			b.logger.Info("Worker stopped", "worker_id", workerID)
		}()
	}
}

// RegisterCronJobs 注册所有周期性任务，cron 表达式非法时返回错误。
func (b *Broker) RegisterCronJobs() error {
	b.logger.Info("Registering all periodic jobs...")

	if b.opts.BirthdayEnabled && b.birthdaySvc != nil {
		job := NewBirthdayNewsJob(b.birthdaySvc, b.logger)
		if _, err := b.cron.AddJob(b.opts.BirthdayCron, job); err != nil {
			b.logger.Error("Failed to add 'BirthdayNewsJob'", slog.Any("error", err))
			return fmt.Errorf("注册生日公告任务失败: %w", err)
		}
		b.logger.Info("-> Successfully registered 'BirthdayNewsJob'", "schedule", b.opts.BirthdayCron)
	} else {
		b.logger.Info("-> Skipped 'BirthdayNewsJob' (disabled)")
	}

	if b.opts.RetentionDays > 0 && b.resetSvc != nil {
		job := NewEventRetentionJob(b.resetSvc, b.opts.RetentionDays, b.logger)
		if _, err := b.cron.AddJob(retentionCron, job); err != nil {
			b.logger.Error("Failed to add 'EventRetentionJob'", slog.Any("error", err))
			return fmt.Errorf("注册事件清理任务失败: %w", err)
		}
		b.logger.Info("-> Successfully registered 'EventRetentionJob'", "schedule", "every day at 3:30:00 AM", "days_to_keep", b.opts.RetentionDays)
	}

	b.logger.Info("All periodic jobs registered.")
	return nil
}

// Dispatch 将任务发送到队列中，队列已满时返回 ErrQueueFull 而不阻塞调用方。
func (b *Broker) Dispatch(job Job) error {
	select {
	case b.jobQueue <- job:
		return nil
	default:
		b.logger.Warn("Job queue is full, job rejected", "job_name", job.Name())
		return constant.ErrQueueFull
	}
}

// DispatchBirthdayCheck 将一次生日检查放入后台队列，由管理接口的异步模式调用。
func (b *Broker) DispatchBirthdayCheck() error {
	if b.birthdaySvc == nil {
		return fmt.Errorf("%w: 生日公告服务未初始化", constant.ErrBadRequest)
	}
	if err := b.Dispatch(NewBirthdayNewsJob(b.birthdaySvc, b.logger)); err != nil {
		return err
	}
	b.logger.Info("Successfully queued birthday news job")
	return nil
}

// Start 启动 cron 调度器。
func (b *Broker) Start() {
	b.logger.Info("Task broker started.")
	b.cron.Start()
}

// Stop 等待正在执行的 cron 任务结束后关闭 worker。
func (b *Broker) Stop() {
	b.logger.Info("Stopping task broker...")
	ctx := b.cron.Stop()
	<-ctx.Done()
	close(b.jobQueue)
	b.logger.Info("Task broker gracefully stopped.")
}

// CheckAndRunMissedBirthdayNews 启动时补跑一次当天的生日检查。
// 服务在定时点之后才启动时当天的公告不会丢失；已存在的公告会被跳过。
func (b *Broker) CheckAndRunMissedBirthdayNews() {
	if !b.opts.BirthdayEnabled || b.birthdaySvc == nil {
		return
	}
	b.logger.Info("Checking for missed birthday news...")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic recovered in missed birthday news job",
					slog.Any("panic", r),
					slog.String("stack_trace", string(debug.Stack())),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		result, err := b.birthdaySvc.Check(ctx, false)
		if errors.Is(err, constant.ErrTaskRunning) {
			b.logger.Info("Birthday check already running elsewhere, catch-up skipped.")
			return
		}
		if err != nil {
			b.logger.Error("Failed to run missed birthday news check", slog.Any("error", err))
			return
		}
		b.logger.Info("Birthday news catch-up finished",
			slog.String("date", result.Date),
			slog.Int("generated", result.Generated),
			slog.Int("skipped", result.Skipped),
		)
	}()
}
