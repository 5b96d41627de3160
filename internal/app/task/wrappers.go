/*
 * @Description: cron 任务装饰器：执行日志与 panic 恢复
 */
package task

import (
	"log/slog"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// JobWrapper 是 cron.JobWrapper 的别名
type JobWrapper = cron.JobWrapper

// NewLoggingWrapper 为每次执行分配一个 execution_id，并记录开始、结束和耗时。
func NewLoggingWrapper(logger *slog.Logger) JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			runLogger := logger.With(
				slog.String("job_name", jobName(j)),
				slog.String("execution_id", uuid.NewString()),
			)

			started := time.Now()
			runLogger.Info("Job execution started")
			j.Run()
			runLogger.Info("Job execution finished", slog.Duration("duration", time.Since(started)))
		})
	}
}

// NewPanicRecoveryWrapper 捕获任务中的 panic 并连同堆栈写入日志，进程继续运行。
func NewPanicRecoveryWrapper(logger *slog.Logger) JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Job panicked",
						slog.String("job_name", jobName(j)),
						slog.Any("panic", r),
						slog.String("stack_trace", string(debug.Stack())),
					)
				}
			}()
			j.Run()
		})
	}
}

// jobName 优先取 Name()，否则退回到反射得到的类型名
func jobName(j cron.Job) string {
	if named, ok := j.(interface{ Name() string }); ok {
		return named.Name()
	}
	t := reflect.TypeOf(j)
	if t.Kind() == reflect.Ptr {
		return t.Elem().String()
	}
	return t.String()
}
