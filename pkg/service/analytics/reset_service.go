/*
 * @Description: 统计数据重置服务，也被每日保留期任务复用
 */
package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/paimon-guide/guide-app/internal/pkg/event"
	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

// archiveBatchSize 每个归档对象包含的事件数上限
const archiveBatchSize = 5000

// EventArchiver 在删除旧事件前将其转存到外部存储，返回对象名
type EventArchiver interface {
	Archive(ctx context.Context, events []*model.AnalyticsEvent) (string, error)
}

// ResetService 统计数据重置服务接口
type ResetService interface {
	Reset(ctx context.Context, req model.ResetRequest) (*model.ResetResult, error)
}

type resetService struct {
	eventRepo   repository.AnalyticsEventRepository
	sessionRepo repository.SessionRepository
	archiver    EventArchiver
	publisher   EventPublisher
	batchSize   int
	now         func() time.Time
}

// NewResetService 创建重置服务实例，archiver 为 nil 时不归档
func NewResetService(
	eventRepo repository.AnalyticsEventRepository,
	sessionRepo repository.SessionRepository,
	archiver EventArchiver,
	publisher EventPublisher,
) ResetService {
	return &resetService{
		eventRepo:   eventRepo,
		sessionRepo: sessionRepo,
		archiver:    archiver,
		publisher:   publisher,
		batchSize:   archiveBatchSize,
		now:         time.Now,
	}
}

func (s *resetService) Reset(ctx context.Context, req model.ResetRequest) (*model.ResetResult, error) {
	if !req.ConfirmReset {
		return nil, constant.ErrResetNotConfirmed
	}

	result := &model.ResetResult{ResetType: req.ResetType}
	var err error
	switch req.ResetType {
	case constant.ResetTypeAll:
		err = s.deleteBoth(ctx, model.EventDeleteFilter{All: true}, result)
	case constant.ResetTypeTest:
		err = s.deleteBoth(ctx, model.EventDeleteFilter{TestTraffic: true}, result)
	case constant.ResetTypeOld:
		err = s.deleteOld(ctx, req.DaysToKeep, result)
	default:
		return nil, fmt.Errorf("%w: %q", constant.ErrInvalidResetType, req.ResetType)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[Analytics] 统计数据已重置: mode=%s events=%d sessions=%d archives=%d",
		result.ResetType, result.DeletedEvents, result.DeletedSessions, len(result.ArchivedObjects))
	if s.publisher != nil {
		s.publisher.Publish(event.AnalyticsEventsReset, result)
	}
	return result, nil
}

func (s *resetService) deleteBoth(ctx context.Context, filter model.EventDeleteFilter, result *model.ResetResult) error {
	n, err := s.eventRepo.Delete(ctx, filter)
	if err != nil {
		return err
	}
	result.DeletedEvents = n

	n, err = s.sessionRepo.Delete(ctx, filter)
	if err != nil {
		return err
	}
	result.DeletedSessions = n
	return nil
}

// deleteOld 只删除事件；配置了归档器时先分批归档，任一批失败都放弃删除
func (s *resetService) deleteOld(ctx context.Context, daysToKeep int, result *model.ResetResult) error {
	if daysToKeep == 0 {
		daysToKeep = constant.DefaultDaysToKeep
	}
	if daysToKeep < 1 {
		return newValidationError("daysToKeep", "必须大于等于 1")
	}
	cutoff := s.now().AddDate(0, 0, -daysToKeep)

	if s.archiver != nil {
		err := s.eventRepo.ScanBefore(ctx, cutoff, s.batchSize, func(batch []*model.AnalyticsEvent) error {
			object, err := s.archiver.Archive(ctx, batch)
			if err != nil {
				return err
			}
			result.ArchivedObjects = append(result.ArchivedObjects, object)
			return nil
		})
		if err != nil {
			return fmt.Errorf("归档旧事件失败，已取消删除: %w", err)
		}
	}

	n, err := s.eventRepo.Delete(ctx, model.EventDeleteFilter{CreatedBefore: cutoff})
	if err != nil {
		return err
	}
	result.DeletedEvents = n
	return nil
}
