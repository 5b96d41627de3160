package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paimon-guide/guide-app/internal/infra/persistence/database"
	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

type sessionRepository struct {
	coll *mongo.Collection
}

// NewSessionRepository 创建会话汇总仓储实例
func NewSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &sessionRepository{coll: db.Collection(database.CollectionSessions)}
}

// Upsert 使用聚合管道更新，在一条语句内完成"不存在则创建、存在则累加"。
// 管道内的 $visitCount 等引用的是更新前的值，因此可以据此判断是否回访。
func (r *sessionRepository) Upsert(ctx context.Context, t model.SessionTouch) (bool, error) {
	update := sessionUpsertPipeline(t)
	opts := options.Update().SetUpsert(true)

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": t.SessionID}, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// 两个并发 upsert 同时插入新会话时，后到者重试一次即成为普通更新
		res, err = r.coll.UpdateOne(ctx, bson.M{"_id": t.SessionID}, update, opts)
	}
	if err != nil {
		return false, fmt.Errorf("更新会话汇总失败: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

func sessionUpsertPipeline(t model.SessionTouch) mongo.Pipeline {
	prevVisits := bson.D{{Key: "$ifNull", Value: bson.A{"$visitCount", 0}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "firstVisit", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$firstVisit", t.At}}}},
			{Key: "lastVisit", Value: t.At},
			{Key: "visitCount", Value: bson.D{{Key: "$add", Value: bson.A{prevVisits, 1}}}},
			{Key: "pageViews", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$pageViews", 0}}}, 1,
			}}}},
			{Key: "totalTimeOnSite", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$totalTimeOnSite", 0}}}, t.TimeOnPage,
			}}}},
			{Key: "isReturning", Value: bson.D{{Key: "$gt", Value: bson.A{prevVisits, 0}}}},
			{Key: "isEngaged", Value: bson.D{{Key: "$or", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$isEngaged", false}}}, t.Engaged,
			}}}},
			// 客户端传入的字符串用 $literal 包裹，防止以 $ 开头的值被当成字段路径
			{Key: "deviceCategory", Value: literal(t.DeviceCategory)},
			{Key: "region", Value: literal(t.Region)},
			{Key: "lastPage", Value: literal(t.Page)},
			{Key: "lastPageType", Value: literal(t.PageType)},
		}}},
	}
}

func literal(v string) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

func (r *sessionRepository) FindByID(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	var s model.SessionSummary
	err := r.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, constant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询会话汇总失败: %w", err)
	}
	return &s, nil
}

func (r *sessionRepository) Delete(ctx context.Context, filter model.EventDeleteFilter) (int64, error) {
	query := buildSessionDeleteFilter(filter)
	if query == nil {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("批量删除会话汇总失败: %w", err)
	}
	return res.DeletedCount, nil
}
