/*
 * @Description: 访问事件仓储的 MongoDB 实现
 */
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paimon-guide/guide-app/internal/infra/persistence/database"
	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

const defaultScanBatchSize = 1000

type analyticsEventRepository struct {
	coll *mongo.Collection
}

// NewAnalyticsEventRepository 创建事件仓储实例
func NewAnalyticsEventRepository(db *mongo.Database) repository.AnalyticsEventRepository {
	return &analyticsEventRepository{coll: db.Collection(database.CollectionEvents)}
}

func (r *analyticsEventRepository) Append(ctx context.Context, event *model.AnalyticsEvent) error {
	if event == nil {
		return fmt.Errorf("事件不能为空")
	}
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("写入访问事件失败: %w", err)
	}
	return nil
}

// Totals 先按会话分组再汇总，避免在单个文档里累积全部会话ID
func (r *analyticsEventRepository) Totals(ctx context.Context, filter model.EventFilter) (*model.EventTotals, error) {
	pipeline := totalsPipeline(filter)
	cursor, err := r.coll.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, fmt.Errorf("聚合事件总量失败: %w", err)
	}
	defer cursor.Close(ctx)

	totals := &model.EventTotals{}
	if !cursor.Next(ctx) {
		return totals, cursor.Err()
	}

	var row struct {
		Events   int64   `bson:"events"`
		Sessions int64   `bson:"sessions"`
		Time     float64 `bson:"time"`
		Load     float64 `bson:"load"`
		Bounces  int64   `bson:"bounces"`
	}
	if err := cursor.Decode(&row); err != nil {
		return nil, fmt.Errorf("解析事件总量失败: %w", err)
	}

	totals.Events = row.Events
	totals.Sessions = row.Sessions
	if row.Events > 0 {
		n := float64(row.Events)
		totals.AvgTimeOnPage = row.Time / n
		totals.AvgLoadTime = row.Load / n
		totals.BounceRatio = float64(row.Bounces) / n
	}
	return totals, nil
}

func (r *analyticsEventRepository) GroupBy(ctx context.Context, filter model.EventFilter, dim model.EventDimension, limit int) ([]model.DimensionCount, error) {
	pipeline := groupByPipeline(filter, dim, limit)
	cursor, err := r.coll.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, fmt.Errorf("按 %s 分组统计失败: %w", dim, err)
	}
	defer cursor.Close(ctx)

	result := make([]model.DimensionCount, 0)
	for cursor.Next(ctx) {
		var row struct {
			Key      string  `bson:"_id"`
			Views    int64   `bson:"views"`
			Visitors int64   `bson:"visitors"`
			Value    float64 `bson:"value"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("解析 %s 分组结果失败: %w", dim, err)
		}
		result = append(result, model.DimensionCount{
			Key:      row.Key,
			Views:    row.Views,
			Visitors: row.Visitors,
			Value:    row.Value,
		})
	}
	return result, cursor.Err()
}

// totalsPipeline 第一层按会话分组得到独立会话数，第二层汇总
func totalsPipeline(filter model.EventFilter) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: buildEventFilter(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$sessionId"},
			{Key: "events", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "time", Value: bson.D{{Key: "$sum", Value: "$timeOnPage"}}},
			{Key: "load", Value: bson.D{{Key: "$sum", Value: "$loadTime"}}},
			{Key: "bounces", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{"$bounce", 1, 0}}}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "events", Value: bson.D{{Key: "$sum", Value: "$events"}}},
			{Key: "sessions", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "time", Value: bson.D{{Key: "$sum", Value: "$time"}}},
			{Key: "load", Value: bson.D{{Key: "$sum", Value: "$load"}}},
			{Key: "bounces", Value: bson.D{{Key: "$sum", Value: "$bounces"}}},
		}}},
	}
}

// groupByPipeline 第一层按 (维度值, 会话) 分组，第二层按维度值汇总，visitors 即第一层的组数
func groupByPipeline(filter model.EventFilter, dim model.EventDimension, limit int) mongo.Pipeline {
	field := "$" + string(dim)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildDimensionFilter(filter, dim)}},
		// 第一层：维度值 + 会话，用于计算独立访客
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "key", Value: bson.D{{Key: "$toString", Value: field}}},
				{Key: "session", Value: "$sessionId"},
			}},
			{Key: "views", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "value", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$conversionValue", 0.0}}}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id.key"},
			{Key: "views", Value: bson.D{{Key: "$sum", Value: "$views"}}},
			{Key: "visitors", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "value", Value: bson.D{{Key: "$sum", Value: "$value"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	return pipeline
}

func (r *analyticsEventRepository) Remove(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("删除访问事件 %s 失败: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return constant.ErrNotFound
	}
	return nil
}

// ScanBefore 逐条读取游标，凑满一批就交给 fn，内存中最多只保留一批事件
func (r *analyticsEventRepository) ScanBefore(ctx context.Context, cutoff time.Time, batchSize int, fn func(batch []*model.AnalyticsEvent) error) error {
	if batchSize <= 0 {
		batchSize = defaultScanBatchSize
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetBatchSize(int32(batchSize))
	cursor, err := r.coll.Find(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}}, opts)
	if err != nil {
		return fmt.Errorf("查询待归档事件失败: %w", err)
	}
	defer cursor.Close(ctx)

	batch := make([]*model.AnalyticsEvent, 0, batchSize)
	for cursor.Next(ctx) {
		ev := &model.AnalyticsEvent{}
		if err := cursor.Decode(ev); err != nil {
			return fmt.Errorf("解析待归档事件失败: %w", err)
		}
		batch = append(batch, ev)
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]*model.AnalyticsEvent, 0, batchSize)
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("遍历待归档事件失败: %w", err)
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

func (r *analyticsEventRepository) Delete(ctx context.Context, filter model.EventDeleteFilter) (int64, error) {
	query := buildEventDeleteFilter(filter)
	if query == nil {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("批量删除访问事件失败: %w", err)
	}
	return res.DeletedCount, nil
}
