/*
 * @Description: 公告与角色目录的 MongoDB 实现
 */
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paimon-guide/guide-app/internal/infra/persistence/database"
	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

type newsRepository struct {
	coll *mongo.Collection
}

// NewNewsRepository 创建公告仓储实例
func NewNewsRepository(db *mongo.Database) repository.NewsRepository {
	return &newsRepository{coll: db.Collection(database.CollectionNews)}
}

func (r *newsRepository) Create(ctx context.Context, news *model.News) error {
	if news.ID == "" {
		news.ID = uuid.NewString()
	}
	_, err := r.coll.InsertOne(ctx, news)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("角色 %s 在 %s 的生日公告已存在: %w", news.CharacterID, news.BirthdayDay, constant.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("创建公告失败: %w", err)
	}
	return nil
}

func (r *newsRepository) ExistsBirthday(ctx context.Context, characterID string, start, end time.Time) (bool, error) {
	filter := bson.M{
		"type":        constant.NewsTypeBirthday,
		"characterId": characterID,
		"createdAt":   bson.M{"$gte": start, "$lt": end},
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("查询生日公告失败: %w", err)
	}
	return n > 0, nil
}

func (r *newsRepository) FindByID(ctx context.Context, id string) (*model.News, error) {
	var news model.News
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&news)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, constant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询公告失败: %w", err)
	}
	return &news, nil
}

func (r *newsRepository) List(ctx context.Context, query model.NewsListQuery) ([]*model.News, int64, error) {
	filter := bson.M{}
	if query.Type != "" {
		filter["type"] = query.Type
	}
	if query.PublishedOnly {
		filter["isPublished"] = true
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("统计公告数量失败: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(int64((query.Page - 1) * query.PageSize)).
		SetLimit(int64(query.PageSize))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("查询公告列表失败: %w", err)
	}
	defer cursor.Close(ctx)

	list := make([]*model.News, 0, query.PageSize)
	if err := cursor.All(ctx, &list); err != nil {
		return nil, 0, fmt.Errorf("解析公告列表失败: %w", err)
	}
	return list, total, nil
}

func (r *newsRepository) IncrementViews(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return fmt.Errorf("更新公告浏览量失败: %w", err)
	}
	if res.MatchedCount == 0 {
		return constant.ErrNotFound
	}
	return nil
}

func (r *newsRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("删除公告失败: %w", err)
	}
	if res.DeletedCount == 0 {
		return constant.ErrNotFound
	}
	return nil
}

type characterRepository struct {
	coll *mongo.Collection
}

// NewCharacterRepository 创建角色目录仓储实例
func NewCharacterRepository(db *mongo.Database) repository.CharacterRepository {
	return &characterRepository{coll: db.Collection(database.CollectionCharacters)}
}

func (r *characterRepository) ListAll(ctx context.Context) ([]*model.Character, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("查询角色目录失败: %w", err)
	}
	defer cursor.Close(ctx)

	var characters []*model.Character
	if err := cursor.All(ctx, &characters); err != nil {
		return nil, fmt.Errorf("解析角色目录失败: %w", err)
	}
	return characters, nil
}

func (r *characterRepository) FindByID(ctx context.Context, id string) (*model.Character, error) {
	var c model.Character
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, constant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询角色失败: %w", err)
	}
	return &c, nil
}

func (r *characterRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *characterRepository) InsertMany(ctx context.Context, characters []*model.Character) error {
	if len(characters) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(characters))
	for _, c := range characters {
		docs = append(docs, c)
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("写入角色目录失败: %w", err)
	}
	return nil
}
