/*
 * @Description: 数据库迁移服务（启动时同步 MongoDB 索引）
 */
package database

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paimon-guide/guide-app/pkg/constant"
)

// MigrationService 数据库迁移服务
type MigrationService struct {
	db *mongo.Database
}

// NewMigrationService 创建迁移服务
func NewMigrationService(db *mongo.Database) *MigrationService {
	return &MigrationService{db: db}
}

// RunMigrations 执行所有迁移
func (m *MigrationService) RunMigrations(ctx context.Context) error {
	log.Println("📋 开始同步 MongoDB 索引...")

	if err := m.ensureIndexes(ctx, CollectionEvents, eventIndexes()); err != nil {
		return err
	}
	if err := m.ensureIndexes(ctx, CollectionSessions, sessionIndexes()); err != nil {
		return err
	}
	if err := m.ensureIndexes(ctx, CollectionNews, newsIndexes()); err != nil {
		return err
	}
	if err := m.ensureIndexes(ctx, CollectionCharacters, characterIndexes()); err != nil {
		return err
	}

	log.Println("✅ MongoDB 索引同步完成")
	return nil
}

func (m *MigrationService) ensureIndexes(ctx context.Context, collection string, indexes []mongo.IndexModel) error {
	names, err := m.db.Collection(collection).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("创建集合 %s 的索引失败: %w", collection, err)
	}
	log.Printf("   - %s: %v", collection, names)
	return nil
}

func eventIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "visitDate", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "sessionId", Value: 1}}},
		{Keys: bson.D{{Key: "pageId", Value: 1}, {Key: "visitDate", Value: 1}}},
		{Keys: bson.D{{Key: "pageType", Value: 1}, {Key: "visitDate", Value: 1}}},
	}
}

func sessionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "lastVisit", Value: -1}}},
	}
}

// newsIndexes 中的唯一部分索引保证同一角色同一天最多一条生日公告
func newsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "characterId", Value: 1},
				{Key: "birthdayDay", Value: 1},
				{Key: "type", Value: 1},
			},
			Options: options.Index().
				SetName("uniq_birthday_per_character_day").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"type": constant.NewsTypeBirthday}),
		},
		{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "publishedAt", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
}

func characterIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "birthday", Value: 1}}},
	}
}
