/*
 * @Description: MongoDB 连接管理
 */
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/paimon-guide/guide-app/pkg/config"
)

// 集合名称
const (
	CollectionEvents     = "analytics_events"
	CollectionSessions   = "analytics_sessions"
	CollectionNews       = "news"
	CollectionCharacters = "characters"
)

// NewMongoDatabase 根据配置连接 MongoDB。
// URI 未配置时返回 (nil, nil, nil)，由上层降级到内存存储；配置了但连接失败则返回错误。
func NewMongoDatabase(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	uri := cfg.GetString(config.KeyMongoURI)
	if uri == "" {
		log.Println("⚠️  MongoDB URI 未配置，将使用内存存储（数据不会持久化）")
		return nil, nil, nil
	}

	timeout := time.Duration(cfg.GetInt(config.KeyMongoTimeoutSeconds)) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri).SetConnectTimeout(timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("连接 MongoDB 失败: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("MongoDB Ping 失败: %w", err)
	}

	dbName := cfg.GetString(config.KeyMongoDatabase)
	log.Printf("✅ 成功连接到 MongoDB (database: %s)", dbName)
	return client, client.Database(dbName), nil
}
