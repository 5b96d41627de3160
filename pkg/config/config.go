/*
 * @Description: 统一配置管理（ini 文件 + 环境变量覆盖）
 */
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
)

// 定义所有已知的配置键
var allKeys = []string{
	KeyServerPort, KeyServerDebug,
	KeyMongoURI, KeyMongoDatabase, KeyMongoTimeoutSeconds,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB,
	KeyJWTSecret, KeyJWTIssuer,
	KeyAnalyticsUTCOffsetHours, KeyAnalyticsAdminPathPrefix, KeyAnalyticsTopLimit,
	KeyAnalyticsDetailSampleLimit, KeyAnalyticsStatsCacheSeconds, KeyAnalyticsDedupeSeconds,
	KeyAnalyticsRetentionDays, KeyAnalyticsIngestRPM, KeyAnalyticsIngestBurst,
	KeyBirthdayEnabled, KeyBirthdayCron, KeyBirthdayAuthor,
	KeyStreamBrokers, KeyStreamTopic,
	KeyArchiveEndpoint, KeyArchiveRegion, KeyArchiveBucket, KeyArchiveAccessKey, KeyArchiveSecretKey, KeyArchivePrefix,
	KeySeedCharactersFile,
}

const (
	KeyServerPort  = "System.Port"
	KeyServerDebug = "System.Debug"

	KeyMongoURI            = "Mongo.URI"
	KeyMongoDatabase       = "Mongo.Database"
	KeyMongoTimeoutSeconds = "Mongo.TimeoutSeconds"

	KeyRedisAddr     = "Redis.Addr"
	KeyRedisPassword = "Redis.Password"
	KeyRedisDB       = "Redis.DB"

	KeyJWTSecret = "JWT.Secret"
	KeyJWTIssuer = "JWT.Issuer"

	KeyAnalyticsUTCOffsetHours    = "Analytics.UTCOffsetHours"
	KeyAnalyticsAdminPathPrefix   = "Analytics.AdminPathPrefix"
	KeyAnalyticsTopLimit          = "Analytics.TopLimit"
	KeyAnalyticsDetailSampleLimit = "Analytics.DetailSampleLimit"
	KeyAnalyticsStatsCacheSeconds = "Analytics.StatsCacheSeconds"
	KeyAnalyticsDedupeSeconds     = "Analytics.DedupeSeconds"
	KeyAnalyticsRetentionDays     = "Analytics.RetentionDays"
	KeyAnalyticsIngestRPM         = "Analytics.IngestRPM"
	KeyAnalyticsIngestBurst       = "Analytics.IngestBurst"

	KeyBirthdayEnabled = "Birthday.Enabled"
	KeyBirthdayCron    = "Birthday.Cron"
	KeyBirthdayAuthor  = "Birthday.Author"

	KeyStreamBrokers = "Stream.Brokers"
	KeyStreamTopic   = "Stream.Topic"

	KeyArchiveEndpoint  = "Archive.Endpoint"
	KeyArchiveRegion    = "Archive.Region"
	KeyArchiveBucket    = "Archive.Bucket"
	KeyArchiveAccessKey = "Archive.AccessKey"
	KeyArchiveSecretKey = "Archive.SecretKey"
	KeyArchivePrefix    = "Archive.Prefix"

	KeySeedCharactersFile = "Seed.CharactersFile"
)

const (
	defaultFilePath = "data/conf.ini"
	envPrefix       = "GUIDE"
)

type Config struct {
	vp *viper.Viper
}

// NewConfig 从默认路径加载配置
func NewConfig() (*Config, error) {
	return Load(defaultFilePath)
}

// Load 手动加载配置：先读 ini 文件作为默认值，再用环境变量覆盖
func Load(filePath string) (*Config, error) {
	vp := viper.New()
	setDefaults(vp)

	// --- 步骤 1: 使用 go-ini 从文件加载配置 ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("提示: 未找到 %s，将创建默认配置文件。", filePath)
			if err := createDefaultConfigFile(filePath); err != nil {
				log.Printf("警告: 创建默认配置文件失败: %v，将仅依赖环境变量或内部默认值。", err)
			} else {
				log.Printf("✅ 已创建默认配置文件: %s", filePath)
				iniCfg, err = ini.Load(filePath)
				if err != nil {
					log.Printf("警告: 重新加载配置文件失败: %v", err)
				}
			}
		} else {
			return nil, fmt.Errorf("错误: 解析配置文件 '%s' 失败: %w", filePath, err)
		}
	}

	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				if section.Name() == ini.DefaultSection {
					viperKey = key.Name()
				}
				// 空值不覆盖内置默认值
				if strings.TrimSpace(key.Value()) == "" {
					continue
				}
				vp.Set(viperKey, key.Value())
			}
		}
		log.Printf("从 %s 文件加载了配置。", filePath)
	}

	// --- 步骤 2: 手动检查并覆盖环境变量 ---
	applyEnvOverrides(vp)

	log.Println("✅ 配置加载器初始化完成。")
	return &Config{vp: vp}, nil
}

// NewFromMap 使用给定的键值构造配置，未给出的键使用默认值
func NewFromMap(values map[string]interface{}) *Config {
	vp := viper.New()
	setDefaults(vp)
	for k, v := range values {
		vp.Set(k, v)
	}
	return &Config{vp: vp}
}

func applyEnvOverrides(vp *viper.Viper) {
	envReplacer := strings.NewReplacer(".", "_")
	for _, key := range allKeys {
		// 例如 GUIDE_MONGO_URI
		envVarName := fmt.Sprintf("%s_%s", envPrefix, envReplacer.Replace(strings.ToUpper(key)))
		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			log.Printf("发现环境变量: %s, 已覆盖配置 '%s'。", envVarName, key)
		}
	}
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault(KeyServerPort, "8091")
	vp.SetDefault(KeyServerDebug, false)
	vp.SetDefault(KeyMongoDatabase, "guide_app")
	vp.SetDefault(KeyMongoTimeoutSeconds, 10)
	vp.SetDefault(KeyRedisDB, 10)
	vp.SetDefault(KeyJWTIssuer, "guide-app")
	vp.SetDefault(KeyAnalyticsUTCOffsetHours, 3)
	vp.SetDefault(KeyAnalyticsAdminPathPrefix, "/admin")
	vp.SetDefault(KeyAnalyticsTopLimit, 20)
	vp.SetDefault(KeyAnalyticsDetailSampleLimit, 10)
	vp.SetDefault(KeyAnalyticsStatsCacheSeconds, 60)
	vp.SetDefault(KeyAnalyticsDedupeSeconds, 600)
	vp.SetDefault(KeyAnalyticsRetentionDays, 0)
	vp.SetDefault(KeyAnalyticsIngestRPM, 120)
	vp.SetDefault(KeyAnalyticsIngestBurst, 40)
	vp.SetDefault(KeyBirthdayEnabled, true)
	vp.SetDefault(KeyBirthdayCron, "0 5 0 * * *")
	vp.SetDefault(KeyBirthdayAuthor, "派蒙播报")
	vp.SetDefault(KeyStreamTopic, "guide.analytics.events")
	vp.SetDefault(KeyArchiveRegion, "us-east-1")
	vp.SetDefault(KeyArchivePrefix, "analytics-archive")
	vp.SetDefault(KeySeedCharactersFile, "data/characters.json")
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

// GetStringSlice 读取逗号分隔的配置项，自动去掉空白与空项
func (c *Config) GetStringSlice(key string) []string {
	raw := c.vp.GetString(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// createDefaultConfigFile 创建默认的配置文件
func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	defaultConfig := `[System]
Port = 8091
Debug = false

# MongoDB 配置（可选）
# 留空 URI 时使用内存存储，数据在重启后丢失，仅适合本地开发
[Mongo]
URI =
Database = guide_app

# Redis 配置（可选）
# 如果不配置或留空 Addr，系统将自动使用内存缓存
[Redis]
Addr =
Password =
DB = 10

# 管理接口使用的 JWT 密钥，未配置时所有管理接口均返回 401
[JWT]
Secret =

[Analytics]
UTCOffsetHours = 3
AdminPathPrefix = /admin
TopLimit = 20
StatsCacheSeconds = 60
RetentionDays = 0

[Birthday]
Enabled = true
Cron = 0 5 0 * * *

# Kafka 事件镜像（可选）
[Stream]
Brokers =
Topic = guide.analytics.events

# S3 兼容归档（可选），留空 Bucket 则不归档
[Archive]
Endpoint =
Region = us-east-1
Bucket =
AccessKey =
SecretKey =
Prefix = analytics-archive
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}
