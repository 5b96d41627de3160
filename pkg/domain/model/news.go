/*
 * @Description: 公告与角色模型
 */
package model

import "time"

// News 公告记录，由后台手动创建或由生日任务生成
type News struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	Title          string    `json:"title" bson:"title"`
	Content        string    `json:"content" bson:"content"`
	Summary        string    `json:"summary" bson:"summary"`
	Type           string    `json:"type" bson:"type"`
	CharacterID    string    `json:"characterId,omitempty" bson:"characterId,omitempty"`
	CharacterName  string    `json:"characterName,omitempty" bson:"characterName,omitempty"`
	CharacterImage string    `json:"characterImage,omitempty" bson:"characterImage,omitempty"`
	BirthdayDay    string    `json:"birthdayDay,omitempty" bson:"birthdayDay,omitempty"` // 生日公告所属的服务器本地日期，唯一索引的一部分
	IsPublished    bool      `json:"isPublished" bson:"isPublished"`
	PublishedAt    time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	Tags           []string  `json:"tags" bson:"tags"`
	Views          int64     `json:"views" bson:"views"`
	Author         string    `json:"author" bson:"author"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewsListQuery 公告分页查询
type NewsListQuery struct {
	Page          int    `form:"page"`
	PageSize      int    `form:"pageSize"`
	Type          string `form:"type"`
	PublishedOnly bool   `form:"-"`
}

// NewsListResult 分页结果
type NewsListResult struct {
	List     []*News `json:"list"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// CreateNewsRequest 后台创建公告请求，content 为 Markdown
type CreateNewsRequest struct {
	Title       string   `json:"title" binding:"required"`
	Content     string   `json:"content" binding:"required"`
	Type        string   `json:"type"`
	CharacterID string   `json:"characterId"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
	Publish     *bool    `json:"publish"`
}

// Character 角色目录中的一条记录，本子系统只读
type Character struct {
	ID       string `json:"id" bson:"_id"`
	Name     string `json:"name" bson:"name"`
	Birthday string `json:"birthday" bson:"birthday"` // 月-日，如 "06-26"
	Image    string `json:"image" bson:"image"`
	Element  string `json:"element,omitempty" bson:"element,omitempty"`
	Rarity   int    `json:"rarity,omitempty" bson:"rarity,omitempty"`
}

// BirthdayCharacterResult 单个角色的生日检查结果
type BirthdayCharacterResult struct {
	CharacterID string `json:"characterId"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	NewsID      string `json:"newsId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BirthdayCheckResult 生日检查汇总
type BirthdayCheckResult struct {
	Date      string                    `json:"date"`
	DryRun    bool                      `json:"dryRun"`
	Checked   int                       `json:"checked"`
	Matched   int                       `json:"matched"`
	Generated int                       `json:"generated"`
	Skipped   int                       `json:"skipped"`
	Failed    int                       `json:"failed"`
	Results   []BirthdayCharacterResult `json:"results"`
}
