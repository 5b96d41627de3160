package constant

// 公告类型
const (
	NewsTypeManual   = "manual"
	NewsTypeBirthday = "birthday"
	NewsTypeUpdate   = "update"
	NewsTypeEvent    = "event"
	NewsTypeArticle  = "article"
)

// ManualNewsTypes 允许后台手动创建的公告类型，birthday 只能由生日任务生成
var ManualNewsTypes = map[string]bool{
	NewsTypeManual:  true,
	NewsTypeUpdate:  true,
	NewsTypeEvent:   true,
	NewsTypeArticle: true,
}

// 生日检查的单角色结果状态
const (
	BirthdayStatusCreated       = "created"
	BirthdayStatusAlreadyExists = "already_exists"
	BirthdayStatusWouldCreate   = "would_create"
	BirthdayStatusError         = "error"
)

// DefaultNewsAuthor 未配置作者时使用的署名
const DefaultNewsAuthor = "派蒙播报"
