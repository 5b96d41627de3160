package constant

// 页面类型
const (
	PageTypeHome      = "home"
	PageTypeCharacter = "character"
	PageTypeWeapon    = "weapon"
	PageTypeArtifact  = "artifact"
	PageTypeArticle   = "article"
	PageTypeNews      = "news"
	PageTypeOther     = "other"
)

// KnownPageTypes 列出所有可识别的页面类型，未识别的统一记为 other
var KnownPageTypes = map[string]bool{
	PageTypeHome:      true,
	PageTypeCharacter: true,
	PageTypeWeapon:    true,
	PageTypeArtifact:  true,
	PageTypeArticle:   true,
	PageTypeNews:      true,
	PageTypeOther:     true,
}

// 设备类别
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceOther   = "other"
)

// 屏幕尺寸分桶
const (
	ScreenSmall  = "small"
	ScreenMedium = "medium"
	ScreenLarge  = "large"
)

// 大洲级地区分桶
const (
	RegionAsia         = "asia"
	RegionEurope       = "europe"
	RegionNorthAmerica = "north_america"
	RegionSouthAmerica = "south_america"
	RegionAfrica       = "africa"
	RegionOceania      = "oceania"
	RegionOther        = "other"
)

// 统计时间范围
const (
	Range1Day   = "1d"
	Range7Days  = "7d"
	Range30Days = "30d"
	Range90Days = "90d"
	RangeAll    = "all"
)

// RangeDays 时间范围代码到回溯天数的映射，all 不在其中
var RangeDays = map[string]int{
	Range1Day:   1,
	Range7Days:  7,
	Range30Days: 30,
	Range90Days: 90,
}

// 重置模式
const (
	ResetTypeAll  = "all"
	ResetTypeOld  = "old"
	ResetTypeTest = "test"
)

// EngagedThresholdSeconds 单次停留超过该秒数即视为深度访问
const EngagedThresholdSeconds = 30

// DefaultDaysToKeep old 模式默认保留天数
const DefaultDaysToKeep = 30

// TestSessionPrefix 测试流量的会话ID前缀（不区分大小写）
const TestSessionPrefix = "test"

// TestUTMSource 测试流量的 utm_source 标记
const TestUTMSource = "test"
