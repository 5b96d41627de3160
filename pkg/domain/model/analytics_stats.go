package model

import "time"

// EventDimension 可分组统计的事件字段
type EventDimension string

const (
	DimensionPage        EventDimension = "pagePath"
	DimensionRegion      EventDimension = "region"
	DimensionDevice      EventDimension = "deviceCategory"
	DimensionScreen      EventDimension = "screenSize"
	DimensionUTMSource   EventDimension = "utmSource"
	DimensionUTMCampaign EventDimension = "utmCampaign"
	DimensionUTMMedium   EventDimension = "utmMedium"
	DimensionGoal        EventDimension = "conversionGoal"
	DimensionHour        EventDimension = "visitHour"
	DimensionWeekday     EventDimension = "visitDayOfWeek"
)

// EventFilter 仓储层的事件过滤条件，空字段表示不过滤
type EventFilter struct {
	FromDate          string // visitDate >= FromDate
	PageType          string
	PageID            string
	UTMSource         string
	UTMMedium         string
	UTMCampaign       string
	Region            string
	ExcludePathPrefix string
}

// EventDeleteFilter 批量删除条件
type EventDeleteFilter struct {
	All           bool
	CreatedBefore time.Time
	TestTraffic   bool
}

// EventTotals 聚合总量（未四舍五入的原始均值）
type EventTotals struct {
	Events        int64
	Sessions      int64
	AvgTimeOnPage float64
	AvgLoadTime   float64
	BounceRatio   float64 // 0~1
}

// DimensionCount 单个维度取值的统计
type DimensionCount struct {
	Key      string  `json:"key"`
	Views    int64   `json:"views"`
	Visitors int64   `json:"visitors"`
	Value    float64 `json:"value,omitempty"` // 转化目标的累计价值
}

// StatsQuery 统计查询参数
type StatsQuery struct {
	Range       string `form:"range"`
	PageType    string `form:"pageType"`
	PageID      string `form:"pageId"`
	UTMSource   string `form:"utmSource"`
	UTMMedium   string `form:"utmMedium"`
	UTMCampaign string `form:"utmCampaign"`
	Region      string `form:"region"`
}

// StatsTotals 统计概览
type StatsTotals struct {
	TotalEvents    int64   `json:"totalEvents"`
	UniqueVisitors int64   `json:"uniqueVisitors"`
	AvgTimeOnPage  float64 `json:"avgTimeOnPage"`
	AvgLoadTime    float64 `json:"avgLoadTime"`
	BounceRate     float64 `json:"bounceRate"`
}

// PageDetail 单页面详情
type PageDetail struct {
	PageID  string           `json:"pageId"`
	Totals  StatsTotals      `json:"totals"`
	Regions []DimensionCount `json:"regions"`
	Devices []DimensionCount `json:"devices"`
}

// StatsReport 统计报表
type StatsReport struct {
	Range        string           `json:"range"`
	CutoffDate   string           `json:"cutoffDate,omitempty"`
	GeneratedAt  time.Time        `json:"generatedAt"`
	Totals       StatsTotals      `json:"totals"`
	TopPages     []DimensionCount `json:"topPages"`
	Regions      []DimensionCount `json:"regions"`
	Devices      []DimensionCount `json:"devices"`
	ScreenSizes  []DimensionCount `json:"screenSizes"`
	UTMSources   []DimensionCount `json:"utmSources"`
	UTMCampaigns []DimensionCount `json:"utmCampaigns"`
	UTMMediums   []DimensionCount `json:"utmMediums"`
	Goals        []DimensionCount `json:"goals"`
	Hourly       []DimensionCount `json:"hourly"`
	Weekdays     []DimensionCount `json:"weekdays"`
	PageDetail   *PageDetail      `json:"pageDetail,omitempty"`
}

// ResetRequest 重置请求
type ResetRequest struct {
	ResetType    string `json:"resetType"`
	DaysToKeep   int    `json:"daysToKeep"`
	ConfirmReset bool   `json:"confirmReset"`
}

// ResetResult 重置结果
type ResetResult struct {
	ResetType       string   `json:"resetType"`
	DeletedEvents   int64    `json:"deletedCount"`
	DeletedSessions int64    `json:"deletedSessions"`
	ArchivedObjects []string `json:"archivedObjects,omitempty"`
}
