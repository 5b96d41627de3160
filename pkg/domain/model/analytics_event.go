/*
 * @Description: 访问事件与会话汇总模型
 */
package model

import "time"

// AnalyticsEvent 一次页面访问事件，写入后只追加不修改（管理员批量删除除外）
type AnalyticsEvent struct {
	ID              string    `json:"id" bson:"_id,omitempty"`
	SessionID       string    `json:"sessionId" bson:"sessionId"`
	PagePath        string    `json:"page" bson:"pagePath"`
	PageType        string    `json:"pageType" bson:"pageType"`
	PageID          string    `json:"pageId,omitempty" bson:"pageId,omitempty"`
	DeviceCategory  string    `json:"deviceCategory" bson:"deviceCategory"`
	ScreenSize      string    `json:"screenSize" bson:"screenSize"`
	Region          string    `json:"region" bson:"region"`
	VisitDate       string    `json:"visitDate" bson:"visitDate"`
	VisitHour       int       `json:"visitHour" bson:"visitHour"`
	VisitDayOfWeek  int       `json:"visitDayOfWeek" bson:"visitDayOfWeek"`
	TimeOnPage      float64   `json:"timeOnPage" bson:"timeOnPage"`
	ScrollDepth     int       `json:"scrollDepth" bson:"scrollDepth"`
	ClickCount      int       `json:"clickCount" bson:"clickCount"`
	LoadTime        float64   `json:"loadTime" bson:"loadTime"`
	Bounce          bool      `json:"bounce" bson:"bounce"`
	UTMSource       string    `json:"utmSource,omitempty" bson:"utmSource,omitempty"`
	UTMMedium       string    `json:"utmMedium,omitempty" bson:"utmMedium,omitempty"`
	UTMCampaign     string    `json:"utmCampaign,omitempty" bson:"utmCampaign,omitempty"`
	UTMTerm         string    `json:"utmTerm,omitempty" bson:"utmTerm,omitempty"`
	UTMContent      string    `json:"utmContent,omitempty" bson:"utmContent,omitempty"`
	IsFirstVisit    bool      `json:"isFirstVisit,omitempty" bson:"isFirstVisit,omitempty"`
	ConversionGoal  string    `json:"conversionGoal,omitempty" bson:"conversionGoal,omitempty"`
	ConversionValue float64   `json:"conversionValue,omitempty" bson:"conversionValue,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

// SessionSummary 按匿名会话ID汇总的滚动统计，每个事件触发一次 upsert
type SessionSummary struct {
	SessionID       string    `json:"sessionId" bson:"_id"`
	FirstVisit      time.Time `json:"firstVisit" bson:"firstVisit"`
	LastVisit       time.Time `json:"lastVisit" bson:"lastVisit"`
	VisitCount      int64     `json:"visitCount" bson:"visitCount"`
	TotalTimeOnSite float64   `json:"totalTimeOnSite" bson:"totalTimeOnSite"`
	PageViews       int64     `json:"pageViews" bson:"pageViews"`
	DeviceCategory  string    `json:"deviceCategory" bson:"deviceCategory"`
	Region          string    `json:"region" bson:"region"`
	IsReturning     bool      `json:"isReturning" bson:"isReturning"`
	IsEngaged       bool      `json:"isEngaged" bson:"isEngaged"`
	LastPage        string    `json:"lastPage" bson:"lastPage"`
	LastPageType    string    `json:"lastPageType" bson:"lastPageType"`
}

// SessionTouch 一次事件对会话汇总的增量
type SessionTouch struct {
	SessionID      string
	At             time.Time
	TimeOnPage     float64
	Engaged        bool
	DeviceCategory string
	Region         string
	Page           string
	PageType       string
}

// IngestRequest 前端上报的访问信标
// 可选的数值/布尔字段使用指针以区分"未传"与零值
type IngestRequest struct {
	EventID         string   `json:"eventId"`
	SessionID       string   `json:"sessionId"`
	Page            string   `json:"page"`
	PageType        string   `json:"pageType"`
	PageID          string   `json:"pageId"`
	DeviceCategory  string   `json:"deviceCategory"`
	ScreenSize      string   `json:"screenSize"`
	ScreenWidth     int      `json:"screenWidth"`
	Region          string   `json:"region"`
	VisitDate       string   `json:"visitDate"`
	VisitHour       *int     `json:"visitHour"`
	VisitDayOfWeek  *int     `json:"visitDayOfWeek"`
	TimeOnPage      *float64 `json:"timeOnPage"`
	ScrollDepth     *int     `json:"scrollDepth"`
	ClickCount      *int     `json:"clickCount"`
	LoadTime        *float64 `json:"loadTime"`
	Bounce          *bool    `json:"bounce"`
	UTMSource       string   `json:"utmSource"`
	UTMMedium       string   `json:"utmMedium"`
	UTMCampaign     string   `json:"utmCampaign"`
	UTMTerm         string   `json:"utmTerm"`
	UTMContent      string   `json:"utmContent"`
	IsFirstVisit    bool     `json:"isFirstVisit"`
	ConversionGoal  string   `json:"conversionGoal"`
	ConversionValue float64  `json:"conversionValue"`

	// UserAgent 由处理器从请求头填充，仅用于分类兜底
	UserAgent string `json:"-"`
}

// IngestResult 上报结果
type IngestResult struct {
	Recorded   bool `json:"recorded"`
	NewSession bool `json:"newSession"`
	Excluded   bool `json:"excluded,omitempty"`
	Duplicate  bool `json:"duplicate,omitempty"`
}
