package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

// buildEventFilter 将领域过滤条件翻译为 Mongo 查询
func buildEventFilter(f model.EventFilter) bson.M {
	filter := bson.M{}
	if f.FromDate != "" {
		filter["visitDate"] = bson.M{"$gte": f.FromDate}
	}

	equals := []struct {
		field string
		value string
	}{
		{"pageType", f.PageType},
		{"pageId", f.PageID},
		{"utmSource", f.UTMSource},
		{"utmMedium", f.UTMMedium},
		{"utmCampaign", f.UTMCampaign},
		{"region", f.Region},
	}
	for _, eq := range equals {
		if eq.value != "" {
			filter[eq.field] = eq.value
		}
	}

	if f.ExcludePathPrefix != "" {
		filter["pagePath"] = bson.M{"$not": prefixRegex(f.ExcludePathPrefix, "")}
	}
	return filter
}

// buildDimensionFilter 在基础过滤上追加"维度字段有值"的条件
func buildDimensionFilter(f model.EventFilter, dim model.EventDimension) bson.M {
	field := string(dim)
	var present bson.M
	switch dim {
	case model.DimensionHour, model.DimensionWeekday:
		present = bson.M{field: bson.M{"$exists": true}}
	default:
		present = bson.M{field: bson.M{"$nin": bson.A{nil, ""}}}
	}
	return bson.M{"$and": bson.A{buildEventFilter(f), present}}
}

// buildEventDeleteFilter 返回 nil 表示没有可执行的删除条件
func buildEventDeleteFilter(f model.EventDeleteFilter) bson.M {
	switch {
	case f.All:
		return bson.M{}
	case f.TestTraffic:
		return bson.M{"$or": bson.A{
			bson.M{"sessionId": prefixRegex(constant.TestSessionPrefix, "i")},
			bson.M{"utmSource": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(constant.TestUTMSource) + "$", Options: "i"}},
		}}
	case !f.CreatedBefore.IsZero():
		return bson.M{"createdAt": bson.M{"$lt": f.CreatedBefore}}
	}
	return nil
}

// buildSessionDeleteFilter 会话没有创建时间维度的批量删除
func buildSessionDeleteFilter(f model.EventDeleteFilter) bson.M {
	switch {
	case f.All:
		return bson.M{}
	case f.TestTraffic:
		return bson.M{"_id": prefixRegex(constant.TestSessionPrefix, "i")}
	}
	return nil
}

func prefixRegex(prefix, options string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix), Options: options}
}
