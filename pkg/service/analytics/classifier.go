/*
 * @Description: 设备、地区与屏幕尺寸分类
 */
package analytics

import (
	"strings"

	"github.com/paimon-guide/guide-app/pkg/constant"
)

// Classifier 将客户端上报的原始信号归一化为固定的统计分桶
type Classifier interface {
	Device(raw, userAgent string) string
	Region(raw string) string
	Screen(raw string, width int) string
}

// 屏幕宽度分界（CSS 像素）
const (
	smallScreenMaxWidth  = 768
	mediumScreenMaxWidth = 1440
)

var deviceAliases = map[string]string{
	"mobile":  constant.DeviceMobile,
	"phone":   constant.DeviceMobile,
	"手机":      constant.DeviceMobile,
	"tablet":  constant.DeviceTablet,
	"pad":     constant.DeviceTablet,
	"ipad":    constant.DeviceTablet,
	"平板":      constant.DeviceTablet,
	"desktop": constant.DeviceDesktop,
	"pc":      constant.DeviceDesktop,
	"laptop":  constant.DeviceDesktop,
	"桌面":      constant.DeviceDesktop,
	"other":   constant.DeviceOther,
}

var regionAliases = map[string]string{
	"asia":          constant.RegionAsia,
	"as":            constant.RegionAsia,
	"亚洲":            constant.RegionAsia,
	"europe":        constant.RegionEurope,
	"eu":            constant.RegionEurope,
	"欧洲":            constant.RegionEurope,
	"north_america": constant.RegionNorthAmerica,
	"north america": constant.RegionNorthAmerica,
	"northamerica":  constant.RegionNorthAmerica,
	"na":            constant.RegionNorthAmerica,
	"北美":            constant.RegionNorthAmerica,
	"south_america": constant.RegionSouthAmerica,
	"south america": constant.RegionSouthAmerica,
	"southamerica":  constant.RegionSouthAmerica,
	"sa":            constant.RegionSouthAmerica,
	"南美":            constant.RegionSouthAmerica,
	"africa":        constant.RegionAfrica,
	"af":            constant.RegionAfrica,
	"非洲":            constant.RegionAfrica,
	"oceania":       constant.RegionOceania,
	"oc":            constant.RegionOceania,
	"大洋洲":           constant.RegionOceania,
	"other":         constant.RegionOther,
}

var screenAliases = map[string]string{
	"small":  constant.ScreenSmall,
	"sm":     constant.ScreenSmall,
	"medium": constant.ScreenMedium,
	"md":     constant.ScreenMedium,
	"large":  constant.ScreenLarge,
	"lg":     constant.ScreenLarge,
	"xl":     constant.ScreenLarge,
}

// BucketClassifier 基于别名表和简单 UA 规则的默认分类器
type BucketClassifier struct{}

// NewBucketClassifier 创建默认分类器
func NewBucketClassifier() *BucketClassifier {
	return &BucketClassifier{}
}

func normalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Device 优先使用客户端上报的类别，无法识别时退回 User-Agent 判断
func (BucketClassifier) Device(raw, userAgent string) string {
	if v, ok := deviceAliases[normalizeKey(raw)]; ok && v != constant.DeviceOther {
		return v
	}
	if ua := strings.ToLower(userAgent); ua != "" {
		switch {
		case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"):
			return constant.DeviceTablet
		case strings.Contains(ua, "mobile"), strings.Contains(ua, "iphone"), strings.Contains(ua, "android"):
			return constant.DeviceMobile
		case strings.Contains(ua, "windows"), strings.Contains(ua, "macintosh"), strings.Contains(ua, "linux"):
			return constant.DeviceDesktop
		}
	}
	return constant.DeviceOther
}

func (BucketClassifier) Region(raw string) string {
	if v, ok := regionAliases[normalizeKey(raw)]; ok {
		return v
	}
	return constant.RegionOther
}

// Screen 显式分桶优先，其次按屏幕宽度，都缺失时为 medium
func (BucketClassifier) Screen(raw string, width int) string {
	if v, ok := screenAliases[normalizeKey(raw)]; ok {
		return v
	}
	switch {
	case width <= 0:
		return constant.ScreenMedium
	case width < smallScreenMaxWidth:
		return constant.ScreenSmall
	case width < mediumScreenMaxWidth:
		return constant.ScreenMedium
	default:
		return constant.ScreenLarge
	}
}
