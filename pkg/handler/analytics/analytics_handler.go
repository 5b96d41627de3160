/*
 * @Description: 访问统计API处理器：埋点上报、统计报表、数据重置
 */
package analytics

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/response"
	"github.com/paimon-guide/guide-app/pkg/service/analytics"
)

// Handler 统计API处理器
type Handler struct {
	ingestSvc analytics.IngestService
	statsSvc  analytics.StatsService
	resetSvc  analytics.ResetService
}

// NewHandler 创建统计处理器实例
func NewHandler(ingestSvc analytics.IngestService, statsSvc analytics.StatsService, resetSvc analytics.ResetService) *Handler {
	return &Handler{
		ingestSvc: ingestSvc,
		statsSvc:  statsSvc,
		resetSvc:  resetSvc,
	}
}

// Track 记录一次页面访问（前台接口）
// @Summary      上报页面访问
// @Tags         访问统计
// @Accept       json
// @Produce      json
// @Param        request  body  model.IngestRequest  true  "访问事件"
// @Success      200  {object}  response.Response{data=model.IngestResult}  "记录成功"
// @Failure      400  {object}  response.Response  "请求参数错误"
// @Failure      500  {object}  response.Response  "记录失败"
// @Router       /public/analytics/track [post]
func (h *Handler) Track(c *gin.Context) {
	var req model.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误")
		return
	}
	req.UserAgent = c.Request.UserAgent()

	result, err := h.ingestSvc.Ingest(c.Request.Context(), &req)
	if err != nil {
		if response.StatusOf(err) == http.StatusInternalServerError {
			log.Printf("[Analytics] 记录访问失败: session=%s page=%s err=%v", req.SessionID, req.Page, err)
		}
		response.FailWithError(c, err, "记录访问失败")
		return
	}

	response.Success(c, result, "记录访问成功")
}

// GetStats 获取统计报表（后台接口）
// @Summary      获取统计报表
// @Tags         访问统计
// @Security     BearerAuth
// @Produce      json
// @Param        range     query  string  false  "时间范围 1d|7d|30d|90d|all"
// @Param        pageType  query  string  false  "页面类型"
// @Param        pageId    query  string  false  "页面ID"
// @Success      200  {object}  response.Response{data=model.StatsReport}  "获取成功"
// @Failure      400  {object}  response.Response  "时间范围无效"
// @Router       /analytics/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	var query model.StatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Fail(c, http.StatusBadRequest, "查询参数错误")
		return
	}

	report, err := h.statsSvc.Report(c.Request.Context(), query)
	if err != nil {
		if response.StatusOf(err) == http.StatusInternalServerError {
			log.Printf("[Analytics] 生成统计报表失败: range=%s pageType=%s err=%v", query.Range, query.PageType, err)
		}
		response.FailWithError(c, err, "获取统计数据失败")
		return
	}

	response.Success(c, report, "获取统计数据成功")
}

// Reset 批量清理统计数据（后台接口）
// @Summary      重置统计数据
// @Tags         访问统计
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  model.ResetRequest  true  "重置参数"
// @Success      200  {object}  response.Response{data=model.ResetResult}  "重置成功"
// @Failure      400  {object}  response.Response  "未确认或模式无效"
// @Router       /analytics/reset [post]
func (h *Handler) Reset(c *gin.Context) {
	var req model.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	result, err := h.resetSvc.Reset(c.Request.Context(), req)
	if err != nil {
		if response.StatusOf(err) == http.StatusInternalServerError {
			log.Printf("[Analytics] 重置统计数据失败: mode=%s daysToKeep=%d err=%v", req.ResetType, req.DaysToKeep, err)
		}
		response.FailWithError(c, err, "重置统计数据失败")
		return
	}

	response.Success(c, result, "重置统计数据成功")
}
