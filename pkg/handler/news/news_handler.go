/*
 * @Description: 公告API处理器：前台列表与详情、后台管理与生日检查
 */
package news

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/response"
	"github.com/paimon-guide/guide-app/pkg/service/news"
)

// BirthdayDispatcher 把生日检查放入后台任务队列
type BirthdayDispatcher interface {
	DispatchBirthdayCheck() error
}

type Handler struct {
	newsSvc     news.NewsService
	birthdaySvc news.BirthdayService
	dispatcher  BirthdayDispatcher
}

// NewHandler dispatcher 为 nil 时异步请求退化为同步执行
func NewHandler(newsSvc news.NewsService, birthdaySvc news.BirthdayService, dispatcher BirthdayDispatcher) *Handler {
	return &Handler{newsSvc: newsSvc, birthdaySvc: birthdaySvc, dispatcher: dispatcher}
}

// List 分页获取已发布的公告
// @Summary      公告列表
// @Tags         公告
// @Produce      json
// @Param        page      query  int     false  "页码"
// @Param        pageSize  query  int     false  "每页数量"
// @Param        type      query  string  false  "公告类型"
// @Success      200  {object}  response.Response{data=model.NewsListResult}  "获取成功"
// @Router       /public/news [get]
func (h *Handler) List(c *gin.Context) {
	var query model.NewsListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Fail(c, http.StatusBadRequest, "查询参数错误")
		return
	}

	result, err := h.newsSvc.ListPublished(c.Request.Context(), query)
	if err != nil {
		log.Printf("[News] 获取公告列表失败: %v", err)
		response.FailWithError(c, err, "获取公告列表失败")
		return
	}
	response.Success(c, result, "获取公告列表成功")
}

// Get 获取单条公告详情
// @Summary      公告详情
// @Tags         公告
// @Produce      json
// @Param        id  path  string  true  "公告ID"
// @Success      200  {object}  response.Response{data=model.News}  "获取成功"
// @Failure      404  {object}  response.Response  "公告不存在"
// @Router       /public/news/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	item, err := h.newsSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if response.StatusOf(err) == http.StatusInternalServerError {
			log.Printf("[News] 获取公告详情失败: id=%s err=%v", c.Param("id"), err)
		}
		response.FailWithError(c, err, "获取公告详情失败")
		return
	}
	response.Success(c, item, "获取公告详情成功")
}

// Create 后台创建公告
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: 标题和内容不能为空")
		return
	}

	item, err := h.newsSvc.Create(c.Request.Context(), &req)
	if err != nil {
		if response.StatusOf(err) == http.StatusInternalServerError {
			log.Printf("[News] 创建公告失败: title=%s err=%v", req.Title, err)
		}
		response.FailWithError(c, err, "创建公告失败")
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, item, "创建公告成功")
}

// Delete 后台删除公告
func (h *Handler) Delete(c *gin.Context) {
	if err := h.newsSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if response.StatusOf(err) == http.StatusInternalServerError {
			log.Printf("[News] 删除公告失败: id=%s err=%v", c.Param("id"), err)
		}
		response.FailWithError(c, err, "删除公告失败")
		return
	}
	response.Success(c, nil, "删除公告成功")
}

// BirthdayCheck GET 只预演不写入，POST 实际生成公告；POST 带 async=true 时放入后台队列并立即返回 202
// @Summary      生日公告检查
// @Tags         公告
// @Security     BearerAuth
// @Produce      json
// @Param        async  query  bool  false  "仅 POST 有效，放入后台队列执行"
// @Success      200  {object}  response.Response{data=model.BirthdayCheckResult}  "检查完成"
// @Success      202  {object}  response.Response  "已加入后台队列"
// @Failure      409  {object}  response.Response  "已有检查正在执行"
// @Failure      503  {object}  response.Response  "后台队列已满"
// @Router       /news/birthday-check [get]
// @Router       /news/birthday-check [post]
func (h *Handler) BirthdayCheck(c *gin.Context) {
	dryRun := c.Request.Method == http.MethodGet

	if !dryRun && h.dispatcher != nil && c.Query("async") == "true" {
		if err := h.dispatcher.DispatchBirthdayCheck(); err != nil {
			response.FailWithError(c, err, "生日检查入队失败")
			return
		}
		response.SuccessWithStatus(c, http.StatusAccepted, nil, "生日检查已加入后台队列")
		return
	}

	result, err := h.birthdaySvc.Check(c.Request.Context(), dryRun)
	if err != nil {
		if response.StatusOf(err) == http.StatusInternalServerError {
			log.Printf("[News] 生日检查失败: dryRun=%t err=%v", dryRun, err)
		}
		response.FailWithError(c, err, "生日检查失败")
		return
	}

	if dryRun {
		response.Success(c, result, "生日检查预演完成")
		return
	}
	response.Success(c, result, "生日检查完成")
}
