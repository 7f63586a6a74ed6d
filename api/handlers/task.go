package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/api"
	"github.com/BaSui01/contentguard/internal/audit"
	"github.com/BaSui01/contentguard/internal/metrics"
	"github.com/BaSui01/contentguard/internal/task"
	"github.com/BaSui01/contentguard/moderation"
	"github.com/BaSui01/contentguard/types"
)

// =============================================================================
// 📋 异步审核任务 Handler
// =============================================================================

// processTimeout 单个后台任务的处理超时
const processTimeout = 5 * time.Minute

// TaskHandler 异步审核任务处理器
type TaskHandler struct {
	pipeline      *moderation.Pipeline
	store         task.Store
	collector     *metrics.Collector
	audit         *audit.Store
	maxImageBytes int64
	logger        *zap.Logger

	// wg 跟踪在途的后台任务，Drain 依赖它等待落库完成
	wg sync.WaitGroup

	// 测试钩子：任务进入终态后调用
	onDone func(taskID string)
}

// NewTaskHandler 创建异步任务处理器。audit 可以为 nil。
func NewTaskHandler(pipeline *moderation.Pipeline, store task.Store, collector *metrics.Collector, auditStore *audit.Store, maxImageBytes int64, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		pipeline:      pipeline,
		store:         store,
		collector:     collector,
		audit:         auditStore,
		maxImageBytes: maxImageBytes,
		logger:        logger.With(zap.String("component", "task_handler")),
	}
}

// HandleCreate 受理异步审核任务（multipart，text 字段 + 可选 file 字段）
// @Summary 创建异步审核任务
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} Response "任务回执"
// @Router /api/v1/tasks [post]
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	// 复用同步接口的上传校验，异步限额更宽
	reader := &ModerateHandler{maxImageBytes: h.maxImageBytes, logger: h.logger}
	img, apiErr := reader.readImageUpload(w, r, false)
	if apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	text := r.FormValue("text")
	if strings.TrimSpace(text) == "" && img == nil {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "text 与 file 至少提供一个"), h.logger)
		return
	}

	t := task.New()
	if err := h.store.Save(r.Context(), t); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.logger.Info("moderation task accepted",
		zap.String("task_id", t.ID),
		zap.Bool("has_text", text != ""),
		zap.Bool("has_image", img != nil),
	)

	h.wg.Add(1)
	go h.process(t, &moderation.Request{Text: text, Image: img})

	WriteSuccess(w, api.TaskCreatedResponse{
		TaskID:    t.ID,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	})
}

// Drain 阻塞直到所有在途后台任务进入终态并完成持久化。
// 关闭流程必须先停止接收新请求、再 Drain、最后才能关闭任务存储，
// 否则任务终态会因存储已关闭而丢失。
func (h *TaskHandler) Drain() {
	h.wg.Wait()
}

// process 在后台运行编排图并持久化终态
func (h *TaskHandler) process(t *task.Task, req *moderation.Request) {
	defer h.wg.Done()

	if h.collector != nil {
		h.collector.TaskStarted()
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	t.MarkProcessing()
	if err := h.store.Save(ctx, t); err != nil {
		h.logger.Error("task state save failed", zap.String("task_id", t.ID), zap.Error(err))
	}

	result, err := h.pipeline.Run(ctx, req)
	if err != nil {
		t.MarkFailed(err)
		h.logger.Error("moderation task failed", zap.String("task_id", t.ID), zap.Error(err))
	} else {
		t.MarkCompleted(result)
		if h.audit != nil {
			_ = h.audit.Write(ctx, audit.Entry{
				TaskID:   t.ID,
				HasText:  strings.TrimSpace(req.Text) != "",
				HasImage: !req.Image.Empty(),
				Verdict:  result,
			})
		}
	}

	if err := h.store.Save(ctx, t); err != nil {
		h.logger.Error("task result save failed", zap.String("task_id", t.ID), zap.Error(err))
	}

	if h.collector != nil {
		h.collector.TaskFinished(string(t.Status))
	}
	if h.onDone != nil {
		h.onDone(t.ID)
	}
}

// HandleGet 查询单个任务状态
// @Summary 查询任务
// @Produce json
// @Param id path string true "任务 ID"
// @Success 200 {object} Response "任务记录"
// @Failure 404 {object} Response "任务不存在"
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "缺少任务 ID"), h.logger)
		return
	}

	t, err := h.store.Get(r.Context(), id)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	WriteSuccess(w, t)
}

// HandleList 列出所有未过期任务
// @Summary 任务列表
// @Produce json
// @Success 200 {object} Response "任务数组"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.List(r.Context())
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	WriteSuccess(w, tasks)
}

// HandleDelete 删除任务记录
// @Summary 删除任务
// @Produce json
// @Param id path string true "任务 ID"
// @Success 200 {object} Response "删除确认"
// @Failure 404 {object} Response "任务不存在"
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "缺少任务 ID"), h.logger)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"task_id": id, "status": "deleted"})
}
