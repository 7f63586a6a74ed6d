package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/api"
	"github.com/BaSui01/contentguard/internal/audit"
	"github.com/BaSui01/contentguard/internal/metrics"
	"github.com/BaSui01/contentguard/llm"
	"github.com/BaSui01/contentguard/moderation"
	"github.com/BaSui01/contentguard/types"
)

// =============================================================================
// 🛡️ 同步审核接口 Handler
// =============================================================================

// allowedImageTypes 接受的图片 MIME 类型
var allowedImageTypes = map[string]llm.ImageFormat{
	"image/jpeg": llm.ImageFormatJPEG,
	"image/jpg":  llm.ImageFormatJPEG,
	"image/png":  llm.ImageFormatPNG,
	"image/gif":  llm.ImageFormatGIF,
	"image/bmp":  llm.ImageFormatBMP,
	"image/webp": llm.ImageFormatWebP,
}

// extImageFormats 按文件扩展名识别图片格式，用于缺失 Content-Type 的上传
var extImageFormats = map[string]llm.ImageFormat{
	".jpeg": llm.ImageFormatJPEG,
	".jpg":  llm.ImageFormatJPEG,
	".png":  llm.ImageFormatPNG,
	".gif":  llm.ImageFormatGIF,
	".bmp":  llm.ImageFormatBMP,
	".webp": llm.ImageFormatWebP,
}

// ModerateHandler 同步审核接口处理器
type ModerateHandler struct {
	pipeline      *moderation.Pipeline
	collector     *metrics.Collector
	audit         *audit.Store
	maxImageBytes int64
	logger        *zap.Logger
}

// NewModerateHandler 创建同步审核处理器。
// audit 可以为 nil，表示不落审计库。
func NewModerateHandler(pipeline *moderation.Pipeline, collector *metrics.Collector, auditStore *audit.Store, maxImageBytes int64, logger *zap.Logger) *ModerateHandler {
	return &ModerateHandler{
		pipeline:      pipeline,
		collector:     collector,
		audit:         auditStore,
		maxImageBytes: maxImageBytes,
		logger:        logger.With(zap.String("component", "moderate_handler")),
	}
}

// HandleText 处理纯文本审核请求
// @Summary 文本审核
// @Accept json
// @Produce json
// @Param request body api.TextModerationRequest true "文本审核请求"
// @Success 200 {object} Response "审核结果"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/moderate/text [post]
func (h *ModerateHandler) HandleText(w http.ResponseWriter, r *http.Request) {
	var req api.TextModerationRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "text 不能为空"), h.logger)
		return
	}

	h.runPipeline(w, r, &moderation.Request{Text: req.Text})
}

// HandleImage 处理纯图片审核请求（multipart 上传，字段名 file）
// @Summary 图片审核
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "图片文件"
// @Success 200 {object} Response "审核结果"
// @Failure 400 {object} Response "无效请求"
// @Failure 413 {object} Response "文件过大"
// @Failure 415 {object} Response "不支持的格式"
// @Router /api/v1/moderate/image [post]
func (h *ModerateHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	img, apiErr := h.readImageUpload(w, r, true)
	if apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	h.runPipeline(w, r, &moderation.Request{Image: img})
}

// HandleContent 处理图文混合审核请求（multipart，text 字段 + 可选 file 字段）
// @Summary 图文混合审核
// @Accept multipart/form-data
// @Produce json
// @Param text formData string false "待审核文本"
// @Param file formData file false "图片文件"
// @Success 200 {object} Response "审核结果"
// @Router /api/v1/moderate/content [post]
func (h *ModerateHandler) HandleContent(w http.ResponseWriter, r *http.Request) {
	img, apiErr := h.readImageUpload(w, r, false)
	if apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}

	text := r.FormValue("text")
	if strings.TrimSpace(text) == "" && img == nil {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "text 与 file 至少提供一个"), h.logger)
		return
	}

	h.runPipeline(w, r, &moderation.Request{Text: text, Image: img})
}

// runPipeline 执行编排图并写出统一响应
func (h *ModerateHandler) runPipeline(w http.ResponseWriter, r *http.Request, req *moderation.Request) {
	start := time.Now()
	result, err := h.pipeline.Run(r.Context(), req)
	duration := time.Since(start)

	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.recordResult(r, req, result, duration)

	WriteSuccess(w, api.ModerationResponse{
		OverallVerdict: *result,
		RequestID:      r.Header.Get("X-Request-ID"),
		DurationMS:     duration.Milliseconds(),
	})
}

// recordResult 记录指标并尽力写入审计库
func (h *ModerateHandler) recordResult(r *http.Request, req *moderation.Request, result *types.OverallVerdict, duration time.Duration) {
	if h.collector != nil {
		if result.TextModeration != nil {
			h.collector.RecordModeration("text", result.TextModeration.IsSafe, duration)
			if m := result.TextModeration.Method; m == types.MethodKeywordAnalysis || m == types.MethodAnalysisFailed {
				h.collector.RecordFallback(string(m))
			}
		}
		if result.ImageModeration != nil {
			h.collector.RecordModeration("image", result.ImageModeration.IsSafe, duration)
			if result.ImageModeration.Method == types.MethodAnalysisFailed {
				h.collector.RecordFallback(string(types.MethodAnalysisFailed))
			}
		}
	}

	if h.audit != nil {
		// 审计失败不影响请求结果
		_ = h.audit.Write(r.Context(), audit.Entry{
			RequestID: r.Header.Get("X-Request-ID"),
			HasText:   strings.TrimSpace(req.Text) != "",
			HasImage:  !req.Image.Empty(),
			Verdict:   result,
		})
	}
}

// readImageUpload 从 multipart 表单读取并校验图片。
// required 为 false 时缺失 file 字段返回 (nil, nil)。
func (h *ModerateHandler) readImageUpload(w http.ResponseWriter, r *http.Request, required bool) (*moderation.Image, *types.Error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+64*1024) // 表单开销余量

	if err := r.ParseMultipartForm(h.maxImageBytes); err != nil {
		if isBodyTooLarge(err) {
			return nil, types.NewError(types.ErrPayloadTooLarge, "图片大小超过限制").WithCause(err)
		}
		return nil, types.NewError(types.ErrInvalidRequest, "无效的 multipart 表单").WithCause(err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile && !required {
			return nil, nil
		}
		return nil, types.NewError(types.ErrInvalidRequest, "缺少 file 字段").WithCause(err)
	}
	defer file.Close()

	format, ok := detectImageFormat(header)
	if !ok {
		return nil, types.NewError(types.ErrUnsupportedFormat,
			"不支持的图片格式，仅接受 jpeg/jpg/png/gif/bmp/webp")
	}

	if header.Size > h.maxImageBytes {
		return nil, types.NewError(types.ErrPayloadTooLarge, "图片大小超过限制")
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "读取上传文件失败").WithCause(err)
	}
	if int64(len(data)) > h.maxImageBytes {
		return nil, types.NewError(types.ErrPayloadTooLarge, "图片大小超过限制")
	}

	return &moderation.Image{
		Base64: llm.EncodeImageBase64(data),
		Format: format,
	}, nil
}

// detectImageFormat 按 Content-Type 优先、扩展名兜底识别图片格式
func detectImageFormat(header *multipart.FileHeader) (llm.ImageFormat, bool) {
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if format, ok := allowedImageTypes[contentType]; ok {
		return format, true
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if format, ok := extImageFormats[ext]; ok {
		return format, true
	}
	return "", false
}

// isBodyTooLarge 判断错误是否由 MaxBytesReader 触发
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
