package moderation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/contentguard/types"
)

// Request 是一次审核请求的输入：文本和/或图片。
type Request struct {
	Text  string
	Image *Image
}

// 编排图的节点名，用于日志与图级错误定位。
const (
	nodeTextCheck  = "text_check"
	nodeImageCheck = "image_check"
	nodeDescribe   = "image_describe"
	nodeCombine    = "combine"
)

// Pipeline 是审核编排图：
//
//	start → text_check → {image_check | combine} → combine → done
//
// 文本节点总是执行（空文本由节点内部归一为 no_content）；图片节点仅在
// 提供图片时执行，且审核与描述两个调用互相独立。两条分支没有数据依赖，
// 并发执行；合并器是同步点，等待所有在途节点完成后才运行。
//
// 图从不因中间判定不安全而短路——请求的所有模态都会被完整评估，
// 调用方拿到的是完整诊断信息而不只是通过/不通过。
type Pipeline struct {
	text      *TextModerator
	image     *ImageModerator
	describer *ImageDescriber
	logger    *zap.Logger
}

// NewPipeline 创建审核编排管道。
func NewPipeline(text *TextModerator, image *ImageModerator, describer *ImageDescriber, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		text:      text,
		image:     image,
		describer: describer,
		logger:    logger.With(zap.String("component", "moderation_pipeline")),
	}
}

// Run 执行编排图并返回整体判定。
//
// 节点内的模型失败已在节点内部降级（关键词匹配 / 保守判定 / 空描述），
// 不会中断图。只有逃逸出节点处理的异常（编程错误）才以
// ErrPipelineFailed 返回，此时不产生任何判定。
func (p *Pipeline) Run(ctx context.Context, req *Request) (*types.OverallVerdict, error) {
	hasImage := !req.Image.Empty()
	p.logger.Debug("starting moderation graph",
		zap.Bool("has_text", req.Text != ""),
		zap.Bool("has_image", hasImage),
	)

	var (
		textVerdict  types.Verdict
		imageVerdict types.Verdict
		description  string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.runNode(nodeTextCheck, func() {
			textVerdict = p.text.Moderate(gctx, req.Text)
		})
	})

	if hasImage {
		g.Go(func() error {
			return p.runNode(nodeImageCheck, func() {
				imageVerdict = p.image.Moderate(gctx, req.Image)
			})
		})
		g.Go(func() error {
			return p.runNode(nodeDescribe, func() {
				description = p.describer.Describe(gctx, req.Image)
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var imagePtr *types.Verdict
	if hasImage {
		imagePtr = &imageVerdict
	}

	var overall types.OverallVerdict
	if err := p.runNode(nodeCombine, func() {
		overall = Combine(&textVerdict, imagePtr, description)
	}); err != nil {
		return nil, err
	}

	p.logger.Info("moderation graph finished",
		zap.Bool("overall_safe", overall.OverallSafe),
		zap.String("risk_level", string(overall.RiskLevel)),
		zap.String("text_method", string(textVerdict.Method)),
	)
	return &overall, nil
}

// runNode 执行单个节点并把逃逸的 panic 转换为图级错误。
// 节点自身的失败语义（降级判定）在节点内部处理，这里只兜住编程错误。
func (p *Pipeline) runNode(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("moderation node panicked",
				zap.String("node", name),
				zap.Any("panic", r),
			)
			err = types.NewError(types.ErrPipelineFailed,
				fmt.Sprintf("节点 %s 执行失败，未产生判定: %v", name, r))
		}
	}()
	fn()
	return nil
}
