package llm

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ImageFormat represents supported image formats.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatGIF  ImageFormat = "gif"
	ImageFormatBMP  ImageFormat = "bmp"
	ImageFormatWebP ImageFormat = "webp"
)

// NormalizeImageFormat 将文件扩展名归一为标准格式，未知扩展名按 jpeg 处理。
func NormalizeImageFormat(ext string) ImageFormat {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return ImageFormatPNG
	case "jpg", "jpeg":
		return ImageFormatJPEG
	case "gif":
		return ImageFormatGIF
	case "bmp":
		return ImageFormatBMP
	case "webp":
		return ImageFormatWebP
	default:
		return ImageFormatJPEG
	}
}

// EncodeImageBase64 将原始图片字节编码为 base64 字符串。
func EncodeImageBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ImageDataURL 构造 data URL，供 OpenAI 兼容协议的 image_url 分片使用。
func ImageDataURL(b64 string, format ImageFormat) string {
	return fmt.Sprintf("data:image/%s;base64,%s", format, b64)
}

// NewTextPart creates a text content part.
func NewTextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// NewImagePart creates an image content part from a base64 payload.
func NewImagePart(b64 string, format ImageFormat) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: ImageDataURL(b64, format)}
}
