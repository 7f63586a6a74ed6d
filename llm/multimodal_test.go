package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeImageFormat(t *testing.T) {
	tests := []struct {
		ext  string
		want ImageFormat
	}{
		{"jpg", ImageFormatJPEG},
		{"JPEG", ImageFormatJPEG},
		{".png", ImageFormatPNG},
		{"gif", ImageFormatGIF},
		{"bmp", ImageFormatBMP},
		{"webp", ImageFormatWebP},
		{"tiff", ImageFormatJPEG}, // 未知扩展名回退 jpeg
		{"", ImageFormatJPEG},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeImageFormat(tt.ext), "ext=%q", tt.ext)
	}
}

func TestImageDataURL(t *testing.T) {
	url := ImageDataURL("aGVsbG8=", ImageFormatPNG)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", url)
}

func TestEncodeImageBase64(t *testing.T) {
	assert.Equal(t, "aGVsbG8=", EncodeImageBase64([]byte("hello")))
}

func TestNewImagePart(t *testing.T) {
	p := NewImagePart("Zm9v", ImageFormatJPEG)
	assert.Equal(t, "image_url", p.Type)
	assert.Equal(t, "data:image/jpeg;base64,Zm9v", p.ImageURL)
	assert.Empty(t, p.Text)
}

func TestFirstChoiceContent(t *testing.T) {
	var nilResp *ChatResponse
	assert.Empty(t, nilResp.FirstChoiceContent())
	assert.Empty(t, (&ChatResponse{}).FirstChoiceContent())

	resp := &ChatResponse{Choices: []ChatChoice{{Message: Message{Role: RoleAssistant, Content: "ok"}}}}
	assert.Equal(t, "ok", resp.FirstChoiceContent())
}
