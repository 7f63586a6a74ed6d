package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/llm"
	"github.com/BaSui01/contentguard/moderation"
)

const (
	testTextModel   = "qwen-plus"
	testVisionModel = "qwen3-vl-plus"
	testMaxBytes    = 1024 * 1024
)

// stubProvider 按模型名返回预置回复
type stubProvider struct {
	replies map[string]string
	errs    map[string]error
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		replies: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true, Latency: time.Millisecond}, nil
}

func (s *stubProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err, ok := s.errs[req.Model]; ok {
		return nil, err
	}
	return &llm.ChatResponse{
		Provider: s.Name(),
		Model:    req.Model,
		Choices: []llm.ChatChoice{
			{Message: llm.Message{Role: llm.RoleAssistant, Content: s.replies[req.Model]}},
		},
	}, nil
}

func newTestPipeline(provider *stubProvider) *moderation.Pipeline {
	logger := zap.NewNop()
	return moderation.NewPipeline(
		moderation.NewTextModerator(provider, nil, testTextModel, logger),
		moderation.NewImageModerator(provider, testVisionModel, logger),
		moderation.NewImageDescriber(provider, testVisionModel, logger),
		logger,
	)
}

// multipartBody 构造 multipart 请求体
func multipartBody(t *testing.T, text string, filename, contentType string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if text != "" {
		require.NoError(t, w.WriteField("text", text))
	}
	if filename != "" {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
		if contentType != "" {
			header["Content-Type"] = []string{contentType}
		}
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// decodeResponse 解析统一响应结构
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// dataField 从响应 data 中提取字段
func dataField(t *testing.T, resp Response, key string) interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	return data[key]
}

func doRequest(handler http.HandlerFunc, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}
