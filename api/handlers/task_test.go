package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/internal/task"
	"github.com/BaSui01/contentguard/llm"
	"github.com/BaSui01/contentguard/moderation"
)

func newTaskHandler(t *testing.T, provider *stubProvider) (*TaskHandler, chan string) {
	store := task.NewMemoryStore(time.Minute, zap.NewNop())
	t.Cleanup(func() { store.Close() })

	h := NewTaskHandler(newTestPipeline(provider), store, nil, nil, testMaxBytes, zap.NewNop())
	done := make(chan string, 1)
	h.onDone = func(taskID string) { done <- taskID }
	return h, done
}

func waitForTask(t *testing.T, done chan string) string {
	t.Helper()
	select {
	case id := <-done:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish in time")
		return ""
	}
}

func getTask(h *TaskHandler, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)
	return rec
}

func TestTaskHandler_CreateAndComplete(t *testing.T) {
	provider := newStubProvider()
	provider.replies[testTextModel] = `{"is_safe": true, "risk_level": "low", "confidence": 0.95}`
	h, done := newTaskHandler(t, provider)

	body, contentType := multipartBody(t, "一段正常文本", "", "", nil)
	rec := doRequest(h.HandleCreate, http.MethodPost, "/api/v1/tasks", body, contentType)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	taskID, ok := dataField(t, resp, "task_id").(string)
	require.True(t, ok)
	require.NotEmpty(t, taskID)
	assert.Equal(t, "pending", dataField(t, resp, "status"))

	// 等待后台处理完成
	assert.Equal(t, taskID, waitForTask(t, done))

	getRec := getTask(h, taskID)
	require.Equal(t, http.StatusOK, getRec.Code)
	getResp := decodeResponse(t, getRec)
	assert.Equal(t, "completed", dataField(t, getResp, "status"))
	assert.NotNil(t, dataField(t, getResp, "result"))
}

func TestTaskHandler_CreateWithImage(t *testing.T) {
	provider := newStubProvider()
	provider.replies[testTextModel] = `{"is_safe": true, "risk_level": "low", "confidence": 0.95}`
	provider.replies[testVisionModel] = `{"is_safe": false, "risk_level": "high", "categories": ["adult"], "confidence": 0.9}`
	h, done := newTaskHandler(t, provider)

	body, contentType := multipartBody(t, "文本", "img.jpg", "image/jpeg", []byte("fake jpg"))
	rec := doRequest(h.HandleCreate, http.MethodPost, "/api/v1/tasks", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	taskID := waitForTask(t, done)

	getRec := getTask(h, taskID)
	getResp := decodeResponse(t, getRec)
	assert.Equal(t, "completed", dataField(t, getResp, "status"))

	result, ok := dataField(t, getResp, "result").(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, result["overall_safe"])
	assert.Equal(t, "high", result["risk_level"])
}

// gatedProvider 在 release 关闭前阻塞所有模型调用，用于制造在途任务
type gatedProvider struct {
	inner   *stubProvider
	release chan struct{}
}

func (g *gatedProvider) Name() string { return g.inner.Name() }

func (g *gatedProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return g.inner.HealthCheck(ctx)
}

func (g *gatedProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	<-g.release
	return g.inner.Completion(ctx, req)
}

func TestTaskHandler_DrainWaitsForInFlightTasks(t *testing.T) {
	inner := newStubProvider()
	inner.replies[testTextModel] = `{"is_safe": true, "risk_level": "low", "confidence": 0.95}`
	gated := &gatedProvider{inner: inner, release: make(chan struct{})}

	logger := zap.NewNop()
	pipeline := moderation.NewPipeline(
		moderation.NewTextModerator(gated, nil, testTextModel, logger),
		moderation.NewImageModerator(gated, testVisionModel, logger),
		moderation.NewImageDescriber(gated, testVisionModel, logger),
		logger,
	)
	store := task.NewMemoryStore(time.Minute, logger)
	t.Cleanup(func() { store.Close() })
	h := NewTaskHandler(pipeline, store, nil, nil, testMaxBytes, logger)

	body, contentType := multipartBody(t, "一段正常文本", "", "", nil)
	rec := doRequest(h.HandleCreate, http.MethodPost, "/api/v1/tasks", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)
	taskID, ok := dataField(t, decodeResponse(t, rec), "task_id").(string)
	require.True(t, ok)

	drained := make(chan struct{})
	go func() {
		h.Drain()
		close(drained)
	}()

	// 任务仍被模型调用阻塞，Drain 不得提前返回
	select {
	case <-drained:
		t.Fatal("Drain returned while a task was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(gated.release)

	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		t.Fatal("Drain did not return after tasks finished")
	}

	// Drain 返回后终态已经落库，之后关闭存储也不会丢结果
	getRec := getTask(h, taskID)
	require.Equal(t, http.StatusOK, getRec.Code)
	assert.Equal(t, "completed", dataField(t, decodeResponse(t, getRec), "status"))
}

func TestTaskHandler_CreateRejectsEmpty(t *testing.T) {
	h, _ := newTaskHandler(t, newStubProvider())

	body, contentType := multipartBody(t, "", "", "", nil)
	rec := doRequest(h.HandleCreate, http.MethodPost, "/api/v1/tasks", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_GetMissing(t *testing.T) {
	h, _ := newTaskHandler(t, newStubProvider())

	rec := getTask(h, "no-such-id")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "task_not_found", resp.Error.Code)
}

func TestTaskHandler_ListAndDelete(t *testing.T) {
	provider := newStubProvider()
	provider.replies[testTextModel] = `{"is_safe": true, "risk_level": "low", "confidence": 0.95}`
	h, done := newTaskHandler(t, provider)

	body, contentType := multipartBody(t, "文本", "", "", nil)
	rec := doRequest(h.HandleCreate, http.MethodPost, "/api/v1/tasks", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)
	taskID := waitForTask(t, done)

	// 列表包含该任务
	listRec := doRequest(h.HandleList, http.MethodGet, "/api/v1/tasks", nil, "")
	require.Equal(t, http.StatusOK, listRec.Code)
	listResp := decodeResponse(t, listRec)
	items, ok := listResp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)

	// 删除后再查返回 404
	delReq := httptest.NewRequest(http.MethodDelete, "/api/v1/tasks/"+taskID, nil)
	delReq.SetPathValue("id", taskID)
	delRec := httptest.NewRecorder()
	h.HandleDelete(delRec, delReq)
	require.Equal(t, http.StatusOK, delRec.Code)

	assert.Equal(t, http.StatusNotFound, getTask(h, taskID).Code)
}

func TestTaskHandler_ListEmpty(t *testing.T) {
	h, _ := newTaskHandler(t, newStubProvider())

	rec := doRequest(h.HandleList, http.MethodGet, "/api/v1/tasks", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Empty(t, items)
}
