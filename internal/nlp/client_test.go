package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ops/shift-scheduler/backend/internal/config"
	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

func testClient(baseURL string) *Client {
	cfg := &config.Config{}
	cfg.NLP.BaseURL = baseURL
	cfg.NLP.APIKey = "test-key"
	cfg.NLP.Model = "test-model"
	cfg.NLP.MaxTokens = 1024
	cfg.NLP.Timeout = 5
	return NewClient(cfg)
}

func messagesReply(text string) string {
	body, _ := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return string(body)
}

func TestParseModification(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messagesReply(`[
			{"type": "adjust", "employee_name": "张伟", "job_type": "厨房", "action": "increase", "amount": 3},
			{"type": "pin", "employee_name": "李静", "date": "2026-03-05", "new_job_type": "休息"}
		]`)))
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.ParseModification(context.Background(),
		"张伟多排三天厨房，李静 3 月 5 日休息", "概要", "明细",
		[]string{"张伟", "李静"}, []string{"厨房", "大厅"})
	require.NoError(t, err)

	assert.Equal(t, "/v1/messages", gotPath)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "test-model", gotBody["model"])

	require.Len(t, result.Intents, 1)
	assert.Equal(t, "张伟", result.Intents[0].EmployeeRef)
	assert.Equal(t, domain.DirectionIncrease, result.Intents[0].Direction)
	assert.Equal(t, "厨房", result.Intents[0].JobTypeRef)
	require.NotNil(t, result.Intents[0].Amount)
	assert.Equal(t, 3, *result.Intents[0].Amount)

	require.Len(t, result.Pins, 1)
	assert.Equal(t, "李静", result.Pins[0].EmployeeRef)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), result.Pins[0].Date)
	assert.Equal(t, "休息", result.Pins[0].JobTypeRef)
}

func TestParseModificationStripsCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(messagesReply("```json\n[{\"type\": \"adjust\", \"employee_name\": \"张伟\", \"job_type\": \"厨房\", \"action\": \"decrease\", \"amount\": null}]\n```")))
	}))
	defer server.Close()

	result, err := testClient(server.URL).ParseModification(context.Background(),
		"张伟少排点厨房", "", "", nil, nil)
	require.NoError(t, err)

	require.Len(t, result.Intents, 1)
	assert.Equal(t, domain.DirectionDecrease, result.Intents[0].Direction)
	assert.Nil(t, result.Intents[0].Amount)
}

func TestParseModificationServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).ParseModification(context.Background(), "指示", "", "", nil, nil)
	var parseErr *domain.NlpParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), "503")
}

func TestParseModificationInvalidPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(messagesReply("我做不到")))
	}))
	defer server.Close()

	_, err := testClient(server.URL).ParseModification(context.Background(), "指示", "", "", nil, nil)
	var parseErr *domain.NlpParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseModificationUnknownAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(messagesReply(`[{"type": "adjust", "employee_name": "张伟", "job_type": "厨房", "action": "explode"}]`)))
	}))
	defer server.Close()

	_, err := testClient(server.URL).ParseModification(context.Background(), "指示", "", "", nil, nil)
	var parseErr *domain.NlpParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), "explode")
}

func TestBuildScheduleContext(t *testing.T) {
	employees := []*domain.Employee{
		{ID: 1, Name: "张伟"},
	}
	jobTypes := []*domain.JobType{
		{ID: 1, Name: "厨房"},
	}
	kitchenID := int64(1)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	working := &domain.ShiftAssignment{EmployeeID: 1, EmployeeName: "张伟", Date: date}
	working.SetWork(kitchenID, domain.WorkFull)
	resting := &domain.ShiftAssignment{EmployeeID: 1, EmployeeName: "张伟", Date: date.AddDate(0, 0, 1)}
	resting.SetOff()

	summary, detail := BuildScheduleContext(employees, jobTypes, []*domain.ShiftAssignment{working, resting})

	assert.Contains(t, summary, "张伟")
	assert.Contains(t, summary, "出勤 1 天")
	assert.Contains(t, summary, "厨房 1天")
	assert.Contains(t, detail, "2026-03-02=厨房")
	assert.Contains(t, detail, "2026-03-03=休息")
}
