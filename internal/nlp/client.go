// Package nlp 封装外部自然语言解析服务。对核心而言它是一个不可信的
// 协作方：这里只负责拿到结构化指令，硬约束的校验全部留给修改引擎
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/config"
	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

const (
	messagesPath     = "/v1/messages"
	anthropicVersion = "2023-06-01"
)

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.NLP.Timeout) * time.Second,
		},
	}
}

// ParseResult 是解析服务输出契约：有序的调整指令，外加定点修改
type ParseResult struct {
	Intents []domain.EditIntent
	Pins    []domain.PinEdit
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// rawInstruction 是解析服务返回的 JSON 数组元素
type rawInstruction struct {
	Type         string `json:"type"` // "adjust" 或 "pin"
	EmployeeName string `json:"employee_name"`
	JobType      string `json:"job_type"`
	Action       string `json:"action"` // increase / decrease / set
	Amount       *int   `json:"amount"`
	Date         string `json:"date"`         // pin 专用，ISO 日期
	NewJobType   string `json:"new_job_type"` // pin 专用，"休息" 表示改休
}

// ParseModification 把自由文本转成结构化指令。
// 超时、响应格式错误都会以 NlpParseError 返回，不产生任何指令
func (c *Client) ParseModification(ctx context.Context, inputText, summary, detail string, employeeNames, jobTypeNames []string) (*ParseResult, error) {
	prompt := c.buildPrompt(inputText, summary, detail, employeeNames, jobTypeNames)

	body, err := json.Marshal(messagesRequest{
		Model:     c.cfg.NLP.Model,
		MaxTokens: c.cfg.NLP.MaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, &domain.NlpParseError{Reason: "构造请求失败", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.NLP.BaseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.NlpParseError{Reason: "构造请求失败", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.NLP.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NlpParseError{Reason: "请求解析服务失败", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &domain.NlpParseError{
			Reason: fmt.Sprintf("解析服务返回 %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return nil, &domain.NlpParseError{Reason: "响应不是合法的 JSON", Err: err}
	}
	if len(msgResp.Content) == 0 {
		return nil, &domain.NlpParseError{Reason: "响应内容为空"}
	}

	return parseInstructions(msgResp.Content[0].Text)
}

func (c *Client) buildPrompt(inputText, summary, detail string, employeeNames, jobTypeNames []string) string {
	var b strings.Builder
	b.WriteString("请把下面的排班修改指示转换成 JSON 数组，不要输出任何解释文字。\n\n")
	b.WriteString("指示: " + inputText + "\n\n")
	b.WriteString("员工名单: " + strings.Join(employeeNames, "、") + "\n")
	b.WriteString("工种名单: " + strings.Join(jobTypeNames, "、") + "\n\n")
	b.WriteString("当前排班概要:\n" + summary + "\n\n")
	b.WriteString("每日明细:\n" + detail + "\n\n")
	b.WriteString(`输出格式（JSON 数组，元素二选一）:
调整类: {"type": "adjust", "employee_name": "...", "job_type": "...", "action": "increase|decrease|set", "amount": 数值或 null}
定点类: {"type": "pin", "employee_name": "...", "date": "YYYY-MM-DD", "new_job_type": "工种名或休息"}

注意:
- employee_name 与 job_type 必须与上面的名单完全一致
- 只输出 JSON 数组本身`)
	return b.String()
}

// parseInstructions 容忍模型把 JSON 包在代码块里的习惯
func parseInstructions(text string) (*ParseResult, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var raws []rawInstruction
	if err := json.Unmarshal([]byte(text), &raws); err != nil {
		return nil, &domain.NlpParseError{Reason: "无法解析指令数组", Err: err}
	}

	result := &ParseResult{}
	for _, raw := range raws {
		switch raw.Type {
		case "pin":
			date, err := time.ParseInLocation("2006-01-02", raw.Date, time.UTC)
			if err != nil {
				return nil, &domain.NlpParseError{
					Reason: fmt.Sprintf("定点指令的日期 %q 无法解析", raw.Date), Err: err,
				}
			}
			result.Pins = append(result.Pins, domain.PinEdit{
				EmployeeRef: raw.EmployeeName,
				Date:        date,
				JobTypeRef:  raw.NewJobType,
			})
		case "adjust", "":
			direction := domain.EditDirection(raw.Action)
			switch direction {
			case domain.DirectionIncrease, domain.DirectionDecrease, domain.DirectionSet:
			default:
				return nil, &domain.NlpParseError{
					Reason: fmt.Sprintf("未知的调整动作 %q", raw.Action),
				}
			}
			result.Intents = append(result.Intents, domain.EditIntent{
				EmployeeRef: raw.EmployeeName,
				Direction:   direction,
				JobTypeRef:  raw.JobType,
				Amount:      raw.Amount,
			})
		default:
			return nil, &domain.NlpParseError{
				Reason: fmt.Sprintf("未知的指令类型 %q", raw.Type),
			}
		}
	}

	return result, nil
}

// BuildScheduleContext 生成给解析服务的概要与明细，
// 概要按员工聚合出勤与工种天数，明细逐日列出
func BuildScheduleContext(employees []*domain.Employee, jobTypes []*domain.JobType, assignments []*domain.ShiftAssignment) (summary, detail string) {
	jobNames := make(map[int64]string, len(jobTypes))
	for _, jt := range jobTypes {
		jobNames[jt.ID] = jt.Name
	}

	byEmployee := make(map[int64][]*domain.ShiftAssignment)
	for _, a := range assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}

	var summaryLines, detailLines []string
	for _, emp := range employees {
		rows := byEmployee[emp.ID]

		workDays := 0.0
		jobCounts := make(map[string]float64)
		var dayParts []string
		for _, a := range rows {
			if !a.IsWorking() || a.JobTypeID == nil {
				dayParts = append(dayParts, fmt.Sprintf("%s=休息", utils.DateKey(a.Date)))
				continue
			}
			name := jobNames[*a.JobTypeID]
			workDays += a.HeadcountValue
			jobCounts[name] += a.HeadcountValue
			dayParts = append(dayParts, fmt.Sprintf("%s=%s", utils.DateKey(a.Date), name))
		}

		var countParts []string
		for _, jt := range jobTypes {
			if cnt, exists := jobCounts[jt.Name]; exists {
				countParts = append(countParts, fmt.Sprintf("%s %g天", jt.Name, cnt))
			}
		}
		summaryLines = append(summaryLines, fmt.Sprintf("- %s: 出勤 %g 天（%s）", emp.Name, workDays, strings.Join(countParts, "，")))
		detailLines = append(detailLines, fmt.Sprintf("- %s: %s", emp.Name, strings.Join(dayParts, ", ")))
	}

	return strings.Join(summaryLines, "\n"), strings.Join(detailLines, "\n")
}
