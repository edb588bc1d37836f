package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jejuboard/internal/apperr"
)

// promptMarker 提示词末尾的固定句子，模型回显提示词时据此截掉
const promptMarker = "请为上面的帖子写一句自然的中文评论："

var errLLMDisabled = errors.New("LLM_BASE_URL not configured")

// LLMService 调用 OpenAI 兼容的 chat/completions 接口生成自动评论
type LLMService struct {
	BaseURL string
	Token   string
	Model   string
	client  *http.Client
}

func NewLLMService(baseURL, token, model string, timeout time.Duration) *LLMService {
	return &LLMService{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Synthesizer 未配置接口地址时返回 nil，发帖时不再尝试生成自动评论
func (s *LLMService) Synthesizer() CommentSynthesizer {
	if s == nil || s.BaseURL == "" {
		return nil
	}
	return s
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func buildPrompt(title, content string) string {
	return fmt.Sprintf("标题: %s\n内容: %s\n\n%s", title, content, promptMarker)
}

// extractComment 去掉回显的提示词，只保留第一行
func extractComment(text string) string {
	if i := strings.LastIndex(text, promptMarker); i >= 0 {
		text = text[i+len(promptMarker):]
	}
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// GenerateComment 根据帖子生成一句评论。
// 空标题或空内容属于调用方错误；生成服务的任何失败都返回 GenerationError。
func (s *LLMService) GenerateComment(ctx context.Context, title, content string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", apperr.Validation("标题不能为空。")
	}
	if strings.TrimSpace(content) == "" {
		return "", apperr.Validation("内容不能为空。")
	}
	if s.BaseURL == "" {
		return "", apperr.Generation("AI 评论服务未启用", errLLMDisabled)
	}

	payload, err := json.Marshal(ChatRequest{
		Model:       s.Model,
		Messages:    []ChatMessage{{Role: "user", Content: buildPrompt(title, content)}},
		MaxTokens:   60,
		Temperature: 0.8,
	})
	if err != nil {
		return "", apperr.Generation("AI 请求构建失败", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", apperr.Generation("AI 请求构建失败", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperr.Generation("AI 服务请求失败", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Generation("读取 AI 响应失败", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Generation("AI 服务返回错误", fmt.Errorf("HTTP 状态码: %d", resp.StatusCode))
	}

	var chat ChatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return "", apperr.Generation("解析 AI 响应失败", err)
	}
	if len(chat.Choices) == 0 {
		return "", apperr.Generation("AI 未返回内容", errors.New("empty choices"))
	}

	comment := extractComment(chat.Choices[0].Message.Content)
	if comment == "" {
		return "", apperr.Generation("AI 未返回内容", errors.New("blank completion"))
	}
	return comment, nil
}
