package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/partner-m/assist-go/cmd/internal/cache"
	"github.com/partner-m/assist-go/cmd/internal/config"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

// GigaChatProvider — удаленная модель за OAuth. Access-токен живет
// около получаса; кэшируем его в Redis с ранним обновлением за минуту
// до истечения, при 401/403 сбрасываем и пробуем один раз заново.
type GigaChatProvider struct {
	cfg    config.GigaChatConfig
	cache  *cache.Cache
	client *http.Client
	logger *logging.Logger
}

func NewGigaChatProvider(cfg config.GigaChatConfig, c *cache.Cache, logger *logging.Logger) *GigaChatProvider {
	transport := &http.Transport{}
	if !cfg.VerifySSL {
		// Минцифры-сертификат не всегда есть в контейнере.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &GigaChatProvider{
		cfg:   cfg,
		cache: c,
		client: &http.Client{
			Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
			Transport: transport,
		},
		logger: logger,
	}
}

func (p *GigaChatProvider) Name() string { return "gigachat" }

func (p *GigaChatProvider) tokenCacheKey() string {
	return p.cfg.TokenCachePrefix + ":access"
}

type gigachatTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // миллисекунды эпохи
}

// accessToken возвращает действующий токен: из кэша или по OAuth.
func (p *GigaChatProvider) accessToken(ctx context.Context) (string, error) {
	if token, ok := p.cache.Get(ctx, p.tokenCacheKey()); ok && token != "" {
		return token, nil
	}

	form := url.Values{}
	form.Set("scope", p.cfg.Scope)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("запрос oauth gigachat: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+p.cfg.BasicAuthKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oauth gigachat недоступен: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oauth gigachat вернул статус %d", resp.StatusCode)
	}

	var parsed gigachatTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("разбор ответа oauth gigachat: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("oauth gigachat вернул пустой токен")
	}

	// Ранний рефреш: токен в кэше умирает за минуту до настоящего истечения.
	ttl := time.Until(time.UnixMilli(parsed.ExpiresAt)) - time.Minute
	if ttl > 0 {
		p.cache.SetEx(ctx, p.tokenCacheKey(), parsed.AccessToken, ttl)
	}
	return parsed.AccessToken, nil
}

type gigachatChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type gigachatChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *GigaChatProvider) chatOnce(ctx context.Context, token string, messages []Message, temperature float64) (string, int, error) {
	payload := gigachatChatRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("сериализация запроса gigachat: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("запрос gigachat: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("gigachat недоступен: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("gigachat вернул статус %d", resp.StatusCode)
	}

	var parsed gigachatChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("разбор ответа gigachat: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", resp.StatusCode, fmt.Errorf("gigachat вернул пустой список choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", resp.StatusCode, fmt.Errorf("gigachat вернул пустой ответ")
	}
	return content, resp.StatusCode, nil
}

// Chat — один чат-вызов с повтором после протухшего токена.
func (p *GigaChatProvider) Chat(ctx context.Context, messages []Message, temperature float64) (string, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return "", err
	}

	content, status, err := p.chatOnce(ctx, token, messages, temperature)
	if err == nil {
		return content, nil
	}
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return "", err
	}

	p.logger.Warnf("GigaChat ответил %d, обновляем токен и повторяем", status)
	p.cache.Delete(ctx, p.tokenCacheKey())
	token, err = p.accessToken(ctx)
	if err != nil {
		return "", err
	}
	content, _, err = p.chatOnce(ctx, token, messages, temperature)
	return content, err
}
