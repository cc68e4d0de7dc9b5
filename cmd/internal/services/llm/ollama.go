package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/partner-m/assist-go/cmd/internal/config"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

// OllamaProvider — локальная модель за HTTP-эндпоинтом /api/chat.
type OllamaProvider struct {
	cfg     config.OllamaConfig
	timeout time.Duration
	client  *http.Client
	logger  *logging.Logger
}

func NewOllamaProvider(cfg config.OllamaConfig, timeoutSeconds int, logger *logging.Logger) *OllamaProvider {
	timeout := time.Duration(timeoutSeconds) * time.Second
	return &OllamaProvider{
		cfg:     cfg,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaRequest struct {
	Model     string                 `json:"model"`
	Messages  []Message              `json:"messages"`
	Stream    bool                   `json:"stream"`
	Options   map[string]interface{} `json:"options"`
	KeepAlive string                 `json:"keep_alive,omitempty"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Chat выполняет один запрос к модели. Ответ короткий по построению:
// num_predict и num_ctx ограничены, модель держится прогретой keep_alive.
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, temperature float64) (string, error) {
	payload := ollamaRequest{
		Model:    p.cfg.Model,
		Messages: messages,
		Stream:   false,
		Options: map[string]interface{}{
			"temperature": temperature,
			"num_predict": p.cfg.NumPredict,
			"num_ctx":     p.cfg.NumCtx,
		},
		KeepAlive: p.cfg.KeepAlive,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("сериализация запроса ollama: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("запрос ollama: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama вернул статус %d", resp.StatusCode)
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("разбор ответа ollama: %w", err)
	}
	content := parsed.Message.Content
	if content == "" {
		return "", fmt.Errorf("ollama вернул пустой ответ")
	}
	return content, nil
}
