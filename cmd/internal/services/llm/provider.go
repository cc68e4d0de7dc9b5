package llm

import (
	"context"
	"errors"
)

// Message — одно сообщение чата в формате, общем для всех провайдеров.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrDisabled возвращается, когда LLM выключен конфигурацией.
// Вызывающий код обязан деградировать к детерминированному поведению.
var ErrDisabled = errors.New("llm отключен конфигурацией")

// Provider — транспорт к одной чат-модели. Оркестратор не знает,
// какой провайдер активен: контракт один на всех.
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []Message, temperature float64) (string, error)
}
