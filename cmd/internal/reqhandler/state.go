package reqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/partner-m/assist-go/cmd/internal/cache"
)

// dialogTTL — время жизни контекста диалога и кэша кандидатов.
const dialogTTL = 10 * time.Minute

// CandidateRef — сохраненный кандидат для обработки нажатия кнопки:
// по chat_id и message_id восстанавливаем, на что ссылается opt_<n>.
type CandidateRef struct {
	ProductID int64   `json:"product_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
}

// DialogContext — состояние диалога между сообщениями: ожидаемое
// уточнение и последний запрос, к которому оно относится.
type DialogContext struct {
	Stage        string   `json:"stage"` // clarify | idle
	Query        string   `json:"query"`
	OrgID        int64    `json:"org_id"`
	AppendChoice []string `json:"append_choice,omitempty"`
	PendingItems []Item   `json:"pending_items,omitempty"`
}

type stateEntry struct {
	value     string
	expiresAt time.Time
}

// StateStore хранит контекст диалога в Redis; без Redis — в памяти
// процесса с тем же TTL. Семантика обеих веток одинакова.
type StateStore struct {
	cache *cache.Cache

	mu  sync.Mutex
	mem map[string]stateEntry
}

func NewStateStore(c *cache.Cache) *StateStore {
	return &StateStore{cache: c, mem: make(map[string]stateEntry)}
}

func dialogKey(chatID string) string {
	return "dialog_ctx:" + chatID
}

func candidatesKey(chatID, messageID string) string {
	return fmt.Sprintf("candidates:%s:%s", chatID, messageID)
}

func (s *StateStore) set(ctx context.Context, key, value string) {
	if s.cache.Enabled() {
		s.cache.SetEx(ctx, key, value, dialogTTL)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[key] = stateEntry{value: value, expiresAt: time.Now().Add(dialogTTL)}
}

func (s *StateStore) get(ctx context.Context, key string) (string, bool) {
	if s.cache.Enabled() {
		return s.cache.Get(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.mem[key]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.mem, key)
		return "", false
	}
	return entry.value, true
}

func (s *StateStore) delete(ctx context.Context, key string) {
	if s.cache.Enabled() {
		s.cache.Delete(ctx, key)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mem, key)
}

// SaveDialogContext сохраняет состояние диалога с TTL.
func (s *StateStore) SaveDialogContext(ctx context.Context, chatID string, dc DialogContext) error {
	raw, err := json.Marshal(dc)
	if err != nil {
		return fmt.Errorf("сериализация контекста диалога: %w", err)
	}
	s.set(ctx, dialogKey(chatID), string(raw))
	return nil
}

// LoadDialogContext возвращает состояние диалога; после истечения TTL
// диалог считается новым.
func (s *StateStore) LoadDialogContext(ctx context.Context, chatID string) (DialogContext, bool) {
	raw, ok := s.get(ctx, dialogKey(chatID))
	if !ok {
		return DialogContext{}, false
	}
	var dc DialogContext
	if err := json.Unmarshal([]byte(raw), &dc); err != nil {
		return DialogContext{}, false
	}
	return dc, true
}

// ClearDialogContext сбрасывает состояние диалога.
func (s *StateStore) ClearDialogContext(ctx context.Context, chatID string) {
	s.delete(ctx, dialogKey(chatID))
}

// SaveCandidates запоминает список кандидатов, показанный в сообщении.
func (s *StateStore) SaveCandidates(ctx context.Context, chatID, messageID string, refs []CandidateRef) error {
	raw, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("сериализация кандидатов: %w", err)
	}
	s.set(ctx, candidatesKey(chatID, messageID), string(raw))
	return nil
}

// LoadCandidates восстанавливает кандидатов по идентификатору сообщения.
// Второе значение false означает, что кнопка протухла.
func (s *StateStore) LoadCandidates(ctx context.Context, chatID, messageID string) ([]CandidateRef, bool) {
	raw, ok := s.get(ctx, candidatesKey(chatID, messageID))
	if !ok {
		return nil, false
	}
	var refs []CandidateRef
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil, false
	}
	return refs, true
}
