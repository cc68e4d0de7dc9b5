package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/partner-m/assist-go/cmd/internal/reqhandler"
)

const routerSystemPrompt = `Ты маршрутизируешь сообщения клиентов B2B-магазина мебельной фурнитуры.
Разбери сообщение на действия. Типы действий:
ADD_ITEM — клиент хочет добавить товар в заказ (query_core: ядро запроса, qty: количество, unit: единица);
ASK_STOCK_ETA — вопрос о сроках поставки (subject: о каком товаре);
MANAGER — просьба связать с менеджером;
UNKNOWN — ничего из перечисленного.
Ответь JSON-объектом вида {"actions": [{"type": "ADD_ITEM", "query_core": "поролон 10мм", "qty": 2, "unit": "лист"}]} без пояснений.`

// RouteActions — LLM-маршрутизация сообщения. Ответ модели проходит ту же
// санацию, что и эвристика: латиница и неизвестные типы отбрасываются.
func (s *Service) RouteActions(ctx context.Context, text string) ([]reqhandler.Action, error) {
	answer, err := s.chat(ctx, routerSystemPrompt, text, 0.2)
	if err != nil {
		return nil, err
	}
	raw := extractJSONObject(answer)
	if raw == "" {
		return nil, fmt.Errorf("llm-роутер вернул ответ без json")
	}
	var parsed reqhandler.RouterResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("разбор ответа llm-роутера: %w", err)
	}
	return reqhandler.SanitizeActions(text, parsed.Actions), nil
}
