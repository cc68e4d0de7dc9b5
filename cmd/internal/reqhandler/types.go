package reqhandler

// PatchMarker помечает позицию, в которой клиент прислал только
// количество ("по 10 шт") — она должна примениться к предыдущей позиции.
const PatchMarker = "__PATCH__"

// ItemAttributes — распознанные атрибуты позиции заказа.
type ItemAttributes struct {
	Size    string  `json:"size,omitempty"`    // 8x30
	Color   string  `json:"color,omitempty"`   // беж, серый...
	Code    string  `json:"code,omitempty"`    // числовой код в скобках (308)
	Din     string  `json:"din,omitempty"`     // din 933
	PackQty float64 `json:"pack_qty,omitempty"`
	Notes   string  `json:"notes,omitempty"`
}

// Item — одна позиция, извлеченная из свободного текста.
type Item struct {
	Raw        string         `json:"raw"`
	Normalized string         `json:"normalized"`
	Qty        float64        `json:"qty"`
	Unit       string         `json:"unit"`
	Numbers    []int          `json:"numbers"`
	QueryCore  string         `json:"query_core"`
	Attributes ItemAttributes `json:"attributes"`
	Confidence float64        `json:"confidence"`
}

// NeedClarification — запрос уточнения от парсера (не от пайплайна).
type NeedClarification struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ActionType — тип действия, распознанного интент-роутером.
type ActionType string

const (
	ActionAddItem     ActionType = "ADD_ITEM"
	ActionAskStockETA ActionType = "ASK_STOCK_ETA"
	ActionManager     ActionType = "MANAGER"
	ActionUnknown     ActionType = "UNKNOWN"
)

// Action — одно действие из сообщения клиента. Одно сообщение
// может дать несколько действий (заказ + вопрос о сроках).
type Action struct {
	Type      ActionType `json:"type"`
	QueryCore string     `json:"query_core,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Qty       float64    `json:"qty,omitempty"`
	Unit      string     `json:"unit,omitempty"`
}

// RouterResult — результат маршрутизации сообщения.
type RouterResult struct {
	Actions []Action `json:"actions"`
}

// HandlerResult — результат обработки входящего сообщения целиком.
type HandlerResult struct {
	Text              string              `json:"text"`
	Normalized        string              `json:"normalized"`
	Actions           []Action            `json:"actions"`
	Items             []Item              `json:"items"`
	NeedClarification []NeedClarification `json:"need_clarification"`
}
