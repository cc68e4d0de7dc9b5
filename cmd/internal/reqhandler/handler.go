package reqhandler

// HandleMessage — точка входа обработки свободного текста: нормализация,
// маршрутизация по намерениям и разбор позиций для действий ADD_ITEM.
// Детерминирована и не ходит ни в БД, ни в LLM.
func HandleMessage(text string) HandlerResult {
	normalized := NormalizeText(text)
	routed := RouteMessageHeuristic(text)

	result := HandlerResult{
		Text:       text,
		Normalized: normalized,
		Actions:    routed.Actions,
	}

	for _, action := range routed.Actions {
		if action.Type != ActionAddItem {
			continue
		}
		items, clarifications := ParseOrderText(action.QueryCore)
		// Количество из действия приоритетнее дефолта парсера.
		for i := range items {
			if items[i].Qty == 1 && items[i].Unit == "" && action.Qty > 0 {
				items[i].Qty = action.Qty
				items[i].Unit = action.Unit
			}
		}
		result.Items = append(result.Items, items...)
		result.NeedClarification = append(result.NeedClarification, clarifications...)
	}
	return result
}
