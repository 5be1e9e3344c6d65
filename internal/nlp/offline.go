package nlp

import (
	"fmt"
	"strings"
)

// idioms is the embedded slang/idiom reference used when the online
// explainer is unavailable.
var idioms = map[string]string{
	"יאללה":         "Сленг: «давай/погнали/ну же». Многофункциональное слово.",
	"סבבה":          "Сленг: «окей, супер, норм». Универсальное согласие.",
	"באסה":          "Сленг: «облом, неприятность».",
	"תכלס":          "Сленг: «по сути, по факту». Пишут и как תכל׳ס.",
	"כפרה":          "Ласковое обращение: «душа моя». Может быть и в шутку.",
	"אין מצב":       "«Ни за что / да ну!» — удивление или отказ.",
	"די נו":         "«Хватит уже / да ну». Лёгкое раздражение.",
	"מה נסגר איתך":  "«Что с тобой происходит?» — разговорное.",
	"חבל על הזמן":   "В сленге — «супер, отлично», буквально «жаль времени».",
	"לאט לאט":       "«Постепенно, не спеши» — о терпении.",
}

// OfflineExplain builds a best-effort explanation from the embedded
// idiom table plus a translation, for when the online explainer is down.
func OfflineExplain(heText, translation string) string {
	normalized := strings.NewReplacer("׳", "", "'", "", "`", "").Replace(heText)

	var hits []string
	for key, note := range idioms {
		bare := strings.ReplaceAll(key, "׳", "")
		if strings.Contains(normalized, bare) {
			hits = append(hits, fmt.Sprintf("• %s — %s", key, note))
		}
	}

	notes := "Сленг/идиом не найдено."
	if len(hits) > 0 {
		notes = strings.Join(hits, "\n")
	}

	return fmt.Sprintf(
		"Перевод: %s\n\nСленг/идиомы:\n%s\n\nГрамматика: разговорная речь; для точного морфоразбора (корни/биньяны) нужен онлайн-режим.",
		translation, notes,
	)
}
