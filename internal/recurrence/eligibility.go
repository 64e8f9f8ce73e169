package recurrence

import "github.com/magabrotheeeer/availability-engine/internal/lib/date"

// DisabledKinds возвращает виды повторов, недопустимые для диапазона, в
// каноническом порядке. Без диапазона (nil) недоступны все четыре вида.
// Функция чистая — клиент и сервер, валидируя форму, получают один результат.
//
// Правила:
//   - daily недоступен для многодневного диапазона;
//   - weekly недоступен, когда границы попадают в разные недели ISO-8601;
//   - monthly недоступен, когда границы попадают в разные месяцы;
//   - yearly недоступен только при отсутствии диапазона.
func DisabledKinds(r *date.Range) []Kind {
	if r == nil {
		return append([]Kind(nil), Kinds...)
	}
	var out []Kind
	if r.Start != r.End {
		out = append(out, Daily)
	}
	sy, sw := r.Start.ISOWeek()
	ey, ew := r.End.ISOWeek()
	if sy != ey || sw != ew {
		out = append(out, Weekly)
	}
	if r.Start.Year != r.End.Year || r.Start.Month != r.End.Month {
		out = append(out, Monthly)
	}
	return out
}

// KindAllowed сообщает, допустим ли вид повтора для диапазона.
func KindAllowed(r *date.Range, kind Kind) bool {
	for _, k := range DisabledKinds(r) {
		if k == kind {
			return false
		}
	}
	return true
}
