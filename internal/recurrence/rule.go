// Package recurrence содержит правило повтора и его раскрытие в конкретные
// календарные вхождения. Правило — закрытый вариантный тип: вид повтора
// однозначно определяет единицу сдвига, произвольные комбинации «вид + единица»
// отклоняются при конструировании, а не где-то ниже по потоку.
package recurrence

import (
	"fmt"

	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
)

// Kind вид повтора.
type Kind string

// Поддерживаемые виды повторов.
const (
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
	Yearly  Kind = "yearly"
)

// Kinds все виды повторов в каноническом порядке.
var Kinds = []Kind{Daily, Weekly, Monthly, Yearly}

// Unit единица, в которой форма собирает количество повторов.
type Unit string

// Единицы повторов, по одной на вид.
const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
	UnitYears  Unit = "years"
)

var unitByKind = map[Kind]Unit{
	Daily:   UnitDays,
	Weekly:  UnitWeeks,
	Monthly: UnitMonths,
	Yearly:  UnitYears,
}

// Rule правило повтора: вид задаёт период сдвига, Amount — число вхождений
// (включая исходный диапазон).
type Rule struct {
	Kind   Kind `json:"kind"`
	Amount int  `json:"amount"`
	Unit   Unit `json:"unit"`
}

// NewRule валидирует и строит правило повтора. Единица должна соответствовать
// виду (daily — days и так далее), количество — положительное.
func NewRule(kind Kind, amount int, unit Unit) (Rule, error) {
	const op = "recurrence.NewRule"
	canonical, ok := unitByKind[kind]
	if !ok {
		return Rule{}, fmt.Errorf("%s: unknown kind %q", op, kind)
	}
	if unit == "" {
		unit = canonical
	}
	if unit != canonical {
		return Rule{}, fmt.Errorf("%s: unit %q does not match kind %q", op, unit, kind)
	}
	if amount <= 0 {
		return Rule{}, fmt.Errorf("%s: amount must be positive, got %d", op, amount)
	}
	return Rule{Kind: kind, Amount: amount, Unit: canonical}, nil
}

// shift сдвигает дату на один период данного вида.
func (k Kind) shift(d date.Date) date.Date {
	switch k {
	case Daily:
		return d.AddDays(1)
	case Weekly:
		return d.AddDays(7)
	case Monthly:
		return d.AddMonths(1)
	case Yearly:
		return d.AddYears(1)
	default:
		return d
	}
}

// Expand детерминированно раскрывает базовый диапазон в список вхождений.
// Вхождение 0 — сам base; каждое следующее сдвинуто на один период от
// предыдущего с сохранением длины диапазона в днях. Длина результата —
// ровно min(rule.Amount, maxOccurrences). Функция чистая: не зависит от
// текущего времени и при одинаковых аргументах возвращает одинаковый список.
func Expand(base date.Range, rule Rule, maxOccurrences int) []date.Range {
	n := rule.Amount
	if maxOccurrences >= 0 && n > maxOccurrences {
		n = maxOccurrences
	}
	if n <= 0 {
		return nil
	}
	out := make([]date.Range, 0, n)
	current := base
	for i := 0; i < n; i++ {
		if i > 0 {
			current = current.Shift(rule.Kind.shift)
		}
		out = append(out, current)
	}
	return out
}
