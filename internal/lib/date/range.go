package date

// Range инклюзивный диапазон календарных дат. Инвариант: Start <= End,
// NewRange нормализует порядок аргументов.
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewRange строит диапазон, меняя границы местами, если они переданы в обратном порядке.
func NewRange(a, b Date) Range {
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// Len возвращает число дней в диапазоне, включая обе границы.
func (r Range) Len() int {
	return r.Start.DaysUntil(r.End) + 1
}

// Contains сообщает, входит ли дата в диапазон.
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Shift возвращает диапазон, у которого обе границы сдвинуты функцией shift.
// Используется при раскрытии повторов: длина исходного диапазона сохраняется
// сдвигом начала и восстановлением конца через исходную длину в днях.
func (r Range) Shift(shift func(Date) Date) Range {
	length := r.Start.DaysUntil(r.End)
	start := shift(r.Start)
	return Range{Start: start, End: start.AddDays(length)}
}

// Dates перечисляет все даты диапазона по возрастанию.
func (r Range) Dates() []Date {
	out := make([]Date, 0, r.Len())
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// BuildRange разбирает обе строки как даты и возвращает упорядоченный список дат
// между ними включительно. Порядок аргументов не важен. Если какая-то из строк
// пуста или не парсится, возвращается пустой список — это не ошибка, форма
// просто ещё не заполнена.
func BuildRange(a, b string) []Date {
	start, err := Parse(a)
	if err != nil {
		return nil
	}
	end, err := Parse(b)
	if err != nil {
		return nil
	}
	return NewRange(start, end).Dates()
}
