// Package clock реализует время суток "HH:MM" как число минут от полуночи.
// Вся арифметика рабочих окон и слотов записи сводится к целочисленной
// арифметике минут, без time.Time и часовых поясов.
package clock

import "fmt"

// Time минуты от полуночи, от 0 до 1439.
type Time int

// Parse разбирает строку 24-часового формата "HH:MM".
func Parse(s string) (Time, error) {
	const op = "clock.Parse"
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("%s: %q: %w", op, s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%s: %q: out of range", op, s)
	}
	return Time(h*60 + m), nil
}

// MustParse как Parse, но паникует при ошибке. Только для тестов.
func MustParse(s string) Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add сдвигает время на minutes минут (без переноса через полночь).
func (t Time) Add(minutes int) Time {
	return t + Time(minutes)
}

// MarshalJSON сериализует время строкой "HH:MM".
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON разбирает время из строки "HH:MM".
func (t *Time) UnmarshalJSON(data []byte) error {
	const op = "clock.UnmarshalJSON"
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%s: expected string", op)
	}
	parsed, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
