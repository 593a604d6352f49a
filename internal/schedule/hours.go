package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidHoursRule = errors.New("invalid business hours rule")

// HoursRule — правило рабочих часов: набор дней недели и окно времени суток.
// Минуты от полуночи, полуоткрытое окно [Start, End).
type HoursRule struct {
	Weekdays []time.Weekday
	Start    int // минута дня начала, например 540 для 09:00
	End      int // минута дня конца, например 1020 для 17:00
}

// hoursRuleJSON — формат хранения правила в doctor_schedules.rules
// (jsonb). Совместим с форматом календарного виджета.
type hoursRuleJSON struct {
	DaysOfWeek []int  `json:"daysOfWeek"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// Validate проверяет правило при загрузке конфигурации.
// Невалидные правила отвергаются на старте, а не во время запроса.
func (r HoursRule) Validate() error {
	if len(r.Weekdays) == 0 {
		return fmt.Errorf("%w: empty weekday set", ErrInvalidHoursRule)
	}
	for _, wd := range r.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidHoursRule, wd)
		}
	}
	if r.Start < 0 || r.End > 24*60 {
		return fmt.Errorf("%w: time of day out of range", ErrInvalidHoursRule)
	}
	if r.Start >= r.End {
		return fmt.Errorf("%w: start %02d:%02d is not before end %02d:%02d",
			ErrInvalidHoursRule, r.Start/60, r.Start%60, r.End/60, r.End%60)
	}
	return nil
}

func (r HoursRule) matches(wd time.Weekday) bool {
	for _, d := range r.Weekdays {
		if d == wd {
			return true
		}
	}
	return false
}

// ParseTimeOfDay разбирает "HH:MM" в минуту дня.
func ParseTimeOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidHoursRule, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidHoursRule, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidHoursRule, s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidHoursRule, s)
	}
	return h*60 + m, nil
}

// ParseHoursTemplate разбирает строку шаблона рабочих часов из конфига.
// Формат: "1,2,3,4,5=09:00-17:00;6=10:00-14:00". Дни недели — 0 (вс) … 6 (сб).
func ParseHoursTemplate(s string) ([]HoursRule, error) {
	var rules []HoursRule
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: rule %q", ErrInvalidHoursRule, part)
		}

		var weekdays []time.Weekday
		for _, ds := range strings.Split(kv[0], ",") {
			d, err := strconv.Atoi(strings.TrimSpace(ds))
			if err != nil {
				return nil, fmt.Errorf("%w: weekday %q", ErrInvalidHoursRule, ds)
			}
			weekdays = append(weekdays, time.Weekday(d))
		}

		window := strings.SplitN(kv[1], "-", 2)
		if len(window) != 2 {
			return nil, fmt.Errorf("%w: window %q", ErrInvalidHoursRule, kv[1])
		}
		start, err := ParseTimeOfDay(window[0])
		if err != nil {
			return nil, err
		}
		end, err := ParseTimeOfDay(window[1])
		if err != nil {
			return nil, err
		}

		rule := HoursRule{Weekdays: weekdays, Start: start, End: end}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: empty template", ErrInvalidHoursRule)
	}
	return rules, nil
}

// ParseHoursJSON разбирает правила из jsonb-поля doctor_schedules.rules.
func ParseHoursJSON(raw []byte) ([]HoursRule, error) {
	var items []hoursRuleJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHoursRule, err)
	}

	var rules []HoursRule
	for _, it := range items {
		start, err := ParseTimeOfDay(it.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := ParseTimeOfDay(it.EndTime)
		if err != nil {
			return nil, err
		}
		var weekdays []time.Weekday
		for _, d := range it.DaysOfWeek {
			weekdays = append(weekdays, time.Weekday(d))
		}
		rule := HoursRule{Weekdays: weekdays, Start: start, End: end}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: empty rule set", ErrInvalidHoursRule)
	}
	return rules, nil
}

// ExpandHours разворачивает недельные правила в конкретные датированные
// интервалы внутри окна window. Каждое вхождение обрезается по границам окна.
// Результат отсортирован по возрастанию начала.
func ExpandHours(rules []HoursRule, window Interval, loc *time.Location) []Interval {
	if loc == nil {
		loc = time.UTC
	}
	if !window.End.After(window.Start) {
		return []Interval{}
	}

	start := window.Start.In(loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	var occurrences []Interval
	for ; day.Before(window.End); day = day.AddDate(0, 0, 1) {
		for _, rule := range rules {
			if !rule.matches(day.Weekday()) {
				continue
			}
			occ := Interval{
				Start: day.Add(time.Duration(rule.Start) * time.Minute),
				End:   day.Add(time.Duration(rule.End) * time.Minute),
			}
			occ = clip(occ, window)
			if occ.End.After(occ.Start) {
				occurrences = append(occurrences, occ)
			}
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
	return occurrences
}

func clip(tr, window Interval) Interval {
	if tr.Start.Before(window.Start) {
		tr.Start = window.Start
	}
	if tr.End.After(window.End) {
		tr.End = window.End
	}
	return tr
}
