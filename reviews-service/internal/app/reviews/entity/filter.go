package entity

import (
	"regexp"
	"strings"
	"time"
)

// DateRange - вариант фильтра по дате создания
type DateRange string

const (
	DateAny       DateRange = ""
	DateToday     DateRange = "today"
	DatePast7Days DateRange = "past_7_days"
	DateThisMonth DateRange = "this_month"
	DateThisYear  DateRange = "this_year"
)

// Размер страницы списка в админке
const (
	DefaultPerPage = 100
	MaxPerPage     = 500
)

// DateChoices в порядке отображения в боковой панели
var DateChoices = []DateChoice{
	{Value: DateAny, Label: "Any date"},
	{Value: DateToday, Label: "Today"},
	{Value: DatePast7Days, Label: "Past 7 days"},
	{Value: DateThisMonth, Label: "This month"},
	{Value: DateThisYear, Label: "This year"},
}

// Valid сообщает, известен ли вариант фильтра
func (d DateRange) Valid() bool {
	for _, c := range DateChoices {
		if c.Value == d {
			return true
		}
	}
	return false
}

// Bounds возвращает полуинтервал [since, until) относительно now в часовом поясе now.
// Для DateAny и неизвестных значений ok = false.
func (d DateRange) Bounds(now time.Time) (since, until time.Time, ok bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	switch d {
	case DateToday:
		return today, tomorrow, true
	case DatePast7Days:
		return today.AddDate(0, 0, -7), tomorrow, true
	case DateThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0), true
	case DateThisYear:
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(1, 0, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// ReviewQuery - параметры запроса списка в админке (?q=&rating=&created=&ordering=&page=&page_size=)
type ReviewQuery struct {
	Search   string    `form:"q"`
	Rating   *int      `form:"rating"`
	Created  DateRange `form:"created"`
	Ordering string    `form:"ordering"`
	Page     int       `form:"page"`
	PageSize int       `form:"page_size"`
}

// ReviewFilter - разобранный фильтр, который понимают репозитории
type ReviewFilter struct {
	Terms    []string
	Rating   *int
	Since    *time.Time
	Until    *time.Time
	Ordering Ordering
	Limit    int
	Offset   int
}

// searchTermRe - слово, возможно со вставками в кавычках: `"new york"`, `it's`, `a"b c"d`.
// Незакрытая кавычка просто часть слова.
var searchTermRe = regexp.MustCompile(`[^\s'"]*(?:(?:"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*')[^\s'"]*)+|\S+`)

// SearchTerms разбивает строку поиска на слова; каждое слово должно
// встретиться хотя бы в одном из полей name, country, content.
// Фраза целиком в кавычках ищется как одно слово, без кавычек.
func SearchTerms(q string) []string {
	var terms []string
	for _, term := range searchTermRe.FindAllString(q, -1) {
		if quote := term[0]; (quote == '"' || quote == '\'') && len(term) >= 2 && term[len(term)-1] == quote {
			term = term[1 : len(term)-1]
			term = strings.ReplaceAll(term, `\`+string(quote), string(quote))
			term = strings.ReplaceAll(term, `\\`, `\`)
		}
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// Ordering - сортировка списка по одной из колонок
type Ordering struct {
	Field string
	Desc  bool
}

// DefaultOrdering - новые отзывы первыми
var DefaultOrdering = Ordering{Field: "created_at", Desc: true}

// OrderableFields - колонки списка, по которым разрешена сортировка
var OrderableFields = map[string]bool{
	"name":       true,
	"country":    true,
	"rating":     true,
	"created_at": true,
}

// ParseOrdering разбирает "rating" / "-created_at"; пустая строка дает DefaultOrdering
func ParseOrdering(s string) (Ordering, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultOrdering, true
	}

	o := Ordering{Field: s}
	if strings.HasPrefix(s, "-") {
		o = Ordering{Field: s[1:], Desc: true}
	}

	if !OrderableFields[o.Field] {
		return Ordering{}, false
	}
	return o, true
}

func (o Ordering) String() string {
	if o.Desc {
		return "-" + o.Field
	}
	return o.Field
}
