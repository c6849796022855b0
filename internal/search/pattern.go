// Пакет search — построение шаблона поиска из свободного текста.
//
// Шаблон имеет две формы с одинаковой семантикой совпадения:
// регулярное выражение Go (in-memory хранилище, проверка корректности)
// и выражение PostgreSQL ARE для оператора ~* (поиск на стороне БД).
package search

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrPatternCompile — из запроса не удалось построить шаблон
// (ошибка regexp.Compile или SQLSTATE 2201B в PostgreSQL).
// Сервис поиска превращает её в пустую выдачу.
var ErrPatternCompile = errors.New("не удалось построить шаблон поиска")

// separatorClass — одна и более позиций из {пробел, '.', '+', '-', '_'}.
// Нулевая ширина недопустима: "foo bar" не совпадает с "foobar".
// POSIX-класс одинаково понимают RE2 и PostgreSQL.
const separatorClass = `[[:space:].+_-]+`

// Границы слова для Go. RE2 поддерживает \b только для ASCII, поэтому
// граница выражается явно через юникодный класс символов слова.
const (
	wordChar    = `[\p{L}\p{M}\p{N}_]`
	nonWordChar = `[^\p{L}\p{M}\p{N}_]`
)

// pgWordBoundary — граница слова в PostgreSQL ARE.
const pgWordBoundary = `\y`

// Pattern — скомпилированный шаблон поиска.
type Pattern struct {
	re       *regexp.Regexp
	postgres string
}

// Build строит шаблон из текста запроса.
// Пустой (после trim) текст — совпадение со всем, возвращается nil.
// Один токен — совпадение по границам слова, без учёта регистра.
// Несколько токенов — пробелы между ними заменяются классом разделителей.
func Build(text string) (*Pattern, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	tokens := strings.Fields(text)
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}

	var goExpr, pgExpr string
	if len(tokens) == 1 {
		goExpr = leadingBoundary(tokens[0]) + quoted[0] + trailingBoundary(tokens[0])
		pgExpr = pgWordBoundary + quoted[0] + pgWordBoundary
	} else {
		goExpr = strings.Join(quoted, separatorClass)
		pgExpr = goExpr
	}

	re, err := regexp.Compile(`(?i)` + goExpr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPatternCompile, err)
	}

	return &Pattern{re: re, postgres: pgExpr}, nil
}

// MatchString сообщает, совпадает ли строка с шаблоном.
func (p *Pattern) MatchString(s string) bool {
	return p.re.MatchString(s)
}

// Postgres возвращает выражение для оператора ~* (регистр не учитывается оператором).
func (p *Pattern) Postgres() string {
	return p.postgres
}

// String возвращает выражение Go.
func (p *Pattern) String() string {
	return p.re.String()
}

// leadingBoundary повторяет семантику \b перед токеном:
// перед символом слова — начало строки или не-слово, перед не-словом — символ слова.
func leadingBoundary(tok string) string {
	r, _ := utf8.DecodeRuneInString(tok)
	if isWordRune(r) {
		return `(?:^|` + nonWordChar + `)`
	}
	return wordChar
}

// trailingBoundary — то же для конца токена.
func trailingBoundary(tok string) string {
	r, _ := utf8.DecodeLastRuneInString(tok)
	if isWordRune(r) {
		return `(?:$|` + nonWordChar + `)`
	}
	return wordChar
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}
