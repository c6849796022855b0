package search

import (
	"strings"
	"testing"
)

func TestBuild_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		p, err := Build(in)
		if err != nil {
			t.Errorf("Build(%q) ошибка: %v", in, err)
		}
		if p != nil {
			t.Errorf("Build(%q) = %v, ожидался nil (совпадение со всем)", in, p)
		}
	}
}

// TestBuild_MultiTokenSeparators проверяет, что разделитель не может быть нулевой ширины.
func TestBuild_MultiTokenSeparators(t *testing.T) {
	p, err := Build("foo bar")
	if err != nil {
		t.Fatalf("Build() ошибка: %v", err)
	}

	match := []string{"foo_bar_1080p", "foo.bar", "foo-bar", "foo   bar", "FOO+BAR", "the foo._-bar show"}
	for _, s := range match {
		if !p.MatchString(s) {
			t.Errorf("%q должен совпадать с 'foo bar'", s)
		}
	}

	noMatch := []string{"foobar", "foo/bar", "bar foo", "fo obar"}
	for _, s := range noMatch {
		if p.MatchString(s) {
			t.Errorf("%q не должен совпадать с 'foo bar'", s)
		}
	}
}

func TestBuild_SingleTokenWordBoundary(t *testing.T) {
	p, err := Build("matrix")
	if err != nil {
		t.Fatalf("Build() ошибка: %v", err)
	}

	for _, s := range []string{"The Matrix 1999", "The Matrix Reloaded", "MATRIX", "matrix"} {
		if !p.MatchString(s) {
			t.Errorf("%q должен совпадать с 'matrix'", s)
		}
	}
	for _, s := range []string{"thematrix", "Matrixx", "matrix_reloaded"} {
		if p.MatchString(s) {
			t.Errorf("%q не должен совпадать с 'matrix'", s)
		}
	}
}

func TestBuild_UnicodeWordBoundary(t *testing.T) {
	p, err := Build("матрица")
	if err != nil {
		t.Fatalf("Build() ошибка: %v", err)
	}
	if !p.MatchString("Матрица 1999") {
		t.Error("'Матрица 1999' должна совпадать без учёта регистра")
	}
	if p.MatchString("Перезагрузкаматрица") {
		t.Error("совпадение внутри слова недопустимо")
	}
}

// TestBuild_NonWordEdges повторяет \b для токенов, начинающихся или кончающихся не-словом.
func TestBuild_NonWordEdges(t *testing.T) {
	p, err := Build("c++")
	if err != nil {
		t.Fatalf("Build() ошибка: %v", err)
	}
	if !p.MatchString("learn c++17") {
		t.Error("'learn c++17' должен совпадать: после '++' символ слова")
	}
	if p.MatchString("c++ primer") {
		t.Error("'c++ primer' не должен совпадать: после '++' нет границы слова")
	}
}

// TestBuild_MetaCharactersEscaped проверяет, что спецсимволы ищутся буквально.
func TestBuild_MetaCharactersEscaped(t *testing.T) {
	inputs := []string{"(((", "[a-", `\`, "*?+", "a{1000000}", "(?P<x>", "foo (bar"}
	for _, in := range inputs {
		p, err := Build(in)
		if err != nil {
			t.Errorf("Build(%q) ошибка: %v", in, err)
			continue
		}
		if p.MatchString("ordinary file name") {
			t.Errorf("Build(%q) совпал с обычным именем", in)
		}
	}
}

// TestBuild_LongQuery проверяет, что длинное имя файла ищется целиком.
func TestBuild_LongQuery(t *testing.T) {
	name := strings.Repeat("Chapter ", 40) + "Final"

	p, err := Build(name)
	if err != nil {
		t.Fatalf("Build() длинного запроса ошибка: %v", err)
	}
	if !p.MatchString(name) {
		t.Error("длинный запрос должен совпадать с тем же именем")
	}
	if !p.MatchString(strings.ReplaceAll(name, " ", ".")) {
		t.Error("длинный запрос должен совпадать с именем через точки")
	}
	if p.MatchString(strings.Repeat("Chapter ", 39) + "Final") {
		t.Error("имя с меньшим числом слов не должно совпадать")
	}
}

func TestPattern_Postgres(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"matrix", `\ymatrix\y`},
		{"foo bar", `foo[[:space:].+_-]+bar`},
		{"  the   matrix  reloaded ", `the[[:space:].+_-]+matrix[[:space:].+_-]+reloaded`},
		{"a.b", `\ya\.b\y`},
	}

	for _, tt := range tests {
		p, err := Build(tt.in)
		if err != nil {
			t.Fatalf("Build(%q) ошибка: %v", tt.in, err)
		}
		if got := p.Postgres(); got != tt.want {
			t.Errorf("Build(%q).Postgres() = %q, ожидался %q", tt.in, got, tt.want)
		}
	}
}
