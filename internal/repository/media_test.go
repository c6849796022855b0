package repository

import (
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/search"
)

func mustPattern(t *testing.T, text string) *search.Pattern {
	t.Helper()
	p, err := search.Build(text)
	if err != nil {
		t.Fatalf("search.Build(%q) ошибка: %v", text, err)
	}
	return p
}

// --- Тесты buildMediaWhere ---

func TestBuildMediaWhere_Empty(t *testing.T) {
	where, args := buildMediaWhere(MediaFilter{}, 1)

	if where != "" {
		t.Errorf("where = %q, ожидалась пустая строка", where)
	}
	if len(args) != 0 {
		t.Errorf("args count = %d, ожидался 0", len(args))
	}
}

func TestBuildMediaWhere_PatternOnly(t *testing.T) {
	where, args := buildMediaWhere(MediaFilter{Pattern: mustPattern(t, "matrix")}, 1)

	if where != "WHERE display_name ~* $1" {
		t.Errorf("where = %q", where)
	}
	if len(args) != 1 || args[0] != `\ymatrix\y` {
		t.Errorf("args = %v, ожидался [\\ymatrix\\y]", args)
	}
}

func TestBuildMediaWhere_CaptionAndKind(t *testing.T) {
	kind := model.KindVideo
	where, args := buildMediaWhere(MediaFilter{
		Pattern:        mustPattern(t, "foo bar"),
		Kind:           &kind,
		IncludeCaption: true,
	}, 1)

	if !strings.Contains(where, "(display_name ~* $1 OR caption ~* $1)") {
		t.Errorf("where = %q, ожидалось условие по имени и подписи", where)
	}
	if !strings.Contains(where, "kind = $2") {
		t.Errorf("where = %q, ожидалось 'kind = $2'", where)
	}
	if len(args) != 2 || args[1] != "video" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildMediaWhere_KindOnlyStartArg(t *testing.T) {
	kind := model.KindAudio
	where, _ := buildMediaWhere(MediaFilter{Kind: &kind}, 3)

	if where != "WHERE kind = $3" {
		t.Errorf("where = %q, ожидалось 'WHERE kind = $3'", where)
	}
}

// --- Тесты MediaFilter.Matches ---

func TestMediaFilter_Matches(t *testing.T) {
	caption := "The Matrix trailer"
	rec := &model.MediaRecord{DisplayName: "trailer 2021", Kind: model.KindVideo, Caption: &caption}

	if (MediaFilter{Pattern: mustPattern(t, "matrix")}).Matches(rec) {
		t.Error("без IncludeCaption подпись не должна учитываться")
	}
	if !(MediaFilter{Pattern: mustPattern(t, "matrix"), IncludeCaption: true}).Matches(rec) {
		t.Error("с IncludeCaption подпись должна учитываться")
	}

	audio := model.KindAudio
	if (MediaFilter{Kind: &audio}).Matches(rec) {
		t.Error("фильтр по типу audio не должен пропускать video")
	}
	if !(MediaFilter{}).Matches(rec) {
		t.Error("пустой фильтр должен пропускать любую запись")
	}
}
