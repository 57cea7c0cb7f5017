package response

import (
	"net/url"
	"testing"
)

func TestBuildPageLinks(t *testing.T) {
	u, _ := url.Parse("http://localhost:8080/api/v1/lsf/history?user=no316758&page=2&page_size=10")

	prev, next := BuildPageLinks(u, 2, 10, 35)
	if prev == nil {
		t.Fatal("expected previous link on page 2")
	}
	if next == nil {
		t.Fatal("expected next link with 35 total and page_size 10")
	}
	pu, _ := url.Parse(*prev)
	if pu.Query().Get("page") != "1" {
		t.Errorf("previous page = %q, want 1", pu.Query().Get("page"))
	}
	if pu.Query().Get("user") != "no316758" {
		t.Errorf("previous link dropped other query params: %s", *prev)
	}
	nu, _ := url.Parse(*next)
	if nu.Query().Get("page") != "3" {
		t.Errorf("next page = %q, want 3", nu.Query().Get("page"))
	}
}

func TestBuildPageLinksEdges(t *testing.T) {
	u, _ := url.Parse("http://localhost:8080/api/v1/lsf/history")

	prev, next := BuildPageLinks(u, 1, 20, 10)
	if prev != nil {
		t.Error("no previous link expected on page 1")
	}
	if next != nil {
		t.Error("no next link expected when total fits on one page")
	}

	prev, next = BuildPageLinks(nil, 1, 20, 100)
	if prev != nil || next != nil {
		t.Error("nil URL should produce no links")
	}

	prev, next = BuildPageLinks(u, 1, 0, 100)
	if prev != nil || next != nil {
		t.Error("non-positive page size should produce no links")
	}
}
