package paging_test

import (
	"net/http/httptest"
	"testing"

	"github.com/maestros-community/backend/internal/app/system/paging"
)

func TestParse_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/events/list", nil)
	p := paging.Parse(r)
	if p.Limit != paging.DefaultLimit {
		t.Errorf("limit: got %d, want %d", p.Limit, paging.DefaultLimit)
	}
	if p.Skip != 0 {
		t.Errorf("skip: got %d, want 0", p.Skip)
	}
}

func TestParse_Values(t *testing.T) {
	r := httptest.NewRequest("GET", "/events/list?limit=25&skip=75", nil)
	p := paging.Parse(r)
	if p.Limit != 25 || p.Skip != 75 {
		t.Errorf("got limit=%d skip=%d, want 25/75", p.Limit, p.Skip)
	}
}

func TestParse_ClampsAndRejectsGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/admin/users?limit=99999&skip=-4", nil)
	p := paging.Parse(r)
	if p.Limit != paging.MaxLimit {
		t.Errorf("limit: got %d, want clamp to %d", p.Limit, paging.MaxLimit)
	}
	if p.Skip != 0 {
		t.Errorf("skip: got %d, want 0 for negative input", p.Skip)
	}

	r = httptest.NewRequest("GET", "/admin/users?limit=abc", nil)
	if p := paging.Parse(r); p.Limit != paging.DefaultLimit {
		t.Errorf("limit: got %d, want default for non-numeric", p.Limit)
	}
}

func TestParseWithDefault(t *testing.T) {
	r := httptest.NewRequest("GET", "/events/upcoming/list", nil)
	if p := paging.ParseWithDefault(r, 5); p.Limit != 5 {
		t.Errorf("limit: got %d, want 5", p.Limit)
	}
}
