package handler

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query      string
		wantNumber int
		wantLimit  int
	}{
		{"", 1, 6},
		{"page=3", 3, 6},
		{"page=0&limit=-1", 1, 6},
		{"page=x&limit=y", 1, 6},
		{"limit=500", 1, maxPageLimit},
		{"page=2&limit=10", 2, 10},
		{"page=9223372036854775807&limit=100", maxPageNumber, maxPageLimit},
		{"page=99999999999999999999", 1, 6},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/recipes?"+tt.query, nil)
			p := parsePage(req, 6)
			if p.Number != tt.wantNumber || p.Limit != tt.wantLimit {
				t.Errorf("parsePage = %+v, want {%d %d}", p, tt.wantNumber, tt.wantLimit)
			}
		})
	}
}

func TestParsePage_HugePageKeepsOffsetPositive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/recipes?page=9223372036854775807&limit=100", nil)
	p := parsePage(req, 6)
	if off := p.Offset(); off < 0 || off > math.MaxInt32 {
		t.Errorf("Offset = %d, want within [0, MaxInt32]", off)
	}
}

func TestNewPageResponse_Links(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/recipes?tags=lunch&page=1", nil)

	first := newPageResponse(testBaseURL, req, page{Number: 1, Limit: 6}, 13, []int{})
	if first.Previous != nil {
		t.Errorf("previous = %q, want nil", *first.Previous)
	}
	if first.Next == nil || *first.Next != testBaseURL+"/api/recipes?page=2&tags=lunch" {
		t.Errorf("next = %v", first.Next)
	}

	last := newPageResponse(testBaseURL, req, page{Number: 3, Limit: 6}, 13, []int{})
	if last.Next != nil {
		t.Errorf("next = %q, want nil", *last.Next)
	}
	if last.Previous == nil || *last.Previous != testBaseURL+"/api/recipes?page=2&tags=lunch" {
		t.Errorf("previous = %v", last.Previous)
	}
}
