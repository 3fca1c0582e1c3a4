package handler

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
)

const (
	maxPageLimit  = 100
	// maxPageNumber はOffsetがint32に収まる上限。
	maxPageNumber = math.MaxInt32 / maxPageLimit
)

// page はクエリパラメータ page・limit から求めたページ位置。
type page struct {
	Number int
	Limit  int
}

// Offset はページ先頭の位置を返す。
func (p page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// pageResponse はページ分割された一覧のレスポンス。
type pageResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// parsePage はpage（1始まり）とlimitを読み取る。不正な値は既定値に丸める。
func parsePage(r *http.Request, defaultLimit int) page {
	q := r.URL.Query()
	p := page{Number: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Number = n
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		p.Limit = l
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Number > maxPageNumber {
		p.Number = maxPageNumber
	}
	return p
}

// newPageResponse は総件数から前後ページの絶対URLを組み立てる。
// 元のクエリパラメータはpage以外そのまま引き継ぐ。
func newPageResponse(baseURL string, r *http.Request, p page, count int, results any) pageResponse {
	resp := pageResponse{Count: count, Results: results}
	if p.Offset()+p.Limit < count {
		next := pageURL(baseURL, r, p.Number+1)
		resp.Next = &next
	}
	if p.Number > 1 {
		prev := pageURL(baseURL, r, p.Number-1)
		resp.Previous = &prev
	}
	return resp
}

func pageURL(baseURL string, r *http.Request, number int) string {
	q := url.Values{}
	for k, v := range r.URL.Query() {
		q[k] = v
	}
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u := baseURL + r.URL.Path
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}
