package shopping

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Export は生成済みの買い物リストファイル。
type Export struct {
	Filename    string
	ContentType string
	Format      string
	Body        []byte
	LineCount   int
}

// Exporter は集計結果を指定形式のファイルに変換する。
type Exporter struct {
	aggregator    *Aggregator
	defaultFormat string
	filename      string
	fontPath      string
	now           func() time.Time
}

// NewExporter はExporterを生成する。
// filenameの拡張子は出力形式に合わせて置き換えられる。
func NewExporter(aggregator *Aggregator, defaultFormat, filename, fontPath string) *Exporter {
	return &Exporter{
		aggregator:    aggregator,
		defaultFormat: defaultFormat,
		filename:      filename,
		fontPath:      fontPath,
		now:           time.Now,
	}
}

// Export はユーザーの買い物リストをformat形式で生成する。formatが空なら既定形式を使う。
// かごが空の場合はErrEmptyCart、未対応の形式の場合は*model.APIErrorを返す。
func (e *Exporter) Export(ctx context.Context, userID, username, format string) (*Export, error) {
	if format == "" {
		format = e.defaultFormat
	}
	format = strings.ToLower(format)

	renderer, err := NewRenderer(format, e.fontPath)
	if err != nil {
		return nil, err
	}

	groups, err := e.aggregator.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	doc := Document{Username: username, GeneratedAt: e.now(), Groups: groups}
	if err := renderer.Render(&buf, doc); err != nil {
		return nil, err
	}

	return &Export{
		Filename:    Filename(e.filename, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Format:      format,
		Body:        buf.Bytes(),
		LineCount:   len(groups),
	}, nil
}

// Filename はbaseの拡張子をextに置き換える。
func Filename(base, ext string) string {
	base = filepath.Base(base)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "shopping_list"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + ext
}
