package shopping

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/hitoshi/foodgram/internal/model"
)

// 出力形式
const (
	FormatText = "txt"
	FormatPDF  = "pdf"
)

const (
	dateLayout = "02.01.2006"
	footerText = "Foodgram"
	fontFamily = "ListFont"
)

// defaultFont はFontPath未指定時に使うUTF-8 TrueTypeフォント（DejaVu Sans Condensed）。
//
//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

// Document は描画対象の買い物リスト。
type Document struct {
	Username    string
	GeneratedAt time.Time
	Groups      []Group
}

// Header は買い物リストとユーザーを識別する見出し行を返す。
func (d Document) Header() string {
	return fmt.Sprintf("Shopping list for %s (%s)", d.Username, d.GeneratedAt.Format(dateLayout))
}

// FormatLine はグループを "* {name} - {quantity} {unit};" 形式の1行にする。
func FormatLine(g Group) string {
	return "* " + g.Name + " - " + strconv.FormatInt(g.Total, 10) + " " + g.Unit + ";"
}

// Renderer は買い物リストを特定の形式で書き出す。
type Renderer interface {
	ContentType() string
	Extension() string
	Render(w io.Writer, doc Document) error
}

// NewRenderer はformatに対応するRendererを返す。
// fontPathはPDF形式でUTF-8 TrueTypeフォントを使う場合に指定する。
func NewRenderer(format, fontPath string) (Renderer, error) {
	switch format {
	case FormatText:
		return TextRenderer{}, nil
	case FormatPDF:
		return PDFRenderer{FontPath: fontPath}, nil
	default:
		return nil, model.NewInvalidListFormatError(format)
	}
}

// TextRenderer はUTF-8のプレーンテキストで書き出す。
type TextRenderer struct{}

// ContentType はContent-Typeヘッダー値を返す。
func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

// Extension はファイル拡張子を返す。
func (TextRenderer) Extension() string { return FormatText }

// Render は見出し、材料行、フッターの順に書き出す。
func (TextRenderer) Render(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, doc.Header())
	fmt.Fprintln(bw)
	for _, g := range doc.Groups {
		fmt.Fprintln(bw, FormatLine(g))
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, footerText)
	return bw.Flush()
}

// PDFRenderer はA4縦のPDFで書き出す。ページに収まらない行は自動改ページする。
// FontPathが空の場合は埋め込みのDejaVu Sans Condensedを使う。
type PDFRenderer struct {
	FontPath string
}

// ContentType はContent-Typeヘッダー値を返す。
func (PDFRenderer) ContentType() string { return "application/pdf" }

// Extension はファイル拡張子を返す。
func (PDFRenderer) Extension() string { return FormatPDF }

// Render はPDFを生成してwに書き出す。
func (p PDFRenderer) Render(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	if p.FontPath != "" {
		pdf.AddUTF8Font(fontFamily, "", p.FontPath)
	} else {
		pdf.AddUTF8FontFromBytes(fontFamily, "", defaultFont)
	}
	pdf.SetTitle(doc.Header(), true)
	pdf.SetCreator(footerText, true)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s %d/{nb}", footerText, pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", 16)
	pdf.CellFormat(0, 10, doc.Header(), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "", 12)
	for _, g := range doc.Groups {
		pdf.MultiCell(0, 7, FormatLine(g), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
