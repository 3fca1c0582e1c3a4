package recipe

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/hitoshi/foodgram/internal/model"
)

// allowedImageTypes はレシピ画像として受け付けるMIMEタイプ。
// SVGはスクリプトを含められるため受け付けない。
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// decodeImage は data:image/<type>;base64,<payload> 形式のdata URLを画像バイナリに変換する。
// 宣言されたMIMEタイプと実際の内容がいずれも許可された画像形式である必要がある。
func decodeImage(dataURL string, maxBytes int) ([]byte, string, error) {
	// 1. data URLを分解
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, "", model.NewValidationError("image", "data:image/<type>;base64,... 形式で指定してください")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", model.NewValidationError("image", "data URLにデータ部がありません")
	}
	declared, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", model.NewValidationError("image", "base64エンコードのみ対応しています")
	}
	declared = extractMimeType(declared)
	if !allowedImageTypes[declared] {
		return nil, "", model.NewValidationError("image", "未対応の画像形式です: "+declared)
	}

	// 2. デコード前にサイズ上限を確認
	if base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return nil, "", model.NewValidationError("image", "画像サイズが上限を超えています")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", model.NewValidationError("image", "base64のデコードに失敗しました")
	}
	if len(data) == 0 {
		return nil, "", model.NewValidationError("image", "画像が空です")
	}
	if len(data) > maxBytes {
		return nil, "", model.NewValidationError("image", "画像サイズが上限を超えています")
	}

	// 3. 内容から判定したMIMEタイプを採用
	detected := extractMimeType(http.DetectContentType(data))
	if !allowedImageTypes[detected] {
		return nil, "", model.NewValidationError("image", "画像データとして認識できません")
	}

	return data, detected, nil
}

// extractMimeType はContent-Type形式の文字列からメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(strings.ToLower(mediaType))
}
