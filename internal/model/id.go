package model

import "github.com/google/uuid"

// ValidID はidが主キーとして保存できるハイフン区切りのUUID文字列かを判定する。
// uuid.Validateが受け付ける urn:uuid: 形式などはPostgreSQLが受け付けないため除外する。
func ValidID(id string) bool {
	return len(id) == 36 && uuid.Validate(id) == nil
}
