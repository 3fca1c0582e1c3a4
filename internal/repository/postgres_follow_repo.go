package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/foodgram/internal/model"
)

// PostgresFollowRepo はPostgreSQLを使用したフォローリポジトリ。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// Exists はsubscriberIDがauthorIDをフォローしているかを返す。
func (r *PostgresFollowRepo) Exists(ctx context.Context, subscriberID, authorID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE subscriber_id = $1 AND author_id = $2)`,
		subscriberID, authorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("フォロー状態の取得に失敗しました: %w", err)
	}
	return exists, nil
}

// Create はフォローを作成する。
func (r *PostgresFollowRepo) Create(ctx context.Context, follow *model.Follow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO follows (id, subscriber_id, author_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		follow.ID, follow.SubscriberID, follow.AuthorID, follow.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("フォローの作成に失敗しました: %w", err)
	}
	return nil
}

// Delete はフォローを削除する。削除対象が存在しなかった場合はfalseを返す。
func (r *PostgresFollowRepo) Delete(ctx context.Context, subscriberID, authorID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE subscriber_id = $1 AND author_id = $2`,
		subscriberID, authorID,
	)
	if err != nil {
		return false, fmt.Errorf("フォローの削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// ListAuthors はsubscriberIDがフォローしている投稿者をユーザー名順に返す。
func (r *PostgresFollowRepo) ListAuthors(ctx context.Context, subscriberID string, limit, offset int) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.is_admin, u.created_at, u.updated_at
		 FROM follows f
		 JOIN users u ON u.id = f.author_id
		 WHERE f.subscriber_id = $1
		 ORDER BY u.username
		 LIMIT $2 OFFSET $3`,
		subscriberID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// CountAuthors はsubscriberIDがフォローしている投稿者数を返す。
func (r *PostgresFollowRepo) CountAuthors(ctx context.Context, subscriberID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE subscriber_id = $1`,
		subscriberID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("フォロー数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// FollowedAmong はauthorIDsのうちsubscriberIDがフォローしているIDの集合を返す。
func (r *PostgresFollowRepo) FollowedAmong(ctx context.Context, subscriberID string, authorIDs []string) (map[string]bool, error) {
	followed := make(map[string]bool)
	if subscriberID == "" || len(authorIDs) == 0 {
		return followed, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT author_id FROM follows WHERE subscriber_id = $1 AND author_id = ANY($2)`,
		subscriberID, pq.Array(authorIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー状態の一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("フォロー行の読み取りに失敗しました: %w", err)
		}
		followed[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フォロー行の走査に失敗しました: %w", err)
	}
	return followed, nil
}

// compile-time interface check
var _ FollowRepository = (*PostgresFollowRepo)(nil)
