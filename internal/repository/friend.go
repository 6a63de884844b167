package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.im.chat/internal/model"
)

// FriendRepository 好友与好友申请仓库
type FriendRepository struct {
	db *pgxpool.Pool
}

// NewFriendRepository 创建好友仓库
func NewFriendRepository(db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: db}
}

// AddFriendApply 记录 fromUid 向 toUid 发起的好友申请，重复申请重置为待处理并排到最前
func (r *FriendRepository) AddFriendApply(ctx context.Context, fromUid, toUid int64) error {
	query := `
		INSERT INTO friend_apply (from_uid, to_uid, status, updated_at)
		VALUES ($1, $2, $3, clock_timestamp())
		ON CONFLICT (from_uid, to_uid) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query, fromUid, toUid, model.ApplyStatusPending)
	return err
}

// AuthFriendApply uid 同意 applicantUid 的申请
func (r *FriendRepository) AuthFriendApply(ctx context.Context, uid, applicantUid int64) error {
	query := `UPDATE friend_apply SET status = $3 WHERE from_uid = $1 AND to_uid = $2`
	_, err := r.db.Exec(ctx, query, applicantUid, uid, model.ApplyStatusAccepted)
	return err
}

// AddFriend 建立双向好友关系，uid 一侧使用 back 作为备注
func (r *FriendRepository) AddFriend(ctx context.Context, uid, friendUid int64, back string) error {
	query := `
		INSERT INTO friend (self_id, friend_id, back)
		VALUES ($1, $2, $3)
		ON CONFLICT (self_id, friend_id) DO NOTHING
	`

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, uid, friendUid, back); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, query, friendUid, uid, "")
		return err
	})
}

// GetApplyList 获取发给 toUid 的好友申请，按最近一次申请时间倒序
func (r *FriendRepository) GetApplyList(ctx context.Context, toUid int64, offset, limit int) ([]*model.ApplyInfo, error) {
	query := `
		SELECT a.from_uid, a.status, u.name, u.nick, u.sex, u.icon, u.description
		FROM friend_apply a
		JOIN users u ON u.uid = a.from_uid
		WHERE a.to_uid = $1
		ORDER BY a.updated_at DESC, a.id DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, toUid, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.ApplyInfo
	for rows.Next() {
		var apply model.ApplyInfo
		if err := rows.Scan(
			&apply.Uid,
			&apply.Status,
			&apply.Name,
			&apply.Nick,
			&apply.Sex,
			&apply.Icon,
			&apply.Desc,
		); err != nil {
			return nil, err
		}
		list = append(list, &apply)
	}

	return list, rows.Err()
}

// GetFriendList 获取 uid 的好友列表（含备注，不含密码）
func (r *FriendRepository) GetFriendList(ctx context.Context, uid int64) ([]*model.UserInfo, error) {
	query := `
		SELECT u.uid, u.name, u.email, u.nick, u.description, u.sex, u.icon, f.back
		FROM friend f
		JOIN users u ON u.uid = f.friend_id
		WHERE f.self_id = $1
		ORDER BY f.id
	`

	rows, err := r.db.Query(ctx, query, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.UserInfo
	for rows.Next() {
		var user model.UserInfo
		if err := rows.Scan(
			&user.Uid,
			&user.Name,
			&user.Email,
			&user.Nick,
			&user.Desc,
			&user.Sex,
			&user.Icon,
			&user.Back,
		); err != nil {
			return nil, err
		}
		list = append(list, &user)
	}

	return list, rows.Err()
}
