package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.im.chat/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("repository: not found")

// UserRepository 用户仓库
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const selectUser = `
	SELECT uid, name, pwd, email, nick, description, sex, icon
	FROM users
`

// GetUserByUid 根据 uid 查找用户
func (r *UserRepository) GetUserByUid(ctx context.Context, uid int64) (*model.UserInfo, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUser+` WHERE uid = $1`, uid))
}

// GetUserByName 根据用户名查找用户
func (r *UserRepository) GetUserByName(ctx context.Context, name string) (*model.UserInfo, error) {
	return r.scanUser(r.db.QueryRow(ctx, selectUser+` WHERE name = $1`, name))
}

func (r *UserRepository) scanUser(row pgx.Row) (*model.UserInfo, error) {
	var user model.UserInfo
	err := row.Scan(
		&user.Uid,
		&user.Name,
		&user.Pwd,
		&user.Email,
		&user.Nick,
		&user.Desc,
		&user.Sex,
		&user.Icon,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterUser 注册用户
// 返回新 uid；用户名或邮箱已存在返回 0；其他错误返回 -1
func (r *UserRepository) RegisterUser(ctx context.Context, name, email, pwd string) (int64, error) {
	query := `
		INSERT INTO users (name, email, pwd)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING uid
	`

	var uid int64
	err := r.db.QueryRow(ctx, query, name, email, pwd).Scan(&uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return -1, err
	}
	return uid, nil
}
