package service

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// 业务错误集合，handler层用errors.Is映射HTTP状态码，文案直接面向前端。
// service内部不吞错误：要么处理掉，要么原样或包装后上抛。
var (
	ErrTorrentNotFound = errors.New("种子不存在")
	ErrCommentNotFound = errors.New("评论不存在")
	ErrInvalidParent   = errors.New("父评论不存在或不属于该种子")
	ErrUnauthenticated = errors.New("请先登录")
	ErrContentEmpty    = errors.New("评论内容不能为空")
	ErrContentTooLong  = errors.New("评论内容超出长度限制")
	ErrInvalidVote     = errors.New("无效的投票方向")
	ErrInfoHashTaken   = errors.New("相同info-hash的种子已存在")
	ErrUsernameTaken   = errors.New("用户名已存在")
	ErrLoginFailed     = errors.New("用户名或密码错误")
)

// MySQL错误码1062，唯一索引冲突
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
