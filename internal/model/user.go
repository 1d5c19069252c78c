package model

// 站内角色，Role字段只允许这三种取值
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

type User struct {
	BaseModel        // 包括 ID, CreatedAt, UpdatedAt, DeleteAt
	Username  string `gorm:"unique;not null"`
	Password  string `gorm:"not null"`
	Role      string `gorm:"size:16;not null;default:member"`
	Karma     int    `gorm:"not null;default:0"` // 站内积分，由consumer异步结算
}

// AuthorBadge 评论区展示的作者身份标识，封闭集合
type AuthorBadge string

const (
	BadgeAdmin     AuthorBadge = "admin"
	BadgeModerator AuthorBadge = "moderator"
	BadgeMember    AuthorBadge = "member"
)

// BadgeForRole 未知或为空的角色一律按普通成员展示
func BadgeForRole(role string) AuthorBadge {
	switch role {
	case RoleAdmin:
		return BadgeAdmin
	case RoleModerator:
		return BadgeModerator
	default:
		return BadgeMember
	}
}
