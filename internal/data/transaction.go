package data

import (
	"Vega_PT/internal/repository"

	"gorm.io/gorm"
)

// UnitOfWork 事务管理器接口
type UnitOfWork interface {
	// Execute 将一个函数包裹在数据库事务中执行，
	// 并为其提供绑定了该事务的 Repositories。
	Execute(func(repos *TransactionalRepositories) error) error
}

// TransactionalRepositories 持有需要在同一个事务中操作的 Repository。
// 投票改写用 VoteRepo；consumer结算积分和落通知用其余三个。
type TransactionalRepositories struct {
	VoteRepo         repository.VoteRepository
	UserRepo         repository.UserRepository
	NotificationRepo repository.NotificationRepository
	KarmaLogRepo     repository.KarmaLogRepository
	TorrentRepo      repository.TorrentRepository
}

// db是事务的入口和管理者
type gormUnitOfWork struct {
	db               *gorm.DB
	voteRepo         repository.VoteRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	karmaLogRepo     repository.KarmaLogRepository
	torrentRepo      repository.TorrentRepository
}

// NewUnitOfWork 接收原始的、非事务的 repositories。
func NewUnitOfWork(
	db *gorm.DB,
	voteRepo repository.VoteRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	karmaLogRepo repository.KarmaLogRepository,
	torrentRepo repository.TorrentRepository,
) UnitOfWork {
	return &gormUnitOfWork{
		db:               db,
		voteRepo:         voteRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		karmaLogRepo:     karmaLogRepo,
		torrentRepo:      torrentRepo,
	}
}

// Execute 为fn创建事务，注入绑定事务的Repo副本；
// fn返回error即回滚，返回nil即提交
func (u *gormUnitOfWork) Execute(fn func(repos *TransactionalRepositories) error) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		transactionalRepos := &TransactionalRepositories{
			VoteRepo:         u.voteRepo.WithTx(tx),
			UserRepo:         u.userRepo.WithTx(tx),
			NotificationRepo: u.notificationRepo.WithTx(tx),
			KarmaLogRepo:     u.karmaLogRepo.WithTx(tx),
			TorrentRepo:      u.torrentRepo.WithTx(tx),
		}
		return fn(transactionalRepos)
	})
}
