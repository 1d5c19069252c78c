package main

import (
	"fmt"
	"log"
	"math/rand"

	"Vega_PT/internal/config"
	"Vega_PT/internal/model"

	"github.com/go-faker/faker/v4"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var categories = []string{"movie", "tv", "music", "game", "software", "ebook"}

func main() {
	fmt.Println("🚀 开始填充测试数据...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ 无法连接到数据库: %v", err)
	}
	fmt.Println("✅ 数据库连接成功!")

	// 每次填充前清库重建，注意：这会删掉所有数据！
	fmt.Println("🧹 正在清理旧数据...")
	db.Migrator().DropTable(
		&model.KarmaLog{},
		&model.Notification{},
		&model.Vote{},
		&model.Comment{},
		&model.Torrent{},
		&model.User{},
	)
	db.AutoMigrate(
		&model.User{},
		&model.Torrent{},
		&model.Comment{},
		&model.Vote{},
		&model.Notification{},
		&model.KarmaLog{},
	)
	fmt.Println("✅ 数据库重建成功!")

	userCount := seedUsers(db)
	torrentCount := seedTorrents(db, userCount)
	commentIDs := seedComments(db, userCount, torrentCount)
	seedVotes(db, userCount, commentIDs)

	// 赞/踩计数不需要回填：读路径会从votes表聚合并自动暖Redis缓存
	fmt.Println("🎉 所有测试数据填充完毕!")
}

func seedUsers(db *gorm.DB) int {
	fmt.Println("👥 正在创建用户...")
	userCount := 100
	for i := 0; i < userCount; i++ {
		// 默认密码统一是 "password"
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("❌ 密码加密失败: %v", err)
		}
		// 前两个账号是管理员，再来五个版主，其余普通成员
		role := model.RoleMember
		if i < 2 {
			role = model.RoleAdmin
		} else if i < 7 {
			role = model.RoleModerator
		}
		user := model.User{
			Username: faker.Username(),
			Password: string(hashedPassword),
			Role:     role,
		}
		db.Create(&user)
	}
	fmt.Printf("✅ 成功创建 %d 个用户!\n", userCount)
	return userCount
}

func seedTorrents(db *gorm.DB, userCount int) int {
	fmt.Println("🌱 正在创建种子...")
	torrentCount := 200
	for i := 0; i < torrentCount; i++ {
		torrent := model.Torrent{
			UploaderID:  uint64(rand.Intn(userCount) + 1),
			Title:       faker.Sentence(),
			Description: faker.Paragraph(),
			// 40位十六进制，高位随机低位编号，保证不撞唯一索引
			InfoHash: fmt.Sprintf("%032x%08x", rand.Uint64(), i),
			FileSize: int64(rand.Intn(50)+1) * 1024 * 1024 * 1024,
			Category: categories[rand.Intn(len(categories))],
		}
		db.Create(&torrent)
	}
	fmt.Printf("✅ 成功创建 %d 个种子!\n", torrentCount)
	return torrentCount
}

// newReply 从父评论推导谱系字段，和线上写路径的规则保持一致
func newReply(parent *model.Comment, userID uint64) *model.Comment {
	rootID := parent.ID
	if parent.RootID != nil {
		rootID = *parent.RootID
	}
	return &model.Comment{
		TorrentID:     parent.TorrentID,
		UserID:        userID,
		Content:       faker.Sentence(),
		ParentID:      &parent.ID,
		RootID:        &rootID,
		Depth:         parent.Depth + 1,
		ReplyToUserID: &parent.UserID,
	}
}

func seedComments(db *gorm.DB, userCount, torrentCount int) []uint64 {
	fmt.Println("💬 正在创建评论...")
	var commentIDs []uint64

	randomUser := func() uint64 { return uint64(rand.Intn(userCount) + 1) }

	// 前50个种子有评论区，每区若干楼层，部分楼层带两层回复
	for torrentID := 1; torrentID <= 50 && torrentID <= torrentCount; torrentID++ {
		for i := 0; i < rand.Intn(8); i++ {
			root := model.Comment{
				TorrentID: uint64(torrentID),
				UserID:    randomUser(),
				Content:   faker.Sentence(),
			}
			db.Create(&root)
			commentIDs = append(commentIDs, root.ID)

			parentPool := []*model.Comment{&root}
			for j := 0; j < rand.Intn(5); j++ {
				parent := parentPool[rand.Intn(len(parentPool))]
				reply := newReply(parent, randomUser())
				db.Create(reply)
				commentIDs = append(commentIDs, reply.ID)
				parentPool = append(parentPool, reply)
			}
		}
	}

	// 种子1固定造一条8层的连环回复，正好覆盖评论树的拍平路径
	chainRoot := model.Comment{TorrentID: 1, UserID: randomUser(), Content: "盖楼开始"}
	db.Create(&chainRoot)
	commentIDs = append(commentIDs, chainRoot.ID)
	parent := &chainRoot
	for i := 0; i < 8; i++ {
		reply := newReply(parent, randomUser())
		db.Create(reply)
		commentIDs = append(commentIDs, reply.ID)
		parent = reply
	}

	fmt.Printf("✅ 成功创建 %d 条评论!\n", len(commentIDs))
	return commentIDs
}

func seedVotes(db *gorm.DB, userCount int, commentIDs []uint64) {
	if len(commentIDs) == 0 {
		return
	}
	fmt.Println("🗳️ 正在创建随机投票...")
	voteCount := 3000
	for i := 0; i < voteCount; i++ {
		value := int8(model.VoteUp)
		// 三成是反对票
		if rand.Intn(10) < 3 {
			value = int8(model.VoteDown)
		}
		vote := model.Vote{
			CommentID: commentIDs[rand.Intn(len(commentIDs))],
			UserID:    uint64(rand.Intn(userCount) + 1),
			Value:     value,
		}
		// 撞上(comment_id, user_id)唯一索引就跳过，等价于这个人已经投过
		db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&vote)
	}
	fmt.Printf("✅ 成功创建(或尝试创建) %d 个随机投票!\n", voteCount)
}
