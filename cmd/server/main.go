package main

import (
	"Vega_PT/internal/config"
	"Vega_PT/internal/data"
	"Vega_PT/internal/handler"
	"Vega_PT/internal/model"
	"Vega_PT/internal/repository"
	"Vega_PT/internal/router"
	"Vega_PT/internal/service"
	"Vega_PT/pkg/logger"
	"Vega_PT/pkg/rabbitmq"
	"Vega_PT/pkg/redis"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// 加载.env文件，容器环境直接用注入的环境变量，没有.env不算错
	if err := godotenv.Load(); err != nil {
		logger.Log.Warn(".env文件未加载，使用环境变量")
	}
	cfg := config.Load()

	// 初始化logger
	logger.InitLogger(cfg.LogFile, cfg.LogLevel)

	// 初始化Redis
	redisClient, err := redis.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Log.Fatalf("无法连接到Redis: %v", err)
	}
	logger.Log.Info("Redis连接成功")

	// 初始化RabbitMQ
	rabbitMQConn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Log.Fatalf("无法连接到RabbitMQ: %v", err)
	}
	defer rabbitMQConn.Close() // 确保程序退出时关闭连接
	logger.Log.Info("RabbitMQ连接成功")

	// 发布端进程启动时就把两个事件队列声明成durable，消费端不在线消息也不丢
	publisher, err := rabbitmq.NewPublisher(rabbitMQConn, service.QueueVoteEvent, service.QueueCommentEvent)
	if err != nil {
		logger.Log.Fatalf("事件队列声明失败: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalf("无法连接到数据库: %v", err)
	}
	logger.Log.Info("数据库连接成功")
	// db.AutoMigrate()，没有表就创建，没有列则加列，不会主动删除和修改
	err = db.AutoMigrate(
		&model.User{},
		&model.Torrent{},
		&model.Comment{},
		&model.Vote{},
		&model.Notification{},
		&model.KarmaLog{},
	)
	if err != nil {
		logger.Log.Fatalf("数据库迁移失败: %v", err)
	}
	logger.Log.Info("数据库迁移成功")

	userRepo := repository.NewUserRepository(db)
	torrentRepo := repository.NewTorrentRepository(db, redisClient)
	commentRepo := repository.NewCommentRepository(db)
	voteRepo := repository.NewVoteRepository(db, redisClient)
	notificationRepo := repository.NewNotificationRepository(db)
	karmaLogRepo := repository.NewKarmaLogRepository(db)

	uow := data.NewUnitOfWork(db, voteRepo, userRepo, notificationRepo, karmaLogRepo, torrentRepo)

	userService := service.NewUserService(userRepo)
	torrentService := service.NewTorrentService(torrentRepo)
	voteService := service.NewVoteService(voteRepo, commentRepo, uow, publisher)
	commentService := service.NewCommentService(commentRepo, torrentRepo, voteService, publisher, cfg)

	if err := handler.RegisterValidations(); err != nil {
		logger.Log.Fatalf("自定义校验器注册失败: %v", err)
	}

	userHandler := handler.NewUserHandler(userService)
	torrentHandler := handler.NewTorrentHandler(torrentService)
	commentHandler := handler.NewCommentHandler(commentService)
	voteHandler := handler.NewVoteHandler(voteService)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	r := router.SetupRouter(userHandler, torrentHandler, commentHandler, voteHandler, notificationHandler)
	logger.Log.Printf("服务器将在%s启动", cfg.ServerAddr)

	if err := r.Run(cfg.ServerAddr); err != nil {
		logger.Log.Fatalf("服务器启动失败: %v", err)
	}
}
