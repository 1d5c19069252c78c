package main

import (
	"encoding/json"
	"errors"

	"Vega_PT/internal/config"
	"Vega_PT/internal/data"
	"Vega_PT/internal/model"
	"Vega_PT/internal/repository"
	"Vega_PT/internal/service"
	"Vega_PT/pkg/logger"
	"Vega_PT/pkg/rabbitmq"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// 消费者进程：投票事件结算积分流水，评论事件落站内通知和冗余计数。
// 两类事件都带EventID，靠唯一索引把重复投递转化为1062再Ack掉
func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Warn(".env文件未加载，使用环境变量")
	}
	cfg := config.Load()
	logger.InitLogger(cfg.LogFile, cfg.LogLevel)

	db, err := gorm.Open(gorm_mysql.Open(cfg.MySQLDSN), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到数据库: %v", err)
	}

	rabbitMQConn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到RabbitMQ: %v", err)
	}
	defer rabbitMQConn.Close()

	// 消费端同样声明队列，和发布端谁先启动都行
	if err := rabbitmq.DeclareQueues(rabbitMQConn, service.QueueVoteEvent, service.QueueCommentEvent); err != nil {
		logger.Log.Fatalf("事件队列声明失败: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	torrentRepo := repository.NewTorrentRepository(db, nil) // 消费端不碰Redis，rdb传nil
	voteRepo := repository.NewVoteRepository(db, nil)
	notificationRepo := repository.NewNotificationRepository(db)
	karmaLogRepo := repository.NewKarmaLogRepository(db)
	uow := data.NewUnitOfWork(db, voteRepo, userRepo, notificationRepo, karmaLogRepo, torrentRepo)

	consumeVoteEvents(rabbitMQConn, uow)
	consumeCommentEvents(rabbitMQConn, uow)

	logger.Log.Info(" [*] 等待事件中. 按 CTRL+C 退出")
	forever := make(chan bool)
	<-forever
}

// ackByOutcome 消费结果到消息确认的统一映射：
// 1062是重复消费，按成功Ack；其他错误Nack重投
func ackByOutcome(d amqp.Delivery, logCtx *logrus.Entry, err error) {
	if err == nil {
		d.Ack(false)
		return
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		logCtx.WithError(err).Warn("重复键冲突，视为重复投递，消息确认为成功")
		d.Ack(false)
		return
	}
	logCtx.WithError(err).Error("处理消息失败，将进行重试")
	d.Nack(false, true)
}

type karmaAdjustment struct {
	userID uint64
	delta  int
	reason string
}

// karmaAdjustmentsFor 把一次投票变化摊到要动账的用户上。
// 自己给自己的评论投票时，两份调整合并成一条流水，(event_id, user_id)唯一索引才插得进去
func karmaAdjustmentsFor(msg service.VoteEventMessage, authorDelta, voterDelta int) []karmaAdjustment {
	if msg.AuthorID == msg.VoterID {
		if total := authorDelta + voterDelta; total != 0 {
			return []karmaAdjustment{{userID: msg.AuthorID, delta: total, reason: model.KarmaReasonVoteReceived}}
		}
		return nil
	}
	var adjustments []karmaAdjustment
	if authorDelta != 0 {
		adjustments = append(adjustments, karmaAdjustment{userID: msg.AuthorID, delta: authorDelta, reason: model.KarmaReasonVoteReceived})
	}
	if voterDelta != 0 {
		adjustments = append(adjustments, karmaAdjustment{userID: msg.VoterID, delta: voterDelta, reason: model.KarmaReasonVoteCast})
	}
	return adjustments
}

// 投票事件消费者：1、解析事件里的状态变化 2、算出作者/投票人的积分净调整
// 3、流水和账户余额在同一个事务里落库 4、按结果确认消息
func consumeVoteEvents(conn *amqp.Connection, uow data.UnitOfWork) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Fatalf("无法打开Channel: %v", err)
	}

	msgs, err := ch.Consume(
		service.QueueVoteEvent, // queue
		"",                     // consumer
		false,                  // auto-ack
		false,                  // exclusive
		false,                  // no-local
		false,                  // no-wait
		nil,                    // args
	)
	if err != nil {
		logger.Log.Fatalf("无法注册投票事件消费者: %v", err)
	}

	go func() {
		// msgs是channel，队列为空时循环阻塞而不是退出
		for d := range msgs {
			logCtx := logger.Log.WithField("redelivered", d.Redelivered)

			var msg service.VoteEventMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logCtx.WithError(err).Error("投票事件JSON解析失败")
				// 坏消息重投多少次都解析不了，直接丢弃
				d.Nack(false, false)
				continue
			}
			logCtx = logCtx.WithField("event_id", msg.EventID).
				WithField("comment_id", msg.CommentID).
				WithField("voter_id", msg.VoterID)

			old, okOld := model.VoteDirectionFromLabel(msg.Old)
			next, okNew := model.VoteDirectionFromLabel(msg.New)
			if !okOld || !okNew {
				logCtx.Error("投票事件状态取值非法，丢弃")
				d.Nack(false, false)
				continue
			}

			authorDelta, voterDelta := model.KarmaDeltasForVoteChange(old, next)
			adjustments := karmaAdjustmentsFor(msg, authorDelta, voterDelta)
			if len(adjustments) == 0 {
				// 净变化为零不动账，常见于自投后撤销
				d.Ack(false)
				continue
			}

			err := uow.Execute(func(repos *data.TransactionalRepositories) error {
				for _, adj := range adjustments {
					entry := &model.KarmaLog{
						EventID: msg.EventID,
						UserID:  adj.userID,
						Delta:   adj.delta,
						Reason:  adj.reason,
					}
					// 重复投递在这里撞(event_id, user_id)唯一索引，整个事务回滚
					if err := repos.KarmaLogRepo.Create(entry); err != nil {
						return err
					}
					if err := repos.UserRepo.IncrementKarma(adj.userID, adj.delta); err != nil {
						return err
					}
				}
				return nil
			})
			if err == nil {
				logCtx.WithField("author_delta", authorDelta).
					WithField("voter_delta", voterDelta).
					Info("积分结算完成")
			}
			ackByOutcome(d, logCtx, err)
		}
	}()
	logger.Log.Info(" [*] 投票事件消费者已启动")
}

// 评论事件消费者：1、给被评论/被回复的用户落站内通知 2、种子冗余评论计数加一。
// 自己评论自己不发通知，但计数照加
func consumeCommentEvents(conn *amqp.Connection, uow data.UnitOfWork) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Fatalf("无法打开Channel: %v", err)
	}

	msgs, err := ch.Consume(
		service.QueueCommentEvent, // queue
		"",                        // consumer
		false,                     // auto-ack
		false,                     // exclusive
		false,                     // no-local
		false,                     // no-wait
		nil,                       // args
	)
	if err != nil {
		logger.Log.Fatalf("无法注册评论事件消费者: %v", err)
	}

	go func() {
		for d := range msgs {
			logCtx := logger.Log.WithField("redelivered", d.Redelivered)

			var msg service.CommentEventMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logCtx.WithError(err).Error("评论事件JSON解析失败")
				d.Nack(false, false)
				continue
			}
			logCtx = logCtx.WithField("event_id", msg.EventID).
				WithField("comment_id", msg.CommentID).
				WithField("torrent_id", msg.TorrentID)

			err := uow.Execute(func(repos *data.TransactionalRepositories) error {
				if msg.RecipientID != msg.ActorID {
					notification := &model.Notification{
						EventID:   msg.EventID,
						UserID:    msg.RecipientID,
						ActorID:   msg.ActorID,
						Type:      msg.Kind,
						TorrentID: msg.TorrentID,
						CommentID: msg.CommentID,
					}
					// EventID唯一索引兜住重复投递
					if err := repos.NotificationRepo.Create(notification); err != nil {
						return err
					}
				}
				// 展示用冗余计数。自己评论自己的事件没有通知行做幂等锚点，
				// 重复投递会多加一次，计数不参与分页所以可以接受
				return repos.TorrentRepo.IncrementCommentCount(msg.TorrentID)
			})
			if err == nil {
				logCtx.Info("评论事件处理完成")
			}
			ackByOutcome(d, logCtx, err)
		}
	}()
	logger.Log.Info(" [*] 评论事件消费者已启动")
}
