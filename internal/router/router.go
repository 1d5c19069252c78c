package router

import (
	"net/http"

	"Vega_PT/internal/handler"
	"Vega_PT/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRouter(
	userHandler handler.UserHandler,
	torrentHandler handler.TorrentHandler,
	commentHandler handler.CommentHandler,
	voteHandler handler.VoteHandler,
	notificationHandler handler.NotificationHandler,
) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestIDMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pang",
		})
	})
	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/feed", torrentHandler.GetFeed)
		apiV1.GET("/torrents/:torrent_id", torrentHandler.GetTorrentByID)
		// 评论区匿名可看，带token能看到自己投过的票
		apiV1.GET("/torrents/:torrent_id/comments", middleware.OptionalAuthMiddleware(), commentHandler.GetComments)

		userGroup := apiV1.Group("/users")
		{
			userGroup.POST("/register", userHandler.Register)
			userGroup.POST("/login", userHandler.Login)
		}

		authorized := apiV1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			authorized.GET("/profile", userHandler.GetProfile)
			authorized.POST("/torrents", torrentHandler.PublishTorrent)

			authorized.POST("/torrents/:torrent_id/comments", commentHandler.CreateCommentForTorrent)
			authorized.POST("/comments/:comment_id/replies", commentHandler.CreateReplyForComment)
			authorized.POST("/comments/:comment_id/vote", voteHandler.CastVote)

			authorized.GET("/notifications", notificationHandler.ListNotifications)
			authorized.POST("/notifications/:notification_id/read", notificationHandler.MarkNotificationRead)
		}
	}

	return r
}
