package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"JProject/global/config"
	"JProject/logger"
	"JProject/module/chat"
	"JProject/module/chat/message"
	chatsrv "JProject/module/chat/service"
	"JProject/module/manage"
	"JProject/module/notify"
	"JProject/service/kafka"
	"JProject/service/mgo"
	"JProject/service/storage"
	redisSrv "JProject/service/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.Load()
	if err := config.ConfigAll(ctx); err != nil {
		logger.Error("startup failed", zap.Error(err))
		return
	}
	defer func() {
		kafka.CloseKafka()
		_ = mgo.Close(context.Background())
		_ = redisSrv.CloseRedis()
	}()

	rdb := redisSrv.GetRedis()
	db := mgo.DB()

	// notification core
	policies := notify.NewMongoPolicyStore(db)
	presence := storage.NewPresenceStore(rdb)
	throttle := notify.NewThrottle(rdb)
	jobs := notify.NewJobStore(rdb)
	sender := notify.NewKafkaSender(kafka.SyncProd, config.Global.Notify.Topic)
	dispatcher := notify.NewDispatcher(policies, presence, throttle, jobs, sender)

	// chat message path
	msgStore := message.NewStore(db)
	msgService := chatsrv.NewMessageService(msgStore, dispatcher)

	poller := notify.NewPoller(jobs, policies, presence, throttle, sender, msgStore,
		config.Global.Notify.PollInterval, config.Global.Notify.PollBatch)
	poller.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	chat.NewHandler(msgService).Register(r)
	manage.NewPolicyHandler(policies).Register(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Global.Port),
		Handler: r,
	}
	go func() {
		logger.Infof("http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server exited", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
}
