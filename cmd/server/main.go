// Package main 是应用程序的入口点。
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/catalog"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/config"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/dialogue"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/handler"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/middleware"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/repository"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/service"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/classifier"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/database"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/es"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/kafka"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/storage"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/token"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	thresholds := dialogue.Thresholds{
		Resolved:      cfg.Dialogue.ResolvedThreshold,
		Clarify:       cfg.Dialogue.ClarifyThreshold,
		EscalateAfter: cfg.Dialogue.EscalationAfter,
	}
	if err := thresholds.Validate(); err != nil {
		log.Fatal("置信度阈值配置无效", err)
	}

	// 3. 对象存储：模型产物或图库图片放在 MinIO 时才初始化
	useMinIO := cfg.Artifacts.Source == "minio" || cfg.Gallery.Bucket != ""
	if useMinIO {
		storage.InitMinIO(cfg.MinIO)
	}

	// 4. 加载模型产物与目录，任何不一致都拒绝启动
	ctx := context.Background()
	model, intents, err := loadArtifacts(ctx, cfg.Artifacts, cfg.MinIO.BucketName)
	if err != nil {
		log.Fatal("加载模型产物失败", err)
	}
	if err := intents.RequireTags(model.Tags()); err != nil {
		log.Fatal("意图目录与模型不一致", err)
	}
	gallery, err := catalog.NewGalleryFromConfig(cfg.Gallery, model.Tags())
	if err != nil {
		log.Fatal("图库配置无效", err)
	}
	log.Infow("模型加载成功", "tags", len(model.Tags()), "vocabulary", model.Vocabulary().Len())

	// 5. 对话引擎
	replies := catalog.NewQuickReplies(cfg.Dialogue.QuickReplies, cfg.Dialogue.DefaultReplies, cfg.Dialogue.FallbackReplies)
	rnd := dialogue.NewRand(cfg.Dialogue.RandomSeed)
	router := dialogue.NewRouter(
		intents,
		replies,
		dialogue.NewFormatter(cfg.Dialogue.DirectionsURL, gallery.MediaTags()),
		thresholds,
		rnd,
		cfg.Dialogue.EscalationMessage,
	)
	engine := dialogue.NewEngine(model.Vocabulary(), model, router, dialogue.NewGalleryDetector(gallery, rnd, cfg.Gallery.SampleSize), replies)

	// 6. 会话存储与会话锁
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	lockTimeout := time.Duration(cfg.Session.LockTimeoutMs) * time.Millisecond
	var (
		sessionRepo repository.SessionRepository
		locker      repository.SessionLocker
	)
	if cfg.Database.Redis.Addr != "" {
		database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		sessionRepo = repository.NewRedisSessionRepository(database.RDB, sessionTTL, cfg.Session.MaxHistory)
		locker = repository.NewRedisLocker(database.RDB, time.Duration(cfg.Session.LockTTLSeconds)*time.Second, lockTimeout)
	} else {
		log.Info("未配置 Redis，会话保存在进程内存中")
		sessionRepo = repository.NewMemorySessionRepository(sessionTTL, cfg.Session.MaxHistory)
		locker = repository.NewLocalLocker(lockTimeout)
	}

	// 7. 分析链路：MySQL 保存回合事件，Elasticsearch 索引未识别语句
	var turnRepo repository.TurnEventRepository
	if cfg.Database.MySQL.DSN != "" {
		database.InitMySQL(cfg.Database.MySQL.DSN)
		turnRepo = repository.NewTurnEventRepository(database.DB)
	}
	var unresolved service.UnresolvedIndex
	if cfg.Elasticsearch.Addresses != "" {
		if err := es.InitES(cfg.Elasticsearch); err != nil {
			log.Error("es 初始化失败，未识别语句将不会被索引", err)
		} else {
			unresolved = service.NewESUnresolvedIndex(cfg.Elasticsearch.IndexName)
		}
	}
	analyticsService := service.NewAnalyticsService(turnRepo, unresolved)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	var publisher service.TurnEventPublisher
	switch {
	case cfg.Kafka.Brokers != "":
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		publisher = producer
		go kafka.StartConsumer(consumerCtx, cfg.Kafka, analyticsService)
	case turnRepo != nil || unresolved != nil:
		publisher = service.NewDirectPublisher(analyticsService)
	default:
		publisher = service.NewNopPublisher()
	}

	// 8. 服务与处理器
	chatService := service.NewChatService(engine, sessionRepo, locker, publisher)
	conversationService := service.NewConversationService(sessionRepo, locker)

	var presign handler.PresignFunc
	if cfg.Gallery.Bucket != "" {
		bucket := cfg.Gallery.Bucket
		presign = func(ctx context.Context, object string, expiry time.Duration) (string, error) {
			return storage.GetPresignedURL(ctx, bucket, object, expiry)
		}
	}

	chatHandler := handler.NewChatHandler(chatService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	adminHandler := handler.NewAdminHandler(conversationService, analyticsService)
	galleryHandler := handler.NewGalleryHandler(gallery, cfg.Gallery.ImageDir, presign)

	secret := cfg.Session.Secret
	if secret == "" {
		// 每次启动随机生成，重启后旧会话 cookie 失效
		log.Warnf("未配置 session.secret，使用随机密钥")
		secret = token.NewSessionID()
	}
	sessions := token.NewSessionManager(secret, sessionTTL)

	// 9. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/images/*filepath", galleryHandler.Image)
	r.GET("/gallery/categories", galleryHandler.Categories)

	chat := r.Group("/")
	chat.Use(middleware.Session(sessions, cfg.Session.CookieName, cfg.Session.SecureCookie))
	{
		chat.POST("/chat", chatHandler.Chat)
		chat.GET("/chat/ws", chatHandler.Stream)
		chat.POST("/reset-session", conversationHandler.Reset)
		chat.GET("/conversation-history", conversationHandler.GetHistory)
	}

	admin := r.Group("/admin")
	{
		admin.GET("/conversations", adminHandler.ListConversations)
		admin.GET("/analytics-data", adminHandler.AnalyticsData)
		admin.GET("/unresolved", adminHandler.Unresolved)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	stopConsumer()
	log.Info("服务已优雅关闭")
}

// loadArtifacts 从本地文件或 MinIO 读取模型产物与意图目录。
func loadArtifacts(ctx context.Context, cfg config.ArtifactsConfig, defaultBucket string) (*classifier.Model, *catalog.IntentCatalog, error) {
	if cfg.Source != "minio" {
		model, err := classifier.LoadFile(cfg.ModelPath)
		if err != nil {
			return nil, nil, err
		}
		intents, err := catalog.LoadIntentsFile(cfg.IntentsPath)
		if err != nil {
			return nil, nil, err
		}
		return model, intents, nil
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}
	data, err := storage.ReadObject(ctx, bucket, cfg.ModelPath)
	if err != nil {
		return nil, nil, err
	}
	artifact, err := classifier.ReadArtifact(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	model, err := classifier.New(artifact)
	if err != nil {
		return nil, nil, err
	}

	data, err = storage.ReadObject(ctx, bucket, cfg.IntentsPath)
	if err != nil {
		return nil, nil, err
	}
	intents, err := catalog.ParseIntents(data)
	if err != nil {
		return nil, nil, err
	}
	return model, intents, nil
}
