// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-chat-go/internal/chunker"
	"doc-chat-go/internal/config"
	"doc-chat-go/internal/handler"
	"doc-chat-go/internal/middleware"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/pipeline"
	"doc-chat-go/internal/repository"
	"doc-chat-go/internal/service"
	"doc-chat-go/pkg/database"
	"doc-chat-go/pkg/embedding"
	"doc-chat-go/pkg/kafka"
	"doc-chat-go/pkg/llm"
	"doc-chat-go/pkg/log"
	"doc-chat-go/pkg/qdrant"
	"doc-chat-go/pkg/storage"
	"doc-chat-go/pkg/tika"
	"doc-chat-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// minioStore 将 storage 包的对象读取适配为摄取管道所需的接口。
type minioStore struct{}

func (minioStore) GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	return storage.GetObject(ctx, bucket, objectKey)
}

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库, Redis 和对象存储
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.Conversation{},
		&model.Message{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)

	// 4. 初始化向量索引集合, 维度必须与 Embedding 模型输出一致
	qdrantClient := qdrant.NewClient(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
	})
	if err := qdrantClient.EnsureCollection(context.Background(), cfg.Embedding.Dimensions); err != nil {
		log.Fatalf("向量索引初始化失败: %v", err)
	}

	kafka.InitProducer(cfg.Kafka)

	// 5. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	docRepo := repository.NewDocumentRepository(database.DB)
	chunkRepo := repository.NewChunkRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.DB)
	msgRepo := repository.NewMessageRepository(database.DB)

	// 6. 初始化外部客户端和 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	tikaClient := tika.NewClient(cfg.Tika.ServerURL)
	embeddingClient := embedding.NewClient(embedding.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	llmClient := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})
	gen := &llm.GenerationParams{
		Temperature: &cfg.LLM.Generation.Temperature,
		MaxTokens:   &cfg.LLM.Generation.MaxTokens,
	}
	if cfg.LLM.Generation.TopP > 0 {
		gen.TopP = &cfg.LLM.Generation.TopP
	}

	userService := service.NewUserService(userRepo, jwtManager)
	documentService := service.NewDocumentService(docRepo, chunkRepo, convRepo, msgRepo, minioStore{}, cfg.MinIO.BucketName, qdrantClient)
	retrievalService := service.NewRetrievalService(embeddingClient, qdrantClient, chunkRepo)
	conversationService := service.NewConversationService(convRepo, msgRepo)
	chatService := service.NewChatService(convRepo, msgRepo, docRepo, retrievalService, llmClient, gen)

	// 7. 初始化文档摄取管道 (Processor)
	processor := pipeline.NewProcessor(
		docRepo,
		chunkRepo,
		minioStore{},
		cfg.MinIO.BucketName,
		tikaClient,
		chunker.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap),
		embeddingClient,
		qdrantClient,
	)

	// 8. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 9. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 10. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).Me)
			}
		}

		// Document 路由组，需要认证
		documents := apiV1.Group("/documents")
		documents.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			docHandler := handler.NewDocumentHandler(documentService)
			documents.POST("", docHandler.Upload)
			documents.GET("", docHandler.List)
			documents.GET("/:id", docHandler.Get)
			documents.GET("/:id/file", docHandler.File)
			documents.DELETE("/:id", docHandler.Delete)
		}

		// Conversation 路由组，需要认证
		conversations := apiV1.Group("/conversations")
		conversations.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			convHandler := handler.NewConversationHandler(conversationService)
			chatHandler := handler.NewChatHandler(chatService)
			conversations.GET("", convHandler.List)
			conversations.GET("/:id", convHandler.Get)
			conversations.POST("/:id/chat", chatHandler.Chat)
			conversations.POST("/:id/chat/stream", chatHandler.ChatStream)
		}
	}

	// 11. 启动 HTTP 服务器并实现优雅停机
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

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
