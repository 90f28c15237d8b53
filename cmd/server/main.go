package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assocdesk/service-registration/internal/application"
	"github.com/assocdesk/service-registration/internal/auth"
	"github.com/assocdesk/service-registration/internal/config"
	"github.com/assocdesk/service-registration/internal/database"
	"github.com/assocdesk/service-registration/internal/events"
	"github.com/assocdesk/service-registration/internal/gateway"
	"github.com/assocdesk/service-registration/internal/handler"
	"github.com/assocdesk/service-registration/internal/health"
	"github.com/assocdesk/service-registration/internal/logger"
	"github.com/assocdesk/service-registration/internal/middleware"
	"github.com/assocdesk/service-registration/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.NewNamed(cfg.AppEnv, "registration-service")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Connect(cfg.DBConfig.DSN(), zlog)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}

	if cfg.AppEnv == "production" {
		if err := database.RunMigrations(cfg.DBConfig.URL(), "migrations", zlog); err != nil {
			zlog.Fatal("run migrations", zap.Error(err))
		}
	} else {
		if err := db.AutoMigrate(
			&repository.ActivityModel{},
			&repository.RegistrationModel{},
			&repository.MemberModel{},
			&repository.ApplicationModel{},
			&repository.MemberRegistrationModel{},
			&repository.CouponModel{},
			&repository.PendingPaymentModel{},
			&repository.GatewayNotificationModel{},
		); err != nil {
			zlog.Fatal("auto migrate", zap.Error(err))
		}
	}

	codec, err := gateway.NewCodec(cfg.Gateway.HashKey, cfg.Gateway.HashIV)
	if err != nil {
		zlog.Fatal("init gateway codec", zap.Error(err))
	}

	producer := events.NewProducer(cfg.KafkaConfig.Brokers, cfg.KafkaConfig.Topic, zlog)
	defer producer.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 24*time.Hour)

	activityRepo := repository.NewActivityRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	memberRegRepo := repository.NewMemberRegistrationRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	indexRepo := repository.NewPaymentIndexRepository(db)
	ledgerRepo := repository.NewNotificationLedgerRepository(db)

	activityService := application.NewActivityService(activityRepo, zlog)
	memberService := application.NewMemberService(memberRepo, applicationRepo, zlog)
	couponService := application.NewCouponService(couponRepo, zlog)
	checkoutService := application.NewCheckoutService(
		registrationRepo, memberRegRepo, memberRepo, activityRepo, couponRepo,
		indexRepo, codec,
		cfg.Gateway.MerchantID, cfg.Gateway.PayURL, cfg.Gateway.NotifyURL,
		zlog,
	)
	reconcileService := application.NewReconcileService(
		registrationRepo, memberRegRepo, indexRepo, ledgerRepo, producer, zlog,
	)
	registrationService := application.NewRegistrationService(
		registrationRepo, memberRegRepo, producer, zlog,
	)

	activityHandler := handler.NewActivityHandler(activityService)
	registrationHandler := handler.NewRegistrationHandler(checkoutService, registrationService)
	memberHandler := handler.NewMemberHandler(memberService)
	couponHandler := handler.NewCouponHandler(couponService)
	webhookHandler := handler.NewWebhookHandler(codec, reconcileService, zlog)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(zlog),
		middleware.RecoveryMiddleware(zlog),
		middleware.CORSMiddleware(),
	)

	health.NewHandler(db).Register(router)

	router.GET("/activities", activityHandler.ListPublished)
	router.GET("/activities/:id", activityHandler.Get)
	router.POST("/registrations", registrationHandler.Register)
	router.POST("/members/:id/registrations", registrationHandler.RegisterMember)
	router.GET("/members", memberHandler.Directory)
	router.POST("/membership/applications", memberHandler.Apply)
	router.POST("/webhooks/payment", webhookHandler.HandleNotify)

	admin := router.Group("/admin",
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleAdmin),
	)
	admin.GET("/activities", activityHandler.ListAll)
	admin.POST("/activities", activityHandler.Create)
	admin.PUT("/activities/:id", activityHandler.Update)
	admin.PATCH("/activities/:id/published", activityHandler.SetPublished)
	admin.GET("/activities/:id/registrations", registrationHandler.ListByActivity)
	admin.POST("/registrations/:id/refund", registrationHandler.Refund)
	admin.POST("/registrations/:id/checkin", registrationHandler.CheckIn)
	admin.GET("/membership/applications", memberHandler.ListApplications)
	admin.POST("/membership/applications/:id/approve", memberHandler.Approve)
	admin.POST("/membership/applications/:id/reject", memberHandler.Reject)
	admin.GET("/coupons", couponHandler.ListActive)
	admin.POST("/coupons", couponHandler.Create)
	admin.GET("/stats/revenue", registrationHandler.RevenueReport)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
	zlog.Info("server stopped")
}
