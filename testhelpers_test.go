//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/assocdesk/service-registration/internal/application"
	"github.com/assocdesk/service-registration/internal/events"
	"github.com/assocdesk/service-registration/internal/gateway"
	"github.com/assocdesk/service-registration/internal/handler"
	"github.com/assocdesk/service-registration/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	testHashKey = "0123456789abcdef0123456789abcdef"
	testHashIV  = "0123456789abcdef"
	testTopic   = "registration.payment.events"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// serviceStack holds the wired-up service with an HTTP router.
type serviceStack struct {
	Router          *gin.Engine
	Codec           *gateway.Codec
	Checkout        *application.CheckoutService
	Registrations   *application.RegistrationService
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a
// connected GORM DB with the schema migrated.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_registration",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_registration sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.ActivityModel{},
		&repository.RegistrationModel{},
		&repository.MemberModel{},
		&repository.ApplicationModel{},
		&repository.MemberRegistrationModel{},
		&repository.CouponModel{},
		&repository.PendingPaymentModel{},
		&repository.GatewayNotificationModel{},
	))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, testTopic)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupStack wires the full service against the test containers and exposes
// the public routes on a gin router.
func setupStack(t *testing.T, db *gorm.DB, brokers []string) *serviceStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	codec, err := gateway.NewCodec(testHashKey, testHashIV)
	require.NoError(t, err)

	producer := events.NewProducer(brokers, testTopic, logger)

	activityRepo := repository.NewActivityRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	memberRegRepo := repository.NewMemberRegistrationRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	indexRepo := repository.NewPaymentIndexRepository(db)
	ledgerRepo := repository.NewNotificationLedgerRepository(db)

	checkoutSvc := application.NewCheckoutService(
		registrationRepo, memberRegRepo, memberRepo, activityRepo, couponRepo,
		indexRepo, codec, "MID123", "https://gateway.test/pay", "https://svc.test/webhooks/payment",
		logger,
	)
	reconcileSvc := application.NewReconcileService(
		registrationRepo, memberRegRepo, indexRepo, ledgerRepo, producer, logger,
	)
	registrationSvc := application.NewRegistrationService(
		registrationRepo, memberRegRepo, producer, logger,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/payment", handler.NewWebhookHandler(codec, reconcileSvc, logger).HandleNotify)

	return &serviceStack{
		Router:          router,
		Codec:           codec,
		Checkout:        checkoutSvc,
		Registrations:   registrationSvc,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedPublishedActivity inserts a published activity ready for registration.
func seedPublishedActivity(t *testing.T, db *gorm.DB, price, memberPrice int64) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	model := repository.ActivityModel{
		ID:          uuid.New(),
		Title:       "Annual Trade Forum",
		Venue:       "Convention Center Hall B",
		StartsAt:    now.Add(14 * 24 * time.Hour),
		EndsAt:      now.Add(14*24*time.Hour + 3*time.Hour),
		Capacity:    200,
		Price:       price,
		MemberPrice: memberPrice,
		Published:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed activity")
	return model.ID
}

// seedActiveMember inserts an active member.
func seedActiveMember(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	model := repository.MemberModel{
		ID:       uuid.New(),
		Company:  "Acme Trading Co",
		Contact:  "Pat Chen",
		Email:    fmt.Sprintf("pat+%s@acme.test", uuid.New().String()[:8]),
		Phone:    "0911222333",
		Active:   true,
		JoinedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed member")
	return model.ID
}

// postWebhook encrypts the given envelope and posts it as TradeInfo.
func postWebhook(t *testing.T, stack *serviceStack, envelope map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	tradeInfo, err := stack.Codec.Encrypt(envelope)
	require.NoError(t, err)

	form := url.Values{}
	form.Set("TradeInfo", tradeInfo)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, req)
	return w
}

// successEnvelope builds a SUCCESS notification payload for an order.
func successEnvelope(orderNo string, amount int64, tradeNo string) map[string]any {
	return map[string]any{
		"Status":  "SUCCESS",
		"Message": "paid",
		"Result": map[string]any{
			"MerchantOrderNo": orderNo,
			"Amt":             amount,
			"PayTime":         time.Now().UTC().Format("2006-01-02 15:04:05"),
			"TradeNo":         tradeNo,
			"PaymentType":     "CREDIT",
		},
	}
}

// consumeOneEvent reads the payment topic until it finds an event of the
// expected type.
func consumeOneEvent(t *testing.T, brokers []string, expectedType string, timeout time.Duration) events.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       testTopic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q", expectedType)
			}
			continue
		}
		var ce events.CloudEvent
		if err := json.Unmarshal(msg.Value, &ce); err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
