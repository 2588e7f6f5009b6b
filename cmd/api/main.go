package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/config"
	"github.com/imrishuroy/go-storefront/internal/handlers"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/mongodb"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/payment"
	"github.com/imrishuroy/go-storefront/internal/users"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

func setupRouter(cfg *config.Config, hc handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.RunLocal {
		r.Use(gin.Logger())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", handlers.SessionHeader, handlers.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(r, hc)
	return r
}

// stores picks MongoDB-backed catalog and user stores when MONGO_URI is set and in-memory
// ones otherwise.
func stores(ctx context.Context, cfg *config.Config) (catalog.Store, users.Store) {
	if cfg.MongoURI == "" {
		log.Printf("[api] MONGO_URI not set, catalog and users are kept in memory")
		return catalog.NewMemoryStore(), users.NewMemoryStore()
	}

	db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	products, accounts := catalog.NewMongoStore(db), users.NewMongoStore(db)
	if err := mongodb.EnsureIndexes(ctx, products, accounts); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}
	return products, accounts
}

func cartPersister(ctx context.Context, cfg *config.Config) cart.Persister {
	if cfg.RedisAddr == "" {
		return cart.NopPersister{}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	return cart.NewRedisPersister(client, cart.DefaultTTL)
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		log.Printf("[api] JWT_SECRET or JWT_REFRESH_SECRET not set, login will fail")
	}

	v := validation.New()
	products, accounts := stores(ctx, cfg)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTRefreshSecret)

	gateway := payment.Config{
		MerchantID:      cfg.MerchantID,
		SaltKey:         cfg.SaltKey,
		SaltIndex:       cfg.SaltIndex,
		BaseURL:         cfg.GatewayBaseURL(),
		CallbackBaseURL: cfg.PublicBaseURL,
	}

	hc := handlers.HandlerConfig{
		Validator:     v,
		Carts:         cart.NewSessions(cartPersister(ctx, cfg)),
		Orders:        orders.NewHistories(),
		Initiator:     payment.NewInitiator(gateway),
		Receiver:      payment.NewStatusReceiver(gateway),
		PublicBaseURL: cfg.PublicBaseURL,
		Catalog:       catalog.NewHandler(products, v),
		Auth:          auth.NewHandler(auth.NewService(accounts, tokens), tokens),
	}

	if cfg.AWSEnabled() {
		clients, err := aws.NewAWSClients(ctx, cfg.AWSRegion)
		if err != nil {
			log.Fatalf("failed to init aws clients: %v", err)
		}
		if cfg.OrdersTable != "" {
			hc.OrderStore = orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
		}
		if cfg.IdempotencyTable != "" {
			hc.Idempotency = idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, idempotency.DefaultTTL)
		}
		if cfg.PaymentQueueURL != "" {
			hc.Publisher = aws.NewPublisher(clients.SQS, cfg.PaymentQueueURL)
		}
		hc.Metrics = aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)
	}

	r := setupRouter(cfg, hc)

	// RUN_LOCAL=true serves plain HTTP for development; otherwise run behind API Gateway.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
