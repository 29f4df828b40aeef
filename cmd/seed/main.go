// Command seed provisions the administrator role and user through the
// identity stores, end to end against MongoDB and Redis.
package main

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/adapter"
	"github.com/crowdbase/identity-service/internal/config"
	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/service"
	"github.com/crowdbase/identity-service/internal/session"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	db := mongoClient.Database(cfg.MongoDatabase)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	sess := session.NewMongoSession(db, redisClient, cfg.UserCacheTTL, logger)
	userStore := adapter.NewUserStore(sess, logger)
	roleStore := adapter.NewRoleStore(sess, logger)
	defer userStore.Close()
	defer roleStore.Close()

	role, err := roleStore.FindRoleByName(ctx, cfg.SeedAdminRoleName)
	if err != nil {
		logger.Fatal("Failed to look up admin role", zap.Error(err))
	}
	if role == nil {
		role, err = entity.NewRole(cfg.SeedAdminRoleNumber, cfg.SeedAdminRoleName)
		if err != nil {
			logger.Fatal("Invalid admin role settings", zap.Error(err))
		}
		if err := roleStore.CreateRole(ctx, role); err != nil {
			logger.Fatal("Failed to create admin role", zap.Error(err))
		}
		logger.Info("Admin role created", zap.String("name", cfg.SeedAdminRoleName))
	}

	existing, err := userStore.FindUserByName(ctx, cfg.SeedAdminEmail)
	if err != nil {
		logger.Fatal("Failed to look up admin user", zap.Error(err))
	}
	if existing != nil {
		logger.Info("Admin user already present, nothing to do", zap.String("userID", existing.ID()))
		return
	}

	admin, err := entity.NewUser(uuid.NewString())
	if err != nil {
		logger.Fatal("Failed to create admin user", zap.Error(err))
	}
	if err := userStore.SetUserName(ctx, admin, cfg.SeedAdminEmail); err != nil {
		logger.Fatal("Failed to set admin user name", zap.Error(err))
	}

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	hash, err := hasher.Hash(cfg.SeedAdminPassword)
	if err != nil {
		logger.Fatal("Failed to hash admin password", zap.Error(err))
	}
	if err := userStore.SetPasswordHash(ctx, admin, hash); err != nil {
		logger.Fatal("Failed to set admin password", zap.Error(err))
	}
	if err := userStore.SetSecurityStamp(ctx, admin, uuid.NewString()); err != nil {
		logger.Fatal("Failed to set admin security stamp", zap.Error(err))
	}
	if err := userStore.AddToRole(ctx, admin, cfg.SeedAdminRoleName); err != nil {
		logger.Fatal("Failed to add admin to role", zap.Error(err))
	}
	if err := userStore.CreateUser(ctx, admin); err != nil {
		logger.Fatal("Failed to store admin user", zap.Error(err))
	}

	logger.Info("Admin user seeded",
		zap.String("userID", admin.ID()),
		zap.String("email", cfg.SeedAdminEmail),
		zap.String("role", cfg.SeedAdminRoleName))
}
