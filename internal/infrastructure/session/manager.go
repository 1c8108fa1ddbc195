package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/studydeck/studydeck/pkg/logger"
)

// Config holds session manager configuration.
type Config struct {
	// RedisAddr is the host:port of the Redis server.
	RedisAddr string

	// RedisPassword is empty when auth is disabled.
	RedisPassword string

	// RedisDB is the database number.
	RedisDB int

	// Secret signs access tokens.
	Secret string

	// Issuer names the token issuer.
	Issuer string

	// TTL bounds both token and session lifetime.
	TTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RedisAddr: "localhost:6379",
		Issuer:    "studydeck",
		TTL:       24 * time.Hour,
	}
}

const (
	userKeyPrefix    = "studydeck:user:"
	sessionKeyPrefix = "studydeck:session:"
)

// Manager registers users and maintains revocable sessions in Redis.
type Manager struct {
	client *redis.Client
	issuer *TokenIssuer
	logger *logger.Logger
	ttl    time.Duration
}

// NewManager connects to Redis and returns a session manager.
func NewManager(ctx context.Context, cfg Config, log *logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: ping redis: %w", err)
	}
	return &Manager{
		client: client,
		issuer: NewTokenIssuer(cfg.Secret, cfg.Issuer, cfg.TTL),
		logger: log.With(logger.Component("session")),
		ttl:    cfg.TTL,
	}, nil
}

// Register stores a new user's passphrase hash. Usernames are
// case-insensitive.
func (m *Manager) Register(ctx context.Context, username, passphrase string) error {
	username = normalizeUsername(username)
	if username == "" || passphrase == "" {
		return ErrInvalidCredentials
	}
	hash, err := HashPassphrase(passphrase)
	if err != nil {
		return err
	}
	set, err := m.client.SetNX(ctx, userKeyPrefix+username, hash, 0).Result()
	if err != nil {
		return fmt.Errorf("session: store user: %w", err)
	}
	if !set {
		return ErrUserExists
	}
	m.logger.Info("user registered", logger.UserID(username))
	return nil
}

// Login verifies credentials, opens a session, and returns its token.
func (m *Manager) Login(ctx context.Context, username, passphrase string) (string, error) {
	username = normalizeUsername(username)
	hash, err := m.client.Get(ctx, userKeyPrefix+username).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("session: load user: %w", err)
	}
	if !CheckPassphrase(passphrase, hash) {
		return "", ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	if err := m.client.Set(ctx, sessionKeyPrefix+sessionID, username, m.ttl).Err(); err != nil {
		return "", fmt.Errorf("session: store session: %w", err)
	}
	token, err := m.issuer.Issue(username, sessionID)
	if err != nil {
		return "", err
	}
	m.logger.Info("user logged in", logger.UserID(username))
	return token, nil
}

// Validate parses a token and confirms its session is still live,
// returning the user id.
func (m *Manager) Validate(ctx context.Context, token string) (string, error) {
	claims, err := m.issuer.Parse(token)
	if err != nil {
		return "", err
	}
	owner, err := m.client.Get(ctx, sessionKeyPrefix+claims.SessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionExpired
	}
	if err != nil {
		return "", fmt.Errorf("session: load session: %w", err)
	}
	if owner != claims.Subject {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Logout revokes the token's session.
func (m *Manager) Logout(ctx context.Context, token string) error {
	claims, err := m.issuer.Parse(token)
	if err != nil {
		return err
	}
	if err := m.client.Del(ctx, sessionKeyPrefix+claims.SessionID).Err(); err != nil {
		return fmt.Errorf("session: revoke session: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (m *Manager) Close() error {
	return m.client.Close()
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
