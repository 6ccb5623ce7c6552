package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/internal/domain"
)

// changeChannel is the cross-context signal: every credential write is
// published here and every open context subscribes to it.
const changeChannel = "netplus:session:changed"

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStore keeps credentials in Redis so that independent client
// processes on the same device converge on one session. Writes are
// last-writer-wins; readers reconcile by re-reading on signal.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("credential store connect failed: %w", err)
	}

	logger.Info("credential store connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, TokenKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		s.logger.Error("token read failed", zap.Error(err))
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Profile(ctx context.Context) (*domain.User, error) {
	value, err := s.client.Get(ctx, ProfileKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("profile read failed", zap.Error(err))
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal([]byte(value), &user); err != nil {
		// A corrupt cached profile is treated as absent; the session
		// manager re-hydrates it from the server.
		s.logger.Warn("cached profile unreadable, ignoring", zap.Error(err))
		return nil, nil
	}
	return &user, nil
}

func (s *RedisStore) SetCredentials(ctx context.Context, token string, user *domain.User) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, TokenKey, token, 0)
		if user != nil {
			profile, err := json.Marshal(user)
			if err != nil {
				return err
			}
			pipe.Set(ctx, ProfileKey, profile, 0)
		} else {
			pipe.Del(ctx, ProfileKey)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("credential write failed", zap.Error(err))
		return err
	}
	return s.publishChange(ctx)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, TokenKey, ProfileKey).Err(); err != nil {
		s.logger.Error("credential clear failed", zap.Error(err))
		return err
	}
	return s.publishChange(ctx)
}

func (s *RedisStore) publishChange(ctx context.Context) error {
	if err := s.client.Publish(ctx, changeChannel, "changed").Err(); err != nil {
		s.logger.Error("change signal publish failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *RedisStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	sub := s.client.Subscribe(ctx, changeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("change signal subscribe failed: %w", err)
	}

	signals := make(chan struct{}, 1)
	messages := sub.Channel()

	go func() {
		defer close(signals)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				select {
				case signals <- struct{}{}:
				default:
					// A signal is already pending; watchers re-read the
					// whole store per signal, so coalescing is safe.
				}
			}
		}
	}()

	return signals, nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		s.logger.Error("credential store close failed", zap.Error(err))
		return err
	}
	s.logger.Info("credential store disconnected")
	return nil
}
