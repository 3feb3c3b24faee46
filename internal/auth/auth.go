package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym-service/internal/authz"
	"gym-service/internal/models"
	"gym-service/pkg/response"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the slice of the repository the authenticator needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authenticator issues opaque bearer tokens on login and resolves them back
// to an identity. Tokens live in redis under auth:<token> with a TTL.
type Authenticator struct {
	users  UserStore
	client *redis.Client
	ttl    time.Duration
}

func New(redisAddr string, users UserStore, ttl time.Duration) (*Authenticator, error) {
	const op = "auth.New"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Authenticator{users: users, client: client, ttl: ttl}, nil
}

func tokenKey(token string) string {
	return fmt.Sprintf("auth:%s", token)
}

// Login verifies the credential and issues a fresh token. A bad email and a
// bad password are indistinguishable to the caller.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, error) {
	const op = "auth.Login"

	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	token := uuid.NewString()

	err = a.client.Set(ctx, tokenKey(token), user.ID+":"+string(user.Role), a.ttl).Err()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// Identify resolves a bearer token to the identity it was issued for.
func (a *Authenticator) Identify(ctx context.Context, token string) (authz.Identity, error) {
	const op = "auth.Identify"

	val, err := a.client.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return authz.Identity{}, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
		}

		return authz.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	id, role, ok := strings.Cut(val, ":")
	if !ok {
		return authz.Identity{}, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	return authz.Identity{ID: id, Role: models.Role(role)}, nil
}

func (a *Authenticator) Logout(ctx context.Context, token string) error {
	const op = "auth.Logout"

	if _, err := a.client.Del(ctx, tokenKey(token)).Result(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *Authenticator) Close() error {
	return a.client.Close()
}
