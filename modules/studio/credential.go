package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// CredentialSource - 키 출처
type CredentialSource string

const (
	SourceUser        CredentialSource = "user"
	SourceEnvironment CredentialSource = "environment"
)

// Credential - 해석된 API 키
type Credential struct {
	Key    string
	Source CredentialSource
}

// CredentialSources - 우선순위 순서의 후보. 호출부가 명시적으로 채워서 넘김
type CredentialSources struct {
	Saved       string // 사용자가 저장한 키
	Environment string // 배포 환경에 주입된 키
}

// ResolveCredential - Saved → Environment 순서, 둘 다 없으면 ErrMissingCredential
func ResolveCredential(src CredentialSources) (Credential, error) {
	if key := strings.TrimSpace(src.Saved); key != "" {
		return Credential{Key: key, Source: SourceUser}, nil
	}
	if key := strings.TrimSpace(src.Environment); key != "" {
		return Credential{Key: key, Source: SourceEnvironment}, nil
	}
	return Credential{}, ErrMissingCredential
}

// CredentialStore - 클라이언트별 저장 키
type CredentialStore interface {
	Load(ctx context.Context, clientID string) (string, error)
	Save(ctx context.Context, clientID, key string) error
	Clear(ctx context.Context, clientID string) error
}

// RedisCredentialStore - credential:{clientId} 에 만료 없이 저장
type RedisCredentialStore struct {
	rdb *redis.Client
}

func NewRedisCredentialStore(rdb *redis.Client) *RedisCredentialStore {
	return &RedisCredentialStore{rdb: rdb}
}

func credentialKey(clientID string) string {
	return fmt.Sprintf("credential:%s", clientID)
}

// Load - 저장된 키가 없으면 빈 문자열
func (s *RedisCredentialStore) Load(ctx context.Context, clientID string) (string, error) {
	if clientID == "" {
		return "", nil
	}
	key, err := s.rdb.Get(ctx, credentialKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return key, nil
}

func (s *RedisCredentialStore) Save(ctx context.Context, clientID, key string) error {
	if err := s.rdb.Set(ctx, credentialKey(clientID), key, 0).Err(); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Clear(ctx context.Context, clientID string) error {
	if err := s.rdb.Del(ctx, credentialKey(clientID)).Err(); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// MemoryCredentialStore - Redis 가 없을 때 프로세스 메모리 폴백
type MemoryCredentialStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{keys: make(map[string]string)}
}

func (s *MemoryCredentialStore) Load(_ context.Context, clientID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[clientID], nil
}

func (s *MemoryCredentialStore) Save(_ context.Context, clientID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[clientID] = key
	return nil
}

func (s *MemoryCredentialStore) Clear(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, clientID)
	return nil
}

// MaskKey - 로그/응답용 키 마스킹
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
