package consult

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"neue-studio-server/modules/common/metrics"
	"neue-studio-server/modules/studio"
)

const (
	// SessionTTL - 마지막 활동 이후 세션 보존 시간
	SessionTTL = 2 * time.Hour
	// inFlightTTL - 전송 중 잠금이 풀리지 않았을 때 자동 해제
	inFlightTTL = 60 * time.Second
)

// Store - 컨설트 세션 저장소. Get 은 없으면 studio.ErrSessionNotFound
type Store interface {
	Get(ctx context.Context, id string) (studio.ConsultSession, error)
	Save(ctx context.Context, session studio.ConsultSession) error
	Delete(ctx context.Context, id string) error
	// Acquire - 세션당 한 번에 하나의 전송만 허용. 이미 진행 중이면 false
	Acquire(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// RedisStore - consult:session:{id} 에 JSON 저장
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(id string) string  { return fmt.Sprintf("consult:session:%s", id) }
func inFlightKey(id string) string { return fmt.Sprintf("consult:inflight:%s", id) }

func (s *RedisStore) Get(ctx context.Context, id string) (studio.ConsultSession, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return studio.ConsultSession{}, studio.ErrSessionNotFound
	}
	if err != nil {
		return studio.ConsultSession{}, fmt.Errorf("failed to load session: %w", err)
	}

	var session studio.ConsultSession
	if err := json.Unmarshal(data, &session); err != nil {
		return studio.ConsultSession{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return session, nil
}

func (s *RedisStore) Save(ctx context.Context, session studio.ConsultSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(session.ID), data, SessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id), inFlightKey(id)).Err()
}

func (s *RedisStore) Acquire(ctx context.Context, id string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, inFlightKey(id), time.Now().Unix(), inFlightTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, inFlightKey(id)).Err()
}

// memoryEntry - 메모리 세션 + 활동 시각
type memoryEntry struct {
	session      studio.ConsultSession
	lastActivity time.Time
	inFlight     bool
}

// MemoryStore - Redis 를 쓸 수 없을 때의 폴백. 만료는 cleanup 루틴이 처리
type MemoryStore struct {
	entries map[string]*memoryEntry
	mutex   sync.RWMutex
	ttl     time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     SessionTTL,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (studio.ConsultSession, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.entries[id]
	if !ok || time.Since(entry.lastActivity) > s.ttl {
		return studio.ConsultSession{}, studio.ErrSessionNotFound
	}
	return entry.session, nil
}

func (s *MemoryStore) Save(_ context.Context, session studio.ConsultSession) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.entries[session.ID]
	if !ok {
		entry = &memoryEntry{}
		s.entries[session.ID] = entry
	}
	entry.session = session
	entry.lastActivity = time.Now()
	metrics.SetConsultSessions(len(s.entries))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.entries, id)
	metrics.SetConsultSessions(len(s.entries))
	return nil
}

func (s *MemoryStore) Acquire(_ context.Context, id string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return false, studio.ErrSessionNotFound
	}
	if entry.inFlight {
		return false, nil
	}
	entry.inFlight = true
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if entry, ok := s.entries[id]; ok {
		entry.inFlight = false
	}
	return nil
}

// Len - 보관 중인 세션 수
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

// cleanupExpired - 비활성 세션 정리 (전송 중인 세션은 유지)
func (s *MemoryStore) cleanupExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	cleaned := 0
	for id, entry := range s.entries {
		if entry.inFlight || now.Sub(entry.lastActivity) <= s.ttl {
			continue
		}
		delete(s.entries, id)
		cleaned++
		log.Printf("⏰ [Consult] Cleaned up inactive session: %s (Inactive: %v)", id, now.Sub(entry.lastActivity).Round(time.Second))
	}

	metrics.SetConsultSessions(len(s.entries))
	if cleaned > 0 {
		log.Printf("🧼 [Consult] Cleaned up %d inactive sessions (Active: %d)", cleaned, len(s.entries))
	}
	return cleaned
}

// StartCleanupRoutine - ctx 가 끝날 때까지 주기적으로 정리
func (s *MemoryStore) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()

	log.Printf("🔄 [Consult] Started session cleanup routine (every %s, ttl %s)", interval, s.ttl)
}
