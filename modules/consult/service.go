package consult

import (
	"context"
	"errors"
	"log"
	"strings"

	"neue-studio-server/modules/studio"
)

// ErrBusy - 같은 세션에서 이전 전송이 아직 진행 중
var ErrBusy = errors.New("a message is already being processed for this session")

// RefinerProvider - 클라이언트 키로 Refiner 생성 (studio.Service 가 구현)
type RefinerProvider interface {
	Refiner(ctx context.Context, clientID string) *studio.Refiner
}

type Service struct {
	store    Store
	refiners RefinerProvider
}

func NewService(store Store, refiners RefinerProvider) *Service {
	return &Service{store: store, refiners: refiners}
}

// Create - 현재 설정으로 세션 시작
func (s *Service) Create(ctx context.Context, cfg studio.GenerationConfig) (studio.ConsultSession, error) {
	session := studio.NewConsultSession(cfg)
	session = session.NoteReferenceUpload(len(cfg.ReferenceImages))
	if err := s.store.Save(ctx, session); err != nil {
		return studio.ConsultSession{}, err
	}
	log.Printf("✅ [Consult] Created session: %s (style: %s)", session.ID, cfg.Style)
	return session, nil
}

func (s *Service) Get(ctx context.Context, id string) (studio.ConsultSession, error) {
	return s.store.Get(ctx, id)
}

// Send - 세션당 동시에 하나만. 응답 실패는 에러가 아니라 고정 문구
func (s *Service) Send(ctx context.Context, clientID, id, text string) (studio.ConsultSession, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return studio.ConsultSession{}, "", errors.New("message is required")
	}

	ok, err := s.store.Acquire(ctx, id)
	if err != nil {
		return studio.ConsultSession{}, "", err
	}
	if !ok {
		return studio.ConsultSession{}, "", ErrBusy
	}
	defer func() {
		if err := s.store.Release(context.Background(), id); err != nil {
			log.Printf("⚠️ [Consult] Failed to release session %s: %v", id, err)
		}
	}()

	session, err := s.store.Get(ctx, id)
	if err != nil {
		return studio.ConsultSession{}, "", err
	}

	next, reply := s.refiners.Refiner(ctx, clientID).Send(ctx, session, text)
	if err := s.store.Save(ctx, next); err != nil {
		return studio.ConsultSession{}, "", err
	}

	log.Printf("💬 [Consult] Session %s: %d messages", id, len(next.Messages))
	return next, reply, nil
}

// NoteUpload - 레퍼런스 업로드 기록
func (s *Service) NoteUpload(ctx context.Context, id string, count int) (studio.ConsultSession, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return studio.ConsultSession{}, err
	}
	next := session.NoteReferenceUpload(count)
	if err := s.store.Save(ctx, next); err != nil {
		return studio.ConsultSession{}, err
	}
	return next, nil
}
