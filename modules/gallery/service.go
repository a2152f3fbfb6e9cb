package gallery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"neue-studio-server/modules/common/model"
	"neue-studio-server/modules/studio"
)

// 정렬 방식
const (
	SortTrending = "trending"
	SortNewest   = "newest"
)

const (
	// CompactLimit - 스튜디오 사이드 패널용 미리보기 개수
	CompactLimit = 4
	// trendingWindow - trending 점수 계산 대상 (최신순 상위 N개)
	trendingWindow = 200
)

var (
	ErrNotFound     = errors.New("generation not found")
	ErrInvalidImage = errors.New("invalid image")
)

// Store - generations / likes 테이블 접근 (database.Client 가 만족함)
type Store interface {
	InsertGeneration(record model.GenerationRecord) (*model.GenerationRecord, error)
	ListPublicGenerations(orderBy, style string, limit int) ([]model.GenerationRecord, error)
	GetGeneration(id string) (*model.GenerationRecord, error)
	HasLike(userID, generationID string) (bool, error)
	InsertLike(userID, generationID string) error
	DeleteLike(userID, generationID string) error
	ListLikedIDs(userID string) ([]string, error)
	UpdateLikes(generationID string, likes int) error
	IncrementUsage(generationID string) (int, error)
}

// Uploader - 이미지 업로드 후 공개 URL 반환 (storage.Client 가 만족함)
type Uploader interface {
	UploadImage(ctx context.Context, imageData []byte, mimeType, userID string) (string, error)
}

type ListOptions struct {
	Sort    string
	Style   string
	Compact bool
}

type Service struct {
	store    Store
	uploader Uploader
}

func NewService(store Store, uploader Uploader) *Service {
	return &Service{store: store, uploader: uploader}
}

// Publish - 생성 결과를 업로드하고 공개 레코드로 등록
func (s *Service) Publish(ctx context.Context, userID, imageDataURI string, cfg studio.GenerationConfig, prompt string) (model.GalleryItem, error) {
	raw, mimeType, err := studio.DecodeImage(imageDataURI)
	if err != nil {
		return model.GalleryItem{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	url, err := s.uploader.UploadImage(ctx, raw, mimeType, userID)
	if err != nil {
		return model.GalleryItem{}, fmt.Errorf("failed to upload image: %w", err)
	}

	record := model.GenerationRecord{
		UserID:      userID,
		ImageURL:    url,
		Prompt:      strings.TrimSpace(prompt),
		Style:       cfg.Style,
		Lighting:    cfg.Lighting,
		Camera:      cfg.Camera,
		Environment: optional(cfg.Environment),
		Pose:        optional(cfg.Pose),
		AspectRatio: string(cfg.AspectRatio),
		IsPublic:    true,
	}

	stored, err := s.store.InsertGeneration(record)
	if err != nil {
		return model.GalleryItem{}, err
	}

	log.Printf("🖼️ [Gallery] Published %s by %s (%s)", stored.ID, userID, stored.Style)
	return stored.ToGalleryItem(), nil
}

// List - 공개 갤러리 조회
func (s *Service) List(ctx context.Context, opts ListOptions) ([]model.GalleryItem, error) {
	style := strings.TrimSpace(opts.Style)

	limit := 0
	if opts.Sort != SortNewest {
		limit = trendingWindow
	} else if opts.Compact {
		limit = CompactLimit
	}

	rows, err := s.store.ListPublicGenerations("created_at", style, limit)
	if err != nil {
		return nil, err
	}

	items := make([]model.GalleryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.ToGalleryItem())
	}

	if opts.Sort != SortNewest {
		// 동점이면 최신순 유지
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].TrendingScore() > items[j].TrendingScore()
		})
	}

	if opts.Compact && len(items) > CompactLimit {
		items = items[:CompactLimit]
	}
	return items, nil
}

// Browse - 목록 + 필터용 스타일 목록. 스타일 목록은 스타일 필터 적용 전 항목 기준
func (s *Service) Browse(ctx context.Context, opts ListOptions) ([]model.GalleryItem, []string, error) {
	all, err := s.List(ctx, ListOptions{Sort: opts.Sort})
	if err != nil {
		return nil, nil, err
	}
	styles := Styles(all)

	items := all
	if style := strings.TrimSpace(opts.Style); style != "" {
		items = make([]model.GalleryItem, 0, len(all))
		for _, item := range all {
			if item.Tags.Style == style {
				items = append(items, item)
			}
		}
	}
	if opts.Compact && len(items) > CompactLimit {
		items = items[:CompactLimit]
	}
	return items, styles, nil
}

// Styles - 등장 순서대로 중복 없는 스타일 목록
func Styles(items []model.GalleryItem) []string {
	seen := make(map[string]bool)
	styles := []string{}
	for _, item := range items {
		if item.Tags.Style == "" || seen[item.Tags.Style] {
			continue
		}
		seen[item.Tags.Style] = true
		styles = append(styles, item.Tags.Style)
	}
	return styles
}

// ToggleLike - 좋아요 추가/취소 후 카운터를 덮어씀 (낙관적, 잠금 없음)
func (s *Service) ToggleLike(ctx context.Context, userID, generationID string) (bool, int, error) {
	record, err := s.get(generationID)
	if err != nil {
		return false, 0, err
	}

	liked, err := s.store.HasLike(userID, generationID)
	if err != nil {
		return false, 0, err
	}

	likes := record.Likes
	if liked {
		if err := s.store.DeleteLike(userID, generationID); err != nil {
			return false, 0, err
		}
		likes--
		if likes < 0 {
			likes = 0
		}
	} else {
		if err := s.store.InsertLike(userID, generationID); err != nil {
			return false, 0, err
		}
		likes++
	}

	if err := s.store.UpdateLikes(generationID, likes); err != nil {
		return false, 0, err
	}
	return !liked, likes, nil
}

func (s *Service) LikedIDs(ctx context.Context, userID string) ([]string, error) {
	return s.store.ListLikedIDs(userID)
}

// UsePrompt - 사용 횟수 증가 후 해당 항목의 태그를 입힌 스튜디오 설정 반환
func (s *Service) UsePrompt(ctx context.Context, generationID string) (studio.GenerationConfig, error) {
	record, err := s.get(generationID)
	if err != nil {
		return studio.GenerationConfig{}, err
	}

	if _, err := s.store.IncrementUsage(generationID); err != nil {
		// 카운터 실패는 설정 적용을 막지 않음
		log.Printf("⚠️ [Gallery] Usage increment failed for %s: %v", generationID, err)
	}

	return ApplyTags(studio.DefaultGenerationConfig(), record.ToGalleryItem().Tags), nil
}

// ApplyTags - 비어 있지 않은 태그만 덮어씀
func ApplyTags(cfg studio.GenerationConfig, tags model.GalleryTags) studio.GenerationConfig {
	values := map[string]string{
		studio.CategoryStyle:       tags.Style,
		studio.CategoryLighting:    tags.Lighting,
		studio.CategoryCamera:      tags.Camera,
		studio.CategoryEnvironment: tags.Environment,
		studio.CategoryPose:        tags.Pose,
	}
	for _, category := range studio.TagCategories {
		if v := strings.TrimSpace(values[category.ID]); v != "" {
			cfg = cfg.WithTag(category.ID, v)
		}
	}
	return cfg
}

func (s *Service) get(generationID string) (*model.GenerationRecord, error) {
	record, err := s.store.GetGeneration(generationID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
