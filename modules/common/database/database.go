package database

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"neue-studio-server/modules/common/config"
	"neue-studio-server/modules/common/model"
)

// 테이블 / RPC 이름
const (
	TableGenerations = "generations"
	TableLikes       = "likes"
	RPCIncrementUse  = "increment_usage_count"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient(cfg *config.Config) (*Client, error) {
	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	return &Client{
		supabase: supabaseClient,
	}, nil
}

// Supabase - auth 등 다른 서비스에서 같은 클라이언트 사용
func (c *Client) Supabase() *supabase.Client {
	return c.supabase
}

// InsertGeneration - generations 레코드 생성 후 저장된 행 반환
func (c *Client) InsertGeneration(record model.GenerationRecord) (*model.GenerationRecord, error) {
	log.Printf("💾 Inserting generation record (user: %s, style: %s)", record.UserID, record.Style)

	insertData := map[string]interface{}{
		"user_id":      record.UserID,
		"image_url":    record.ImageURL,
		"prompt":       record.Prompt,
		"style":        record.Style,
		"lighting":     record.Lighting,
		"camera":       record.Camera,
		"environment":  record.Environment,
		"pose":         record.Pose,
		"aspect_ratio": record.AspectRatio,
		"likes":        0,
		"usage_count":  0,
		"is_public":    record.IsPublic,
	}

	data, _, err := c.supabase.From(TableGenerations).
		Insert(insertData, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert generation: %w", err)
	}

	var rows []model.GenerationRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse generation response: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no generation record returned")
	}

	log.Printf("✅ Generation record created: %s", rows[0].ID)
	return &rows[0], nil
}

// ListPublicGenerations - 공개 레코드 조회 (orderBy 컬럼 내림차순, style 이 있으면 필터)
func (c *Client) ListPublicGenerations(orderBy, style string, limit int) ([]model.GenerationRecord, error) {
	query := c.supabase.From(TableGenerations).
		Select("*", "", false).
		Eq("is_public", "true")
	if style != "" {
		query = query.Eq("style", style)
	}
	if orderBy != "" {
		query = query.Order(orderBy, &postgrest.OrderOpts{Ascending: false})
	}
	if limit > 0 {
		query = query.Limit(limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}

	var rows []model.GenerationRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse generations: %w", err)
	}
	return rows, nil
}

// GetGeneration - id 로 조회. 없으면 nil, nil
func (c *Client) GetGeneration(id string) (*model.GenerationRecord, error) {
	data, _, err := c.supabase.From(TableGenerations).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query generation: %w", err)
	}

	var rows []model.GenerationRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse generation: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// HasLike - (user, generation) 좋아요 존재 여부
func (c *Client) HasLike(userID, generationID string) (bool, error) {
	data, _, err := c.supabase.From(TableLikes).
		Select("generation_id", "", false).
		Eq("user_id", userID).
		Eq("generation_id", generationID).
		Execute()
	if err != nil {
		return false, fmt.Errorf("failed to query likes: %w", err)
	}

	var rows []model.LikeRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return false, fmt.Errorf("failed to parse likes: %w", err)
	}
	return len(rows) > 0, nil
}

func (c *Client) InsertLike(userID, generationID string) error {
	_, _, err := c.supabase.From(TableLikes).
		Insert(model.LikeRecord{UserID: userID, GenerationID: generationID}, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert like: %w", err)
	}
	return nil
}

func (c *Client) DeleteLike(userID, generationID string) error {
	_, _, err := c.supabase.From(TableLikes).
		Delete("", "").
		Eq("user_id", userID).
		Eq("generation_id", generationID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// ListLikedIDs - 사용자가 좋아요한 generation id 목록
func (c *Client) ListLikedIDs(userID string) ([]string, error) {
	data, _, err := c.supabase.From(TableLikes).
		Select("generation_id", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}

	var rows []model.LikeRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse likes: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.GenerationID)
	}
	return ids, nil
}

// UpdateLikes - 카운터 덮어쓰기 (잠금 없음)
func (c *Client) UpdateLikes(generationID string, likes int) error {
	_, _, err := c.supabase.From(TableGenerations).
		Update(map[string]interface{}{"likes": likes}, "", "").
		Eq("id", generationID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update likes: %w", err)
	}
	return nil
}

// IncrementUsage - 서버 측 원자적 증가 RPC. 반환값이 숫자면 새 카운트
func (c *Client) IncrementUsage(generationID string) (int, error) {
	result := c.supabase.Rpc(RPCIncrementUse, "", map[string]interface{}{
		"row_id": generationID,
	})

	count, err := strconv.Atoi(result)
	if err != nil {
		// void 함수이거나 에러 본문
		var rpcErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal([]byte(result), &rpcErr) == nil && rpcErr.Message != "" {
			return 0, fmt.Errorf("failed to increment usage: %s", rpcErr.Message)
		}
		return 0, nil
	}
	log.Printf("📈 Usage incremented: %s → %d", generationID, count)
	return count, nil
}
