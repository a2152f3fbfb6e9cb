package model

import "time"

// GenerationRecord - generations 테이블 구조
type GenerationRecord struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"user_id"`
	ImageURL    string    `json:"image_url"`
	Prompt      string    `json:"prompt"`
	Style       string    `json:"style"`
	Lighting    string    `json:"lighting"`
	Camera      string    `json:"camera"`
	Environment *string   `json:"environment"`
	Pose        *string   `json:"pose"`
	AspectRatio string    `json:"aspect_ratio"`
	Likes       int       `json:"likes"`
	UsageCount  int       `json:"usage_count"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
}

// LikeRecord - likes 테이블 구조
type LikeRecord struct {
	UserID       string `json:"user_id"`
	GenerationID string `json:"generation_id"`
}

// GalleryTags - 갤러리에 노출되는 태그 (environment/pose 는 선택)
type GalleryTags struct {
	Style       string `json:"style"`
	Lighting    string `json:"lighting"`
	Camera      string `json:"camera"`
	Environment string `json:"environment,omitempty"`
	Pose        string `json:"pose,omitempty"`
}

// GalleryItem - 갤러리 카드
type GalleryItem struct {
	ID         string      `json:"id"`
	URL        string      `json:"url"`
	Prompt     string      `json:"prompt"`
	Likes      int         `json:"likes"`
	UsageCount int         `json:"usageCount"`
	Tags       GalleryTags `json:"tags"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// ToGalleryItem - 레코드 → 갤러리 카드
func (r GenerationRecord) ToGalleryItem() GalleryItem {
	tags := GalleryTags{
		Style:    r.Style,
		Lighting: r.Lighting,
		Camera:   r.Camera,
	}
	if r.Environment != nil {
		tags.Environment = *r.Environment
	}
	if r.Pose != nil {
		tags.Pose = *r.Pose
	}
	return GalleryItem{
		ID:         r.ID,
		URL:        r.ImageURL,
		Prompt:     r.Prompt,
		Likes:      r.Likes,
		UsageCount: r.UsageCount,
		Tags:       tags,
		CreatedAt:  r.CreatedAt,
	}
}

// TrendingScore - likes + 2 * usage
func (g GalleryItem) TrendingScore() int {
	return g.Likes + g.UsageCount*2
}
