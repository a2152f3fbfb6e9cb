package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"neue-studio-server/modules/common/config"
	"neue-studio-server/modules/common/utils"
)

// webpQuality - 갤러리 업로드 WebP 품질
const webpQuality = 90.0

type Client struct {
	supabaseURL string
	serviceKey  string
	bucket      string
	publicBase  string
	httpClient  *http.Client
}

// NewClient - Storage 클라이언트 생성
func NewClient(cfg *config.Config) *Client {
	publicBase := cfg.SupabaseStorageBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("%s/storage/v1/object/public/%s/", strings.TrimRight(cfg.SupabaseURL, "/"), cfg.SupabaseBucket)
	}
	if !strings.HasSuffix(publicBase, "/") {
		publicBase += "/"
	}

	return &Client{
		supabaseURL: strings.TrimRight(cfg.SupabaseURL, "/"),
		serviceKey:  cfg.SupabaseServiceKey,
		bucket:      cfg.SupabaseBucket,
		publicBase:  publicBase,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// UploadImage - 생성 이미지를 버킷에 업로드하고 공개 URL 반환.
// PNG 는 WebP 로 변환하고, 변환에 실패하면 원본 바이트를 그대로 올림
func (c *Client) UploadImage(ctx context.Context, imageData []byte, mimeType, userID string) (string, error) {
	body, contentType, ext := prepareUpload(imageData, mimeType)

	filePath := fmt.Sprintf("user-%s/gen_%d_%s.%s",
		userID, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.supabaseURL, c.bucket, filePath)

	log.Printf("📤 [Storage] Uploading %s (%d bytes) → %s", contentType, len(body), filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	log.Printf("✅ [Storage] Image uploaded: %s", filePath)
	return c.publicBase + filePath, nil
}

// prepareUpload - 업로드할 바이트, Content-Type, 확장자 결정
func prepareUpload(imageData []byte, mimeType string) ([]byte, string, string) {
	if mimeType == "" {
		mimeType = "image/png"
	}

	if mimeType == "image/png" {
		webpData, err := utils.ConvertPNGToWebP(imageData, webpQuality)
		if err == nil {
			return webpData, "image/webp", "webp"
		}
		log.Printf("⚠️ [Storage] WebP conversion failed, uploading original PNG: %v", err)
	}

	return imageData, mimeType, extensionFor(mimeType)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
