package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"neue-studio-server/modules/common/config"
	"neue-studio-server/modules/common/gemini"
)

// 이미지 생성/비전 관련 모델만 출력
var keywords = []string{"image", "flash", "pro", "vision"}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := gemini.NewClient(ctx, cfg, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("❌ %v (set GEMINI_API_KEY)", err)
	}

	log.Println("🔍 Listing models...")
	count := 0
	for m, err := range client.Models.All(ctx) {
		if err != nil {
			log.Fatalf("❌ Failed to list models: %v", err)
		}
		if !matches(m.Name) {
			continue
		}
		count++
		log.Printf("- %s (%s) actions=%s", m.Name, m.DisplayName, strings.Join(m.SupportedActions, ","))
	}
	log.Printf("✅ %d matching models", count)
}

func matches(name string) bool {
	name = strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}
