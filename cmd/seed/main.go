// Package main seeds a gallery with demo tags and generated images.
//
// It reads the same environment and .env file as the server, so it writes
// to the configured database and media store.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed -images 40 -spread 30
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand/v2"
	"time"

	"github.com/galleryapp/gallery-server/internal/config"
	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/media/images"
	"github.com/galleryapp/gallery-server/internal/media/local"
	"github.com/galleryapp/gallery-server/internal/search"
	"github.com/galleryapp/gallery-server/internal/service"
	"github.com/galleryapp/gallery-server/internal/store"
	"github.com/galleryapp/gallery-server/internal/store/postgres"
	"github.com/galleryapp/gallery-server/internal/store/sqlite"
	"github.com/galleryapp/gallery-server/internal/util"
)

var (
	imageCount = flag.Int("images", 12, "Number of images to generate")
	spreadDays = flag.Int("spread", 14, "Spread upload times over this many past days")
)

var demoTags = []struct{ name, icon string }{
	{"Nature", "fa-leaf"},
	{"City", "fa-city"},
	{"People", "fa-user"},
	{"Animals", "fa-paw"},
	{"Travel", "fa-plane"},
	{"Food", "fa-utensils"},
}

var subjects = []string{
	"Morning fog", "Harbour lights", "Old market", "Pine ridge", "Rooftops",
	"Quiet street", "Tide pools", "Night train", "Orchard", "Canal bridge",
}

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Media.URL == "" {
		log.Fatal("MEDIA_URL is empty; nothing to upload to")
	}

	ctx := context.Background()

	s, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	storage, err := local.FromURL(cfg.Media.URL)
	if err != nil {
		log.Fatalf("Failed to open media storage: %v", err)
	}

	index, err := search.Open(search.Options{DataPath: cfg.Data.Path})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	searchService := service.NewSearchService(index, s, nil)
	gallery := service.NewGalleryService(s, storage, images.NewProcessor(0, 0, nil), searchService, nil, nil, nil)

	tagIDs := seedTags(ctx, s)
	fmt.Printf("Tags ready: %d\n", len(tagIDs))

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	now := time.Now()

	for n := range *imageCount {
		title := fmt.Sprintf("%s %02d", subjects[n%len(subjects)], n+1)

		var picked []int64
		for _, id := range tagIDs {
			if rng.IntN(3) == 0 {
				picked = append(picked, id)
			}
		}

		img, err := gallery.Upload(ctx, service.UploadRequest{
			Title:    title,
			Filename: fmt.Sprintf("seed-%02d.png", n+1),
			Data:     generatePNG(rng, 640, 480),
			TagIDs:   picked,
		})
		if err != nil {
			log.Printf("Failed to upload %q: %v", title, err)
			continue
		}

		// Spread uploads so the trending filter has something to exclude.
		if *spreadDays > 0 {
			img.UploadedAt = now.Add(-time.Duration(rng.IntN(*spreadDays*24)) * time.Hour)
			if err := s.UpdateImage(ctx, img); err != nil {
				log.Printf("Failed to backdate %q: %v", title, err)
			}
		}

		fmt.Printf("  %-20s %s (%d tags)\n", title, storage.URL(img.PublicID), len(picked))
	}

	if _, err := searchService.Reindex(ctx); err != nil {
		log.Printf("Failed to reindex: %v", err)
	}

	fmt.Println("\nDone!")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.IsPostgres() {
		return postgres.Open(ctx, cfg.Database.URL, nil)
	}
	return sqlite.Open(cfg.Database.URL, nil)
}

// seedTags creates the demo tags, reusing any that already exist.
func seedTags(ctx context.Context, s store.Store) []int64 {
	existing, err := s.ListTags(ctx)
	if err != nil {
		log.Fatalf("Failed to list tags: %v", err)
	}
	bySlug := make(map[string]int64, len(existing))
	for _, t := range existing {
		bySlug[t.Slug] = t.ID
	}

	ids := make([]int64, 0, len(demoTags))
	for _, dt := range demoTags {
		tag := &domain.Tag{Name: dt.name, Slug: util.Slugify(dt.name), Icon: dt.icon}
		if id, ok := bySlug[tag.Slug]; ok {
			ids = append(ids, id)
			continue
		}
		if err := s.CreateTag(ctx, tag); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			log.Printf("Failed to create tag %q: %v", dt.name, err)
			continue
		}
		ids = append(ids, tag.ID)
	}
	return ids
}

// generatePNG draws a two-colour diagonal gradient.
func generatePNG(rng *rand.Rand, w, h int) []byte {
	from := color.RGBA{uint8(rng.IntN(256)), uint8(rng.IntN(256)), uint8(rng.IntN(256)), 255}
	to := color.RGBA{uint8(rng.IntN(256)), uint8(rng.IntN(256)), uint8(rng.IntN(256)), 255}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			t := float64(x+y) / float64(w+h)
			img.Set(x, y, color.RGBA{
				R: lerp(from.R, to.R, t),
				G: lerp(from.G, to.G, t),
				B: lerp(from.B, to.B, t),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Fatalf("Failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
