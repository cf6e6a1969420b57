// Package devapi is an in-memory video service for local runs and tests.
package devapi

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Its-donkey/ivideo/internal/ui/model"
)

const (
	sampleCount    = 20
	maxSuggestions = 5
)

var genres = []string{"Action", "Comedy", "Sci-Fi", "Romance", "Mystery"}

// Record is a stored video. It carries every field the service can emit.
type Record struct {
	model.Video
	VideoURL string `json:"videoUrl"`
}

// Service holds the sample catalog.
type Service struct {
	mu      sync.Mutex
	rng     *rand.Rand
	records []Record
	now     func() time.Time
}

// New generates the sample catalog. The same seed yields the same catalog.
func New(seed int64) *Service {
	s := &Service{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x5eed)),
		now: time.Now,
	}
	s.records = s.generate(sampleCount)
	return s
}

// NewWithRecords builds a service over fixed records.
func NewWithRecords(seed int64, records []Record) *Service {
	s := &Service{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x5eed)),
		now: time.Now,
	}
	s.records = append([]Record(nil), records...)
	return s
}

func (s *Service) generate(n int) []Record {
	out := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		category := model.Categories[s.rng.IntN(len(model.Categories))]
		uploaded := s.now().AddDate(0, 0, -(1 + s.rng.IntN(365)))
		out = append(out, Record{
			Video: model.Video{
				ID:          int64(i),
				Title:       fmt.Sprintf("Sample Video %d - %s", i, genres[s.rng.IntN(len(genres))]),
				Description: fmt.Sprintf("Sample video %d with a full description of its story.", i),
				Thumbnail:   fmt.Sprintf("https://picsum.photos/400/225?random=%d", i),
				Owner:       fmt.Sprintf("Creator %d", 1+s.rng.IntN(10)),
				Views:       int64(1000 + s.rng.IntN(999001)),
				Duration:    fmt.Sprintf("%d:%02d", 1+s.rng.IntN(2), s.rng.IntN(60)),
				UploadDate:  uploaded.Format("2006-01-02"),
				Category:    category.Label,
			},
			VideoURL: fmt.Sprintf("/static/videos/video%d.mp4", i),
		})
	}
	return out
}

// Videos returns the catalog, narrowed to titles containing search when it is
// not empty.
func (s *Service) Videos(search string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(search)
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if needle == "" || strings.Contains(strings.ToLower(r.Title), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Featured picks a random video. It reports false when the catalog is empty.
func (s *Service) Featured() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	return s.records[s.rng.IntN(len(s.records))], true
}

// View returns the video with id and counts the view.
func (s *Service) View(id int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Views++
			return s.records[i], true
		}
	}
	return Record{}, false
}

// Suggestions returns up to five titles containing q. Queries shorter than two
// characters yield nothing.
func (s *Service) Suggestions(q string) []string {
	out := []string{}
	if len([]rune(q)) < 2 {
		return out
	}
	needle := strings.ToLower(q)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if strings.Contains(strings.ToLower(r.Title), needle) {
			out = append(out, r.Title)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

// Profile is the account every bearer token resolves to.
func Profile() model.Session {
	return model.Session{
		UserID:      1,
		Username:    "user123",
		DisplayName: "Video Fan",
		Email:       "user@example.com",
		JoinDate:    "2024-01-01",
	}
}
