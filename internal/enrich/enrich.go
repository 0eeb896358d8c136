// Package enrich adds third-party facts to a consolidated profile: a Google
// rating, public videos and normalized contact details. Lookups retry a
// bounded number of times and fall back to model.NotAvailable; enrichment
// never fails a run.
package enrich

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/sells-group/profile-cli/internal/config"
	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/pkg/google"
)

// DefaultAttempts bounds each lookup.
const DefaultAttempts = 3

// Enricher applies the configured lookups to a profile. Nil lookups are
// skipped.
type Enricher struct {
	Rating      *RatingLookup
	Videos      *VideoLookup
	MaxVideos   int
	PhoneRegion string
}

// New builds an Enricher from config. Each lookup is enabled by its API key.
func New(ctx context.Context, cfg *config.Config) (*Enricher, error) {
	e := &Enricher{
		MaxVideos:   cfg.Enrich.MaxVideos,
		PhoneRegion: cfg.Enrich.PhoneRegion,
	}
	if cfg.Google.PlacesKey != "" {
		e.Rating = NewRatingLookup(google.NewClient(cfg.Google.PlacesKey), cfg.Enrich.MaxAttempts, cfg.Enrich.PhoneRegion)
	}
	if cfg.Google.YouTubeKey != "" {
		v, err := NewVideoLookup(ctx, cfg.Enrich.MaxAttempts, option.WithAPIKey(cfg.Google.YouTubeKey))
		if err != nil {
			return nil, err
		}
		e.Videos = v
	}
	return e, nil
}

// Enrich normalizes contacts and merges lookup results into p in place.
func (e *Enricher) Enrich(ctx context.Context, p *model.CompanyProfile) {
	if p == nil {
		return
	}
	NormalizeContacts(p, e.PhoneRegion)

	if e.Rating != nil && p.Name != "" {
		var address string
		if len(p.HQAddress) > 0 {
			address = p.HQAddress[0]
		}
		p.GoogleRating = e.Rating.Rating(ctx, p.Name, address, p.WebsiteLink)
	}

	if e.Videos != nil {
		query := p.YouTubeQuery
		if query == "" {
			query = p.Name
		}
		if query == "" {
			return
		}
		videos := e.Videos.Videos(ctx, query, e.MaxVideos)
		if isSentinel(videos) && len(p.YouTubeVideos) > 0 {
			zap.L().Debug("enrich: no videos found, keeping extracted links", zap.String("query", query))
			return
		}
		p.YouTubeVideos = videos
	}
}

func isSentinel(v []string) bool {
	return len(v) == 1 && v[0] == model.NotAvailable
}
