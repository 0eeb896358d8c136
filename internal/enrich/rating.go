package enrich

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/resilience"
	"github.com/sells-group/profile-cli/pkg/google"
)

// placesPerQuery is how many candidates are compared against the website.
const placesPerQuery = 5

// RatingLookup finds a company's Google rating with Places text search.
type RatingLookup struct {
	places   google.Client
	attempts int
	region   string
}

// NewRatingLookup creates a RatingLookup. region is an optional CLDR region
// code that biases results.
func NewRatingLookup(places google.Client, attempts int, region string) *RatingLookup {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &RatingLookup{places: places, attempts: attempts, region: region}
}

// Rating returns the rating of the best match for name and address,
// preferring the place whose website is on the same host as website. It
// returns a model.NotAvailable rating once every attempt has failed or found
// nothing.
func (l *RatingLookup) Rating(ctx context.Context, name, address, website string) model.Rating {
	req := google.TextSearchRequest{
		Query:      strings.TrimSpace(name + " " + address),
		MaxResults: placesPerQuery,
		RegionCode: l.region,
	}

	rating, ok, err := resilience.UntilAccepted(ctx, l.attempts,
		func(ctx context.Context) (float64, error) {
			resp, err := l.places.TextSearch(ctx, req)
			if err != nil {
				return 0, err
			}
			return bestRating(resp.Places, website), nil
		},
		func(r float64) bool { return r > 0 },
	)
	if !ok {
		zap.L().Debug("enrich: rating not available", zap.String("query", req.Query), zap.Error(err))
		return model.Rating{Text: model.NotAvailable}
	}
	return model.NumericRating(rating)
}

// bestRating picks the rated place on website's host, else the first rated
// place.
func bestRating(places []google.Place, website string) float64 {
	host := siteHost(website)
	first := 0.0
	for _, p := range places {
		if p.Rating <= 0 {
			continue
		}
		if host != "" && siteHost(p.WebsiteURI) == host {
			return p.Rating
		}
		if first == 0 {
			first = p.Rating
		}
	}
	return first
}

func siteHost(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
