package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/resilience"
)

const embedPrefix = "https://www.youtube.com/embed/"

// VideoLookup searches YouTube for a company's videos.
type VideoLookup struct {
	svc      *youtube.Service
	attempts int
}

// NewVideoLookup creates a VideoLookup. Pass option.WithAPIKey for
// production use.
func NewVideoLookup(ctx context.Context, attempts int, opts ...option.ClientOption) (*VideoLookup, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: create youtube service")
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &VideoLookup{svc: svc, attempts: attempts}, nil
}

// Videos returns up to n embed URLs for query, or a single
// model.NotAvailable entry once every attempt has failed or found nothing.
func (l *VideoLookup) Videos(ctx context.Context, query string, n int) []string {
	if n <= 0 {
		n = 2
	}
	urls, ok, err := resilience.UntilAccepted(ctx, l.attempts,
		func(ctx context.Context) ([]string, error) {
			resp, err := l.svc.Search.List([]string{"snippet"}).
				Q(query).
				Type("video").
				MaxResults(int64(n)).
				Context(ctx).
				Do()
			if err != nil {
				return nil, err
			}
			var out []string
			for _, item := range resp.Items {
				if item.Id == nil || item.Id.VideoId == "" {
					continue
				}
				out = append(out, embedPrefix+item.Id.VideoId)
				if len(out) == n {
					break
				}
			}
			return out, nil
		},
		func(v []string) bool { return len(v) > 0 },
	)
	if !ok {
		zap.L().Debug("enrich: videos not available", zap.String("query", query), zap.Error(err))
		return []string{model.NotAvailable}
	}
	return urls
}
