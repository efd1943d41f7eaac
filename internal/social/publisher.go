package social

import (
	"context"
	"fmt"

	"github.com/postpilot-cms/postpilot/internal/models"
	log "github.com/sirupsen/logrus"
)

// PlatformResult records the outcome of publishing to one platform.
type PlatformResult struct {
	Platform string
	PostID   string
	Err      error
}

// Publisher fans a post out to every platform it is flagged for, using the
// owner's connected accounts. Base URLs are overridable for tests.
type Publisher struct {
	FacebookBaseURL  string
	InstagramBaseURL string
	TikTokBaseURL    string
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish sends the post to each flagged platform. A platform without a
// connected account fails for that platform only; the others still run.
func (p *Publisher) Publish(ctx context.Context, post *models.Post, accounts []models.SocialAccount) []PlatformResult {
	byPlatform := make(map[string]*models.SocialAccount, len(accounts))
	for i := range accounts {
		byPlatform[accounts[i].Platform] = &accounts[i]
	}

	var results []PlatformResult
	if post.ToFacebook {
		results = append(results, p.publishOne(ctx, models.PlatformFacebook, post, byPlatform))
	}
	if post.ToInstagram {
		results = append(results, p.publishOne(ctx, models.PlatformInstagram, post, byPlatform))
	}
	if post.ToTikTok {
		results = append(results, p.publishOne(ctx, models.PlatformTikTok, post, byPlatform))
	}
	return results
}

func (p *Publisher) publishOne(ctx context.Context, platform string, post *models.Post, accounts map[string]*models.SocialAccount) PlatformResult {
	account, ok := accounts[platform]
	if !ok {
		return PlatformResult{Platform: platform, Err: fmt.Errorf("no connected %s account", platform)}
	}

	var (
		result *PostResult
		err    error
	)
	switch platform {
	case models.PlatformFacebook:
		client := NewFacebookClient(account.AccessToken, account.AccountID, p.FacebookBaseURL)
		result, err = client.PostToPage(ctx, post.Text)
	case models.PlatformInstagram:
		client := NewInstagramClient(account.AccessToken, account.AccountID, p.InstagramBaseURL)
		result, err = client.PostToAccount(ctx, post.MediaURL, post.Text)
	case models.PlatformTikTok:
		client := NewTikTokClient(account.AccessToken, account.AccountID, p.TikTokBaseURL)
		result, err = client.PostToAccount(ctx, post.MediaURL, post.Text)
	default:
		err = fmt.Errorf("unknown platform %s", platform)
	}

	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"post_id":  post.ID,
			"platform": platform,
		}).Warn("platform publish failed")
		return PlatformResult{Platform: platform, Err: err}
	}
	return PlatformResult{Platform: platform, PostID: result.ID}
}
