package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// InstagramClient posts to an Instagram business account through the
// Facebook Graph API.
type InstagramClient struct {
	accessToken string
	pageID      string
	baseURL     string
	httpClient  *http.Client
}

func NewInstagramClient(accessToken, pageID, baseURL string) *InstagramClient {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	return &InstagramClient{
		accessToken: accessToken,
		pageID:      pageID,
		baseURL:     baseURL,
		httpClient:  newHTTPClient(),
	}
}

// PostToAccount creates a media container for the image, then publishes it.
// Both steps must succeed for the post to appear.
func (c *InstagramClient) PostToAccount(ctx context.Context, imageURL, caption string) (*PostResult, error) {
	mediaEndpoint := fmt.Sprintf("%s/%s/media", c.baseURL, c.pageID)
	media, err := postForm(ctx, c.httpClient, mediaEndpoint, url.Values{
		"image_url":    {imageURL},
		"caption":      {caption},
		"access_token": {c.accessToken},
	})
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}

	publishEndpoint := fmt.Sprintf("%s/%s/media_publish", c.baseURL, c.pageID)
	published, err := postForm(ctx, c.httpClient, publishEndpoint, url.Values{
		"creation_id":  {media.ID},
		"access_token": {c.accessToken},
	})
	if err != nil {
		return nil, fmt.Errorf("publish media: %w", err)
	}
	return published, nil
}
