package social

import (
	"context"
	"net/http"
	"net/url"
)

// TikTokClient uploads videos through the TikTok share API. Posting
// requires business approval on TikTok's side.
type TikTokClient struct {
	accessToken string
	openID      string
	baseURL     string
	httpClient  *http.Client
}

func NewTikTokClient(accessToken, openID, baseURL string) *TikTokClient {
	if baseURL == "" {
		baseURL = "https://open-api.tiktok.com/share/video/upload/"
	}
	return &TikTokClient{
		accessToken: accessToken,
		openID:      openID,
		baseURL:     baseURL,
		httpClient:  newHTTPClient(),
	}
}

// PostToAccount uploads the video at videoURL with the given description.
func (c *TikTokClient) PostToAccount(ctx context.Context, videoURL, description string) (*PostResult, error) {
	form := url.Values{
		"access_token": {c.accessToken},
		"open_id":      {c.openID},
		"video_url":    {videoURL},
		"description":  {description},
	}
	return postForm(ctx, c.httpClient, c.baseURL, form)
}
