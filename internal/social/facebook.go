package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// FacebookClient posts to a Facebook page feed on behalf of a page
// access token.
type FacebookClient struct {
	accessToken string
	pageID      string
	baseURL     string
	httpClient  *http.Client
}

func NewFacebookClient(accessToken, pageID, baseURL string) *FacebookClient {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	return &FacebookClient{
		accessToken: accessToken,
		pageID:      pageID,
		baseURL:     baseURL,
		httpClient:  newHTTPClient(),
	}
}

// PostToPage publishes a message to the page feed and returns the
// platform post id.
func (c *FacebookClient) PostToPage(ctx context.Context, message string) (*PostResult, error) {
	endpoint := fmt.Sprintf("%s/%s/feed", c.baseURL, c.pageID)
	form := url.Values{
		"message":      {message},
		"access_token": {c.accessToken},
	}
	return postForm(ctx, c.httpClient, endpoint, form)
}
