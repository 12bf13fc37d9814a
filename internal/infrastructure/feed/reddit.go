// Package feed pulls recipe-bearing posts from a public listing feed and
// records them in the shared CSV audit format.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// recipeKeywords mark a body of text as probably containing a recipe.
// A post whose selftext lacks them usually carries the recipe in a comment.
var recipeKeywords = []string{
	"ingredients",
	"instructions",
	"preparation",
	"prep time",
	"cook time",
	"total time",
	"servings",
}

// RedditSource implements outbound.FeedSource against the public reddit
// listing API. No authentication; the User-Agent header is mandatory or
// reddit throttles the client.
type RedditSource struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

// NewRedditSource creates the feed poller.
func NewRedditSource(cfg *config.Config, logger *zap.Logger) *RedditSource {
	userAgent := cfg.Feed.UserAgent
	if userAgent == "" {
		userAgent = "recipe-pipeline/1.0"
	}
	return &RedditSource{
		baseURL:   "https://www.reddit.com",
		userAgent: userAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger.Named("feed"),
	}
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Selftext    string  `json:"selftext"`
	Body        string  `json:"body"`
	Permalink   string  `json:"permalink"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

// FetchRecent lists the newest posts from the source and resolves each to a
// recipe-bearing text: the selftext when it reads like a recipe, otherwise
// the submitter's top-level comment.
func (s *RedditSource) FetchRecent(ctx context.Context, sourceID string, limit int) ([]outbound.FeedEvent, error) {
	if limit <= 0 {
		limit = 25
	}
	url := fmt.Sprintf("%s/r/%s/new.json?limit=%d", s.baseURL, sourceID, limit)
	var listing listingResponse
	if err := s.getJSON(ctx, url, &listing); err != nil {
		return nil, fmt.Errorf("failed to fetch feed listing: %w", err)
	}

	var events []outbound.FeedEvent
	for _, child := range listing.Data.Children {
		post := child.Data
		text := post.Selftext
		if !looksLikeRecipe(text) {
			comment, err := s.authorComment(ctx, sourceID, post.ID, post.Author)
			if err != nil {
				s.logger.Debug("No recipe comment found",
					zap.String("post_id", post.ID),
					zap.Error(err))
			} else if looksLikeRecipe(comment) {
				text = comment
			}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		created := time.Unix(int64(post.CreatedUTC), 0).UTC()
		events = append(events, outbound.FeedEvent{
			Date:        created.Format("2006-01-02 15:04:05"),
			NumComments: post.NumComments,
			Title:       post.Title,
			Author:      post.Author,
			Text:        text,
			CharCount:   len(text),
			PostID:      post.ID,
			URL:         s.baseURL + post.Permalink,
		})
	}

	s.logger.Info("Feed fetched",
		zap.String("source", sourceID),
		zap.Int("events", len(events)))
	return events, nil
}

// authorComment returns the submitter's first top-level comment on a post.
func (s *RedditSource) authorComment(ctx context.Context, sourceID, postID, author string) (string, error) {
	url := fmt.Sprintf("%s/r/%s/comments/%s.json?limit=20", s.baseURL, sourceID, postID)

	// The comments endpoint returns a two-element array: post, then comments.
	var pages []listingResponse
	if err := s.getJSON(ctx, url, &pages); err != nil {
		return "", err
	}
	if len(pages) < 2 {
		return "", fmt.Errorf("post %s has no comment listing", postID)
	}
	for _, child := range pages[1].Data.Children {
		if child.Data.Author == author && strings.TrimSpace(child.Data.Body) != "" {
			return child.Data.Body, nil
		}
	}
	return "", fmt.Errorf("no comment by %s on post %s", author, postID)
}

func (s *RedditSource) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func looksLikeRecipe(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range recipeKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

var _ outbound.FeedSource = (*RedditSource)(nil)
