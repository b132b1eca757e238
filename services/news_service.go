package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// News API constants
const (
	NewsAPIURL        = "https://newsapi.org/v2/top-headlines"
	MaxNewsArticles   = 12
	NewsImageFallback = "https://via.placeholder.com/300x160?text=News+Image"
)

// NewsArticle is one headline normalized for the frontend
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      string `json:"source"`
}

// newsAPIResponse mirrors the newsapi.org payload
type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// NewsService is a stateless pass-through to the headlines API
type NewsService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Global news service instance
var GlobalNewsService *NewsService

// InitNewsService initializes the news service
func InitNewsService(apiKey string) {
	GlobalNewsService = &NewsService{
		apiKey:     apiKey,
		baseURL:    NewsAPIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	log.Println("News Service initialized")
}

// SetBaseURL overrides the headlines endpoint (used by tests)
func (ns *NewsService) SetBaseURL(u string) {
	ns.baseURL = u
}

// GetTopHeadlines returns up to MaxNewsArticles business headlines. Any
// failure yields the canned unavailability article instead of an error.
func (ns *NewsService) GetTopHeadlines() []NewsArticle {
	articles, err := ns.fetchHeadlines()
	if err != nil {
		log.Printf("News fetch failed: %v", err)
		return []NewsArticle{{
			Title:       "News Error",
			Description: "News service is currently unavailable. Try later.",
			URL:         "#",
			Image:       NewsImageFallback,
			PublishedAt: time.Now().Format(time.RFC3339),
			Source:      "System",
		}}
	}
	return articles
}

// fetchHeadlines performs the upstream call
func (ns *NewsService) fetchHeadlines() ([]NewsArticle, error) {
	params := url.Values{
		"category": {"business"},
		"language": {"en"},
		"apiKey":   {ns.apiKey},
	}

	resp, err := ns.httpClient.Get(ns.baseURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var newsResp newsAPIResponse
	if err := json.Unmarshal(body, &newsResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	articles := make([]NewsArticle, 0, MaxNewsArticles)
	for _, a := range newsResp.Articles {
		if len(articles) >= MaxNewsArticles {
			break
		}

		article := NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Image:       a.URLToImage,
			PublishedAt: a.PublishedAt,
			Source:      a.Source.Name,
		}
		if article.Title == "" {
			article.Title = "No title"
		}
		if article.Description == "" {
			article.Description = "No description"
		}
		if article.URL == "" {
			article.URL = "#"
		}
		if article.Image == "" {
			article.Image = NewsImageFallback
		}
		if article.PublishedAt == "" {
			article.PublishedAt = time.Now().Format(time.RFC3339)
		}
		if article.Source == "" {
			article.Source = "Unknown"
		}
		articles = append(articles, article)
	}

	return articles, nil
}
