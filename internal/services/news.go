package services

import (
	"context"
	"slices"
)

// NewsService serves a fixed list of top headlines
type NewsService struct {
	headlines []string
}

// NewNewsService creates a news feed with the default headlines
func NewNewsService() *NewsService {
	return &NewsService{headlines: []string{
		"AI revolutionizes education.",
		"Tech giants invest in climate solutions.",
		"Breakthroughs in cancer research.",
	}}
}

// Headlines returns at most the top three headlines
func (n *NewsService) Headlines(_ context.Context) []string {
	return slices.Clone(n.headlines[:min(3, len(n.headlines))])
}
