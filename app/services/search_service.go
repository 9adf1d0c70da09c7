package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
)

const (
	SearchCategories = "categories"
	SearchProducts   = "products"
	SearchArticles   = "articles"
	SearchNews       = "news"
)

// Default slice sizes of a search response without a type.
const (
	searchCategoryLimit    = 4
	searchProductLimit     = 8
	searchPublicationLimit = 4
)

type SearchQuery struct {
	Text      string
	Tags      []string
	Type      string
	SortBy    string
	Direction string
}

type SearchCounts struct {
	Categories int64 `json:"categories"`
	Products   int64 `json:"products"`
	Articles   int64 `json:"articles"`
	News       int64 `json:"news"`
}

// SearchResult holds one slice per entity. With a type set, only that
// entity is returned and the others are null.
type SearchResult struct {
	Categories []CategoryNode    `json:"categories"`
	Products   []ProductItem     `json:"products"`
	Articles   []PublicationItem `json:"articles"`
	News       []PublicationItem `json:"news"`
	Counts     SearchCounts      `json:"counts"`
}

type SearchService struct {
	categories repositories.CategoryRepositoryImpl
	products   repositories.ProductRepositoryImpl
	content    repositories.ContentRepository
	pricer     *Pricer
	now        func() time.Time
}

func NewSearchService(
	categories repositories.CategoryRepositoryImpl,
	products repositories.ProductRepositoryImpl,
	content repositories.ContentRepository,
	pricer *Pricer,
) *SearchService {
	return &SearchService{
		categories: categories,
		products:   products,
		content:    content,
		pricer:     pricer,
		now:        time.Now,
	}
}

func (s *SearchService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	now := s.now()
	text := strings.TrimSpace(q.Text)

	var categories []models.Category
	var err error
	// Tags never match categories.
	if len(q.Tags) == 0 {
		if text != "" {
			categories, err = s.categories.Search(ctx, text)
		} else {
			categories, err = s.categories.ListActive(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("search categories: %w", err)
		}
	}

	productQuery := repositories.ProductQuery{
		Kinds:        sellKinds,
		ActiveTree:   true,
		Text:         text,
		ArtSubstring: true,
		Tags:         q.Tags,
	}
	if q.Type == SearchProducts {
		productQuery.SortBy, productQuery.Direction = q.SortBy, q.Direction
	} else {
		productQuery.SortBy = "name"
		productQuery.Limit = searchProductLimit
	}
	products, productCount, err := s.products.List(ctx, productQuery)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	index, err := s.pricer.Index(ctx)
	if err != nil {
		return nil, err
	}

	articles, err := s.content.SearchArticles(ctx, text, q.Tags, now)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	news, err := s.content.SearchNews(ctx, text, q.Tags, now)
	if err != nil {
		return nil, fmt.Errorf("search news: %w", err)
	}

	result := &SearchResult{
		Counts: SearchCounts{
			Categories: int64(len(categories)),
			Products:   productCount,
			Articles:   int64(len(articles)),
			News:       int64(len(news)),
		},
	}
	desc := strings.EqualFold(q.Direction, "desc")

	switch q.Type {
	case SearchCategories:
		if q.SortBy == "name" {
			sort.SliceStable(categories, func(i, j int) bool {
				return ordered(categories[i].Name, categories[j].Name, desc)
			})
		}
		result.Categories = categoryNodes(categories)
	case SearchProducts:
		result.Products = NewProductItems(products, index, now)
	case SearchArticles:
		if q.SortBy == "title" {
			sort.SliceStable(articles, func(i, j int) bool {
				return ordered(articles[i].Title, articles[j].Title, desc)
			})
		}
		result.Articles = articleItems(articles)
	case SearchNews:
		if q.SortBy == "title" {
			sort.SliceStable(news, func(i, j int) bool {
				return ordered(news[i].Title, news[j].Title, desc)
			})
		}
		result.News = newsItems(news)
	default:
		result.Categories = categoryNodes(head(categories, searchCategoryLimit))
		result.Products = NewProductItems(products, index, now)
		result.Articles = articleItems(head(articles, searchPublicationLimit))
		result.News = newsItems(head(news, searchPublicationLimit))
	}
	return result, nil
}

func ordered(a, b string, desc bool) bool {
	if desc {
		return a > b
	}
	return a < b
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func categoryNodes(categories []models.Category) []CategoryNode {
	nodes := make([]CategoryNode, 0, len(categories))
	for i := range categories {
		nodes = append(nodes, categoryNode(&categories[i]))
	}
	return nodes
}
