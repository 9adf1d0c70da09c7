package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_Search(t *testing.T) {
	db := newTestDB(t)
	cat := seedCatalog(t, db)
	for i := 0; i < 10; i++ {
		seedProduct(t, db, cat, fmt.Sprintf("Drill %02d", i), "10")
	}
	seedProduct(t, db, cat, "Hammer", "10")
	sale := models.Tag{Name: "sale", Activity: true}
	require.NoError(t, db.Create(&sale).Error)
	tagged := seedProduct(t, db, cat, "Saw", "10", func(p *models.Product) {
		p.Tags = []models.Tag{sale}
	})
	for _, title := range []string{"Choosing a drill", "Drill bits 101", "Garden"} {
		require.NoError(t, db.Create(&models.Article{Publication: models.Publication{Title: title, Slug: title, Activity: true}}).Error)
	}

	svc := NewSearchService(
		repositories.NewCategoryRepository(db),
		repositories.NewProductRepository(db),
		repositories.NewContentRepository(db),
		NewPricer(repositories.NewSpecialRepository(db)),
	)
	ctx := context.Background()

	t.Run("all entities", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{Text: "drill"})
		require.NoError(t, err)
		assert.EqualValues(t, 10, res.Counts.Products)
		assert.Len(t, res.Products, searchProductLimit)
		assert.Equal(t, "Drill 00", res.Products[0].Name)
		assert.EqualValues(t, 1, res.Counts.Categories)
		assert.Equal(t, "drills", res.Categories[0].Slug)
		assert.EqualValues(t, 2, res.Counts.Articles)
		assert.Len(t, res.Articles, 2)
		assert.NotNil(t, res.News)
	})

	t.Run("single type keeps the rest null", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{Text: "drill", Type: SearchArticles, SortBy: "title", Direction: "desc"})
		require.NoError(t, err)
		assert.Nil(t, res.Products)
		assert.Nil(t, res.Categories)
		require.Len(t, res.Articles, 2)
		assert.Equal(t, "Drill bits 101", res.Articles[0].Title)
	})

	t.Run("products type is not truncated", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{Text: "drill", Type: SearchProducts, SortBy: "name", Direction: "desc"})
		require.NoError(t, err)
		require.Len(t, res.Products, 10)
		assert.Equal(t, "Drill 09", res.Products[0].Name)
	})

	t.Run("tags skip categories", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{Tags: []string{"sale"}})
		require.NoError(t, err)
		assert.Empty(t, res.Categories)
		assert.EqualValues(t, 0, res.Counts.Categories)
		require.Len(t, res.Products, 1)
		assert.Equal(t, tagged.ID, res.Products[0].ID)
	})

	t.Run("art substring", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{Text: fmt.Sprint(*tagged.Art)})
		require.NoError(t, err)
		require.Len(t, res.Products, 1)
		assert.Equal(t, tagged.ID, res.Products[0].ID)
	})
}
