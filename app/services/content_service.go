package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"go.uber.org/zap"
)

const adminMailSubject = "Письмо с сайта Klio!"

// PublicationItem is the list form of an article or a news entry.
type PublicationItem struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	Img      string    `json:"img"`
	Date     time.Time `json:"date"`
	Abstract string    `json:"abstract"`
}

func publicationItem(id string, p *models.Publication) PublicationItem {
	return PublicationItem{ID: id, Title: p.Title, Slug: p.Slug, Img: p.Img, Date: p.Date, Abstract: p.Abstract}
}

func articleItems(articles []models.Article) []PublicationItem {
	items := make([]PublicationItem, 0, len(articles))
	for i := range articles {
		items = append(items, publicationItem(articles[i].ID, &articles[i].Publication))
	}
	return items
}

func newsItems(news []models.News) []PublicationItem {
	items := make([]PublicationItem, 0, len(news))
	for i := range news {
		items = append(items, publicationItem(news[i].ID, &news[i].Publication))
	}
	return items
}

type MenuItemView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Icon        string         `json:"icon"`
	Order       int            `json:"order"`
	RelatedType string         `json:"related_type"`
	Path        string         `json:"path"`
	Letter      *string        `json:"letter,omitempty"`
	Children    []MenuItemView `json:"children"`
}

type MenuView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Position string         `json:"position"`
	Items    []MenuItemView `json:"items"`
}

type CityOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

type PhoneView struct {
	Phone string `json:"phone"`
	Label string `json:"label"`
	Main  bool   `json:"main"`
}

type ContactView struct {
	ID      string                `json:"id"`
	Name    string                `json:"name"`
	Slug    string                `json:"slug"`
	Country string                `json:"country"`
	City    string                `json:"city"`
	Address string                `json:"address"`
	Email   string                `json:"email"`
	Map     string                `json:"map"`
	Content string                `json:"content"`
	Phones  []PhoneView           `json:"phones"`
	Hours   []models.WorkingHours `json:"hours"`
}

func contactView(c *models.Contact) ContactView {
	view := ContactView{
		ID:      c.ID,
		Name:    c.Name,
		Slug:    c.Slug,
		Address: c.Address,
		Email:   c.Email,
		Map:     c.Map,
		Content: c.Content,
		Phones:  []PhoneView{},
		Hours:   c.Hours,
	}
	if c.Country != nil {
		view.Country = c.Country.Name
	}
	if c.City != nil {
		view.City = c.City.Name
	}
	for _, p := range c.Phones {
		if p.Phone.Activity {
			view.Phones = append(view.Phones, PhoneView{Phone: p.Phone.Phone, Label: p.Phone.Label, Main: p.Main})
		}
	}
	if view.Hours == nil {
		view.Hours = []models.WorkingHours{}
	}
	return view
}

type ContentService struct {
	content     repositories.ContentRepository
	contacts    repositories.ContactRepository
	tags        repositories.TagRepository
	mailer      Notifier
	adminEmails []string
	now         func() time.Time
}

func NewContentService(
	content repositories.ContentRepository,
	contacts repositories.ContactRepository,
	tags repositories.TagRepository,
	mailer Notifier,
	adminEmails []string,
) *ContentService {
	return &ContentService{
		content:     content,
		contacts:    contacts,
		tags:        tags,
		mailer:      mailer,
		adminEmails: adminEmails,
		now:         time.Now,
	}
}

func (s *ContentService) Articles(ctx context.Context) ([]PublicationItem, error) {
	articles, err := s.content.Articles(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articleItems(articles), nil
}

func (s *ContentService) Article(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.content.ArticleBySlug(ctx, slug, s.now())
	if err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}
	if article == nil {
		return nil, ErrNotFound
	}
	return article, nil
}

func (s *ContentService) News(ctx context.Context) ([]PublicationItem, error) {
	news, err := s.content.News(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	return newsItems(news), nil
}

func (s *ContentService) NewsEntry(ctx context.Context, slug string) (*models.News, error) {
	news, err := s.content.NewsBySlug(ctx, slug, s.now())
	if err != nil {
		return nil, fmt.Errorf("find news: %w", err)
	}
	if news == nil {
		return nil, ErrNotFound
	}
	return news, nil
}

func (s *ContentService) Banners(ctx context.Context) ([]models.Banner, error) {
	banners, err := s.content.Banners(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	return banners, nil
}

func (s *ContentService) Banner(ctx context.Context, id string) (*models.Banner, error) {
	banner, err := s.content.BannerByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find banner: %w", err)
	}
	if banner == nil {
		return nil, ErrNotFound
	}
	return banner, nil
}

func (s *ContentService) Page(ctx context.Context, slug string) (*models.Page, error) {
	page, err := s.content.PageBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("find page: %w", err)
	}
	if page == nil {
		return nil, ErrNotFound
	}
	return page, nil
}

func (s *ContentService) Settings(ctx context.Context) (*models.SiteSettings, error) {
	settings, err := s.content.ActiveSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}
	if settings == nil {
		return nil, ErrNotFound
	}
	return settings, nil
}

func (s *ContentService) Cities(ctx context.Context) ([]CityOption, error) {
	cities, err := s.content.Cities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	options := make([]CityOption, 0, len(cities))
	for _, c := range cities {
		options = append(options, CityOption{Value: c.ID, Text: c.Name})
	}
	return options, nil
}

// Menus returns active menus with their root items and nested children.
// Inactive items hide their whole subtree.
func (s *ContentService) Menus(ctx context.Context) ([]MenuView, error) {
	menus, err := s.content.Menus(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}

	views := make([]MenuView, 0, len(menus))
	for _, m := range menus {
		var roots []models.MenuItem
		for _, item := range m.Items {
			if item.ParentID == nil {
				roots = append(roots, item)
			}
		}
		letters := models.RootLetters(roots)

		view := MenuView{ID: m.ID, Name: m.Name, Position: m.Position, Items: []MenuItemView{}}
		for _, root := range roots {
			node := menuNode(root, m.Items, map[string]bool{})
			if letter, ok := letters[root.ID]; ok {
				node.Letter = &letter
			}
			view.Items = append(view.Items, node)
		}
		views = append(views, view)
	}
	return views, nil
}

func menuNode(item models.MenuItem, all []models.MenuItem, seen map[string]bool) MenuItemView {
	seen[item.ID] = true
	node := MenuItemView{
		ID:          item.ID,
		Name:        item.Name,
		Slug:        item.Slug,
		Icon:        item.Icon,
		Order:       item.SortOrder,
		RelatedType: item.RelatedType,
		Path:        item.Path(),
		Children:    []MenuItemView{},
	}
	for _, child := range all {
		if child.ParentID != nil && *child.ParentID == item.ID && !seen[child.ID] {
			node.Children = append(node.Children, menuNode(child, all, seen))
		}
	}
	return node
}

func (s *ContentService) Contacts(ctx context.Context) ([]ContactView, error) {
	contacts, err := s.contacts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	views := make([]ContactView, 0, len(contacts))
	for i := range contacts {
		views = append(views, contactView(&contacts[i]))
	}
	return views, nil
}

func (s *ContentService) Contact(ctx context.Context, id string) (*ContactView, error) {
	contact, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	if contact == nil {
		return nil, ErrNotFound
	}
	view := contactView(contact)
	return &view, nil
}

func (s *ContentService) Socials(ctx context.Context) ([]models.SocialNet, error) {
	socials, err := s.contacts.Socials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list socials: %w", err)
	}
	return socials, nil
}

func (s *ContentService) Tags(ctx context.Context) ([]Ref, error) {
	tags, err := s.tags.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	refs := make([]Ref, 0, len(tags))
	for _, t := range tags {
		refs = append(refs, Ref{ID: t.ID, Name: t.Name})
	}
	return refs, nil
}

func (s *ContentService) Tag(ctx context.Context, id string) (*Ref, error) {
	tag, err := s.tags.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	if tag == nil {
		return nil, ErrNotFound
	}
	return &Ref{ID: tag.ID, Name: tag.Name}, nil
}

type SubscribeInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// Subscribe stores the address and tells the admins about it. userID may
// be empty for anonymous visitors.
func (s *ContentService) Subscribe(ctx context.Context, userID string, in SubscribeInput) error {
	email := strings.TrimSpace(in.Email)
	exists, err := s.content.SubscriberExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check subscriber: %w", err)
	}
	if exists {
		return models.FieldErrors{"email": "subscriber info with this email already exists."}
	}

	sub := &models.SubscriberInfo{Email: email, UserID: optionalID(userID)}
	if err := s.content.CreateSubscriber(ctx, sub); err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}
	zap.L().Info("ContentService.Subscribe: new subscriber", zap.String("email", email))
	notifyAll(s.mailer, s.adminEmails, adminMailSubject, BuildSubscribeEmailBody(email))
	return nil
}

type CallbackInput struct {
	Name    string `json:"name" validate:"required,max=128"`
	Phone   string `json:"phone" validate:"required,max=64"`
	Comment string `json:"comment"`
}

func (s *ContentService) Callback(ctx context.Context, userID string, in CallbackInput) (*models.CallbackInfo, error) {
	cb := &models.CallbackInfo{
		UserID:  optionalID(userID),
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Comment: in.Comment,
	}
	if err := s.content.CreateCallback(ctx, cb); err != nil {
		return nil, fmt.Errorf("create callback: %w", err)
	}
	notifyAll(s.mailer, s.adminEmails, adminMailSubject, BuildCallbackEmailBody(cb))
	return cb, nil
}
