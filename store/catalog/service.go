package catalog

import (
	"context"
	"time"

	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/storage"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
)

// ErrDuplicateName is returned when a category create or rename collides
// with an existing category.
var ErrDuplicateName = errors.NewC("a category with that name already exists", codes.AlreadyExists)

// ErrDuplicateCode is returned when a book create or update collides with an
// existing external catalog code.
var ErrDuplicateCode = errors.NewC("a book with that catalog code already exists", codes.AlreadyExists)

// Service is the guarded surface for the catalog.
type Service struct {
	store  storage.Store
	engine *authz.Engine
}

// NewService returns a catalog service guarded by the given engine.
func NewService(store storage.Store, engine *authz.Engine) *Service {
	return &Service{store: store, engine: engine}
}

// CreateCategory adds a new category. Admin only.
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	now := time.Now()
	c := &Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Created:     now,
		Updated:     now,
	}
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: CategoryResource,
		Object:   c,
		Action:   ActionCreateCategory,
	}); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, name, c.ID); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory returns a category. Public.
func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: CategoryResource,
		ObjectID: id,
		Action:   ActionReadCategory,
	}); err != nil {
		return nil, err
	}
	var c Category
	if err := s.store.Read(ctx, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns all categories. Public.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: CategoryResource,
		Object:   &Category{},
		Action:   ActionListCategories,
	}); err != nil {
		return nil, err
	}
	var out []Category
	if err := s.store.List(ctx, &out, Category{}); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCategory updates a category's name and description. Admin only.
func (s *Service) UpdateCategory(ctx context.Context, id, name, description string) (*Category, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: CategoryResource,
		ObjectID: id,
		Action:   ActionUpdateCategory,
	}); err != nil {
		return nil, err
	}
	var c Category
	if err := s.store.Read(ctx, id, &c); err != nil {
		return nil, err
	}
	c.Name = name
	c.Description = description
	c.Updated = time.Now()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes a category. Admin only. Books referencing the
// category keep their reference; the UI treats a dangling category as
// uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: CategoryResource,
		ObjectID: id,
		Action:   ActionDeleteCategory,
	}); err != nil {
		return err
	}
	return s.store.Delete(ctx, &Category{ID: id})
}

// BookDetails are the caller-settable fields of a book.
type BookDetails struct {
	Title         string
	Author        string
	Code          string
	Price         int64
	OriginalPrice *int64
	CategoryID    string
	Stock         int
	Featured      bool
}

// CreateBook adds a new catalog item. Admin only.
func (s *Service) CreateBook(ctx context.Context, details BookDetails) (*Book, error) {
	now := time.Now()
	b := &Book{
		ID:            uuid.NewString(),
		Title:         details.Title,
		Author:        details.Author,
		Code:          details.Code,
		Price:         details.Price,
		OriginalPrice: details.OriginalPrice,
		CategoryID:    details.CategoryID,
		Stock:         details.Stock,
		Featured:      details.Featured,
		Created:       now,
		Updated:       now,
	}
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: BookResource,
		Object:   b,
		Action:   ActionCreateBook,
	}); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, details.Code, b.ID); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBook returns a catalog item. Public.
func (s *Service) GetBook(ctx context.Context, id string) (*Book, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: BookResource,
		ObjectID: id,
		Action:   ActionReadBook,
	}); err != nil {
		return nil, err
	}
	var b Book
	if err := s.store.Read(ctx, id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBooks returns catalog items matching the filter. Public. A zero filter
// returns everything.
func (s *Service) ListBooks(ctx context.Context, filter Book) ([]Book, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: BookResource,
		Object:   &Book{},
		Action:   ActionListBooks,
	}); err != nil {
		return nil, err
	}
	var out []Book
	if err := s.store.List(ctx, &out, filter); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBook updates a catalog item's caller-settable fields. Admin only.
// The denormalized rating aggregate is owned by the reviews service and is
// not touched here.
func (s *Service) UpdateBook(ctx context.Context, id string, details BookDetails) (*Book, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: BookResource,
		ObjectID: id,
		Action:   ActionUpdateBook,
	}); err != nil {
		return nil, err
	}
	var b Book
	if err := s.store.Read(ctx, id, &b); err != nil {
		return nil, err
	}
	b.Title = details.Title
	b.Author = details.Author
	b.Code = details.Code
	b.Price = details.Price
	b.OriginalPrice = details.OriginalPrice
	b.CategoryID = details.CategoryID
	b.Stock = details.Stock
	b.Featured = details.Featured
	b.Updated = time.Now()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, details.Code, id); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBook removes a catalog item. Admin only.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: BookResource,
		ObjectID: id,
		Action:   ActionDeleteBook,
	}); err != nil {
		return err
	}
	return s.store.Delete(ctx, &Book{ID: id})
}

// The backing store has single-key lookups only, so secondary uniqueness is
// enforced with a filtered scan before the write.
func (s *Service) ensureUniqueName(ctx context.Context, name, selfID string) error {
	var existing []Category
	if err := s.store.List(ctx, &existing, Category{Name: name}); err != nil {
		return err
	}
	for _, c := range existing {
		if c.ID != selfID {
			return errors.Mark(ErrDuplicateName, 0)
		}
	}
	return nil
}

func (s *Service) ensureUniqueCode(ctx context.Context, code, selfID string) error {
	if code == "" {
		return nil
	}
	var existing []Book
	if err := s.store.List(ctx, &existing, Book{Code: code}); err != nil {
		return err
	}
	for _, b := range existing {
		if b.ID != selfID {
			return errors.Mark(ErrDuplicateCode, 0)
		}
	}
	return nil
}
