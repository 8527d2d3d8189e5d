package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/backoffice/internal/domain"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
	"github.com/utafrali/backoffice/pkg/logger"
)

type catalogFixture struct {
	categories   *CategoryService
	products     *ProductService
	categoryRepo *mockCategoryRepository
	productRepo  *mockProductRepository
	events       *mockEventPublisher
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		categoryRepo: new(mockCategoryRepository),
		productRepo:  new(mockProductRepository),
		events:       new(mockEventPublisher),
	}
	f.categories = NewCategoryService(f.categoryRepo, logger.Discard())
	f.products = NewProductService(f.productRepo, f.categoryRepo, f.events, logger.Discard())
	return f
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func TestCategoryService_Create_DerivesSlug(t *testing.T) {
	f := newCatalogFixture()
	f.categoryRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.ProductCategory) bool {
		return c.Slug == "bahce-aletleri"
	})).Return(nil)

	c, err := f.categories.Create(context.Background(), CreateCategoryInput{Name: "Bahçe Aletleri"})
	require.NoError(t, err)
	assert.Equal(t, "bahce-aletleri", c.Slug)
}

func TestCategoryService_Create_RejectsBadSlug(t *testing.T) {
	f := newCatalogFixture()

	_, err := f.categories.Create(context.Background(), CreateCategoryInput{Name: "Tools", Slug: strPtr("Not A Slug")})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestCategoryService_Delete_Referenced(t *testing.T) {
	f := newCatalogFixture()
	f.categoryRepo.On("Delete", mock.Anything, "c-1").Return(apperrors.Conflict("category still has products"))

	err := f.categories.Delete(context.Background(), "c-1")
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.Status)
}

func TestCategoryService_Get_NotFound(t *testing.T) {
	f := newCatalogFixture()
	f.categoryRepo.On("GetByID", mock.Anything, "c-9").Return(nil, apperrors.ErrNotFound)

	_, err := f.categories.Get(context.Background(), "c-9")
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "product category")
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func TestProductService_Create(t *testing.T) {
	f := newCatalogFixture()
	category := &domain.ProductCategory{ID: "c-1", Name: "Tools", Slug: "tools"}
	f.categoryRepo.On("GetByID", mock.Anything, "c-1").Return(category, nil)
	f.productRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)
	f.events.On("ProductCreated", mock.Anything, mock.Anything).Return(nil)

	p, err := f.products.Create(context.Background(), CreateProductInput{
		CategoryID: "c-1",
		Name:       "Hand Trowel",
		Price:      1299,
		Currency:   "eur",
		Stock:      3,
	})
	require.NoError(t, err)
	assert.Equal(t, "hand-trowel", p.Slug)
	assert.Equal(t, "EUR", p.Currency)
	assert.True(t, p.IsActive)
	assert.Equal(t, category, p.Category)
	f.events.AssertExpectations(t)
}

func TestProductService_Create_MissingCategory(t *testing.T) {
	f := newCatalogFixture()
	f.categoryRepo.On("GetByID", mock.Anything, "nope").Return(nil, apperrors.ErrNotFound)

	_, err := f.products.Create(context.Background(), CreateProductInput{CategoryID: "nope", Name: "Rake", Currency: "USD"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	f.productRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_Create_Validation(t *testing.T) {
	f := newCatalogFixture()

	cases := []CreateProductInput{
		{CategoryID: "c-1", Name: "Rake", Currency: "US"},
		{CategoryID: "c-1", Name: "Rake", Currency: "U5D"},
		{CategoryID: "c-1", Name: "Rake", Currency: "USD", Price: -1},
		{CategoryID: "c-1", Name: "Rake", Currency: "USD", Stock: -2},
		{CategoryID: "c-1", Name: "", Currency: "USD"},
	}
	for _, in := range cases {
		_, err := f.products.Create(context.Background(), in)
		assert.True(t, errors.Is(err, apperrors.ErrValidation), "%+v", in)
	}
	f.categoryRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestProductService_Update_ChangesCategory(t *testing.T) {
	f := newCatalogFixture()
	f.productRepo.On("GetByID", mock.Anything, "p-1").
		Return(&domain.Product{ID: "p-1", CategoryID: "c-1", Name: "Rake", Slug: "rake", Currency: "USD", Price: 500}, nil)
	f.categoryRepo.On("GetByID", mock.Anything, "c-2").Return(&domain.ProductCategory{ID: "c-2", Name: "Garden"}, nil)
	f.productRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.events.On("ProductUpdated", mock.Anything, mock.Anything).Return(nil)

	price := int64(750)
	p, err := f.products.Update(context.Background(), "p-1", UpdateProductInput{CategoryID: strPtr("c-2"), Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "c-2", p.CategoryID)
	assert.Equal(t, "Garden", p.Category.Name)
	assert.Equal(t, int64(750), p.Price)
	assert.Equal(t, "rake", p.Slug, "renaming is the only way a derived slug changes")
}

func TestProductService_Delete(t *testing.T) {
	f := newCatalogFixture()
	f.productRepo.On("Delete", mock.Anything, "p-1").Return(nil)
	f.events.On("ProductDeleted", mock.Anything, "p-1").Return(nil)

	require.NoError(t, f.products.Delete(context.Background(), "p-1"))
	f.events.AssertExpectations(t)
}

func TestProductService_Delete_NotFoundSkipsEvent(t *testing.T) {
	f := newCatalogFixture()
	f.productRepo.On("Delete", mock.Anything, "p-404").Return(apperrors.ErrNotFound)

	err := f.products.Delete(context.Background(), "p-404")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	f.events.AssertNotCalled(t, "ProductDeleted", mock.Anything, mock.Anything)
}
