package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gastoscan/internal/dto"
	"gastoscan/internal/models"
	"gastoscan/internal/repository"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type categoryStore interface {
	ListActiveByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type accountStore interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Resolution outcomes for a proposed category name.
const (
	CategoryMatchExact         = "exact"
	CategoryMatchPartial       = "partial"
	CategoryMatchFallback      = "fallback"
	CategoryMatchNeedsDecision = "needs_decision"
)

// fallbackCategoryNames are the normalized names of a designated
// catch-all category, tried when nothing else matches.
var fallbackCategoryNames = []string{"otro", "otra", "otros", "other", "misc"}

// CategoryResolution is the outcome of matching a proposed name against
// an account's category set.
type CategoryResolution struct {
	Outcome      string
	Category     *models.Category
	ProposedName string
}

// CategoryService resolves free-form category names against an
// account's categories. The per-account index is cached briefly so a
// burst of analyze calls does not re-query the same set.
type CategoryService struct {
	categories categoryStore
	accounts   accountStore
	index      *gocache.Cache
	logger     *zap.Logger
}

func NewCategoryService(categories *repository.CategoryRepository, accounts *repository.AccountRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		accounts:   accounts,
		index:      gocache.New(30*time.Second, time.Minute),
		logger:     logger,
	}
}

type categoryEntry struct {
	normalized string
	category   *models.Category
}

// NormalizeCategoryName lowercases, strips diacritics and collapses
// runs of non-alphanumerics to single spaces, so "Transporte Aéreo"
// and "transporte-aereo" compare equal.
func NormalizeCategoryName(name string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func (s *CategoryService) loadIndex(ctx context.Context, accountID uuid.UUID) ([]categoryEntry, error) {
	key := accountID.String()
	if cached, ok := s.index.Get(key); ok {
		return cached.([]categoryEntry), nil
	}

	cats, err := s.categories.ListActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	entries := make([]categoryEntry, 0, len(cats))
	for _, c := range cats {
		entries = append(entries, categoryEntry{
			normalized: NormalizeCategoryName(c.Name),
			category:   c,
		})
	}

	s.index.Set(key, entries, gocache.DefaultExpiration)
	return entries, nil
}

// Resolve matches a proposed name against the account's categories:
// exact normalized match first, then prefix or substring, then the
// designated fallback category, and finally a needs-decision outcome
// for the reviewer.
func (s *CategoryService) Resolve(ctx context.Context, accountID uuid.UUID, proposed string) (*CategoryResolution, error) {
	entries, err := s.loadIndex(ctx, accountID)
	if err != nil {
		return nil, err
	}

	needle := NormalizeCategoryName(proposed)
	if needle != "" {
		for _, e := range entries {
			if e.normalized == needle {
				return &CategoryResolution{Outcome: CategoryMatchExact, Category: e.category, ProposedName: proposed}, nil
			}
		}
		for _, e := range entries {
			if e.normalized == "" {
				continue
			}
			if strings.HasPrefix(e.normalized, needle) || strings.HasPrefix(needle, e.normalized) ||
				strings.Contains(e.normalized, needle) || strings.Contains(needle, e.normalized) {
				return &CategoryResolution{Outcome: CategoryMatchPartial, Category: e.category, ProposedName: proposed}, nil
			}
		}
	}

	for _, fallback := range fallbackCategoryNames {
		for _, e := range entries {
			if e.normalized == fallback {
				return &CategoryResolution{Outcome: CategoryMatchFallback, Category: e.category, ProposedName: proposed}, nil
			}
		}
	}

	return &CategoryResolution{Outcome: CategoryMatchNeedsDecision, ProposedName: proposed}, nil
}

// List returns the account's active categories.
func (s *CategoryService) List(ctx context.Context, accountID uuid.UUID) ([]*dto.CategoryResponse, error) {
	cats, err := s.categories.ListActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.CategoryResponse, len(cats))
	for i, c := range cats {
		responses[i] = &dto.CategoryResponse{
			ID:        c.ID.String(),
			Name:      c.Name,
			Status:    string(c.Status),
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		}
	}
	return responses, nil
}

// Create adds a category for the account, subject to the account's
// custom-category permission. Names that normalize to an existing
// category are rejected.
func (s *CategoryService) Create(ctx context.Context, accountID uuid.UUID, name string) (*dto.CategoryResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, stageFail("category", ErrValidationFailed, fmt.Errorf("category name is required"))
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account not found: %w", err)
	}
	if !account.CanAddCustomCategories {
		return nil, ErrForbidden
	}

	entries, err := s.loadIndex(ctx, accountID)
	if err != nil {
		return nil, err
	}
	needle := NormalizeCategoryName(name)
	for _, e := range entries {
		if e.normalized == needle {
			return nil, stageFail("category", ErrValidationFailed, fmt.Errorf("category %q already exists", e.category.Name))
		}
	}

	category := repository.NewCategory(accountID, name)
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.index.Delete(accountID.String())

	return &dto.CategoryResponse{
		ID:        category.ID.String(),
		Name:      category.Name,
		Status:    string(category.Status),
		CreatedAt: category.CreatedAt.Format(time.RFC3339),
	}, nil
}
