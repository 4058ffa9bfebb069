// Package shopstore persists the domain → access-token mapping created when
// a storefront installs the app.
package shopstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidDomain = errors.New("invalid_shop_domain")

// Shop is one installed storefront.
type Shop struct {
	Domain    string    `gorm:"primaryKey;column:domain"`
	Token     string    `gorm:"column:token;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Shop) TableName() string { return "shops" }

// Store is the gorm-backed token mapping.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save upserts the token for a domain.
func (s *Store) Save(ctx context.Context, domain, token string) error {
	domain = normalizeDomain(domain)
	if domain == "" || token == "" {
		return ErrInvalidDomain
	}
	shop := Shop{Domain: domain, Token: token}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&shop).Error
}

// Get returns the token for a domain, or "" when the shop is not installed.
func (s *Store) Get(ctx context.Context, domain string) (string, error) {
	domain = normalizeDomain(domain)
	if domain == "" {
		return "", ErrInvalidDomain
	}
	var shop Shop
	err := s.db.WithContext(ctx).First(&shop, "domain = ?", domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return shop.Token, nil
}

// Delete removes an uninstalled shop.
func (s *Store) Delete(ctx context.Context, domain string) error {
	domain = normalizeDomain(domain)
	if domain == "" {
		return ErrInvalidDomain
	}
	return s.db.WithContext(ctx).Delete(&Shop{}, "domain = ?", domain).Error
}

func normalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
