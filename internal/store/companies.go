// Package store reads qualifying companies and writes archived accounts links
// back onto them.
package store

import (
	"context"
	"errors"
	"fmt"

	"accounts/internal/models"

	"gorm.io/gorm"
)

const qualifyingPredicate = "accounts_category = ? AND status = ?"

const (
	ColumnAccountsLink1 = "accounts_link_1"
	ColumnAccountsLink2 = "accounts_link_2"
)

var ErrCompanyNotFound = errors.New("company not found")

type CompanyStore struct {
	db *gorm.DB
}

func NewCompanyStore(db *gorm.DB) *CompanyStore {
	return &CompanyStore{db: db}
}

func (s *CompanyStore) qualifying() gorm.ChainInterface[models.Company] {
	return gorm.G[models.Company](s.db).Where(qualifyingPredicate, models.AccountsCategoryFull, models.StatusActive)
}

// CountQualifying returns the number of FULL, Active companies.
func (s *CompanyStore) CountQualifying(ctx context.Context) (int64, error) {
	count, err := s.qualifying().Count(ctx, "id")
	if err != nil {
		return 0, fmt.Errorf("count qualifying companies: %w", err)
	}
	return count, nil
}

// QualifyingPage returns up to limit qualifying companies starting at offset,
// ordered by id so consecutive pages never overlap.
func (s *CompanyStore) QualifyingPage(ctx context.Context, offset, limit int) ([]models.Company, error) {
	companies, err := s.qualifying().Order("id").Limit(limit).Offset(offset).Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("load companies %d-%d: %w", offset, offset+limit, err)
	}
	return companies, nil
}

// LinkColumn maps a selection index to the column holding its link:
// 0 is the most recent accounts, anything else the one before.
func LinkColumn(index int) string {
	if index == 0 {
		return ColumnAccountsLink1
	}
	return ColumnAccountsLink2
}

// SetAccountsLink stores url in the link column for index on company id.
func (s *CompanyStore) SetAccountsLink(ctx context.Context, id uint, index int, url string) error {
	column := LinkColumn(index)

	rows, err := gorm.G[models.Company](s.db).Where("id = ?", id).Update(ctx, column, url)
	if err != nil {
		return fmt.Errorf("update %s for company %d: %w", column, id, err)
	}
	if rows == 0 {
		return fmt.Errorf("update %s for company %d: %w", column, id, ErrCompanyNotFound)
	}

	return nil
}

// FindByNumber returns the company registered under number.
func (s *CompanyStore) FindByNumber(ctx context.Context, number string) (*models.Company, error) {
	company, err := gorm.G[models.Company](s.db).Where("number = ?", number).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}
