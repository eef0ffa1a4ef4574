package tasks_test

import (
	"context"
	"fmt"

	"accounts/internal/archive"
	"accounts/internal/models"
	"accounts/internal/pkg/companieshouse"
)

type pageCall struct {
	Offset int
	Limit  int
}

type linkWrite struct {
	ID    uint
	Index int
	URL   string
}

type fakeStore struct {
	companies []models.Company
	countErr  error
	pageErr   error
	writeErr  map[uint]error

	counts int
	pages  []pageCall
	writes []linkWrite
}

func newFakeStore(n int) *fakeStore {
	s := &fakeStore{writeErr: map[uint]error{}}
	for i := 1; i <= n; i++ {
		s.companies = append(s.companies, models.Company{
			ID:     uint(i),
			Number: fmt.Sprintf("%08d", i),
			Name:   fmt.Sprintf("Company %d", i),
		})
	}
	return s
}

func (s *fakeStore) CountQualifying(ctx context.Context) (int64, error) {
	s.counts++
	if s.countErr != nil {
		return 0, s.countErr
	}
	return int64(len(s.companies)), nil
}

func (s *fakeStore) QualifyingPage(ctx context.Context, offset, limit int) ([]models.Company, error) {
	s.pages = append(s.pages, pageCall{Offset: offset, Limit: limit})
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	if offset >= len(s.companies) {
		return nil, nil
	}
	end := min(offset+limit, len(s.companies))
	return s.companies[offset:end], nil
}

func (s *fakeStore) SetAccountsLink(ctx context.Context, id uint, index int, url string) error {
	if err, ok := s.writeErr[id]; ok {
		return err
	}
	s.writes = append(s.writes, linkWrite{ID: id, Index: index, URL: url})
	return nil
}

type fakeFilings struct {
	histories map[string]*companieshouse.FilingHistory
	errs      map[string]error
	calls     []string
}

func newFakeFilings() *fakeFilings {
	return &fakeFilings{
		histories: map[string]*companieshouse.FilingHistory{},
		errs:      map[string]error{},
	}
}

// fullAccounts is an available history holding n full accounts filings.
func fullAccounts(n int) *companieshouse.FilingHistory {
	history := &companieshouse.FilingHistory{Status: companieshouse.StatusFilingHistoryAvailable}
	for i := 0; i < n; i++ {
		history.Items = append(history.Items, companieshouse.Filing{
			Description: companieshouse.DescriptionFullAccounts,
			Date:        fmt.Sprintf("%d-09-30", 2024-i),
			Links:       companieshouse.FilingLinks{DocumentMetadata: fmt.Sprintf("/document/%d", i)},
		})
	}
	return history
}

func (f *fakeFilings) GetFilingHistory(ctx context.Context, number string) (*companieshouse.FilingHistory, error) {
	f.calls = append(f.calls, number)
	if err, ok := f.errs[number]; ok {
		return nil, err
	}
	if history, ok := f.histories[number]; ok {
		return history, nil
	}
	return fullAccounts(2), nil
}

type fakeArchiver struct {
	errs  map[string]error
	calls []string
}

func newFakeArchiver() *fakeArchiver {
	return &fakeArchiver{errs: map[string]error{}}
}

func (a *fakeArchiver) Archive(ctx context.Context, number string, sel companieshouse.Selection) (*archive.Artifact, error) {
	key := archive.StagingName(number, sel.Index)
	a.calls = append(a.calls, key)
	if err, ok := a.errs[key]; ok {
		return nil, err
	}
	return &archive.Artifact{
		Index: sel.Index,
		Key:   key,
		URL:   "https://company-data-ai.s3.eu-north-1.amazonaws.com/" + key,
	}, nil
}
