package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"accounts/internal/archive"
	"accounts/internal/config"
	"accounts/internal/logging"
	"accounts/internal/metrics"
	"accounts/internal/models"
	"accounts/internal/pkg/companieshouse"
	"accounts/internal/storage"
	"accounts/internal/store"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var ErrInvalidPageSize = errors.New("page size must be positive")

type FilingSource interface {
	GetFilingHistory(ctx context.Context, number string) (*companieshouse.FilingHistory, error)
}

type DocumentArchiver interface {
	Archive(ctx context.Context, number string, sel companieshouse.Selection) (*archive.Artifact, error)
}

type CompanyStore interface {
	CountQualifying(ctx context.Context) (int64, error)
	QualifyingPage(ctx context.Context, offset, limit int) ([]models.Company, error)
	SetAccountsLink(ctx context.Context, id uint, index int, url string) error
}

// TaskProcessor holds dependencies for our task handlers
type TaskProcessor struct {
	DB             *gorm.DB
	pageSize       int
	registryClient *companieshouse.Client

	filings   FilingSource
	archiver  DocumentArchiver
	companies CompanyStore
	logger    zerolog.Logger
}

// NewTaskProcessor wires the registry client, archiver and company store from cfg.
func NewTaskProcessor(db *gorm.DB, cfg *config.Config, uploader storage.Uploader) (*TaskProcessor, error) {
	registryClient := companieshouse.New(cfg.CompaniesHouseAPIKey)
	if err := registryClient.SetBaseURL(cfg.CompaniesHouseBaseURL); err != nil {
		return nil, err
	}
	registryClient.SetRateLimiter(companieshouse.NewRateLimiter(cfg.RateLimitThreshold, cfg.RateLimitPause, nil))

	archiver := archive.New(registryClient, uploader, cfg.StagingDir)
	archiver.KeepStagedFiles(cfg.KeepStagedFiles)

	p := NewTaskProcessorWith(registryClient, archiver, store.NewCompanyStore(db), cfg.PageSize)
	p.DB = db
	p.registryClient = registryClient

	return p, nil
}

// NewTaskProcessorWith builds a processor around arbitrary collaborators.
func NewTaskProcessorWith(filings FilingSource, archiver DocumentArchiver, companies CompanyStore, pageSize int) *TaskProcessor {
	return &TaskProcessor{
		pageSize:  pageSize,
		filings:   filings,
		archiver:  archiver,
		companies: companies,
		logger:    logging.NewLogger("archiver"),
	}
}

func (p *TaskProcessor) GetRegistryClient() *companieshouse.Client {
	return p.registryClient
}

func (p *TaskProcessor) HandleArchiveAccountsTask(ctx context.Context, t *asynq.Task) error {
	var payload ArchiveAccountsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	pageSize := p.pageSize
	if payload.PageSize != nil {
		pageSize = *payload.PageSize
	}

	_, err := p.ArchiveAccounts(ctx, pageSize)
	if errors.Is(err, ErrInvalidPageSize) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return err
}

// ArchiveAccounts walks every qualifying company, pageSize rows at a time, and
// archives its latest full accounts. Companies and filings are handled one at
// a time; a failure is logged and counted against its company or filing only.
// An error is returned only when the companies themselves cannot be loaded.
func (p *TaskProcessor) ArchiveAccounts(ctx context.Context, pageSize int) (*RunSummary, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	summary := &RunSummary{RunID: uuid.NewString()}
	logger := p.logger.With().Str("run_id", summary.RunID).Logger()

	total, err := p.companies.CountQualifying(ctx)
	if err != nil {
		return summary, err
	}
	summary.Total = total

	for offset := 0; int64(offset) < total; offset += pageSize {
		logger.Info().
			Int("from", offset).
			Int("to", offset+pageSize).
			Int64("total", total).
			Msg("getting companies")

		companies, err := p.companies.QualifyingPage(ctx, offset, pageSize)
		if err != nil {
			return summary, err
		}
		summary.Pages++

		for _, company := range companies {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			report := p.processCompany(ctx, logger, company)
			summary.add(report)
			metrics.CompaniesTotal.WithLabelValues(report.Outcome()).Inc()

			logger.Debug().Str("number", company.Number).Str("outcome", report.Outcome()).Msg("getting next company")
		}
	}

	logger.Info().
		Int("pages", summary.Pages).
		Int("companies", summary.Companies).
		Int("history_errors", summary.HistoryErrors).
		Int("selected", summary.Selected).
		Int("archived", summary.Archived).
		Int("failed", summary.Failed).
		Int("persist_failed", summary.PersistFailed).
		Msg("archive run finished")

	return summary, nil
}

func (p *TaskProcessor) processCompany(ctx context.Context, logger zerolog.Logger, company models.Company) *CompanyReport {
	report := &CompanyReport{CompanyID: company.ID, Number: company.Number}
	logger = logger.With().Uint("company_id", company.ID).Str("number", company.Number).Logger()

	history, err := p.filings.GetFilingHistory(ctx, company.Number)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch filing history")
		report.HistoryErr = err
		return report
	}

	if !history.Available() {
		logger.Info().Msg("no filing history available")
		return report
	}
	report.HistoryAvailable = true

	selections := companieshouse.SelectFullAccounts(history)
	report.Selected = len(selections)

	for _, sel := range selections {
		logger.Info().
			Str("name", company.Name).
			Int("index", sel.Index).
			Str("date", sel.Filing.Date).
			Msg("getting accounts")

		artifact, err := p.archiver.Archive(ctx, company.Number, sel)
		if err != nil {
			logger.Error().Err(err).Int("index", sel.Index).Msg("failed to archive accounts")
			metrics.ArtifactsTotal.WithLabelValues(metrics.ResultFailed).Inc()
			report.Failed++
			continue
		}

		if err := p.companies.SetAccountsLink(ctx, company.ID, sel.Index, artifact.URL); err != nil {
			logger.Error().Err(err).Int("index", sel.Index).Msg("failed to store accounts link")
			metrics.ArtifactsTotal.WithLabelValues(metrics.ResultPersistFailed).Inc()
			report.PersistFailed++
			continue
		}

		metrics.ArtifactsTotal.WithLabelValues(metrics.ResultArchived).Inc()
		report.Archived = append(report.Archived, artifact)
		logger.Info().
			Str("column", store.LinkColumn(sel.Index)).
			Str("url", artifact.URL).
			Msg("accounts link stored")
	}

	return report
}
