package tasks_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"accounts/internal/config"
	"accounts/internal/models"
	"accounts/internal/tasks"
	"accounts/internal/testhelpers"

	"github.com/hibiken/asynq"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

const (
	registryHost = "https://api.companieshouse.test"
	documentHost = "https://document-api.company-information.service.gov.uk"
)

var _ = Describe("Archiving accounts end to end", func() {
	var (
		dbConn     *gorm.DB
		uploader   *testhelpers.FakeUploader
		p          *tasks.TaskProcessor
		stagingDir string
		ctx        context.Context
	)

	pdf2024 := "%PDF-1.4 accounts 2024"
	pdf2023 := "%PDF-1.4 accounts 2023"

	expectDocument := func(id, content string) {
		testhelpers.New(documentHost).Get("/document/" + id).Reply(200).
			JSON(map[string]any{"links": map[string]string{"document": documentHost + "/document/" + id + "/content"}})
		testhelpers.New(documentHost).Get("/document/" + id + "/content").Reply(200).
			BodyString(content).
			Header("Content-Type", "application/pdf")
	}

	BeforeEach(func() {
		root, err := os.MkdirTemp("", "accounts-run-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, root)
		stagingDir = filepath.Join(root, "Accounts")

		cfg := &config.Config{
			CompaniesHouseAPIKey:  "test-key",
			CompaniesHouseBaseURL: registryHost,
			S3Bucket:              "company-data-ai",
			S3Region:              "eu-north-1",
			StagingDir:            stagingDir,
			KeepStagedFiles:       true,
			PageSize:              300,
			RateLimitThreshold:    10,
			RateLimitPause:        360 * time.Second,
		}

		dbConn = testhelpers.OpenTestDB()
		uploader = testhelpers.NewFakeUploader()

		p, err = tasks.NewTaskProcessor(dbConn, cfg, uploader)
		Expect(err).NotTo(HaveOccurred())

		testhelpers.Activate()
		p.GetRegistryClient().UseDefaultClient()
		ctx = context.Background()
	})

	AfterEach(func() {
		testhelpers.Deactivate()
	})

	It("archives the two most recent full accounts and stores their links", func() {
		company := testhelpers.CreateCompany(dbConn, &models.Company{Number: "00000006", Name: "Acme Ltd"})
		other := testhelpers.CreateCompany(dbConn, &models.Company{Number: "00000007", AccountsCategory: "SMALL"})

		testhelpers.New(registryHost).Get("/company/00000006/filing-history").Reply(200).
			BodyString(testhelpers.MustLoadFixture("filing_history.json")).
			Header("Content-Type", "application/json").
			Header("X-Ratelimit-Remain", "599")
		expectDocument("aa-2024", pdf2024)
		expectDocument("aa-2023", pdf2023)

		err := p.HandleArchiveAccountsTask(ctx, asynq.NewTask(tasks.TypeTaskArchiveAccounts, []byte("{}")))
		Expect(err).NotTo(HaveOccurred())
		Expect(testhelpers.IsDone()).To(BeTrue())

		stored := testhelpers.FindCompany(dbConn, company.ID)
		Expect(stored.AccountsLink1).To(HaveValue(Equal("https://company-data-ai.s3.eu-north-1.amazonaws.com/00000006_0.pdf")))
		Expect(stored.AccountsLink2).To(HaveValue(Equal("https://company-data-ai.s3.eu-north-1.amazonaws.com/00000006_1.pdf")))

		untouched := testhelpers.FindCompany(dbConn, other.ID)
		Expect(untouched.AccountsLink1).To(BeNil())
		Expect(untouched.AccountsLink2).To(BeNil())

		Expect(uploader.Uploads).To(HaveLen(2))
		Expect(string(uploader.Uploads[0].Body)).To(Equal(pdf2024))
		Expect(string(uploader.Uploads[1].Body)).To(Equal(pdf2023))

		staged, err := os.ReadFile(filepath.Join(stagingDir, "00000006_0.pdf"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(staged)).To(Equal(pdf2024))

		Expect(testhelpers.RequestCount("document-api.company-information.service.gov.uk", "/document/aa-2022")).To(BeZero())
	})

	It("writes only the second link when the first document is missing", func() {
		company := testhelpers.CreateCompany(dbConn, &models.Company{Number: "00000006"})

		testhelpers.New(registryHost).Get("/company/00000006/filing-history").Reply(200).
			BodyString(testhelpers.MustLoadFixture("filing_history.json"))
		testhelpers.New(documentHost).Get("/document/aa-2024").Reply(404).BodyString(`{"error":"not found"}`)
		expectDocument("aa-2023", pdf2023)

		summary, err := p.ArchiveAccounts(ctx, 300)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Failed).To(Equal(1))
		Expect(summary.Archived).To(Equal(1))

		stored := testhelpers.FindCompany(dbConn, company.ID)
		Expect(stored.AccountsLink1).To(BeNil())
		Expect(stored.AccountsLink2).To(HaveValue(Equal("https://company-data-ai.s3.eu-north-1.amazonaws.com/00000006_1.pdf")))
	})

	It("moves on to the next company when the registry fails", func() {
		failing := testhelpers.CreateCompany(dbConn, &models.Company{Number: "00000001"})
		company := testhelpers.CreateCompany(dbConn, &models.Company{Number: "00000006"})

		testhelpers.New(registryHost).Get("/company/00000001/filing-history").Reply(502)
		testhelpers.New(registryHost).Get("/company/00000006/filing-history").Reply(200).
			BodyString(testhelpers.MustLoadFixture("filing_history.json"))
		expectDocument("aa-2024", pdf2024)
		expectDocument("aa-2023", pdf2023)

		summary, err := p.ArchiveAccounts(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Pages).To(Equal(2))
		Expect(summary.HistoryErrors).To(Equal(1))

		Expect(testhelpers.FindCompany(dbConn, failing.ID).AccountsLink1).To(BeNil())
		Expect(testhelpers.FindCompany(dbConn, company.ID).AccountsLink1).NotTo(BeNil())
	})

	It("leaves a company alone when its history is unavailable", func() {
		company := testhelpers.CreateCompany(dbConn, &models.Company{Number: "00000006"})

		testhelpers.New(registryHost).Get("/company/00000006/filing-history").Reply(200).
			BodyString(`{"filing_history_status": "filing-history-not-available-invalid-format", "items": []}`)

		summary, err := p.ArchiveAccounts(ctx, 300)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.WithHistory).To(BeZero())

		Expect(testhelpers.Requests()).To(HaveLen(1))
		Expect(uploader.Uploads).To(BeEmpty())
		Expect(testhelpers.FindCompany(dbConn, company.ID).AccountsLink1).To(BeNil())
		Expect(stagingDir).NotTo(BeADirectory())
	})
})
