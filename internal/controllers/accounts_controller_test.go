package controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"accounts/internal/controllers"
	"accounts/internal/models"
	"accounts/internal/routes"
	"accounts/internal/testhelpers"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func link(s string) *string {
	return &s
}

var _ = Describe("AccountsController", func() {
	var (
		dbConn *gorm.DB
		router *gin.Engine
	)

	BeforeEach(func() {
		dbConn = testhelpers.OpenTestDB()
		router = routes.SetupRouter(dbConn)

		testhelpers.CreateCompany(dbConn, &models.Company{
			Number:        "00000006",
			Name:          "Acme Ltd",
			AccountsLink1: link("https://company-data-ai.s3.eu-north-1.amazonaws.com/00000006_0.pdf"),
			AccountsLink2: link("https://company-data-ai.s3.eu-north-1.amazonaws.com/00000006_1.pdf"),
		})
		testhelpers.CreateCompany(dbConn, &models.Company{Number: "00000007", Name: "Widgets plc"})
		testhelpers.CreateCompany(dbConn, &models.Company{Number: "00000008", Status: "Dissolved"})
	})

	Describe("GET /api/v1/companies/:number/accounts", func() {
		It("returns the archived links", func() {
			resp := get(router, "/api/v1/companies/00000006/accounts")
			Expect(resp.Code).To(Equal(http.StatusOK))

			var body controllers.CompanyAccountsResponse
			Expect(json.Unmarshal(resp.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Number).To(Equal("00000006"))
			Expect(body.Name).To(Equal("Acme Ltd"))
			Expect(body.AccountsLink1).To(HaveValue(HaveSuffix("00000006_0.pdf")))
			Expect(body.AccountsLink2).To(HaveValue(HaveSuffix("00000006_1.pdf")))
		})

		It("returns null links for a company not archived yet", func() {
			resp := get(router, "/api/v1/companies/00000007/accounts")
			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(resp.Body.String()).To(ContainSubstring(`"accounts_link_1":null`))
		})

		It("returns 404 for an unknown company", func() {
			resp := get(router, "/api/v1/companies/99999999/accounts")
			Expect(resp.Code).To(Equal(http.StatusNotFound))
			Expect(resp.Body.String()).To(ContainSubstring("Company not found"))
		})
	})

	Describe("GET /api/v1/companies", func() {
		list := func(target string) []controllers.CompanyAccountsResponse {
			resp := get(router, target)
			Expect(resp.Code).To(Equal(http.StatusOK))

			var body struct {
				Companies []controllers.CompanyAccountsResponse `json:"companies"`
			}
			Expect(json.Unmarshal(resp.Body.Bytes(), &body)).To(Succeed())
			return body.Companies
		}

		It("lists qualifying companies only", func() {
			companies := list("/api/v1/companies")
			Expect(companies).To(HaveLen(2))
			Expect(companies[0].Number).To(Equal("00000006"))
			Expect(companies[1].Number).To(Equal("00000007"))
		})

		It("honours limit and offset", func() {
			companies := list("/api/v1/companies?limit=1&offset=1")
			Expect(companies).To(HaveLen(1))
			Expect(companies[0].Number).To(Equal("00000007"))
		})

		DescribeTable("falls back to the default limit",
			func(query string) {
				Expect(list("/api/v1/companies?" + query)).To(HaveLen(2))
			},
			Entry("not a number", "limit=abc"),
			Entry("zero", "limit=0"),
			Entry("too large", "limit=100000"),
			Entry("negative offset", "offset=-5"),
		)
	})

	Describe("GET /health", func() {
		It("reports UP when the database answers", func() {
			resp := get(router, "/health")
			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(resp.Body.String()).To(MatchJSON(`{"status":"UP"}`))
		})

		It("reports DOWN when the database is closed", func() {
			sqlDB, err := dbConn.DB()
			Expect(err).NotTo(HaveOccurred())
			Expect(sqlDB.Close()).To(Succeed())

			resp := get(router, "/health")
			Expect(resp.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("GET /metrics", func() {
		It("exposes the prometheus registry", func() {
			resp := get(router, "/metrics")
			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(resp.Body.String()).To(ContainSubstring("go_goroutines"))
		})
	})
})
