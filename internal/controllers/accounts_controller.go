package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"accounts/internal/logging"
	"accounts/internal/models"
	"accounts/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const maxLimit = 1000

type AccountsController struct {
	companies *store.CompanyStore
	logger    zerolog.Logger
}

func NewAccountsController(db *gorm.DB) *AccountsController {
	return &AccountsController{
		companies: store.NewCompanyStore(db),
		logger:    logging.NewLogger("api"),
	}
}

// CompanyAccountsResponse is the archived accounts of one company.
type CompanyAccountsResponse struct {
	Number        string  `json:"number"`
	Name          string  `json:"name"`
	AccountsLink1 *string `json:"accounts_link_1"`
	AccountsLink2 *string `json:"accounts_link_2"`
}

func newCompanyAccountsResponse(company models.Company) CompanyAccountsResponse {
	return CompanyAccountsResponse{
		Number:        company.Number,
		Name:          company.Name,
		AccountsLink1: company.AccountsLink1,
		AccountsLink2: company.AccountsLink2,
	}
}

// GetCompanyAccounts returns the archived accounts links of the company
// registered under :number.
func (ac *AccountsController) GetCompanyAccounts(c *gin.Context) {
	number := c.Param("number")

	company, err := ac.companies.FindByNumber(c.Request.Context(), number)
	if err != nil {
		if errors.Is(err, store.ErrCompanyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
			return
		}

		ac.logger.Error().Err(err).Str("number", number).Msg("failed to get company")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, newCompanyAccountsResponse(*company))
}

// ListCompanies returns qualifying companies in id order with their links.
func (ac *AccountsController) ListCompanies(c *gin.Context) {
	limit := ac.intQuery(c, "limit", 100)
	if limit <= 0 || limit > maxLimit {
		limit = 100
	}
	offset := ac.intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	companies, err := ac.companies.QualifyingPage(c.Request.Context(), offset, limit)
	if err != nil {
		ac.logger.Error().Err(err).Msg("failed to get companies")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	out := make([]CompanyAccountsResponse, 0, len(companies))
	for _, company := range companies {
		out = append(out, newCompanyAccountsResponse(company))
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": out,
	})
}

func (ac *AccountsController) intQuery(c *gin.Context, key string, defaultValue int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		ac.logger.Debug().Str(key, raw).Int("default", defaultValue).Msg("failed to parse query parameter, using default value")
		return defaultValue
	}
	return value
}
