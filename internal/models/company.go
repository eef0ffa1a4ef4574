package models

// Company is a row of the companies table. Rows are owned by an upstream
// import; the archiver only ever writes the two accounts link columns.
type Company struct {
	ID               uint `gorm:"primaryKey"`
	Number           string
	Name             string
	AccountsCategory string
	Status           string
	AccountsLink1    *string `gorm:"column:accounts_link_1"`
	AccountsLink2    *string `gorm:"column:accounts_link_2"`
}

const (
	AccountsCategoryFull = "FULL"
	StatusActive         = "Active"
)
