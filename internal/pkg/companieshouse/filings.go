package companieshouse

const (
	StatusFilingHistoryAvailable = "filing-history-available"
	DescriptionFullAccounts      = "accounts-with-accounts-type-full"

	// MaxSelections is how many of the latest full accounts are archived per company.
	MaxSelections = 2
)

/*
	{
		"filing_history_status": "filing-history-available",
		"total_count": 84,
		"items": [
			{
				"category": "accounts",
				"date": "2024-09-27",
				"description": "accounts-with-accounts-type-full",
				"type": "AA",
				"transaction_id": "MzQ0MjU2NjE2MmFkaXF6a2N4",
				"links": {
					"self": "/company/00000006/filing-history/MzQ0MjU2NjE2MmFkaXF6a2N4",
					"document_metadata": "https://document-api.company-information.service.gov.uk/document/abc"
				}
			}
		]
	}
*/

type FilingHistory struct {
	Status     string   `json:"filing_history_status"`
	TotalCount int      `json:"total_count"`
	Items      []Filing `json:"items"`
}

type Filing struct {
	Category      string      `json:"category"`
	Date          string      `json:"date"`
	Description   string      `json:"description"`
	Type          string      `json:"type"`
	TransactionID string      `json:"transaction_id"`
	Links         FilingLinks `json:"links"`
}

type FilingLinks struct {
	Self             string `json:"self"`
	DocumentMetadata string `json:"document_metadata"`
}

type DocumentMetadata struct {
	Links DocumentLinks `json:"links"`
}

type DocumentLinks struct {
	Self     string `json:"self"`
	Document string `json:"document"`
}

// Available reports whether the registry holds a filing history for the company.
func (h *FilingHistory) Available() bool {
	return h != nil && h.Status == StatusFilingHistoryAvailable
}

// Selection is a full accounts filing picked for archiving. Index 0 is the
// most recent one, 1 the one before it.
type Selection struct {
	Index  int
	Filing Filing
}

// SelectFullAccounts picks the first MaxSelections full accounts filings in
// the order the registry returned them, which is newest first.
func SelectFullAccounts(history *FilingHistory) []Selection {
	if !history.Available() {
		return nil
	}

	var selected []Selection
	for _, filing := range history.Items {
		if filing.Description != DescriptionFullAccounts {
			continue
		}

		selected = append(selected, Selection{Index: len(selected), Filing: filing})
		if len(selected) == MaxSelections {
			break
		}
	}

	return selected
}
