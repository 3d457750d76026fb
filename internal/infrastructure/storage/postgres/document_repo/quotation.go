package document_repo

import (
	"invoicer/internal/domain/documents/quotation"
	"invoicer/internal/infrastructure/storage/postgres"
)

const quotationsTable = "quotations"

// QuotationRepo implements quotation.Repository.
type QuotationRepo struct {
	*BaseDocumentRepo[*quotation.Quotation]
}

// NewQuotationRepo creates a new quotation repository.
func NewQuotationRepo(txManager *postgres.TxManager) *QuotationRepo {
	return &QuotationRepo{
		BaseDocumentRepo: newBaseDocumentRepo(txManager, tableDef{
			table:      quotationsTable,
			entity:     "quotation",
			insertCols: storedColumns(postgres.ExtractDBColumns[quotation.Quotation](), "customer_name"),
			joined:     []string{"c.name AS customer_name"},
			joins:      []string{"JOIN customers c ON c.id = d.customer_id"},
			searchCol:  "d.number",
		}, func() *quotation.Quotation { return &quotation.Quotation{} }),
	}
}

var _ quotation.Repository = (*QuotationRepo)(nil)
