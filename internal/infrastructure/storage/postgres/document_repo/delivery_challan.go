package document_repo

import (
	"invoicer/internal/domain/documents/delivery_challan"
	"invoicer/internal/infrastructure/storage/postgres"
)

const deliveryChallansTable = "delivery_challans"

// DeliveryChallanRepo implements delivery_challan.Repository.
type DeliveryChallanRepo struct {
	*BaseDocumentRepo[*delivery_challan.DeliveryChallan]
}

// NewDeliveryChallanRepo creates a new delivery challan repository.
func NewDeliveryChallanRepo(txManager *postgres.TxManager) *DeliveryChallanRepo {
	return &DeliveryChallanRepo{
		BaseDocumentRepo: newBaseDocumentRepo(txManager, tableDef{
			table:      deliveryChallansTable,
			entity:     "delivery_challan",
			insertCols: storedColumns(postgres.ExtractDBColumns[delivery_challan.DeliveryChallan](), "customer_name"),
			joined:     []string{"c.name AS customer_name"},
			joins:      []string{"JOIN customers c ON c.id = d.customer_id"},
			searchCol:  "d.number",
		}, func() *delivery_challan.DeliveryChallan { return &delivery_challan.DeliveryChallan{} }),
	}
}

var _ delivery_challan.Repository = (*DeliveryChallanRepo)(nil)
