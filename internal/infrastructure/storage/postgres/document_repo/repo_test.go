package document_repo

import (
	"strconv"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain"
	"invoicer/internal/domain/documents"
	"invoicer/internal/domain/documents/sale"
)

func TestSaleRepo_ColumnsSplitStoredAndJoined(t *testing.T) {
	repo := NewSaleRepo(nil)

	assert.NotContains(t, repo.def.insertCols, "invoice_number")
	assert.NotContains(t, repo.def.insertCols, "pdf_url")
	assert.NotContains(t, repo.def.insertCols, "customer_name")
	assert.Contains(t, repo.def.insertCols, "invoice_id")
	assert.Contains(t, repo.def.insertCols, "amount_in_words")
	assert.Contains(t, repo.invoices.def.insertCols, "pdf_url")
	assert.Contains(t, repo.invoices.def.insertCols, "sale_id")
}

func TestSaleRepo_ListQueryJoinsInvoice(t *testing.T) {
	repo := NewSaleRepo(nil)
	owner := id.New()

	sql, args, err := repo.listQuery(domain.ListFilter{OwnerID: owner, Search: "INV-0001"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM sales d JOIN invoices i ON i.id = d.invoice_id JOIN customers c ON c.id = d.customer_id")
	assert.Contains(t, sql, "WHERE d.owner_id = $1 AND i.number ILIKE $2")
	assert.Contains(t, sql, "i.number AS invoice_number")
	assert.Equal(t, []any{owner, "%INV-0001%"}, args)
}

func TestSaleRepo_ExportQueryBoundsDates(t *testing.T) {
	repo := NewSaleRepo(nil)
	sql, args, err := repo.exportQuery(sale.ExportFilter{OwnerID: id.New()}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY d.created_at ASC")
	assert.Len(t, args, 1)
}

func TestParseOrderBy(t *testing.T) {
	repo := NewQuotationRepo(nil)

	got, err := repo.parseOrderBy("-grand_total")
	require.NoError(t, err)
	assert.Equal(t, "d.grand_total DESC", got)

	got, err = repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "d.created_at DESC", got)

	_, err = repo.parseOrderBy("customer_name")
	_, ok := apperror.AsAppError(err)
	assert.True(t, ok)
}

func TestLinkQuery(t *testing.T) {
	owner, source, target := id.New(), id.New(), id.New()

	tests := []struct {
		name    string
		from    documents.Kind
		to      documents.Kind
		wantSQL string
	}{
		{"quotation to challan", documents.KindQuotation, documents.KindDeliveryChallan,
			"UPDATE quotations SET delivery_challan_id = $1, updated_at = NOW() WHERE id = $2 AND owner_id = $3"},
		{"quotation to invoice", documents.KindQuotation, documents.KindInvoice,
			"UPDATE quotations SET sale_invoice_id = $1, updated_at = NOW() WHERE id = $2 AND owner_id = $3"},
		{"challan to invoice", documents.KindDeliveryChallan, documents.KindInvoice,
			"UPDATE delivery_challans SET sale_invoice_id = $1, updated_at = NOW() WHERE id = $2 AND owner_id = $3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := linkQuery(owner, documents.CopiedFrom{Kind: tt.from, DocumentID: source}, tt.to, target)
			require.NoError(t, err)
			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, []any{target, source, owner}, args)
		})
	}

	_, err := linkQuery(owner, documents.CopiedFrom{Kind: documents.KindInvoice, DocumentID: source}, documents.KindQuotation, target)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestLineRows(t *testing.T) {
	doc := id.New()
	rows, err := lineRows([]documents.LineItem{{
		ID: id.New(), DocumentKind: documents.KindQuotation, DocumentID: doc, LineNo: 1,
		ItemName: "Bolt", Quantity: 3, UnitPrice: types.MustMoney("2.50"), Amount: types.MustMoney("7.50"),
	}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0], len(lineColumns))
	assert.Equal(t, "quotation", rows[0][2])
	assert.Equal(t, doc, rows[0][3])
	assert.Equal(t, int64(3), rows[0][7])

	price, ok := rows[0][8].(pgtype.Numeric)
	require.True(t, ok)
	f, err := price.Float64Value()
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f.Float64, 1e-9)

	sql, _, err := linesQuery(id.New(), documents.KindQuotation, doc).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE document_id = $1 AND document_kind = $2 AND owner_id = $3 ORDER BY line_no")
}

func TestNumeric_KeepsExactValue(t *testing.T) {
	for _, in := range []string{"0", "10.55", "1234567890123.45", "-0.01"} {
		n, err := numeric(types.MustMoney(in))
		require.NoError(t, err, in)
		require.True(t, n.Valid, in)

		back, err := types.NewMoneyFromString(n.Int.String() + "e" + strconv.Itoa(int(n.Exp)))
		require.NoError(t, err, in)
		assert.True(t, types.MustMoney(in).Equal(back), "%s became %s", in, back)
	}
}
