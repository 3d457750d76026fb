package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/documents"
)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, registerRules(v))
	return v
}

func TestListQuery_ToFilter(t *testing.T) {
	f := ListQuery{}.ToFilter()
	assert.Equal(t, domain.DefaultLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)
	assert.Equal(t, "-created_at", f.OrderBy)

	f = ListQuery{Limit: 25, Offset: 50, Search: "ac", OrderBy: "name"}.ToFilter()
	assert.Equal(t, 25, f.Limit)
	assert.Equal(t, 50, f.Offset)
	assert.Equal(t, "ac", f.Search)
	assert.Equal(t, "name", f.OrderBy)
}

func TestIsUUID4or7(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{id.New().String(), true},
		{"3f2504e0-4f89-41d3-9a0c-0305e82c3301", true},
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"not-a-uuid", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isUUID4or7(tt.in), tt.in)
	}
}

func TestRegisterRequest_Binding(t *testing.T) {
	v := newValidator(t)
	req := RegisterRequest{
		UserName:     "acme",
		BusinessName: "Acme Traders",
		Slogan:       "Quality first",
		Email:        "owner@acme.pk",
		PhoneNo:      "03001234567",
		Password:     "Str0ng!pass",
		Street:       "Main Blvd",
		Area:         "Gulberg",
		City:         "Lahore",
		Country:      "Pakistan",
	}
	require.NoError(t, v.Struct(req))

	req.Password = "weakpass"
	assert.Error(t, v.Struct(req))
}

func TestCreateSaleRequest_FreshLines(t *testing.T) {
	itemID := id.New()
	body := `{
		"customerName": "Buyer", "customerStreet": "S", "customerArea": "A",
		"customerCity": "C", "customerCountry": "PK", "customerGST": "G", "customerNTN": "N",
		"hsCode": "7013", "attnTo": "Purchasing",
		"items": [{"itemId": "` + itemID.String() + `", "quantity": 3, "unitPrice": "100"}],
		"salesTaxRate": 10, "freight": "5"
	}`
	var req CreateSaleRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NoError(t, newValidator(t).Struct(req))

	in, err := req.ToInput()
	require.NoError(t, err)
	assert.Nil(t, in.Source)
	require.Len(t, in.Lines, 1)
	assert.Equal(t, itemID, in.Lines[0].ItemID)
	assert.Equal(t, "100", in.Lines[0].UnitPrice.String())
	assert.Equal(t, "10", in.SalesTaxRate.String())
	assert.Equal(t, "Buyer", in.Customer.Name)
	assert.Equal(t, "G", in.Customer.GSTNo)
}

func TestCreateSaleRequest_FromSource(t *testing.T) {
	sourceID := id.New()
	req := CreateSaleRequest{
		HSCode: "7013",
		AttnTo: "Purchasing",
		Source: &SourceRequest{Kind: "delivery_challan", ID: sourceID.String()},
	}
	in, err := req.ToInput()
	require.NoError(t, err)
	require.NotNil(t, in.Source)
	assert.Equal(t, documents.KindDeliveryChallan, in.Source.Kind)
	assert.Equal(t, sourceID, in.Source.DocumentID)
	assert.Empty(t, in.Lines)
}

func TestCreateDeliveryChallanRequest_PODate(t *testing.T) {
	req := CreateDeliveryChallanRequest{
		PurchaseOrderRequest: PurchaseOrderRequest{PONo: " PO-7 ", PODate: "2026-03-01"},
		Items:                []LineRequest{{ItemID: id.New().String(), Quantity: 2}},
	}
	in, err := req.ToInput()
	require.NoError(t, err)
	assert.Equal(t, "PO-7", in.PO.Number)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), in.PO.Date)

	req.PODate = "01/03/2026"
	_, err = req.ToInput()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestExportQuery_ToDateIsInclusive(t *testing.T) {
	f, err := ExportQuery{From: "2026-01-01", To: "2026-01-31"}.ToFilter()
	require.NoError(t, err)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *f.From)
	assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC), *f.To)

	f, err = ExportQuery{}.ToFilter()
	require.NoError(t, err)
	assert.Nil(t, f.From)
	assert.Nil(t, f.To)
}

func TestCreateItemRequest_ToItem(t *testing.T) {
	req := CreateItemRequest{Name: " Glass ", Price: json.Number("99.50"), Quantity: 4}
	it, err := req.ToItem()
	require.NoError(t, err)
	assert.Equal(t, "Glass", it.Name)
	assert.Equal(t, "99.5", it.Price.String())
	assert.Equal(t, int64(4), it.Quantity)
	assert.NotEmpty(t, it.Range)

	req.Price = "abc"
	_, err = req.ToItem()
	assert.Error(t, err)
}
