package auth_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain/auth"
	"invoicer/internal/infrastructure/storage/postgres"
)

var addressColumns = postgres.ExtractDBColumns[auth.Address]()

// AddressRepo implements auth.AddressRepository.
type AddressRepo struct {
	txManager *postgres.TxManager
}

// NewAddressRepo creates a new address repository.
func NewAddressRepo(txManager *postgres.TxManager) *AddressRepo {
	return &AddressRepo{txManager: txManager}
}

// upsertAddressQuery touches the conflicting row so RETURNING yields it.
func upsertAddressQuery(a *auth.Address) squirrel.InsertBuilder {
	return builder().Insert("addresses").SetMap(postgres.StructToMap(a)).
		Suffix(`ON CONFLICT (landmark, street, area, city, country) DO UPDATE SET landmark = EXCLUDED.landmark
		RETURNING ` + strings.Join(addressColumns, ", "))
}

// Upsert implements auth.AddressRepository.
func (r *AddressRepo) Upsert(ctx context.Context, a *auth.Address) (*auth.Address, error) {
	sql, args, err := upsertAddressQuery(a).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}
	stored := &auth.Address{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), stored, sql, args...); err != nil {
		return nil, postgres.MapError(err, "address", "")
	}
	return stored, nil
}

// GetByID implements auth.AddressRepository.
func (r *AddressRepo) GetByID(ctx context.Context, addressID id.ID) (*auth.Address, error) {
	sql, args, err := builder().Select(addressColumns...).From("addresses").
		Where(squirrel.Eq{"id": addressID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	a := &auth.Address{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("address", addressID.String())
		}
		return nil, fmt.Errorf("query address: %w", err)
	}
	return a, nil
}

var _ auth.AddressRepository = (*AddressRepo)(nil)
