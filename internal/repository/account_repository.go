package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

// AccountHeader is the fixed column order of the account table.
var AccountHeader = []string{"帳號", "密碼", "職務", "姓名", "授權範圍"}

// AccountRepository reads and seeds the staff account table.
type AccountRepository struct {
	store sheet.Store
	table string
}

// NewAccountRepository constructs the repository for the named table.
func NewAccountRepository(store sheet.Store, table string) *AccountRepository {
	return &AccountRepository{store: store, table: table}
}

// EnsureTable writes the header row into an empty table.
func (r *AccountRepository) EnsureTable(ctx context.Context) error {
	if err := r.store.EnsureHeader(ctx, r.table, AccountHeader); err != nil {
		return fmt.Errorf("ensure %s header: %w", r.table, err)
	}
	return nil
}

// List returns every account row with a non-empty account name.
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	rows, err := sheet.Records(ctx, r.store, r.table)
	if err != nil {
		if errors.Is(err, sheet.ErrTableNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.table, err)
	}
	accounts := make([]models.Account, 0, len(rows))
	for _, row := range rows {
		if row["帳號"] == "" {
			continue
		}
		accounts = append(accounts, models.Account{
			Account:  row["帳號"],
			Password: row["密碼"],
			RoleRaw:  row["職務"],
			Name:     row["姓名"],
			Scope:    row["授權範圍"],
		})
	}
	return accounts, nil
}

// Create appends one account row.
func (r *AccountRepository) Create(ctx context.Context, account models.Account) error {
	row := []string{account.Account, account.Password, account.RoleRaw, account.Name, account.Scope}
	if err := r.store.AppendRows(ctx, r.table, [][]string{row}); err != nil {
		return fmt.Errorf("append %s: %w", r.table, err)
	}
	return nil
}
