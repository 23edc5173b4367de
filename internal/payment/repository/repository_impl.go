package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectColumns = `SELECT id, user_id, bundle_id, merchant_transaction_id, amount, currency, credits,
	status, gateway_transaction_id, gateway_code, settled_at, created_at, updated_at
	FROM transactions`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, txn *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (
			id, user_id, bundle_id, merchant_transaction_id, amount, currency, credits,
			status, gateway_transaction_id, gateway_code, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.UserID,
		txn.BundleID,
		txn.MerchantTransactionID,
		txn.Amount,
		txn.Currency,
		txn.Credits,
		string(txn.Status),
		txn.GatewayTransactionID,
		txn.GatewayCode,
		txn.CreatedAt,
		txn.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := db.WithContext(ctx).Raw(selectColumns+` WHERE id = ?`, id).Scan(&txn).Error; err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) FindByMerchantTransactionID(ctx context.Context, db *gorm.DB, merchantTransactionID string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Raw(
		selectColumns+` WHERE merchant_transaction_id = ?`,
		merchantTransactionID,
	).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	stmt := db.WithContext(ctx).Model(&domain.Transaction{})
	if filter.UserID != 0 {
		stmt = stmt.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", string(filter.Status))
	}
	if filter.AfterID > 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}
	if err := stmt.Order("id desc").Limit(filter.Limit + 1).Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repo) Settle(ctx context.Context, db *gorm.DB, id snowflake.ID, settlement domain.Settlement) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE transactions
		SET status = ?, gateway_transaction_id = ?, gateway_code = ?, settled_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(settlement.Status),
		settlement.GatewayTransactionID,
		settlement.GatewayCode,
		settlement.SettledAt,
		settlement.SettledAt,
		id,
		string(domain.StatusPending),
	)
	return result.RowsAffected, result.Error
}
