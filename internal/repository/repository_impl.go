package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/minutemart/storefront-service/internal/domain"
	pkgdto "github.com/minutemart/storefront-service/pkg/dto"
	"github.com/minutemart/storefront-service/pkg/errs"
	"github.com/rs/zerolog/log"
)

type OrderRepositoryImpl struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func CreateOrderRepository(db *sqlx.DB) OrderRepository {
	return &OrderRepositoryImpl{
		db: db,
	}
}

func (r *OrderRepositoryImpl) conn() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *OrderRepositoryImpl) AddOrder(ctx context.Context, data domain.Order) (id int64, err error) {
	rows, err := sqlx.NamedQueryContext(ctx, r.conn(), `INSERT INTO orders(order_number, merchant_id, customer_name, customer_email, contact_number, delivery_address, total_amount, currency, status, payment_method, gateway_session_id, idempotency_key, expired_at, created_at, updated_at) VALUES (:order_number, :merchant_id, :customer_name, :customer_email, :contact_number, :delivery_address, :total_amount, :currency, :status, :payment_method, :gateway_session_id, :idempotency_key, :expired_at, :created_at, :updated_at) RETURNING id`, data)
	if err != nil {
		log.Error().Err(err).Str("component", "AddOrder").Msg("")
		return
	}
	defer rows.Close()

	if rows.Next() {
		if err = rows.Scan(&id); err != nil {
			log.Error().Err(err).Str("component", "AddOrder").Msg("")
			return
		}
	}

	return id, rows.Err()
}

func (r *OrderRepositoryImpl) AddOrderItems(ctx context.Context, data []domain.OrderItem) (err error) {
	_, err = sqlx.NamedExecContext(ctx, r.conn(), `INSERT INTO order_items(order_id, product_id, product_name, quantity, unit_price, currency, created_at) VALUES (:order_id, :product_id, :product_name, :quantity, :unit_price, :currency, :created_at)`, data)
	if err != nil {
		log.Error().Err(err).Str("component", "AddOrderItems").Msg("")
		return
	}

	return nil
}

func (r *OrderRepositoryImpl) GetOrderByID(ctx context.Context, id int64) (data domain.Order, err error) {
	row := r.conn().QueryRowxContext(ctx, `SELECT id, order_number, merchant_id, customer_name, customer_email, contact_number, delivery_address, total_amount, currency, status, payment_method, gateway_session_id, gateway_payment_ref, proof_of_payment_image_url, idempotency_key, expired_at, paid_at, created_at, updated_at FROM orders WHERE id = $1`, id)
	err = row.StructScan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return data, errs.ErrNotFound
		}
		log.Error().Err(err).Str("component", "GetOrderByID").Msg("")
		return data, errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) GetOrderByOrderNumber(ctx context.Context, orderNumber string) (data domain.Order, err error) {
	row := r.conn().QueryRowxContext(ctx, `SELECT id, order_number, merchant_id, customer_name, customer_email, contact_number, delivery_address, total_amount, currency, status, payment_method, gateway_session_id, gateway_payment_ref, proof_of_payment_image_url, idempotency_key, expired_at, paid_at, created_at, updated_at FROM orders WHERE order_number = $1`, orderNumber)
	err = row.StructScan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return data, errs.ErrNotFound
		}
		log.Error().Err(err).Str("component", "GetOrderByOrderNumber").Msg("")
		return data, errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) GetOrderByIdempotencyKey(ctx context.Context, merchantID int64, key string) (data domain.Order, err error) {
	row := r.conn().QueryRowxContext(ctx, `SELECT id, order_number, merchant_id, customer_name, customer_email, contact_number, delivery_address, total_amount, currency, status, payment_method, gateway_session_id, gateway_payment_ref, proof_of_payment_image_url, idempotency_key, expired_at, paid_at, created_at, updated_at FROM orders WHERE merchant_id = $1 AND idempotency_key = $2`, merchantID, key)
	err = row.StructScan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return data, errs.ErrNotFound
		}
		log.Error().Err(err).Str("component", "GetOrderByIdempotencyKey").Msg("")
		return data, errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) GetOrderItemsByOrderID(ctx context.Context, orderID int64) (data []domain.OrderItem, err error) {
	err = sqlx.SelectContext(ctx, r.conn(), &data, `SELECT id, order_id, product_id, product_name, quantity, unit_price, currency, created_at FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		log.Error().Err(err).Str("component", "GetOrderItemsByOrderID").Msg("")
		return nil, errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) GetOrders(ctx context.Context, merchantID int64, filter pkgdto.Filter) (data []domain.Order, err error) {
	query := `SELECT id, order_number, merchant_id, customer_name, customer_email, contact_number, delivery_address, total_amount, currency, status, payment_method, gateway_session_id, gateway_payment_ref, proof_of_payment_image_url, idempotency_key, expired_at, paid_at, created_at, updated_at FROM orders WHERE merchant_id = :merchant_id`

	args := map[string]interface{}{
		"merchant_id": merchantID,
	}

	if filter.Status != "" {
		query += " AND status = :status"
		args["status"] = filter.Status
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit != 0 && filter.Page != 0 {
		offset := (filter.Page - 1) * filter.Limit
		query += " LIMIT :limit OFFSET :offset"
		args["limit"] = filter.Limit
		args["offset"] = offset
	}

	query, params, err := sqlx.Named(query, args)
	if err != nil {
		log.Error().Err(err).Str("component", "GetOrders").Msg("")
		return nil, errs.ErrInternalServer
	}

	err = sqlx.SelectContext(ctx, r.conn(), &data, r.db.Rebind(query), params...)
	if err != nil {
		log.Error().Err(err).Str("component", "GetOrders").Msg("")
		return nil, errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) CountOrders(ctx context.Context, merchantID int64, filter pkgdto.Filter) (count uint64, err error) {
	query := `SELECT COUNT(id) FROM orders WHERE merchant_id = :merchant_id`

	args := map[string]interface{}{
		"merchant_id": merchantID,
	}

	if filter.Status != "" {
		query += " AND status = :status"
		args["status"] = filter.Status
	}

	query, params, err := sqlx.Named(query, args)
	if err != nil {
		log.Error().Err(err).Str("component", "CountOrders").Msg("")
		return 0, errs.ErrInternalServer
	}

	err = sqlx.GetContext(ctx, r.conn(), &count, r.db.Rebind(query), params...)
	if err != nil {
		log.Error().Err(err).Str("component", "CountOrders").Msg("")
		return 0, errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) GetExpiredPendingOrders(ctx context.Context, now int64) (data []domain.Order, err error) {
	err = sqlx.SelectContext(ctx, r.conn(), &data, `SELECT id, order_number, merchant_id, customer_name, customer_email, contact_number, delivery_address, total_amount, currency, status, payment_method, gateway_session_id, gateway_payment_ref, proof_of_payment_image_url, idempotency_key, expired_at, paid_at, created_at, updated_at FROM orders WHERE status = $1 AND expired_at IS NOT NULL AND expired_at < $2`, domain.OrderStatusPending, now)
	if err != nil {
		log.Error().Err(err).Str("component", "GetExpiredPendingOrders").Msg("")
		return nil, errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) TransitionOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus, update OrderStatusUpdate) (transitioned bool, err error) {
	res, err := r.conn().ExecContext(ctx, `UPDATE orders SET status = $1, gateway_payment_ref = COALESCE($2, gateway_payment_ref), proof_of_payment_image_url = COALESCE($3, proof_of_payment_image_url), paid_at = COALESCE($4, paid_at), updated_at = $5 WHERE id = $6 AND status = $7`,
		to, update.GatewayPaymentRef, update.ProofOfPaymentImageURL, update.PaidAt, time.Now().Unix(), id, from)
	if err != nil {
		log.Error().Err(err).Str("component", "TransitionOrderStatus").Msg("")
		return false, errs.ErrInternalServer
	}

	affected, err := res.RowsAffected()
	if err != nil {
		log.Error().Err(err).Str("component", "TransitionOrderStatus").Msg("")
		return false, errs.ErrInternalServer
	}

	return affected == 1, nil
}

func (r *OrderRepositoryImpl) GetMerchantByID(ctx context.Context, id int64) (data domain.Merchant, err error) {
	row := r.conn().QueryRowxContext(ctx, `SELECT id, name, hosted_card_enabled, manual_qr_enabled, qr_image_url, qr_payment_name, qr_payment_details, created_at, updated_at FROM merchants WHERE id = $1`, id)
	err = row.StructScan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return data, errs.ErrNotFound
		}
		log.Error().Err(err).Str("component", "GetMerchantByID").Msg("")
		return data, errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) GetMerchantByName(ctx context.Context, name string) (data domain.Merchant, err error) {
	row := r.conn().QueryRowxContext(ctx, `SELECT id, name, hosted_card_enabled, manual_qr_enabled, qr_image_url, qr_payment_name, qr_payment_details, created_at, updated_at FROM merchants WHERE name = $1`, name)
	err = row.StructScan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return data, errs.ErrNotFound
		}
		log.Error().Err(err).Str("component", "GetMerchantByName").Msg("")
		return data, errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) GetMerchantOwnerEmail(ctx context.Context, merchantID int64) (email string, err error) {
	row := r.conn().QueryRowxContext(ctx, `SELECT owner_email FROM merchants WHERE id = $1`, merchantID)
	err = row.Scan(&email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", errs.ErrNotFound
		}
		log.Error().Err(err).Str("component", "GetMerchantOwnerEmail").Msg("")
		return "", errs.ErrInternalServer
	}

	return
}

func (r *OrderRepositoryImpl) GetProductsByIDs(ctx context.Context, ids []int64) (data []domain.Product, err error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, params, err := sqlx.In(`SELECT id, merchant_id, name, description, price, currency, sku, inventory, active, image_url, created_at, updated_at FROM products WHERE id IN (?)`, ids)
	if err != nil {
		log.Error().Err(err).Str("component", "GetProductsByIDs").Msg("")
		return nil, errs.ErrInternalServer
	}

	err = sqlx.SelectContext(ctx, r.conn(), &data, r.db.Rebind(query), params...)
	if err != nil {
		log.Error().Err(err).Str("component", "GetProductsByIDs").Msg("")
		return nil, errs.ErrInternalServer
	}

	return
}

// HandleTrx runs fn inside a transaction. The named error return lets the
// deferred commit surface its failure to the caller.
func (r *OrderRepositoryImpl) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	txRepo := &OrderRepositoryImpl{
		db: r.db,
		tx: tx,
	}

	err = fn(ctx, txRepo)

	if err != nil {
		return err
	}

	return nil
}
