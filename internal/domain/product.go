package domain

type Product struct {
	ID          int64   `db:"id"`
	MerchantID  int64   `db:"merchant_id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	Price       string  `db:"price"`
	Currency    string  `db:"currency"`
	SKU         *string `db:"sku"`
	Inventory   *int64  `db:"inventory"`
	Active      bool    `db:"active"`
	ImageURL    *string `db:"image_url"`
	CreatedAt   int64   `db:"created_at"`
	UpdatedAt   int64   `db:"updated_at"`
}
