package migrations

import (
	"database/sql"
	"time"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_number VARCHAR(64) NOT NULL UNIQUE,
		vendor_id INT NOT NULL,
		user_id INT NOT NULL,
		transaction_ref VARCHAR(64) NOT NULL,
		subtotal DOUBLE NOT NULL,
		shipping_cost DOUBLE NOT NULL DEFAULT 0,
		discount DOUBLE NOT NULL DEFAULT 0,
		total_amount DOUBLE NOT NULL,
		status VARCHAR(20) NOT NULL,
		payment_status VARCHAR(20) NOT NULL,
		payment_intent_id VARCHAR(64) NOT NULL,
		address_id BIGINT NULL,
		shipping_address_id BIGINT NULL,
		shipping_city VARCHAR(100) NOT NULL DEFAULT '',
		shipping_state VARCHAR(100) NOT NULL DEFAULT '',
		shipping_country VARCHAR(100) NOT NULL DEFAULT '',
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_orders_transaction_ref (transaction_ref),
		INDEX idx_orders_user (user_id),
		INDEX idx_orders_vendor (vendor_id)
	);`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_id INT NOT NULL,
		variant_id INT NULL,
		quantity INT NOT NULL,
		unit_price DOUBLE NOT NULL,
		total_price DOUBLE NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS deliveries (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL UNIQUE,
		status VARCHAR(20) NOT NULL,
		rider_id INT NULL,
		tracking_number VARCHAR(64) NOT NULL,
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS rider_earnings (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		rider_id INT NOT NULL,
		order_id BIGINT NOT NULL,
		amount DOUBLE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	);`,
}

// AutoMigrate creates the tables if they do not exist, retrying while the
// database comes up.
func AutoMigrate(db *sql.DB, retries int) error {
	for _, query := range tables {
		_, err := db.Exec(query)
		for i := 0; err != nil && i < retries; i++ {
			time.Sleep(1 * time.Second)
			_, err = db.Exec(query)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
