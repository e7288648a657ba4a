// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/plugng/commerce-backend/internal/domain/cart"
	"github.com/plugng/commerce-backend/internal/domain/coupon"
	"github.com/plugng/commerce-backend/internal/domain/order"
	"github.com/plugng/commerce-backend/internal/domain/pricing"
	"github.com/plugng/commerce-backend/internal/domain/product"
	"github.com/plugng/commerce-backend/internal/domain/user"
	"github.com/plugng/commerce-backend/internal/domain/wallet"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// User domain
		&user.User{},
		&user.Address{},

		// Product domain
		&product.Category{},
		&product.Brand{},
		&product.Product{},
		&product.ProductImage{},
		&product.ProductOption{},
		&product.ProductOptionValue{},
		&product.ProductVariant{},

		// Cart domain
		&cart.CartItem{},

		// Coupon domain
		&coupon.Coupon{},

		// Wallet domain
		&wallet.Wallet{},
		&wallet.Transaction{},

		// Order domain
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)",
		"CREATE INDEX IF NOT EXISTS idx_products_slug ON products(slug)",

		// Category indexes
		"CREATE INDEX IF NOT EXISTS idx_categories_parent_active ON categories(parent_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_categories_slug ON categories(slug)",

		// Product variant and option indexes
		"CREATE INDEX IF NOT EXISTS idx_product_variants_product_active ON product_variants(product_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_product_variants_sku ON product_variants(sku)",
		"CREATE INDEX IF NOT EXISTS idx_product_options_product ON product_options(product_id, sort_order)",
		"CREATE INDEX IF NOT EXISTS idx_product_option_values_option ON product_option_values(option_id, sort_order)",

		// Cart indexes. One line per (user, product, variant) key.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_line_key ON cart_items(user_id, product_id, COALESCE(product_variant_id, 0)) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user ON cart_items(user_id)",

		// Coupon indexes
		"CREATE INDEX IF NOT EXISTS idx_coupons_code_active ON coupons(code, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_coupons_expires_at ON coupons(expires_at)",

		// Wallet indexes
		"CREATE INDEX IF NOT EXISTS idx_wallet_transactions_wallet ON wallet_transactions(wallet_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_wallet_transactions_reference ON wallet_transactions(reference)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_redirect ON orders(payment_redirect)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Order items indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",

		// Order status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",

		// Address indexes
		"CREATE INDEX IF NOT EXISTS idx_user_addresses_user_default ON user_addresses(user_id, is_default)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := m.seedTestUser(); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}

	if err := m.seedTestProducts(); err != nil {
		return fmt.Errorf("failed to seed test products: %w", err)
	}

	if err := m.seedTestCoupons(); err != nil {
		return fmt.Errorf("failed to seed test coupons: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedCategories creates the default storefront categories
func (m *Migration) seedCategories() error {
	log.Println("🏷️ Seeding categories...")

	categories := []product.Category{
		{
			Name:        "Cases & Covers",
			Slug:        "cases-covers",
			Description: "Protective cases and covers for popular phone models",
			SortOrder:   1,
			IsActive:    true,
		},
		{
			Name:        "Chargers & Cables",
			Slug:        "chargers-cables",
			Description: "Wall chargers, car chargers, and charging cables",
			SortOrder:   2,
			IsActive:    true,
		},
		{
			Name:        "Power Banks",
			Slug:        "power-banks",
			Description: "Portable power banks for charging on the go",
			SortOrder:   3,
			IsActive:    true,
		},
		{
			Name:        "Audio",
			Slug:        "audio",
			Description: "Earbuds, headsets, and portable speakers",
			SortOrder:   4,
			IsActive:    true,
		},
		{
			Name:        "Screen Protectors",
			Slug:        "screen-protectors",
			Description: "Tempered glass and film screen protectors",
			SortOrder:   5,
			IsActive:    true,
		},
	}

	for _, category := range categories {
		var existing product.Category
		result := m.db.Where("slug = ?", category.Slug).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&category).Error; err != nil {
				return err
			}
			log.Printf("✅ Created category: %s", category.Name)
		} else {
			log.Printf("⏭️ Category already exists: %s", category.Name)
		}
	}

	return nil
}

func (m *Migration) seedAdminUser() error {
	log.Println("👤 Seeding admin user...")

	var existing user.User
	result := m.db.Where("email = ?", "admin@plugng.com").First(&existing)
	if result.Error != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		adminUser := user.User{
			Email:        "admin@plugng.com",
			PasswordHash: string(hashedPassword),
			FirstName:    "Admin",
			LastName:     "User",
			IsActive:     true,
			IsAdmin:      true,
		}

		if err := m.db.Create(&adminUser).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("✅ Created admin user: admin@plugng.com (password: admin123)")
	} else {
		log.Printf("⏭️ Admin user already exists with ID: %d", existing.ID)
	}

	return nil
}

func (m *Migration) seedTestUser() error {
	log.Println("👤 Seeding test user...")

	var existing user.User
	result := m.db.Where("email = ?", "test1@plugng.com").First(&existing)
	if result.Error != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("test123"), 10)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		testUser := user.User{
			Email:        "test1@plugng.com",
			PasswordHash: string(hashedPassword),
			FirstName:    "Test",
			LastName:     "User",
			Phone:        "+2348012345678",
			IsActive:     true,
			IsAdmin:      false,
		}

		if err := m.db.Create(&testUser).Error; err != nil {
			return err
		}

		log.Println("✅ Created test user: test1@plugng.com (password: test123)")
	} else {
		log.Println("⏭️ Test user already exists")
	}

	return nil
}

// seedTestProducts creates sample accessories, including a variant product
// with Color and Model axes and a wallet-only promotion.
func (m *Migration) seedTestProducts() error {
	log.Println("🛍️ Seeding test products...")

	var productCount int64
	m.db.Model(&product.Product{}).Count(&productCount)
	if productCount >= 3 {
		log.Println("⏭️ Test products already exist")
		return nil
	}

	var casesCategory, chargersCategory, audioCategory product.Category
	if err := m.db.Where("slug = ?", "cases-covers").First(&casesCategory).Error; err != nil {
		return fmt.Errorf("cases category not found: %w", err)
	}
	if err := m.db.Where("slug = ?", "chargers-cables").First(&chargersCategory).Error; err != nil {
		return fmt.Errorf("chargers category not found: %w", err)
	}
	if err := m.db.Where("slug = ?", "audio").First(&audioCategory).Error; err != nil {
		return fmt.Errorf("audio category not found: %w", err)
	}

	if err := m.seedCaseProduct(casesCategory.ID); err != nil {
		return err
	}

	promoEnd := time.Now().AddDate(0, 1, 0)
	simpleProducts := []product.Product{
		{
			SKU:               "CHG-GAN-65W",
			Name:              "65W GaN Fast Charger",
			Slug:              "65w-gan-fast-charger",
			Description:       "Compact 65W GaN wall charger with dual USB-C ports and one USB-A port. Charges most phones from 0 to 50% in under 30 minutes.",
			ShortDesc:         "Compact 65W GaN wall charger with three ports",
			Price:             18500,
			ComparePrice:      22000,
			CostPrice:         11000,
			CategoryID:        chargersCategory.ID,
			IsActive:          true,
			IsFeatured:        true,
			TrackQuantity:     true,
			Quantity:          120,
			LowStockThreshold: 15,
			Tags:              "charger,gan,fast-charging,usb-c",
		},
		{
			SKU:               "AUD-BUDS-PRO",
			Name:              "PlugNG Buds Pro",
			Slug:              "plugng-buds-pro",
			Description:       "True wireless earbuds with active noise cancellation, 30 hour total battery life, and low-latency game mode.",
			ShortDesc:         "True wireless earbuds with active noise cancellation",
			Price:             32000,
			ComparePrice:      38000,
			CostPrice:         19000,
			CategoryID:        audioCategory.ID,
			IsActive:          true,
			IsFeatured:        true,
			TrackQuantity:     true,
			Quantity:          60,
			LowStockThreshold: 10,
			Tags:              "earbuds,wireless,audio,anc",

			// Wallet-only promotion for testing checkout pricing
			WalletDiscountPercent: 10,
			WalletDiscountEndsAt:  &promoEnd,
		},
	}

	for _, prod := range simpleProducts {
		var existing product.Product
		result := m.db.Where("sku = ?", prod.SKU).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&prod).Error; err != nil {
				log.Printf("⚠️ Failed to create test product %s: %v", prod.SKU, err)
			} else {
				log.Printf("✅ Created test product: %s", prod.Name)
			}
		} else {
			log.Printf("⏭️ Product already exists: %s", prod.Name)
		}
	}

	return nil
}

// seedCaseProduct creates a phone case with Color and Model option axes and
// one variant per combination that is stocked.
func (m *Migration) seedCaseProduct(categoryID uint) error {
	var existing product.Product
	if err := m.db.Where("sku = ?", "CASE-RUGGED").First(&existing).Error; err == nil {
		log.Println("⏭️ Product already exists: Rugged Shield Case")
		return nil
	}

	caseProduct := product.Product{
		SKU:               "CASE-RUGGED",
		Name:              "Rugged Shield Case",
		Slug:              "rugged-shield-case",
		Description:       "Military-grade drop protection with raised bezels and a textured grip. Available in multiple colors for popular phone models.",
		ShortDesc:         "Military-grade drop protection case",
		Price:             6500,
		ComparePrice:      8000,
		CostPrice:         3200,
		CategoryID:        categoryID,
		IsActive:          true,
		IsFeatured:        true,
		TrackQuantity:     true,
		Quantity:          200,
		LowStockThreshold: 20,
		Tags:              "case,rugged,protection",
		Options: []product.ProductOption{
			{
				Name:      "Color",
				SortOrder: 1,
				Values: []product.ProductOptionValue{
					{Value: "Black", SortOrder: 1},
					{Value: "Navy", SortOrder: 2},
					{Value: "Red", SortOrder: 3},
				},
			},
			{
				Name:      "Model",
				SortOrder: 2,
				Values: []product.ProductOptionValue{
					{Value: "iPhone 15", SortOrder: 1},
					{Value: "Galaxy S24", SortOrder: 2},
				},
			},
		},
		Variants: []product.ProductVariant{
			{
				SKU:        "CASE-RUGGED-BLK-IP15",
				Name:       "Black / iPhone 15",
				Quantity:   50,
				Attributes: product.OptionMap{"Color": "Black", "Model": "iPhone 15"},
				IsActive:   true,
				SortOrder:  1,
			},
			{
				SKU:        "CASE-RUGGED-NVY-IP15",
				Name:       "Navy / iPhone 15",
				Price:      7000,
				Quantity:   35,
				Attributes: product.OptionMap{"Color": "Navy", "Model": "iPhone 15"},
				IsActive:   true,
				SortOrder:  2,
			},
			{
				SKU:        "CASE-RUGGED-BLK-S24",
				Name:       "Black / Galaxy S24",
				Quantity:   40,
				Attributes: product.OptionMap{"Color": "Black", "Model": "Galaxy S24"},
				IsActive:   true,
				SortOrder:  3,
			},
			{
				SKU:        "CASE-RUGGED-RED-S24",
				Name:       "Red / Galaxy S24",
				Price:      7000,
				Quantity:   25,
				Attributes: product.OptionMap{"Color": "Red", "Model": "Galaxy S24"},
				IsActive:   true,
				SortOrder:  4,
			},
		},
	}

	if err := m.db.Create(&caseProduct).Error; err != nil {
		return fmt.Errorf("failed to create case product: %w", err)
	}

	log.Printf("✅ Created test product: %s (%d variants)", caseProduct.Name, len(caseProduct.Variants))
	return nil
}

// seedTestCoupons creates sample coupons covering both discount types
func (m *Migration) seedTestCoupons() error {
	log.Println("🎟️ Seeding test coupons...")

	coupons := []coupon.Coupon{
		{
			Code:              "WELCOME10",
			Description:       "10% off your first order, up to 5000",
			DiscountType:      pricing.DiscountTypePercentage,
			DiscountValue:     10,
			MinOrderAmount:    5000,
			MaxDiscountAmount: 5000,
			UsageLimit:        1000,
			ExpiresAt:         time.Now().AddDate(0, 6, 0),
			IsActive:          true,
		},
		{
			Code:           "SAVE2K",
			Description:    "2000 off orders above 20000",
			DiscountType:   pricing.DiscountTypeFixed,
			DiscountValue:  2000,
			MinOrderAmount: 20000,
			ExpiresAt:      time.Now().AddDate(0, 3, 0),
			IsActive:       true,
		},
	}

	for _, cpn := range coupons {
		var existing coupon.Coupon
		result := m.db.Where("code = ?", cpn.Code).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&cpn).Error; err != nil {
				log.Printf("⚠️ Failed to create coupon %s: %v", cpn.Code, err)
			} else {
				log.Printf("✅ Created coupon: %s", cpn.Code)
			}
		} else {
			log.Printf("⏭️ Coupon already exists: %s", cpn.Code)
		}
	}

	return nil
}

// GetTableInfo returns information about database tables
func (m *Migration) GetTableInfo() error {
	var tables []string

	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-25s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)
	log.Printf("🗂️ Total tables: %d", len(tables))

	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	// Reverse dependency order
	tables := []string{
		"order_status_history",
		"order_items",
		"orders",
		"wallet_transactions",
		"wallets",
		"coupons",
		"cart_items",
		"product_variants",
		"product_option_values",
		"product_options",
		"product_images",
		"products",
		"brands",
		"categories",
		"user_addresses",
		"users",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}
