package cmd

import (
	"context"
	"fmt"
	"log"

	marketDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/market"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users, permissions and symbols for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		conn, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer conn.Close()

		gormDB, err := store.OpenPostgres(conn.DB, false)
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}
		gw := store.NewGateway(gormDB)

		err = gw.UnitOfWork(context.Background(), func(ctx context.Context) error {
			db := gw.Session(ctx)
			if clearData {
				if err := clearSeedData(db); err != nil {
					return err
				}
			}
			return seed(db, cfg.Security.BCryptCost)
		})
		if err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("Seed completed")
	},
}

var seedPermissions = []userDatamodel.Permission{
	{Name: "manage_users", Description: "Can list and manage users"},
	{Name: "manage_permissions", Description: "Can create and grant permissions"},
	{Name: "manage_symbols", Description: "Can add, edit and remove symbols"},
	{Name: "view_stats", Description: "Can query historical statistics"},
	{Name: "auto_trade", Description: "Can enable auto trading on accounts"},
}

var seedTickers = []marketDatamodel.Ticker{
	{Symbol: "AAPL", Name: "Apple Inc.", Industry: "Technology", Market: "stocks", MarketCap: "large"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Industry: "Technology", Market: "stocks", MarketCap: "large"},
	{Symbol: "SPY", Name: "SPDR S&P 500 ETF", Industry: "Fund", Market: "stocks", MarketCap: "large"},
	{Symbol: "BTCUSD", Name: "Bitcoin", Market: "crypto", AltNames: map[string]string{"kraken": "XBTUSD"}},
	{Symbol: "EURUSD", Name: "Euro / US Dollar", Market: "fx"},
}

func seed(db *gorm.DB, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	users := []userDatamodel.User{
		{Username: "admin", FirstName: "Site", LastName: "Admin", Email: "admin@mail.com", Role: "admin"},
		{Username: "client", FirstName: "Casey", LastName: "Client", Email: "client@mail.com", Role: "client"},
		{Username: "demo", FirstName: "Dana", LastName: "Demo", Email: "demo@mail.com", Role: "demo"},
	}
	for i := range users {
		u := &users[i]
		u.PasswordHash = string(hash)
		u.IsActive = true
		u.Watchlist = []userDatamodel.WatchlistItem{}
		res := db.Where("username = ?", u.Username).FirstOrCreate(u)
		if res.Error != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, res.Error)
		}
		if res.RowsAffected > 0 {
			fmt.Println("Seeded user:", u.Username)
		}
	}

	admin := users[0]
	for i := range seedPermissions {
		p := seedPermissions[i]
		if err := db.Where("name = ?", p.Name).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
		grant := userDatamodel.UserPermission{UserID: admin.ID, PermissionID: p.ID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; err != nil {
			return fmt.Errorf("grant permission %s: %w", p.Name, err)
		}
	}
	fmt.Println("Granted all permissions to admin user:", admin.Username)

	for i := range seedTickers {
		t := seedTickers[i]
		res := db.Where("symbol = ?", t.Symbol).FirstOrCreate(&t)
		if res.Error != nil {
			return fmt.Errorf("seed symbol %s: %w", t.Symbol, res.Error)
		}
		if res.RowsAffected > 0 {
			fmt.Println("Seeded symbol:", t.Symbol)
		}
	}
	return nil
}

func clearSeedData(db *gorm.DB) error {
	for _, table := range []string{"historical", "tickers", "api_credentials", "accounts", "user_permissions", "permissions", "users"} {
		if err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		fmt.Println("Cleared table:", table)
	}
	return nil
}
