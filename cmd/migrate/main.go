package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"ms-fidelity/internal/config"
	"ms-fidelity/internal/database/migrations"
	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const usage = `usage: migrate <command>

commands:
  up          apply all pending migrations
  down        roll back every migration
  to <n>      migrate up or down to version n
  version     print the applied version
  seed        insert the demo programs
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger(cfg.LogDir, "fidelity-migrate")
	defer log.Close()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx := context.Background()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN)))
	defer sqldb.Close()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if flag.Arg(0) == "seed" {
		db := bun.NewDB(sqldb, pgdialect.New())
		n, err := seedPrograms(ctx, db)
		if err != nil {
			log.Fatal("SEED", err.Error())
		}
		log.LogDatabase("INSERT", "loyalty_cards", fmt.Sprintf("✅ Seeded %d demo programs", n))
		return
	}

	runner := migrations.NewRunner(sqldb, log)
	defer runner.Close()

	var err error
	switch flag.Arg(0) {
	case "up":
		err = runner.MigrateUp()
	case "down":
		err = runner.MigrateDown()
	case "to":
		var version uint64
		version, err = strconv.ParseUint(flag.Arg(1), 10, 32)
		if err == nil {
			err = runner.MigrateTo(uint(version))
		}
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = runner.Version()
		if err == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", "✅ Done.")
}

// seedPrograms inserts a few discoverable programs for local testing.
// Existing rows are left alone.
func seedPrograms(ctx context.Context, db *bun.DB) (int64, error) {
	now := time.Now().UTC()
	programs := []models.Program{
		{
			ID: "11111111-1111-4111-8111-111111111111", RestaurantID: "rest-roma", IsActive: true,
			DiscoveryQRCode: "PIZZA-ROMA", DisplayName: "Pizzeria Roma", LocationName: "Milano",
			LocationAddress: "Via Torino 12, Milano", StampsRequired: 8, RewardText: "Pizza Margherita",
			CardColor: "#c0392b", TextColor: "#ffffff", CreatedAt: now,
		},
		{
			ID: "22222222-2222-4222-8222-222222222222", RestaurantID: "rest-zen", IsActive: true,
			DiscoveryQRCode: "SUSHI-ZEN", DisplayName: "Sushi Zen", LocationName: "Torino",
			LocationAddress: "Corso Vittorio 5, Torino", StampsRequired: 10, RewardText: "Uramaki",
			CardColor: "#2c3e50", TextColor: "#ecf0f1", CreatedAt: now,
		},
		{
			ID: "33333333-3333-4333-8333-333333333333", RestaurantID: "rest-bar", IsActive: true,
			DiscoveryQRCode: "BAR-CENTRALE", DisplayName: "Bar Centrale", LocationName: "Milano",
			StampsRequired: 5, CreatedAt: now,
		},
	}

	res, err := db.NewInsert().
		Model(&programs).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert programs: %w", err)
	}
	return res.RowsAffected()
}
