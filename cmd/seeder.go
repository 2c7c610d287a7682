package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/minhopark/store-portal/internal/authz"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with bootstrap accounts for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"permission_change_logs", "inventory_line_items", "inventory_sheets", "disposal_requests", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		fullMenu := authz.MenuPermissions{
			"inventory": authz.ActionValue(true, true, true),
			"disposal":  authz.ActionValue(true, true, true),
		}
		staffMenu := authz.MenuPermissions{
			"inventory": authz.ActionValue(true, true, false),
			"disposal":  authz.BoolValue(true),
		}

		seedUser(db, "root@store-portal.local", "Root", string(hash), authz.RoleSuperadmin, nil, nil)
		seedUser(db, "minho@store-portal.local", "Minho Park", string(hash), authz.RoleAdmin, fullMenu,
			authz.AdminPermissions{
				string(authz.CapabilityAccountApproval): true,
				string(authz.CapabilityManageRoles):     true,
				string(authz.CapabilityViewAuditLog):    true,
			})
		seedUser(db, "jisoo@store-portal.local", "Jisoo Kim", string(hash), authz.RoleEmployee, staffMenu, nil)

		fmt.Println("Seed complete")
	},
}

func seedUser(db *gorm.DB, email, name, hash string, role authz.Role, menu authz.MenuPermissions, admin authz.AdminPermissions) {
	var exists int
	row := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Printf("user %s already exists; skipping\n", email)
		return
	}

	menuJSON, err := json.Marshal(menu)
	if err != nil {
		log.Fatalf("failed to marshal menu permissions for %s: %v", email, err)
	}
	adminJSON, err := json.Marshal(admin)
	if err != nil {
		log.Fatalf("failed to marshal admin permissions for %s: %v", email, err)
	}

	err = db.Exec(
		`INSERT INTO users (email, name, password_hash, role, status, menu_permissions, admin_permissions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'active', ?, ?, now(), now())`,
		email, name, hash, string(role), menuJSON, adminJSON,
	).Error
	if err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Printf("Seeded user: %s (%s)\n", email, role)
}
