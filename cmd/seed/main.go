package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/swivelcare/swivel-api/internal/config"
	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/models"
	"github.com/swivelcare/swivel-api/internal/services"
)

type CLI struct {
	db *gorm.DB
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	cli := &CLI{db: db.DB()}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		cli.seedDemo()
	case "org-list":
		cli.listOrganizations()
	case "orphan-list":
		cli.listOrphans()
	case "db-status":
		cli.checkDatabaseStatus()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Swivel API - Seed CLI")
	fmt.Println()
	fmt.Println("Usage: seed <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  demo          Seed a demo organization with users, clients and funding buckets")
	fmt.Println("  org-list      List all organizations")
	fmt.Println("  orphan-list   List organizations with no admin profile")
	fmt.Println("  db-status     Check database connection status")
}

func (cli *CLI) seedDemo() {
	ctx := context.Background()

	var existing models.Organization
	if err := cli.db.WithContext(ctx).Where("name = ?", "Acme Care Services").First(&existing).Error; err == nil {
		fmt.Printf("Demo organization already exists (id %s), nothing to do\n", existing.ID)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("Demo1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	err = cli.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org := &models.Organization{
			Name:  "Acme Care Services",
			ABN:   "51824753556",
			Phone: "+61 2 9000 0000",
		}
		if err := tx.Create(org).Error; err != nil {
			return err
		}

		admin := &models.User{
			Email:        "admin@acmecare.example",
			PasswordHash: string(hash),
			FullName:     "Alice Admin",
			IsVerified:   true,
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}

		trialEnds := time.Now().UTC().Add(models.TrialPeriod)
		profile := &models.Profile{
			ID:                 admin.ID,
			OrganizationID:     org.ID,
			FullName:           admin.FullName,
			Email:              admin.Email,
			Role:               models.RoleAdmin,
			SubscriptionStatus: models.SubscriptionTrial,
			TrialEndsAt:        &trialEnds,
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}

		formConfig := &models.FormConfiguration{
			OrganizationID: org.ID,
			Config:         services.DefaultFormSchema(),
		}
		if err := tx.Create(formConfig).Error; err != nil {
			return err
		}

		dob := time.Date(1954, time.March, 12, 0, 0, 0, 0, time.UTC)
		client := &models.Client{
			OrganizationID: org.ID,
			FirstName:      "Jordan",
			LastName:       "Reeves",
			DateOfBirth:    &dob,
			Status:         models.ClientStatusActive,
			Details: models.JSON{
				"funding_type": "NDIS",
				"ndis_number":  "430000001",
			},
		}
		if err := tx.Create(client).Error; err != nil {
			return err
		}

		start := time.Now().UTC()
		end := start.AddDate(1, 0, 0)
		bucket := &models.FundingBucket{
			OrganizationID: org.ID,
			ClientID:       client.ID,
			Name:           "Core Supports",
			TotalAmount:    25000,
			StartDate:      &start,
			EndDate:        &end,
		}
		if err := tx.Create(bucket).Error; err != nil {
			return err
		}

		fmt.Printf("Demo organization seeded\n")
		fmt.Printf("   Organization: %s (%s)\n", org.Name, org.ID)
		fmt.Printf("   Admin login:  %s / Demo1234\n", admin.Email)
		fmt.Printf("   Client:       %s %s\n", client.FirstName, client.LastName)
		fmt.Printf("   Bucket:       %s ($%.2f)\n", bucket.Name, bucket.TotalAmount)
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
}

func (cli *CLI) listOrganizations() {
	var orgs []models.Organization
	if err := cli.db.Order("created_at").Find(&orgs).Error; err != nil {
		log.Fatalf("Failed to list organizations: %v", err)
	}

	if len(orgs) == 0 {
		fmt.Println("No organizations found")
		return
	}

	for _, org := range orgs {
		fmt.Printf("%s  %-30s  abn=%s  created=%s\n", org.ID, org.Name, org.ABN, org.CreatedAt.Format(time.RFC3339))
	}
}

func (cli *CLI) listOrphans() {
	svc := services.NewOrganizationService(database.Wrap(cli.db))
	orgs, err := svc.FindOrphanOrganizations(context.Background())
	if err != nil {
		log.Fatalf("Failed to scan for orphan organizations: %v", err)
	}

	if len(orgs) == 0 {
		fmt.Println("No orphan organizations found")
		return
	}

	fmt.Printf("Found %d orphan organization(s):\n", len(orgs))
	for _, org := range orgs {
		fmt.Printf("%s  %-30s  created=%s\n", org.ID, org.Name, org.CreatedAt.Format(time.RFC3339))
	}
}

func (cli *CLI) checkDatabaseStatus() {
	sqlDB, err := cli.db.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}

	var counts struct {
		Organizations int64
		Users         int64
		Clients       int64
	}
	cli.db.Model(&models.Organization{}).Count(&counts.Organizations)
	cli.db.Model(&models.User{}).Count(&counts.Users)
	cli.db.Model(&models.Client{}).Count(&counts.Clients)

	fmt.Println("Database connection OK")
	fmt.Printf("   Organizations: %d\n", counts.Organizations)
	fmt.Printf("   Users:         %d\n", counts.Users)
	fmt.Printf("   Clients:       %d\n", counts.Clients)
}
