package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/kliksalary/lending-engine/internal/config"
	"github.com/kliksalary/lending-engine/internal/repository"
)

func main() {
	log.Println("Starting lending scheduler...")

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	loanRepo := repository.NewLoanRepository(db)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Daily job: flip pending installments past their due date to overdue.
	// Installment status is otherwise only touched by repayment collection.
	_, err = c.AddFunc(cfg.Scheduler.OverdueCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		count, err := loanRepo.MarkOverdueInstallments(ctx, time.Now())
		if err != nil {
			log.Printf("Overdue installment update failed: %v", err)
			return
		}
		log.Printf("Marked %d installments overdue", count)
	})
	if err != nil {
		log.Fatalf("Error scheduling overdue installment job: %v", err)
	}

	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}
