// Package main is a diagnostic tool for testing database connectivity and
// inspecting live clinic data. It connects to the database, counts the rows
// in each clinical table, and prints the most recent activity-log entries to
// stdout. The binary exits with a non-zero code on any failure so it can be
// embedded in health checks or CI/CD pipeline steps to gate deployments on a
// reachable, populated database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("CBO_DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "clinic"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=clinic password=%s dbname=clinic_office sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	// Row counts per table
	fmt.Println("=== TABLE COUNTS ===")
	for _, table := range []string{"users", "doctors", "patients", "appointments", "activity_log"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			log.Fatalf("Count query failed for %s: %v", table, err)
		}
		fmt.Printf("%-14s %d\n", table, count)
	}

	// Most recent audit activity
	fmt.Println("\n=== RECENT ACTIVITY ===")
	rows, err := db.Query(`SELECT id, timestamp, username, action, COALESCE(target_data, '')
		FROM activity_log ORDER BY timestamp DESC LIMIT 10`)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id int64
		var timestamp time.Time
		var username, action, target string
		if err := rows.Scan(&id, &timestamp, &username, &action, &target); err != nil {
			log.Printf("Warning: failed to scan activity row: %v", err)
			continue
		}
		fmt.Printf("#%d %s %s %s %s\n", id, timestamp.Format(time.RFC3339), username, action, target)
		count++
	}

	if count == 0 {
		fmt.Println("No activity recorded!")
	}
}
