package services

import (
	"context"
	"log"
	"time"

	"financeiro/backend/firesync"
)

// StartScheduler starts the task scheduler for periodic tasks
func StartScheduler(mirror *firesync.Mirror) {
	if !mirror.Enabled() {
		log.Println("Firestore mirroring disabled, scheduler not started")
		return
	}

	log.Println("Starting task scheduler...")
	go startMirrorScheduler(mirror)
}

// startMirrorScheduler pushes every user's documents to Firestore once a
// day, catching anything a best-effort per-request mirror missed.
func startMirrorScheduler(mirror *firesync.Mirror) {
	for {
		// Calculate time until midnight
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		timeUntilMidnight := midnight.Sub(now)

		log.Printf("Next Firestore mirror sync scheduled in %v", timeUntilMidnight)

		time.Sleep(timeUntilMidnight)

		log.Println("Running scheduled Firestore mirror sync...")
		if err := MirrorAllUsers(context.Background(), mirror); err != nil {
			log.Printf("Warning: scheduled mirror sync failed: %v", err)
		}

		// Small delay to ensure we don't run multiple times if execution is very quick
		time.Sleep(time.Second)
	}
}
