package jobs

import (
	"context"
	"log"
	"time"

	"home-service-server/services"
)

// StaleBookingJob cancels scheduled bookings that were never accepted and
// whose slot has fully passed, so they stop blocking availability scans and
// the customer sees a terminal state instead of a forever-pending booking.
type StaleBookingJob struct {
	bookings *services.BookingService
	interval time.Duration
	stopChan chan bool
}

// NewStaleBookingJob creates a new stale booking job
func NewStaleBookingJob(bookings *services.BookingService, interval time.Duration) *StaleBookingJob {
	return &StaleBookingJob{
		bookings: bookings,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the stale booking job
func (j *StaleBookingJob) Start() {
	go j.run()
	log.Println("stale booking job started")
}

// Stop stops the stale booking job
func (j *StaleBookingJob) Stop() {
	j.stopChan <- true
	log.Println("stale booking job stopped")
}

func (j *StaleBookingJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopChan:
			return
		}
	}
}

func (j *StaleBookingJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := j.bookings.ExpireStalePending(ctx)
	if err != nil {
		log.Printf("error expiring stale bookings: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("expired %d stale pending bookings", expired)
	}
}
