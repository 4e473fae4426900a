package cronjob

import (
	"log"
	"time"

	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/repository"
	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	fuel *repository.FuelRepository
}

func NewScheduler(fuel *repository.FuelRepository) *Scheduler {
	return &Scheduler{fuel: fuel}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	//  (12:00 AM)
	_, err := c.AddFunc("0 0 0 * * *", func() {
		s.reloadFuelData()
	})

	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (reloading fuel dataset nightly at 12:00AM)")
	c.Start()
}

// reloadFuelData re-reads the fuel price CSV and geocoding artifact so a
// dataset swapped onto the volume is picked up without a restart.
func (s *Scheduler) reloadFuelData() {
	log.Println("Nightly fuel dataset reload started...")

	stations, err := s.fuel.Reload()
	if err != nil {
		log.Printf("Fuel dataset reload failed: %v", err)
		return
	}

	log.Printf("Nightly reload completed: %d stations at %s", len(stations), time.Now().Format(time.RFC1123))
}
