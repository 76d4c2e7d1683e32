package seed

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"harvest-booking-backend/internal/model"
)

// Run inserts the sample harvests. It is a startup hook that only fires
// when seeding is enabled in the configuration, and it never reseeds a
// database that already has harvests.
func Run(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Harvest{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count harvests: %w", err)
	}
	if count > 0 {
		log.Printf("Seed skipped: %d harvests already present", count)
		return nil
	}

	harvests := []model.Harvest{
		{
			Name:        "Strawberry Picking",
			Description: "Pick your own sweet, fresh strawberries!",
			Location:    "Shizuoka",
			Price:       1500,
			Slots: []model.HarvestSlot{
				{Date: "2025-09-01", Remaining: 10},
				{Date: "2025-09-02", Remaining: 10},
			},
		},
		{
			Name:        "Grape Picking",
			Description: "Taste and compare many grape varieties!",
			Location:    "Yamanashi",
			Price:       2000,
			Slots: []model.HarvestSlot{
				{Date: "2025-09-15", Remaining: 8},
			},
		},
		{
			Name:        "Mandarin Picking",
			Description: "A mandarin-picking experience the whole family can enjoy",
			Location:    "Wakayama",
			Price:       1000,
			Slots: []model.HarvestSlot{
				{Date: "2025-10-01", Remaining: 20},
			},
		},
	}

	for i := range harvests {
		if err := db.Create(&harvests[i]).Error; err != nil {
			return fmt.Errorf("failed to seed harvest %q: %w", harvests[i].Name, err)
		}
	}
	log.Printf("Seeded %d sample harvests", len(harvests))
	return nil
}
