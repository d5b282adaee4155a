package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/unimap/unimap/config"
	"github.com/unimap/unimap/models"
)

func seedDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Insert a demo university with a few buildings",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := config.InitDatabase()
			created, err := SeedDemo(db)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), "demo university already present")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seeded Harvard University, open /HARV/")
			return nil
		},
	}
}

// SeedDemo inserts Harvard University (HARV) with two buildings unless it exists.
func SeedDemo(db *gorm.DB) (bool, error) {
	var existing models.University
	err := db.Where("LOWER(short_name) = LOWER(?)", "HARV").First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	minLat, maxLat, minLng, maxLng := 42.3730, 42.3810, -71.1200, -71.1130
	harvard := models.University{
		Name:      "Harvard University",
		ShortName: "HARV",
		Country:   "USA",
		Active:    true,
		MinLat:    &minLat,
		MaxLat:    &maxLat,
		MinLng:    &minLng,
		MaxLng:    &maxLng,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&harvard).Error; err != nil {
			return err
		}
		buildings := []models.Building{
			{Name: "Harvard Yard", Latitude: 42.3745, Longitude: -71.1170, Category: "Landmark", UniversityID: &harvard.ID},
			{Name: "Science Center", Latitude: 42.3760, Longitude: -71.1180, Category: "Academic", UniversityID: &harvard.ID},
		}
		return tx.Create(&buildings).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
