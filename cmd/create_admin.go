package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unimap/unimap/config"
	"github.com/unimap/unimap/controllers"
	"github.com/unimap/unimap/models"
)

func createAdminCommand() *cobra.Command {
	var (
		username   string
		superuser  bool
		university string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff user (password read from UNIMAP_ADMIN_PASSWORD)",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("UNIMAP_ADMIN_PASSWORD")
			if password == "" {
				return fmt.Errorf("UNIMAP_ADMIN_PASSWORD must be set")
			}
			if !superuser && university == "" {
				return fmt.Errorf("either --superuser or --university is required")
			}

			db := config.InitDatabase()

			var universityID *uint
			if university != "" {
				var u models.University
				if err := db.Where("LOWER(short_name) = LOWER(?)", strings.TrimSpace(university)).First(&u).Error; err != nil {
					return fmt.Errorf("university %q: %w", university, err)
				}
				universityID = &u.ID
			}

			staff, err := controllers.CreateStaffUser(db, username, password, superuser, universityID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created staff user %s (id %d)\n", staff.Username, staff.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "staff username")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant access to every university")
	cmd.Flags().StringVar(&university, "university", "", "short name of the university this admin manages")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
