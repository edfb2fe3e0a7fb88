package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/ehr-booking/internal/model"
	authService "github.com/jwalitptl/ehr-booking/internal/service/auth"
	"github.com/jwalitptl/ehr-booking/internal/service/identity"
	"github.com/jwalitptl/ehr-booking/pkg/auth"
	"github.com/jwalitptl/ehr-booking/pkg/security"
)

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Staff account commands",
	}

	var req model.CreateStaffRequest
	var role string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff member",
		Long:  "Create a staff member. This is how the first ADMIN is provisioned.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bootstrap()
			if err != nil {
				return err
			}
			defer e.close()

			req.Role = model.StaffRole(role)
			staff, err := newAuthService(e).ProvisionStaff(cmd.Context(), model.AnonymousCaller(), req)
			if err != nil {
				return err
			}
			fmt.Printf("created %s %s (%s) id=%s\n", staff.Role, staff.FullName(), staff.WorkID, staff.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&req.WorkID, "work-id", "", "unique work ID used to log in")
	createCmd.Flags().StringVar(&role, "role", string(model.StaffRoleAdmin), "DOCTOR, RECEPTIONIST or ADMIN")
	createCmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	createCmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	createCmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	for _, name := range []string{"work-id", "first-name", "last-name", "password"} {
		_ = createCmd.MarkFlagRequired(name)
	}
	cmd.AddCommand(createCmd)

	return cmd
}

func newAuthService(e *env) *authService.Service {
	tokens := auth.NewJWTService(auth.Config{
		Secret: e.cfg.JWT.Secret,
		Issuer: e.cfg.JWT.Issuer,
		Expiry: e.cfg.JWT.Expiry(),
	})
	directory := identity.NewDirectory(e.store, e.cfg.IdentityCache.TTL, e.cfg.IdentityCache.Cleanup)
	return authService.NewService(e.store, security.NewBcryptHasher(0), tokens, directory, e.logger)
}
