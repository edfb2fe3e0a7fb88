package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/ehr-booking/internal/model"
	appointmentService "github.com/jwalitptl/ehr-booking/internal/service/appointment"
	authService "github.com/jwalitptl/ehr-booking/internal/service/auth"
	apperrors "github.com/jwalitptl/ehr-booking/pkg/errors"
	"github.com/jwalitptl/ehr-booking/pkg/lock"
	"github.com/jwalitptl/ehr-booking/pkg/security"
)

type seedOptions struct {
	doctors     int
	patients    int
	days        int
	slotMinutes int
	dayStart    int
	dayEnd      int
	password    string
	seed        uint64
}

func seedCmd() *cobra.Command {
	var opts seedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo doctors, patients and open slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dayStart < 0 || opts.dayEnd > 24 || opts.dayStart >= opts.dayEnd {
				return fmt.Errorf("invalid working hours %d-%d", opts.dayStart, opts.dayEnd)
			}
			if opts.slotMinutes <= 0 {
				return fmt.Errorf("slot length must be positive")
			}

			e, err := bootstrap()
			if err != nil {
				return err
			}
			defer e.close()

			return runSeed(cmd.Context(), e, opts)
		},
	}
	cmd.Flags().IntVar(&opts.doctors, "doctors", 5, "number of doctors")
	cmd.Flags().IntVar(&opts.patients, "patients", 20, "number of patient accounts")
	cmd.Flags().IntVar(&opts.days, "days", 7, "days of slots to open, starting tomorrow")
	cmd.Flags().IntVar(&opts.slotMinutes, "slot-minutes", 30, "slot length")
	cmd.Flags().IntVar(&opts.dayStart, "day-start", 9, "first slot hour (UTC)")
	cmd.Flags().IntVar(&opts.dayEnd, "day-end", 17, "hour the last slot ends (UTC)")
	cmd.Flags().StringVar(&opts.password, "password", "changeme123", "password for every seeded login")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed, 0 picks one")
	return cmd
}

func runSeed(ctx context.Context, e *env, opts seedOptions) error {
	faker := gofakeit.New(opts.seed)
	auth := newAuthService(e)
	booking := appointmentService.NewService(e.store, security.NewBcryptHasher(0), lock.NoopSlotLocker(), nil, e.logger, appointmentService.Config{
		WalkInPlaceholderPassword: e.cfg.Booking.WalkInPlaceholderPassword,
		DefaultWindowDays:         e.cfg.Booking.DefaultWindowDays,
	})

	doctors, err := seedDoctors(ctx, auth, faker, opts)
	if err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}

	slots := 0
	tomorrow := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	length := time.Duration(opts.slotMinutes) * time.Minute
	for _, doctor := range doctors {
		caller := model.StaffCaller(doctor.ID, doctor.Role)
		for d := 0; d < opts.days; d++ {
			day := tomorrow.AddDate(0, 0, d)
			end := day.Add(time.Duration(opts.dayEnd) * time.Hour)
			for start := day.Add(time.Duration(opts.dayStart) * time.Hour); !start.Add(length).After(end); start = start.Add(length) {
				if _, err := booking.CreateSlot(ctx, caller, model.CreateSlotRequest{
					DoctorID:  doctor.ID,
					StartTime: start,
					EndTime:   start.Add(length),
				}); err != nil {
					return fmt.Errorf("seed slots: %w", err)
				}
				slots++
			}
		}
	}
	e.logger.Info().Int("doctors", len(doctors)).Int("slots", slots).Msg("doctors and slots seeded")

	patients := 0
	for i := 0; i < opts.patients; i++ {
		view, err := auth.Register(ctx, model.RegisterRequest{
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Email:     faker.Email(),
			Password:  opts.password,
		})
		if err != nil {
			e.logger.Warn().Err(err).Msg("skipping patient")
			continue
		}
		patients++
		e.logger.Debug().Str("patient_id", view.ID.String()).Msg("patient seeded")
	}
	e.logger.Info().Int("patients", patients).Msg("patients seeded")

	fmt.Printf("seeded %d doctors, %d slots and %d patients\n", len(doctors), slots, patients)
	return nil
}

// seedDoctors draws random work IDs, so a few attempts are allowed per
// doctor for IDs left behind by earlier runs.
func seedDoctors(ctx context.Context, auth *authService.Service, faker *gofakeit.Faker, opts seedOptions) ([]*model.Staff, error) {
	const attempts = 5
	doctors := make([]*model.Staff, 0, opts.doctors)
	for i := 0; i < opts.doctors; i++ {
		var (
			doctor *model.Staff
			err    error
		)
		for try := 1; try <= attempts; try++ {
			doctor, err = auth.ProvisionStaff(ctx, model.AnonymousCaller(), model.CreateStaffRequest{
				WorkID:    fmt.Sprintf("DOC-%06d", faker.Number(0, 999999)),
				FirstName: faker.FirstName(),
				LastName:  faker.LastName(),
				Password:  opts.password,
				Role:      model.StaffRoleDoctor,
			})
			if err == nil || !apperrors.Is(err, apperrors.ErrInvalidArgument) {
				break
			}
		}
		if err != nil {
			return nil, err
		}
		fmt.Printf("doctor %s (%s)\n", doctor.FullName(), doctor.WorkID)
		doctors = append(doctors, doctor)
	}
	return doctors, nil
}
