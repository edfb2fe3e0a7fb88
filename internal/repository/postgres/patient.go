package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
)

const patientColumns = `id, account_id, date_of_birth, gender, address, blood_group, genotype, marital_status, occupation, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	patient.CreatedAt = now()
	patient.UpdatedAt = patient.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		patient.ID,
		patient.AccountID,
		patient.DateOfBirth,
		patient.Gender,
		patient.Address,
		patient.BloodGroup,
		patient.Genotype,
		patient.MaritalStatus,
		patient.Occupation,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	return mapError("create patient", err)
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	if err := sqlxGet(ctx, r.q, &patient, query, id); err != nil {
		return nil, mapError("get patient", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByAccount(ctx context.Context, accountID uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE account_id = $1`
	if err := sqlxGet(ctx, r.q, &patient, query, accountID); err != nil {
		return nil, mapError("get patient by account", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET date_of_birth = $1, gender = $2, address = $3, blood_group = $4,
			genotype = $5, marital_status = $6, occupation = $7, updated_at = $8
		WHERE id = $9
	`
	patient.UpdatedAt = now()

	result, err := r.q.ExecContext(ctx, query,
		patient.DateOfBirth,
		patient.Gender,
		patient.Address,
		patient.BloodGroup,
		patient.Genotype,
		patient.MaritalStatus,
		patient.Occupation,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return mapError("update patient", err)
	}
	return expectOne("update patient", result, repository.ErrNotFound)
}
