// Package diagnosis manages the diagnoses recorded against patients.
package diagnosis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinic/clinic-admin/internal/platform/dates"
	"github.com/clinic/clinic-admin/internal/platform/refs"
	"github.com/clinic/clinic-admin/internal/platform/resource"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

type Draft struct {
	PatientID     int64  `form:"patient_id" json:"patient_id" validate:"required"`
	Condition     string `form:"condition" json:"condition" validate:"required"`
	DiagnosisDate string `form:"diagnosis_date" json:"diagnosis_date" validate:"required"`
}

func DraftFrom(d clinicmodels.Diagnosis, loc *time.Location) Draft {
	return Draft{
		PatientID:     d.PatientID,
		Condition:     d.Condition,
		DiagnosisDate: dates.FormatForInput(d.DiagnosisDate, loc),
	}
}

func (d Draft) Payload() Draft {
	return Draft{
		PatientID:     d.PatientID,
		Condition:     strings.TrimSpace(d.Condition),
		DiagnosisDate: dates.NormalizeDate(d.DiagnosisDate),
	}
}

type Stats struct {
	Total      int
	Conditions int
}

// ComputeStats counts diagnoses and distinct conditions, ignoring case.
func ComputeStats(diags []clinicmodels.Diagnosis) Stats {
	seen := make(map[string]struct{})
	for _, d := range diags {
		seen[strings.ToLower(strings.TrimSpace(d.Condition))] = struct{}{}
	}
	return Stats{Total: len(diags), Conditions: len(seen)}
}

type Detail struct {
	Diagnosis clinicmodels.Diagnosis
	Patient   clinicmodels.Patient
}

type Repository interface {
	List(ctx context.Context) ([]clinicmodels.Diagnosis, error)
	Get(ctx context.Context, id int64) (clinicmodels.Diagnosis, error)
	Create(ctx context.Context, draft any) (clinicmodels.Diagnosis, error)
	Update(ctx context.Context, id int64, draft any) (clinicmodels.Diagnosis, error)
	Delete(ctx context.Context, id int64) error
}

type PatientSource interface {
	List(ctx context.Context) ([]clinicmodels.Patient, error)
	Get(ctx context.Context, id int64) (clinicmodels.Patient, error)
}

func NewAPIRepository(c resource.Client) Repository {
	return resource.NewRepo[clinicmodels.Diagnosis](c, clinicmodels.ResourceDiagnoses)
}

type Service struct {
	diagnoses Repository
	patients  PatientSource
}

func NewService(diagnoses Repository, patients PatientSource) *Service {
	return &Service{diagnoses: diagnoses, patients: patients}
}

func (s *Service) List(ctx context.Context) ([]clinicmodels.Diagnosis, Stats, error) {
	diags, err := s.diagnoses.List(ctx)
	if err != nil {
		return nil, Stats{}, err
	}
	return diags, ComputeStats(diags), nil
}

func (s *Service) Get(ctx context.Context, id int64) (clinicmodels.Diagnosis, error) {
	return s.diagnoses.Get(ctx, id)
}

// Detail loads the diagnosis and then its patient.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	d, err := s.diagnoses.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load diagnosis %d: %w", id, err)
	}
	p, err := refs.One(ctx, d.PatientID, s.patients.Get)
	if err != nil {
		return nil, fmt.Errorf("diagnosis %d patient: %w", id, err)
	}
	return &Detail{Diagnosis: d, Patient: p}, nil
}

// Patients lists the choices offered by the form.
func (s *Service) Patients(ctx context.Context) ([]clinicmodels.Patient, error) {
	return s.patients.List(ctx)
}

func (s *Service) Create(ctx context.Context, d Draft) (clinicmodels.Diagnosis, error) {
	return s.diagnoses.Create(ctx, d.Payload())
}

func (s *Service) Update(ctx context.Context, id int64, d Draft) (clinicmodels.Diagnosis, error) {
	return s.diagnoses.Update(ctx, id, d.Payload())
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.diagnoses.Delete(ctx, id)
}
