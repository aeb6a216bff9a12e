package patient

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/clinic/clinic-admin/internal/platform/refs"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

type Service struct {
	patients Repository
	history  History
}

func NewService(patients Repository, history History) *Service {
	return &Service{patients: patients, history: history}
}

func (s *Service) List(ctx context.Context) ([]clinicmodels.Patient, Stats, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, Stats{}, err
	}
	return patients, ComputeStats(patients), nil
}

func (s *Service) Get(ctx context.Context, id int64) (clinicmodels.Patient, error) {
	return s.patients.Get(ctx, id)
}

// Detail loads the patient and the three history collections in parallel,
// keeps the patient's own records and resolves every doctor they mention
// once. Any failure fails the whole page.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	var (
		p      clinicmodels.Patient
		appts  []clinicmodels.Appointment
		diags  []clinicmodels.Diagnosis
		prescs []clinicmodels.Prescription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p, err = s.patients.Get(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		appts, err = s.history.Appointments.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		diags, err = s.history.Diagnoses.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		prescs, err = s.history.Prescriptions.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load patient %d: %w", id, err)
	}

	appts = filter(appts, func(a clinicmodels.Appointment) bool { return a.PatientID == id })
	diags = filter(diags, func(d clinicmodels.Diagnosis) bool { return d.PatientID == id })
	prescs = filter(prescs, func(rx clinicmodels.Prescription) bool { return rx.PatientID == id })

	doctorIDs := append(
		refs.Collect(appts, func(a clinicmodels.Appointment) int64 { return a.DoctorID }),
		refs.Collect(prescs, func(rx clinicmodels.Prescription) int64 { return rx.DoctorID })...,
	)
	doctors, err := refs.Resolve(ctx, doctorIDs, s.history.Doctors.Get)
	if err != nil {
		return nil, fmt.Errorf("patient %d doctors: %w", id, err)
	}

	d := &Detail{
		Patient:       p,
		Appointments:  make([]AppointmentRow, 0, len(appts)),
		Diagnoses:     diags,
		Prescriptions: make([]PrescriptionRow, 0, len(prescs)),
	}
	for _, a := range appts {
		d.Appointments = append(d.Appointments, AppointmentRow{Appointment: a, Doctor: doctors[a.DoctorID]})
	}
	for _, rx := range prescs {
		d.Prescriptions = append(d.Prescriptions, PrescriptionRow{Prescription: rx, Doctor: doctors[rx.DoctorID]})
	}
	return d, nil
}

func (s *Service) Create(ctx context.Context, d Draft) (clinicmodels.Patient, error) {
	return s.patients.Create(ctx, d.Payload())
}

func (s *Service) Update(ctx context.Context, id int64, d Draft) (clinicmodels.Patient, error) {
	return s.patients.Update(ctx, id, d.Payload())
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.patients.Delete(ctx, id)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
