package doctor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/clinic/clinic-admin/internal/platform/refs"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

type Service struct {
	doctors      Repository
	appointments AppointmentLister
	patients     PatientGetter
}

func NewService(doctors Repository, appts AppointmentLister, patients PatientGetter) *Service {
	return &Service{doctors: doctors, appointments: appts, patients: patients}
}

// List returns every doctor with the overview statistics.
func (s *Service) List(ctx context.Context) ([]clinicmodels.Doctor, Stats, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, Stats{}, err
	}
	return doctors, ComputeStats(doctors), nil
}

func (s *Service) Get(ctx context.Context, id int64) (clinicmodels.Doctor, error) {
	return s.doctors.Get(ctx, id)
}

// Detail loads the doctor and all appointments in parallel, keeps the
// doctor's own appointments and resolves their patients. Any failure fails
// the whole page.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	var (
		doc   clinicmodels.Doctor
		appts []clinicmodels.Appointment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, err = s.doctors.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		appts, err = s.appointments.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load doctor %d: %w", id, err)
	}

	mine := make([]clinicmodels.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.DoctorID == id {
			mine = append(mine, a)
		}
	}
	patientIDs := refs.Collect(mine, func(a clinicmodels.Appointment) int64 { return a.PatientID })
	patients, err := refs.Resolve(ctx, patientIDs, s.patients.Get)
	if err != nil {
		return nil, fmt.Errorf("doctor %d patients: %w", id, err)
	}

	rows := make([]AppointmentRow, 0, len(mine))
	for _, a := range mine {
		rows = append(rows, AppointmentRow{Appointment: a, Patient: patients[a.PatientID]})
	}
	return &Detail{Doctor: doc, Appointments: rows}, nil
}

func (s *Service) Create(ctx context.Context, d Draft) (clinicmodels.Doctor, error) {
	return s.doctors.Create(ctx, d.Payload())
}

func (s *Service) Update(ctx context.Context, id int64, d Draft) (clinicmodels.Doctor, error) {
	return s.doctors.Update(ctx, id, d.Payload())
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.doctors.Delete(ctx, id)
}
