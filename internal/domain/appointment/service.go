package appointment

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinic/clinic-admin/internal/platform/refs"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

type Service struct {
	appts    Repository
	doctors  DoctorSource
	patients PatientSource
	loc      *time.Location
	now      func() time.Time
}

// NewService returns a Service counting upcoming appointments in loc.
func NewService(appts Repository, doctors DoctorSource, patients PatientSource, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{appts: appts, doctors: doctors, patients: patients, loc: loc, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]clinicmodels.Appointment, Stats, error) {
	appts, err := s.appts.List(ctx)
	if err != nil {
		return nil, Stats{}, err
	}
	return appts, ComputeStats(appts, s.now(), s.loc), nil
}

func (s *Service) Get(ctx context.Context, id int64) (clinicmodels.Appointment, error) {
	return s.appts.Get(ctx, id)
}

// Detail loads the appointment, then its doctor and patient in parallel.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	a, err := s.appts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment %d: %w", id, err)
	}

	d := &Detail{Appointment: a}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Doctor, err = refs.One(gctx, a.DoctorID, s.doctors.Get)
		return err
	})
	g.Go(func() (err error) {
		d.Patient, err = refs.One(gctx, a.PatientID, s.patients.Get)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("appointment %d references: %w", id, err)
	}
	return d, nil
}

// Options loads the doctors and patients the form offers.
func (s *Service) Options(ctx context.Context) (Options, error) {
	var o Options
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		o.Doctors, err = s.doctors.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		o.Patients, err = s.patients.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Options{}, err
	}
	return o, nil
}

func (s *Service) Create(ctx context.Context, d Draft) (clinicmodels.Appointment, error) {
	return s.appts.Create(ctx, d.Payload())
}

func (s *Service) Update(ctx context.Context, id int64, d Draft) (clinicmodels.Appointment, error) {
	return s.appts.Update(ctx, id, d.Payload())
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.appts.Delete(ctx, id)
}
