package prescription

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinic/clinic-admin/internal/platform/refs"
	"github.com/clinic/clinic-admin/internal/platform/resource"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

type Repository interface {
	List(ctx context.Context) ([]clinicmodels.Prescription, error)
	Get(ctx context.Context, id int64) (clinicmodels.Prescription, error)
	Create(ctx context.Context, draft any) (clinicmodels.Prescription, error)
	Update(ctx context.Context, id int64, draft any) (clinicmodels.Prescription, error)
	Delete(ctx context.Context, id int64) error
}

// Source is a referenced collection: listed for the form, fetched by id for
// the detail page.
type Source[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
}

// Sources are the collections a prescription points at.
type Sources struct {
	Patients  Source[clinicmodels.Patient]
	Doctors   Source[clinicmodels.Doctor]
	Diagnoses Source[clinicmodels.Diagnosis]
}

func NewAPIRepository(c resource.Client) Repository {
	return resource.NewRepo[clinicmodels.Prescription](c, clinicmodels.ResourcePrescriptions)
}

func NewAPISources(c resource.Client) Sources {
	return Sources{
		Patients:  resource.NewRepo[clinicmodels.Patient](c, clinicmodels.ResourcePatients),
		Doctors:   resource.NewRepo[clinicmodels.Doctor](c, clinicmodels.ResourceDoctors),
		Diagnoses: resource.NewRepo[clinicmodels.Diagnosis](c, clinicmodels.ResourceDiagnoses),
	}
}

type Service struct {
	rxs Repository
	src Sources
	loc *time.Location
	now func() time.Time
}

func NewService(rxs Repository, src Sources, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{rxs: rxs, src: src, loc: loc, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]clinicmodels.Prescription, Stats, error) {
	rxs, err := s.rxs.List(ctx)
	if err != nil {
		return nil, Stats{}, err
	}
	return rxs, ComputeStats(rxs, s.now(), s.loc), nil
}

func (s *Service) Get(ctx context.Context, id int64) (clinicmodels.Prescription, error) {
	return s.rxs.Get(ctx, id)
}

// Detail loads the prescription, then its patient, doctor and diagnosis in
// parallel.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	rx, err := s.rxs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load prescription %d: %w", id, err)
	}

	d := &Detail{Prescription: rx}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Patient, err = refs.One(gctx, rx.PatientID, s.src.Patients.Get)
		return err
	})
	g.Go(func() (err error) {
		d.Doctor, err = refs.One(gctx, rx.DoctorID, s.src.Doctors.Get)
		return err
	})
	g.Go(func() (err error) {
		d.Diagnosis, err = refs.One(gctx, rx.DiagnosisID, s.src.Diagnoses.Get)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("prescription %d references: %w", id, err)
	}
	return d, nil
}

// Options loads the three choice lists of the form in parallel.
func (s *Service) Options(ctx context.Context) (Options, error) {
	var o Options
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		o.Patients, err = s.src.Patients.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		o.Doctors, err = s.src.Doctors.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		o.Diagnoses, err = s.src.Diagnoses.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Options{}, err
	}
	return o, nil
}

func (s *Service) Create(ctx context.Context, d Draft) (clinicmodels.Prescription, error) {
	return s.rxs.Create(ctx, d.Payload())
}

func (s *Service) Update(ctx context.Context, id int64, d Draft) (clinicmodels.Prescription, error) {
	return s.rxs.Update(ctx, id, d.Payload())
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.rxs.Delete(ctx, id)
}
