package appointment

import (
	"context"

	"github.com/clinic/clinic-admin/internal/platform/resource"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

type Repository interface {
	List(ctx context.Context) ([]clinicmodels.Appointment, error)
	Get(ctx context.Context, id int64) (clinicmodels.Appointment, error)
	Create(ctx context.Context, draft any) (clinicmodels.Appointment, error)
	Update(ctx context.Context, id int64, draft any) (clinicmodels.Appointment, error)
	Delete(ctx context.Context, id int64) error
}

type DoctorSource interface {
	List(ctx context.Context) ([]clinicmodels.Doctor, error)
	Get(ctx context.Context, id int64) (clinicmodels.Doctor, error)
}

type PatientSource interface {
	List(ctx context.Context) ([]clinicmodels.Patient, error)
	Get(ctx context.Context, id int64) (clinicmodels.Patient, error)
}

func NewAPIRepository(c resource.Client) Repository {
	return resource.NewRepo[clinicmodels.Appointment](c, clinicmodels.ResourceAppointments)
}
