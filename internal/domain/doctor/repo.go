package doctor

import (
	"context"

	"github.com/clinic/clinic-admin/internal/platform/resource"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

type Repository interface {
	List(ctx context.Context) ([]clinicmodels.Doctor, error)
	Get(ctx context.Context, id int64) (clinicmodels.Doctor, error)
	Create(ctx context.Context, draft any) (clinicmodels.Doctor, error)
	Update(ctx context.Context, id int64, draft any) (clinicmodels.Doctor, error)
	Delete(ctx context.Context, id int64) error
}

// AppointmentLister is the appointment collection the detail page joins.
type AppointmentLister interface {
	List(ctx context.Context) ([]clinicmodels.Appointment, error)
}

// PatientGetter resolves the patients of the doctor's appointments.
type PatientGetter interface {
	Get(ctx context.Context, id int64) (clinicmodels.Patient, error)
}

// NewAPIRepository reads and writes /doctors on the clinic API.
func NewAPIRepository(c resource.Client) Repository {
	return resource.NewRepo[clinicmodels.Doctor](c, clinicmodels.ResourceDoctors)
}
