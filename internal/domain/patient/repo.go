package patient

import (
	"context"

	"github.com/clinic/clinic-admin/internal/platform/resource"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

type Repository interface {
	List(ctx context.Context) ([]clinicmodels.Patient, error)
	Get(ctx context.Context, id int64) (clinicmodels.Patient, error)
	Create(ctx context.Context, draft any) (clinicmodels.Patient, error)
	Update(ctx context.Context, id int64, draft any) (clinicmodels.Patient, error)
	Delete(ctx context.Context, id int64) error
}

type AppointmentLister interface {
	List(ctx context.Context) ([]clinicmodels.Appointment, error)
}

type DiagnosisLister interface {
	List(ctx context.Context) ([]clinicmodels.Diagnosis, error)
}

type PrescriptionLister interface {
	List(ctx context.Context) ([]clinicmodels.Prescription, error)
}

type DoctorGetter interface {
	Get(ctx context.Context, id int64) (clinicmodels.Doctor, error)
}

// History groups the collections joined on the patient page.
type History struct {
	Appointments  AppointmentLister
	Diagnoses     DiagnosisLister
	Prescriptions PrescriptionLister
	Doctors       DoctorGetter
}

// NewAPIRepository reads and writes /patients on the clinic API.
func NewAPIRepository(c resource.Client) Repository {
	return resource.NewRepo[clinicmodels.Patient](c, clinicmodels.ResourcePatients)
}

// NewAPIHistory wires History to the clinic API.
func NewAPIHistory(c resource.Client) History {
	return History{
		Appointments:  resource.NewRepo[clinicmodels.Appointment](c, clinicmodels.ResourceAppointments),
		Diagnoses:     resource.NewRepo[clinicmodels.Diagnosis](c, clinicmodels.ResourceDiagnoses),
		Prescriptions: resource.NewRepo[clinicmodels.Prescription](c, clinicmodels.ResourcePrescriptions),
		Doctors:       resource.NewRepo[clinicmodels.Doctor](c, clinicmodels.ResourceDoctors),
	}
}
