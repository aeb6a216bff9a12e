package patient

import (
	"strings"
	"time"

	"github.com/clinic/clinic-admin/internal/platform/dates"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

// Draft is the patient form. Every field is required. DateOfBirth is what
// the date input sent, either yyyy-mm-dd or dd/mm/yyyy.
type Draft struct {
	FirstName   string `form:"first_name" json:"first_name" validate:"required"`
	LastName    string `form:"last_name" json:"last_name" validate:"required"`
	Email       string `form:"email" json:"email" validate:"required"`
	Phone       string `form:"phone" json:"phone" validate:"required"`
	DateOfBirth string `form:"date_of_birth" json:"date_of_birth" validate:"required"`
	Address     string `form:"address" json:"address" validate:"required"`
}

// DraftFrom pre-fills the edit form, with the birth date as yyyy-mm-dd in loc.
func DraftFrom(p clinicmodels.Patient, loc *time.Location) Draft {
	return Draft{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		Phone:       p.Phone,
		DateOfBirth: dates.FormatForInput(p.DateOfBirth, loc),
		Address:     p.Address,
	}
}

// Payload trims the draft and sends the birth date as yyyy-mm-dd.
func (d Draft) Payload() Draft {
	return Draft{
		FirstName:   strings.TrimSpace(d.FirstName),
		LastName:    strings.TrimSpace(d.LastName),
		Email:       strings.TrimSpace(d.Email),
		Phone:       strings.TrimSpace(d.Phone),
		DateOfBirth: dates.NormalizeDate(d.DateOfBirth),
		Address:     strings.TrimSpace(d.Address),
	}
}

type Stats struct {
	Total     int
	WithEmail int
}

func ComputeStats(patients []clinicmodels.Patient) Stats {
	s := Stats{Total: len(patients)}
	for _, p := range patients {
		if strings.TrimSpace(p.Email) != "" {
			s.WithEmail++
		}
	}
	return s
}

type AppointmentRow struct {
	Appointment clinicmodels.Appointment
	Doctor      clinicmodels.Doctor
}

type PrescriptionRow struct {
	Prescription clinicmodels.Prescription
	Doctor       clinicmodels.Doctor
}

// Detail is the patient with their history.
type Detail struct {
	Patient       clinicmodels.Patient
	Appointments  []AppointmentRow
	Diagnoses     []clinicmodels.Diagnosis
	Prescriptions []PrescriptionRow
}
