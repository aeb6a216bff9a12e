package doctor

import (
	"strings"

	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

// Draft is the doctor form. Every field is required.
type Draft struct {
	FirstName      string `form:"first_name" json:"first_name" validate:"required"`
	LastName       string `form:"last_name" json:"last_name" validate:"required"`
	Email          string `form:"email" json:"email" validate:"required"`
	Phone          string `form:"phone" json:"phone" validate:"required"`
	Specialisation string `form:"specialisation" json:"specialisation" validate:"required"`
}

// DraftFrom pre-fills the edit form.
func DraftFrom(d clinicmodels.Doctor) Draft {
	return Draft{
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Email:          d.Email,
		Phone:          d.Phone,
		Specialisation: d.Specialisation,
	}
}

// Payload is the request body sent to the API.
func (d Draft) Payload() Draft {
	return Draft{
		FirstName:      strings.TrimSpace(d.FirstName),
		LastName:       strings.TrimSpace(d.LastName),
		Email:          strings.TrimSpace(d.Email),
		Phone:          strings.TrimSpace(d.Phone),
		Specialisation: strings.TrimSpace(d.Specialisation),
	}
}

// Stats is the overview shown above the doctor list.
type Stats struct {
	Total           int
	Specialisations int
}

// ComputeStats counts doctors and distinct specialisations.
func ComputeStats(doctors []clinicmodels.Doctor) Stats {
	specs := make(map[string]struct{})
	for _, d := range doctors {
		specs[d.Specialisation] = struct{}{}
	}
	return Stats{Total: len(doctors), Specialisations: len(specs)}
}

// AppointmentRow is one of the doctor's appointments with its patient.
type AppointmentRow struct {
	Appointment clinicmodels.Appointment
	Patient     clinicmodels.Patient
}

// Detail is everything the doctor page shows.
type Detail struct {
	Doctor       clinicmodels.Doctor
	Appointments []AppointmentRow
}
