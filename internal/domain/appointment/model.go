package appointment

import (
	"strings"
	"time"

	"github.com/clinic/clinic-admin/internal/platform/dates"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

// Draft is the booking form. Status and reason are optional.
type Draft struct {
	AppointmentDate string `form:"appointment_date" json:"appointment_date" validate:"required"`
	DoctorID        int64  `form:"doctor_id" json:"doctor_id" validate:"required"`
	PatientID       int64  `form:"patient_id" json:"patient_id" validate:"required"`
	Status          string `form:"status" json:"status"`
	Reason          string `form:"reason" json:"reason"`
}

func DraftFrom(a clinicmodels.Appointment, loc *time.Location) Draft {
	return Draft{
		AppointmentDate: dates.FormatForInput(a.AppointmentDate, loc),
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		Status:          a.Status,
		Reason:          a.Reason,
	}
}

func (d Draft) Payload() Draft {
	return Draft{
		AppointmentDate: dates.NormalizeDate(d.AppointmentDate),
		DoctorID:        d.DoctorID,
		PatientID:       d.PatientID,
		Status:          strings.TrimSpace(d.Status),
		Reason:          strings.TrimSpace(d.Reason),
	}
}

type Stats struct {
	Total    int
	Upcoming int
}

// ComputeStats counts appointments falling today or later in loc.
func ComputeStats(appts []clinicmodels.Appointment, now time.Time, loc *time.Location) Stats {
	s := Stats{Total: len(appts)}
	for _, a := range appts {
		if dates.SameDayOrAfter(a.AppointmentDate, now, loc) {
			s.Upcoming++
		}
	}
	return s
}

type Detail struct {
	Appointment clinicmodels.Appointment
	Doctor      clinicmodels.Doctor
	Patient     clinicmodels.Patient
}

// Options are the choices offered by the booking form.
type Options struct {
	Doctors  []clinicmodels.Doctor
	Patients []clinicmodels.Patient
}
