package prescription

import (
	"strings"
	"time"

	"github.com/clinic/clinic-admin/internal/platform/dates"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

// Draft is the prescription form. Every field is required.
type Draft struct {
	PatientID   int64  `form:"patient_id" json:"patient_id" validate:"required"`
	DoctorID    int64  `form:"doctor_id" json:"doctor_id" validate:"required"`
	DiagnosisID int64  `form:"diagnosis_id" json:"diagnosis_id" validate:"required"`
	Medication  string `form:"medication" json:"medication" validate:"required"`
	Dosage      string `form:"dosage" json:"dosage" validate:"required"`
	StartDate   string `form:"start_date" json:"start_date" validate:"required"`
	EndDate     string `form:"end_date" json:"end_date" validate:"required"`
}

func DraftFrom(p clinicmodels.Prescription, loc *time.Location) Draft {
	return Draft{
		PatientID:   p.PatientID,
		DoctorID:    p.DoctorID,
		DiagnosisID: p.DiagnosisID,
		Medication:  p.Medication,
		Dosage:      p.Dosage,
		StartDate:   dates.FormatForInput(p.StartDate, loc),
		EndDate:     dates.FormatForInput(p.EndDate, loc),
	}
}

func (d Draft) Payload() Draft {
	return Draft{
		PatientID:   d.PatientID,
		DoctorID:    d.DoctorID,
		DiagnosisID: d.DiagnosisID,
		Medication:  strings.TrimSpace(d.Medication),
		Dosage:      strings.TrimSpace(d.Dosage),
		StartDate:   dates.NormalizeDate(d.StartDate),
		EndDate:     dates.NormalizeDate(d.EndDate),
	}
}

type Stats struct {
	Total  int
	Active int
}

// ComputeStats counts prescriptions whose end date is today or later in loc.
func ComputeStats(rxs []clinicmodels.Prescription, now time.Time, loc *time.Location) Stats {
	s := Stats{Total: len(rxs)}
	for _, rx := range rxs {
		if dates.SameDayOrAfter(rx.EndDate, now, loc) {
			s.Active++
		}
	}
	return s
}

type Detail struct {
	Prescription clinicmodels.Prescription
	Patient      clinicmodels.Patient
	Doctor       clinicmodels.Doctor
	Diagnosis    clinicmodels.Diagnosis
}

type Options struct {
	Patients  []clinicmodels.Patient
	Doctors   []clinicmodels.Doctor
	Diagnoses []clinicmodels.Diagnosis
}
