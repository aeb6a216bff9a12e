// Package clinicmodels defines the records exchanged with the clinic REST API.
// The console treats them as plain data: it never enforces invariants beyond
// the presence of required fields on forms.
package clinicmodels

import (
	"strings"

	"github.com/clinic/clinic-admin/internal/platform/dates"
)

// Resource names, used both as REST collection paths and as route prefixes.
const (
	ResourceDoctors       = "doctors"
	ResourcePatients      = "patients"
	ResourceAppointments  = "appointments"
	ResourceDiagnoses     = "diagnoses"
	ResourcePrescriptions = "prescriptions"
)

type Doctor struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Specialisation string `json:"specialisation"`
}

func (d Doctor) GetID() int64 { return d.ID }

// FullName returns "First Last".
func (d Doctor) FullName() string { return joinName(d.FirstName, d.LastName) }

type Patient struct {
	ID          int64       `json:"id"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	DateOfBirth dates.Value `json:"date_of_birth"`
	Address     string      `json:"address"`
}

func (p Patient) GetID() int64 { return p.ID }

func (p Patient) FullName() string { return joinName(p.FirstName, p.LastName) }

type Appointment struct {
	ID              int64       `json:"id"`
	AppointmentDate dates.Value `json:"appointment_date"`
	DoctorID        int64       `json:"doctor_id"`
	PatientID       int64       `json:"patient_id"`
	Status          string      `json:"status,omitempty"`
	Reason          string      `json:"reason,omitempty"`
}

func (a Appointment) GetID() int64 { return a.ID }

type Diagnosis struct {
	ID            int64       `json:"id"`
	PatientID     int64       `json:"patient_id"`
	Condition     string      `json:"condition"`
	DiagnosisDate dates.Value `json:"diagnosis_date"`
}

func (d Diagnosis) GetID() int64 { return d.ID }

type Prescription struct {
	ID          int64       `json:"id"`
	PatientID   int64       `json:"patient_id"`
	DoctorID    int64       `json:"doctor_id"`
	DiagnosisID int64       `json:"diagnosis_id"`
	Medication  string      `json:"medication"`
	Dosage      string      `json:"dosage"`
	StartDate   dates.Value `json:"start_date"`
	EndDate     dates.Value `json:"end_date"`
}

func (p Prescription) GetID() int64 { return p.ID }

// User is the profile returned by the login endpoint.
type User struct {
	ID        int64  `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// DisplayName prefers the full name and falls back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := joinName(u.FirstName, u.LastName); name != "" {
		return name
	}
	return u.Email
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
