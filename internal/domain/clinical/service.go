package clinical

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/httperr"
)

// AppointmentGateway is the slice of the appointments repository treatment
// recording needs. Satisfied by scheduling.Repository.
type AppointmentGateway interface {
	GetByID(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	Update(ctx context.Context, a *scheduling.Appointment) error
}

type Service struct {
	treatments   Repository
	appointments AppointmentGateway
	tx           db.TxRunner
}

func NewService(treatments Repository, appointments AppointmentGateway, tx db.TxRunner) *Service {
	return &Service{treatments: treatments, appointments: appointments, tx: tx}
}

type RecordInput struct {
	Diagnosis           string  `json:"diagnosis" form:"diagnosis"`
	ICDCode             *string `json:"icd_code" form:"icd_code"`
	Prescription        *string `json:"prescription" form:"prescription"`
	MedicineDetails     *string `json:"medicine_details" form:"medicine_details"`
	DosageInstructions  *string `json:"dosage_instructions" form:"dosage_instructions"`
	DurationDays        *int    `json:"duration_days" form:"duration_days"`
	FollowUpRequired    bool    `json:"follow_up_required" form:"follow_up_required"`
	FollowUpDays        *int    `json:"follow_up_days" form:"follow_up_days"`
	LabTestsRecommended *string `json:"lab_tests_recommended" form:"lab_tests_recommended"`
	Notes               *string `json:"notes" form:"notes"`
	ConsultationDuration *int   `json:"consultation_duration" form:"consultation_duration"`
}

// Record writes the treatment for a booked appointment and marks the
// appointment completed, in one transaction. Only the appointment's own
// doctor records; one treatment per appointment, which the unique constraint
// on appointment_id also enforces.
func (s *Service) Record(ctx context.Context, principal auth.Principal, appointmentID uuid.UUID, in RecordInput) (*Treatment, error) {
	if !principal.IsDoctor() {
		return nil, httperr.Forbidden("only doctors record treatments")
	}

	in.Diagnosis = strings.TrimSpace(in.Diagnosis)
	if in.Diagnosis == "" {
		return nil, httperr.Validation("diagnosis is required")
	}

	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != principal.ProfileID {
		return nil, httperr.Forbidden("appointment belongs to another doctor")
	}
	if appt.Status != scheduling.StatusBooked {
		return nil, httperr.Conflict("appointment is " + appt.Status)
	}

	t := &Treatment{
		ID:                   uuid.New(),
		AppointmentID:        appt.ID,
		PatientID:            appt.PatientID,
		DoctorID:             appt.DoctorID,
		Diagnosis:            in.Diagnosis,
		ICDCode:              in.ICDCode,
		Prescription:         in.Prescription,
		MedicineDetails:      in.MedicineDetails,
		DosageInstructions:   in.DosageInstructions,
		DurationDays:         in.DurationDays,
		FollowUpRequired:     in.FollowUpRequired,
		FollowUpDays:         in.FollowUpDays,
		LabTestsRecommended:  in.LabTestsRecommended,
		Notes:                in.Notes,
		ConsultationDuration: in.ConsultationDuration,
		Status:               StatusActive,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		exists, err := s.treatments.ExistsForAppointment(ctx, appt.ID)
		if err != nil {
			return httperr.Internal(err)
		}
		if exists {
			return httperr.Conflict("appointment already has a treatment")
		}

		if err := s.treatments.Create(ctx, t); err != nil {
			if db.IsUniqueViolation(err, "") {
				return httperr.Conflict("appointment already has a treatment")
			}
			return httperr.Internal(err)
		}

		appt.Status = scheduling.StatusCompleted
		if err := s.appointments.Update(ctx, appt); err != nil {
			return httperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a treatment subject to ownership: patients and doctors see
// only their own records, admins everything.
func (s *Service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Treatment, error) {
	t, err := s.treatments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(principal, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetByAppointment returns the treatment recorded against an appointment.
func (s *Service) GetByAppointment(ctx context.Context, principal auth.Principal, appointmentID uuid.UUID) (*Treatment, error) {
	t, err := s.treatments.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(principal, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) checkOwnership(principal auth.Principal, t *Treatment) error {
	switch {
	case principal.IsAdmin():
		return nil
	case principal.IsPatient():
		if t.PatientID != principal.ProfileID {
			return httperr.Forbidden("access to other patients' treatments is not allowed")
		}
	case principal.IsDoctor():
		if t.DoctorID != principal.ProfileID {
			return httperr.Forbidden("access to other doctors' treatments is not allowed")
		}
	default:
		return httperr.Forbidden("access denied")
	}
	return nil
}

// List applies the principal's scope before user filters.
func (s *Service) List(ctx context.Context, principal auth.Principal, f Filter, limit, offset int) ([]*Treatment, int, error) {
	switch {
	case principal.IsAdmin():
	case principal.IsDoctor():
		f.DoctorID = &principal.ProfileID
	case principal.IsPatient():
		f.PatientID = &principal.ProfileID
	default:
		return nil, 0, httperr.Forbidden("access denied")
	}

	if f.Status != "" && !validTreatmentStatus(f.Status) {
		return nil, 0, httperr.Validation("invalid status %q", f.Status)
	}

	items, total, err := s.treatments.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, httperr.Internal(err)
	}
	return items, total, nil
}

type UpdateInput struct {
	Diagnosis           *string `json:"diagnosis" form:"diagnosis"`
	ICDCode             *string `json:"icd_code" form:"icd_code"`
	Prescription        *string `json:"prescription" form:"prescription"`
	MedicineDetails     *string `json:"medicine_details" form:"medicine_details"`
	DosageInstructions  *string `json:"dosage_instructions" form:"dosage_instructions"`
	DurationDays        *int    `json:"duration_days" form:"duration_days"`
	FollowUpRequired    *bool   `json:"follow_up_required" form:"follow_up_required"`
	FollowUpDays        *int    `json:"follow_up_days" form:"follow_up_days"`
	LabTestsRecommended *string `json:"lab_tests_recommended" form:"lab_tests_recommended"`
	Notes               *string `json:"notes" form:"notes"`
	Status              *string `json:"status" form:"status"`
}

// Update amends a treatment record. The recording doctor and admins only;
// patients read but never write clinical records.
func (s *Service) Update(ctx context.Context, principal auth.Principal, id uuid.UUID, in UpdateInput) (*Treatment, error) {
	t, err := s.treatments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case principal.IsAdmin():
	case principal.IsDoctor():
		if t.DoctorID != principal.ProfileID {
			return nil, httperr.Forbidden("treatment belongs to another doctor")
		}
	default:
		return nil, httperr.Forbidden("patients cannot modify treatments")
	}

	if in.Diagnosis != nil {
		d := strings.TrimSpace(*in.Diagnosis)
		if d == "" {
			return nil, httperr.Validation("diagnosis cannot be empty")
		}
		t.Diagnosis = d
	}
	if in.Status != nil {
		if !validTreatmentStatus(*in.Status) {
			return nil, httperr.Validation("invalid status %q", *in.Status)
		}
		t.Status = *in.Status
	}
	if in.ICDCode != nil {
		t.ICDCode = in.ICDCode
	}
	if in.Prescription != nil {
		t.Prescription = in.Prescription
	}
	if in.MedicineDetails != nil {
		t.MedicineDetails = in.MedicineDetails
	}
	if in.DosageInstructions != nil {
		t.DosageInstructions = in.DosageInstructions
	}
	if in.DurationDays != nil {
		t.DurationDays = in.DurationDays
	}
	if in.FollowUpRequired != nil {
		t.FollowUpRequired = *in.FollowUpRequired
	}
	if in.FollowUpDays != nil {
		t.FollowUpDays = in.FollowUpDays
	}
	if in.LabTestsRecommended != nil {
		t.LabTestsRecommended = in.LabTestsRecommended
	}
	if in.Notes != nil {
		t.Notes = in.Notes
	}

	if err := s.treatments.Update(ctx, t); err != nil {
		return nil, httperr.Internal(err)
	}
	return t, nil
}
