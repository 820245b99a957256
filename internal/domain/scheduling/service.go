package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/doctors"
	"github.com/hms/hms/internal/domain/patients"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/httperr"
)

// DoctorGateway is the slice of the doctors repository booking needs.
// Satisfied by doctors.Repository.
type DoctorGateway interface {
	GetByID(ctx context.Context, id uuid.UUID) (*doctors.Doctor, error)
	IncrementAppointments(ctx context.Context, id uuid.UUID) error
}

// PatientGateway is the slice of the patients repository booking needs.
// Satisfied by patients.Repository.
type PatientGateway interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patients.Patient, error)
	RecordVisit(ctx context.Context, id uuid.UUID, fee float64, at time.Time) error
}

type Service struct {
	appointments Repository
	doctors      DoctorGateway
	patients     PatientGateway
	tx           db.TxRunner
}

func NewService(appointments Repository, doctors DoctorGateway, patients PatientGateway, tx db.TxRunner) *Service {
	return &Service{appointments: appointments, doctors: doctors, patients: patients, tx: tx}
}

const slotConflictMsg = "time slot is already booked"

type BookInput struct {
	PatientID       uuid.UUID `json:"patient_id" form:"patient_id"`
	DoctorID        uuid.UUID `json:"doctor_id" form:"doctor_id"`
	Date            string    `json:"appointment_date" form:"appointment_date"`
	TimeSlot        string    `json:"appointment_time" form:"appointment_time"`
	AppointmentType string    `json:"appointment_type" form:"appointment_type"`
	Notes           *string   `json:"notes" form:"notes"`
}

// Book creates an appointment. Patients book for themselves, admins for any
// patient; doctors never book. The conflict check, the insert and the
// doctor/patient counter updates run in one transaction, and the partial
// unique index on booked slots closes the check-then-insert race: a unique
// violation surfaces as the same conflict error.
func (s *Service) Book(ctx context.Context, principal auth.Principal, in BookInput) (*Appointment, error) {
	switch {
	case principal.IsPatient():
		if in.PatientID != uuid.Nil && in.PatientID != principal.ProfileID {
			return nil, httperr.Forbidden("patients may only book for themselves")
		}
		in.PatientID = principal.ProfileID
	case principal.IsAdmin():
		if in.PatientID == uuid.Nil {
			return nil, httperr.Validation("patient_id is required")
		}
	default:
		return nil, httperr.Forbidden("doctors cannot book appointments")
	}

	if in.DoctorID == uuid.Nil {
		return nil, httperr.Validation("doctor_id is required")
	}
	if in.TimeSlot == "" {
		return nil, httperr.Validation("appointment_time is required")
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, httperr.Validation("appointment_date must be YYYY-MM-DD")
	}
	if in.AppointmentType == "" {
		in.AppointmentType = TypeRegular
	}
	if !validType(in.AppointmentType) {
		return nil, httperr.Validation("invalid appointment type %q", in.AppointmentType)
	}

	doctor, err := s.doctors.GetByID(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsAvailable {
		return nil, httperr.Conflict("doctor is not accepting appointments")
	}
	if _, err := s.patients.GetByID(ctx, in.PatientID); err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:               uuid.New(),
		PatientID:        in.PatientID,
		DoctorID:         in.DoctorID,
		AppointmentDate:  date,
		AppointmentTime:  in.TimeSlot,
		Status:           StatusBooked,
		Notes:            in.Notes,
		AppointmentType:  in.AppointmentType,
		ConsultationFees: doctor.ConsultationFees,
		PaymentStatus:    PaymentPending,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		taken, err := s.appointments.SlotTaken(ctx, in.DoctorID, date, in.TimeSlot, uuid.Nil)
		if err != nil {
			return httperr.Internal(err)
		}
		if taken {
			return httperr.Conflict(slotConflictMsg)
		}

		if err := s.appointments.Create(ctx, appt); err != nil {
			if db.IsUniqueViolation(err, "") {
				return httperr.Conflict(slotConflictMsg)
			}
			return httperr.Internal(err)
		}
		if err := s.doctors.IncrementAppointments(ctx, in.DoctorID); err != nil {
			return httperr.Internal(err)
		}
		if err := s.patients.RecordVisit(ctx, in.PatientID, doctor.ConsultationFees, date); err != nil {
			return httperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// Get returns an appointment subject to ownership: patients and doctors see
// only their own, admins everything.
func (s *Service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(principal, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) checkOwnership(principal auth.Principal, appt *Appointment) error {
	switch {
	case principal.IsAdmin():
		return nil
	case principal.IsPatient():
		if appt.PatientID != principal.ProfileID {
			return httperr.Forbidden("access to other patients' appointments is not allowed")
		}
	case principal.IsDoctor():
		if appt.DoctorID != principal.ProfileID {
			return httperr.Forbidden("access to other doctors' appointments is not allowed")
		}
	default:
		return httperr.Forbidden("access denied")
	}
	return nil
}

// List applies the principal's scope before user filters: admins see all
// appointments, doctors and patients only their own.
func (s *Service) List(ctx context.Context, principal auth.Principal, f Filter, limit, offset int) ([]*Appointment, int, error) {
	switch {
	case principal.IsAdmin():
	case principal.IsDoctor():
		f.DoctorID = &principal.ProfileID
	case principal.IsPatient():
		f.PatientID = &principal.ProfileID
	default:
		return nil, 0, httperr.Forbidden("access denied")
	}

	if f.Status != "" && !validStatus(f.Status) {
		return nil, 0, httperr.Validation("invalid status %q", f.Status)
	}

	items, total, err := s.appointments.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, httperr.Internal(err)
	}
	return items, total, nil
}

type UpdateInput struct {
	Date            *string `json:"appointment_date" form:"appointment_date"`
	TimeSlot        *string `json:"appointment_time" form:"appointment_time"`
	Status          *string `json:"status" form:"status"`
	Notes           *string `json:"notes" form:"notes"`
	AppointmentType *string `json:"appointment_type" form:"appointment_type"`
	PaymentStatus   *string `json:"payment_status" form:"payment_status"`
	IsConfirmed     *bool   `json:"is_confirmed" form:"is_confirmed"`
}

// Update applies a role-scoped patch. Patients reschedule or cancel their
// own booked appointments; doctors set outcome status, notes and
// confirmation on theirs; admins change anything, payment and type
// included. Appointments in a terminal state are frozen. A reschedule
// re-runs the conflict check, excluding the appointment itself, inside the
// same transaction that writes the change.
func (s *Service) Update(ctx context.Context, principal auth.Principal, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(principal, appt); err != nil {
		return nil, err
	}
	if appt.IsTerminal() {
		return nil, httperr.Conflict("appointment is already " + appt.Status)
	}

	switch {
	case principal.IsAdmin():
	case principal.IsPatient():
		// The only status a patient may set is a cancellation of their
		// own appointment.
		if in.Status != nil && *in.Status != StatusCancelled {
			return nil, httperr.Forbidden("field not updatable by patients")
		}
		if in.PaymentStatus != nil || in.IsConfirmed != nil || in.AppointmentType != nil {
			return nil, httperr.Forbidden("field not updatable by patients")
		}
	case principal.IsDoctor():
		if in.Date != nil || in.TimeSlot != nil {
			return nil, httperr.Forbidden("doctors cannot reschedule appointments")
		}
		if in.PaymentStatus != nil || in.AppointmentType != nil {
			return nil, httperr.Forbidden("field not updatable by doctors")
		}
		// Doctors record the visit outcome; cancelling is the patient's
		// or the admin's call.
		if in.Status != nil && *in.Status == StatusCancelled {
			return nil, httperr.Forbidden("doctors cannot cancel appointments")
		}
	}

	if in.Status != nil {
		if !validStatus(*in.Status) {
			return nil, httperr.Validation("invalid status %q", *in.Status)
		}
		appt.Status = *in.Status
	}
	if in.PaymentStatus != nil {
		if !validPayment(*in.PaymentStatus) {
			return nil, httperr.Validation("invalid payment status %q", *in.PaymentStatus)
		}
		appt.PaymentStatus = *in.PaymentStatus
	}
	if in.AppointmentType != nil {
		if !validType(*in.AppointmentType) {
			return nil, httperr.Validation("invalid appointment type %q", *in.AppointmentType)
		}
		appt.AppointmentType = *in.AppointmentType
	}
	if in.Notes != nil {
		appt.Notes = in.Notes
	}
	if in.IsConfirmed != nil {
		appt.IsConfirmed = *in.IsConfirmed
	}

	rescheduled := false
	if in.Date != nil {
		date, err := time.Parse("2006-01-02", *in.Date)
		if err != nil {
			return nil, httperr.Validation("appointment_date must be YYYY-MM-DD")
		}
		appt.AppointmentDate = date
		rescheduled = true
	}
	if in.TimeSlot != nil {
		if *in.TimeSlot == "" {
			return nil, httperr.Validation("appointment_time cannot be empty")
		}
		appt.AppointmentTime = *in.TimeSlot
		rescheduled = true
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if rescheduled && appt.Status == StatusBooked {
			taken, err := s.appointments.SlotTaken(ctx, appt.DoctorID, appt.AppointmentDate, appt.AppointmentTime, appt.ID)
			if err != nil {
				return httperr.Internal(err)
			}
			if taken {
				return httperr.Conflict(slotConflictMsg)
			}
		}
		if err := s.appointments.Update(ctx, appt); err != nil {
			if db.IsUniqueViolation(err, "") {
				return httperr.Conflict(slotConflictMsg)
			}
			return httperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// Cancel marks an appointment cancelled. A patient's delete is a cancel.
func (s *Service) Cancel(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(principal, appt); err != nil {
		return nil, err
	}
	if appt.IsTerminal() {
		return nil, httperr.Conflict("appointment is already " + appt.Status)
	}

	appt.Status = StatusCancelled
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, httperr.Internal(err)
	}
	return appt, nil
}

// Delete hard-deletes an appointment. Admin only; appointments with a
// recorded treatment are kept for the clinical record (the database enforces
// this with a RESTRICT constraint as well).
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.appointments.GetByID(ctx, id); err != nil {
		return err
	}

	treated, err := s.appointments.HasTreatment(ctx, id)
	if err != nil {
		return httperr.Internal(err)
	}
	if treated {
		return httperr.Conflict("appointment has a recorded treatment")
	}

	if err := s.appointments.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return httperr.Conflict("appointment has a recorded treatment")
		}
		return httperr.Internal(err)
	}
	return nil
}
