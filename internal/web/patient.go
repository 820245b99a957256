package web

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/doctors"
	"github.com/hms/hms/internal/domain/patients"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
	"github.com/hms/hms/pkg/pagination"
)

func (h *Handler) PatientDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	principal, _ := auth.PrincipalFromContext(ctx)

	upcoming, _, err := h.scheduling.List(ctx, principal, scheduling.Filter{Status: scheduling.StatusBooked}, 10, 0)
	if err != nil {
		return err
	}
	profile, err := h.patients.Get(ctx, principal, principal.ProfileID)
	if err != nil {
		return err
	}

	return h.render(c, "patient_dashboard.html", map[string]interface{}{
		"Profile":  profile,
		"Upcoming": upcoming,
	})
}

func (h *Handler) PatientDoctors(c echo.Context) error {
	var f doctors.Filter
	if v := c.QueryParam("department_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.DepartmentID = &id
		}
	}
	f.Specialization = c.QueryParam("specialization")
	available := true
	f.Available = &available

	page := pageParams(c)
	items, total, err := h.doctors.List(c.Request().Context(), f, page.PerPage, page.Offset())
	if err != nil {
		return err
	}
	depts, err := h.departments.List(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "patient_doctors.html", map[string]interface{}{
		"Doctors":     items,
		"Departments": depts,
		"Pagination":  pagination.NewMeta(page, total),
	})
}

func (h *Handler) BookingForm(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorID"))
	if err != nil {
		return fail(c, httperr.Validation("invalid doctor id"), "/patient/doctors")
	}
	doctor, err := h.doctors.Get(c.Request().Context(), doctorID)
	if err != nil {
		return fail(c, err, "/patient/doctors")
	}
	return h.render(c, "patient_book.html", map[string]interface{}{
		"Doctor": doctor,
	})
}

func (h *Handler) Book(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorID"))
	if err != nil {
		return fail(c, httperr.Validation("invalid doctor id"), "/patient/doctors")
	}
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	in := scheduling.BookInput{
		DoctorID:        doctorID,
		Date:            c.FormValue("appointment_date"),
		TimeSlot:        c.FormValue("appointment_time"),
		AppointmentType: c.FormValue("appointment_type"),
	}
	if v := c.FormValue("notes"); v != "" {
		in.Notes = &v
	}

	if _, err := h.scheduling.Book(c.Request().Context(), principal, in); err != nil {
		return fail(c, err, "/patient/book/"+doctorID.String())
	}

	setFlash(c, "success", "appointment booked")
	return c.Redirect(http.StatusSeeOther, "/patient/appointments")
}

func (h *Handler) PatientAppointments(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	var f scheduling.Filter
	f.Status = c.QueryParam("status")

	page := pageParams(c)
	items, total, err := h.scheduling.List(c.Request().Context(), principal, f, page.PerPage, page.Offset())
	if err != nil {
		return err
	}
	return h.render(c, "patient_appointments.html", map[string]interface{}{
		"Appointments": items,
		"Pagination":   pagination.NewMeta(page, total),
	})
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, httperr.Validation("invalid appointment id"), "/patient/appointments")
	}
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	if _, err := h.scheduling.Cancel(c.Request().Context(), principal, id); err != nil {
		return fail(c, err, "/patient/appointments")
	}

	setFlash(c, "success", "appointment cancelled")
	return c.Redirect(http.StatusSeeOther, "/patient/appointments")
}

func (h *Handler) PatientHistory(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	page := pageParams(c)
	items, total, err := h.clinical.List(c.Request().Context(), principal, clinical.Filter{}, page.PerPage, page.Offset())
	if err != nil {
		return err
	}
	return h.render(c, "patient_history.html", map[string]interface{}{
		"Treatments": items,
		"Pagination": pagination.NewMeta(page, total),
	})
}

func (h *Handler) PatientProfile(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	profile, err := h.patients.Get(c.Request().Context(), principal, principal.ProfileID)
	if err != nil {
		return err
	}
	return h.render(c, "patient_profile.html", map[string]interface{}{
		"Profile": profile,
	})
}

func (h *Handler) PatientProfileUpdate(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	var in patients.UpdateInput
	if v := c.FormValue("phone"); v != "" {
		in.Phone = &v
	}
	if v := c.FormValue("date_of_birth"); v != "" {
		in.DateOfBirth = parseDatePtr(v)
	}
	if v := c.FormValue("gender"); v != "" {
		in.Gender = &v
	}
	if v := c.FormValue("blood_group"); v != "" {
		in.BloodGroup = &v
	}
	if v := c.FormValue("address"); v != "" {
		in.Address = &v
	}
	if v := c.FormValue("city"); v != "" {
		in.City = &v
	}
	if v := c.FormValue("medical_history"); v != "" {
		in.MedicalHistory = &v
	}
	if v := c.FormValue("allergies"); v != "" {
		in.Allergies = &v
	}
	if v := c.FormValue("insurance_provider"); v != "" {
		in.InsuranceProvider = &v
	}
	if v := c.FormValue("emergency_contact"); v != "" {
		in.EmergencyContact = &v
	}

	if _, err := h.patients.Update(c.Request().Context(), principal, principal.ProfileID, in); err != nil {
		return fail(c, err, "/patient/profile")
	}

	setFlash(c, "success", "profile updated")
	return c.Redirect(http.StatusSeeOther, "/patient/profile")
}
