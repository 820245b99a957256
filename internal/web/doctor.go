package web

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/doctors"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
	"github.com/hms/hms/pkg/pagination"
)

func (h *Handler) DoctorDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	principal, _ := auth.PrincipalFromContext(ctx)

	upcoming, total, err := h.scheduling.List(ctx, principal, scheduling.Filter{Status: scheduling.StatusBooked}, 10, 0)
	if err != nil {
		return err
	}
	profile, err := h.doctors.Get(ctx, principal.ProfileID)
	if err != nil {
		return err
	}

	return h.render(c, "doctor_dashboard.html", map[string]interface{}{
		"Profile":     profile,
		"Upcoming":    upcoming,
		"TotalBooked": total,
	})
}

func (h *Handler) DoctorAppointments(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	var f scheduling.Filter
	f.Status = c.QueryParam("status")

	page := pageParams(c)
	items, total, err := h.scheduling.List(c.Request().Context(), principal, f, page.PerPage, page.Offset())
	if err != nil {
		return err
	}
	return h.render(c, "doctor_appointments.html", map[string]interface{}{
		"Appointments": items,
		"Pagination":   pagination.NewMeta(page, total),
	})
}

func (h *Handler) DoctorPatients(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	page := pageParams(c)
	items, total, err := h.patients.List(c.Request().Context(), principal, page.PerPage, page.Offset())
	if err != nil {
		return err
	}
	return h.render(c, "doctor_patients.html", map[string]interface{}{
		"Patients":   items,
		"Pagination": pagination.NewMeta(page, total),
	})
}

// TreatmentForm shows the recording form for one of the doctor's
// appointments. The id in the path is the appointment id.
func (h *Handler) TreatmentForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, httperr.Validation("invalid appointment id"), "/doctor/appointments")
	}
	return h.render(c, "doctor_treatment.html", map[string]interface{}{
		"AppointmentID": id,
	})
}

func (h *Handler) TreatmentRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, httperr.Validation("invalid appointment id"), "/doctor/appointments")
	}
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	in := clinical.RecordInput{
		Diagnosis:        c.FormValue("diagnosis"),
		FollowUpRequired: c.FormValue("follow_up_required") == "on",
	}
	if v := c.FormValue("icd_code"); v != "" {
		in.ICDCode = &v
	}
	if v := c.FormValue("prescription"); v != "" {
		in.Prescription = &v
	}
	if v := c.FormValue("medicine_details"); v != "" {
		in.MedicineDetails = &v
	}
	if v := c.FormValue("dosage_instructions"); v != "" {
		in.DosageInstructions = &v
	}
	if v := c.FormValue("duration_days"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			in.DurationDays = &days
		}
	}
	if v := c.FormValue("follow_up_days"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			in.FollowUpDays = &days
		}
	}
	if v := c.FormValue("lab_tests_recommended"); v != "" {
		in.LabTestsRecommended = &v
	}
	if v := c.FormValue("notes"); v != "" {
		in.Notes = &v
	}

	if _, err := h.clinical.Record(c.Request().Context(), principal, id, in); err != nil {
		return fail(c, err, "/doctor/treatment/"+id.String())
	}

	setFlash(c, "success", "treatment recorded")
	return c.Redirect(http.StatusSeeOther, "/doctor/appointments")
}

func (h *Handler) DoctorProfile(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	profile, err := h.doctors.Get(c.Request().Context(), principal.ProfileID)
	if err != nil {
		return err
	}
	return h.render(c, "doctor_profile.html", map[string]interface{}{
		"Profile": profile,
	})
}

// DoctorProfileUpdate accepts only the fields doctors may change on
// themselves; fees, license, department and experience stay with admins and
// the service rejects them anyway.
func (h *Handler) DoctorProfileUpdate(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	var in doctors.UpdateInput
	if v := c.FormValue("phone"); v != "" {
		in.Phone = &v
	}
	if v := c.FormValue("qualification"); v != "" {
		in.Qualification = &v
	}
	if v := c.FormValue("specialization"); v != "" {
		in.Specialization = &v
	}
	if v := c.FormValue("bio"); v != "" {
		in.Bio = &v
	}
	if v := c.FormValue("clinic_name"); v != "" {
		in.ClinicName = &v
	}
	if v := c.FormValue("working_days"); v != "" {
		in.WorkingDays = &v
	}
	if v := c.FormValue("is_available"); v != "" {
		avail := v == "on" || v == "true"
		in.IsAvailable = &avail
	}

	if _, err := h.doctors.Update(c.Request().Context(), principal, principal.ProfileID, in); err != nil {
		return fail(c, err, "/doctor/profile")
	}

	setFlash(c, "success", "profile updated")
	return c.Redirect(http.StatusSeeOther, "/doctor/profile")
}
