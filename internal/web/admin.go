package web

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/doctors"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
	"github.com/hms/hms/pkg/pagination"
)

func (h *Handler) AdminDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	principal, _ := auth.PrincipalFromContext(ctx)

	_, totalDoctors, err := h.doctors.List(ctx, doctors.Filter{}, 1, 0)
	if err != nil {
		return err
	}
	_, totalPatients, err := h.patients.List(ctx, principal, 1, 0)
	if err != nil {
		return err
	}
	_, totalAppointments, err := h.scheduling.List(ctx, principal, scheduling.Filter{}, 1, 0)
	if err != nil {
		return err
	}
	booked := scheduling.StatusBooked
	upcoming, _, err := h.scheduling.List(ctx, principal, scheduling.Filter{Status: booked}, 10, 0)
	if err != nil {
		return err
	}

	return h.render(c, "admin_dashboard.html", map[string]interface{}{
		"TotalDoctors":      totalDoctors,
		"TotalPatients":     totalPatients,
		"TotalAppointments": totalAppointments,
		"Upcoming":          upcoming,
	})
}

func (h *Handler) AdminDoctors(c echo.Context) error {
	page := pageParams(c)
	items, total, err := h.doctors.List(c.Request().Context(), doctors.Filter{}, page.PerPage, page.Offset())
	if err != nil {
		return err
	}
	return h.render(c, "admin_doctors.html", map[string]interface{}{
		"Doctors":    items,
		"Pagination": pagination.NewMeta(page, total),
	})
}

func (h *Handler) AdminDoctorForm(c echo.Context) error {
	depts, err := h.departments.List(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "admin_doctor_new.html", map[string]interface{}{
		"Departments": depts,
	})
}

func (h *Handler) AdminDoctorCreate(c echo.Context) error {
	in := doctors.CreateInput{
		Username:      c.FormValue("username"),
		Email:         c.FormValue("email"),
		Password:      c.FormValue("password"),
		LicenseNumber: c.FormValue("license_number"),
	}
	if v := c.FormValue("department_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fail(c, httperr.Validation("invalid department"), "/admin/doctors/new")
		}
		in.DepartmentID = id
	}
	if v := c.FormValue("experience_years"); v != "" {
		years, err := strconv.Atoi(v)
		if err != nil {
			return fail(c, httperr.Validation("invalid experience years"), "/admin/doctors/new")
		}
		in.ExperienceYears = years
	}
	if v := c.FormValue("consultation_fees"); v != "" {
		fees, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fail(c, httperr.Validation("invalid consultation fees"), "/admin/doctors/new")
		}
		in.ConsultationFees = &fees
	}
	if v := c.FormValue("specialization"); v != "" {
		in.Specialization = &v
	}
	if v := c.FormValue("qualification"); v != "" {
		in.Qualification = &v
	}
	if v := c.FormValue("phone"); v != "" {
		in.Phone = &v
	}

	if _, err := h.doctors.Create(c.Request().Context(), in); err != nil {
		return fail(c, err, "/admin/doctors/new")
	}

	setFlash(c, "success", "doctor created")
	return c.Redirect(http.StatusSeeOther, "/admin/doctors")
}

func (h *Handler) AdminPatients(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	page := pageParams(c)
	items, total, err := h.patients.List(c.Request().Context(), principal, page.PerPage, page.Offset())
	if err != nil {
		return err
	}
	return h.render(c, "admin_patients.html", map[string]interface{}{
		"Patients":   items,
		"Pagination": pagination.NewMeta(page, total),
	})
}

func (h *Handler) AdminAppointments(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	var f scheduling.Filter
	f.Status = c.QueryParam("status")

	page := pageParams(c)
	items, total, err := h.scheduling.List(c.Request().Context(), principal, f, page.PerPage, page.Offset())
	if err != nil {
		return err
	}
	return h.render(c, "admin_appointments.html", map[string]interface{}{
		"Appointments": items,
		"Pagination":   pagination.NewMeta(page, total),
	})
}
