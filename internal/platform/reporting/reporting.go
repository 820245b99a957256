package reporting

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
	"github.com/hms/hms/pkg/envelope"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"-"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "doctors-by-department",
		Name:        "Doctors by Department",
		Description: "Number of doctors assigned to each department",
		SQL: `SELECT dep.name AS department, COUNT(d.id) AS total
			FROM departments dep
			LEFT JOIN doctors d ON d.department_id = dep.id
			GROUP BY dep.name ORDER BY total DESC`,
	},
	{
		ID:          "appointments-by-status",
		Name:        "Appointments by Status",
		Description: "Number of appointments in each status",
		SQL: `SELECT status, COUNT(*) AS total FROM appointments
			GROUP BY status ORDER BY total DESC`,
	},
	{
		ID:          "revenue-by-payment-status",
		Name:        "Revenue by Payment Status",
		Description: "Consultation fees grouped by payment status",
		SQL: `SELECT payment_status, COUNT(*) AS appointments,
			COALESCE(SUM(consultation_fees), 0) AS fees
			FROM appointments GROUP BY payment_status ORDER BY fees DESC`,
	},
	{
		ID:          "treatments-by-status",
		Name:        "Treatments by Status",
		Description: "Number of treatment records in each status",
		SQL: `SELECT status, COUNT(*) AS total FROM treatments
			GROUP BY status ORDER BY total DESC`,
	},
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers        int            `json:"total_users"`
	TotalDoctors      int            `json:"total_doctors"`
	TotalPatients     int            `json:"total_patients"`
	TotalDepartments  int            `json:"total_departments"`
	TotalAppointments int            `json:"total_appointments"`
	TotalTreatments   int            `json:"total_treatments"`
	Appointments      map[string]int `json:"appointments_by_status"`
}

// Handler provides the admin statistics and reporting endpoints.
type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleAdmin))
	g.GET("/stats", h.GetStats)
	g.GET("/reports/measures", h.ListMeasures)
	g.GET("/reports/measures/:id", h.EvaluateMeasure)
}

// GetStats returns entity totals and the appointment status breakdown.
func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	stats := Stats{Appointments: map[string]int{}}

	counts := []struct {
		sql  string
		dest *int
	}{
		{`SELECT COUNT(*) FROM users WHERE is_active`, &stats.TotalUsers},
		{`SELECT COUNT(*) FROM doctors d JOIN users u ON u.id = d.user_id WHERE u.is_active`, &stats.TotalDoctors},
		{`SELECT COUNT(*) FROM patients p JOIN users u ON u.id = p.user_id WHERE u.is_active`, &stats.TotalPatients},
		{`SELECT COUNT(*) FROM departments`, &stats.TotalDepartments},
		{`SELECT COUNT(*) FROM appointments`, &stats.TotalAppointments},
		{`SELECT COUNT(*) FROM treatments`, &stats.TotalTreatments},
	}
	for _, q := range counts {
		if err := h.pool.QueryRow(ctx, q.sql).Scan(q.dest); err != nil {
			return httperr.Internal(err)
		}
	}

	rows, err := h.pool.Query(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return httperr.Internal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return httperr.Internal(err)
		}
		stats.Appointments[status] = n
	}
	if err := rows.Err(); err != nil {
		return httperr.Internal(err)
	}

	return envelope.Data(c, stats)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return envelope.Data(c, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return httperr.NotFound("measure")
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return httperr.Internal(err)
	}

	return envelope.Data(c, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
	})
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return results, rows.Err()
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
