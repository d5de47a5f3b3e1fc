package clinics

// Types mirror the remote clinics REST API (Django REST Framework,
// snake_case JSON). They are read-only projections except Appointment,
// which is created through CreateAppointment.

type Specialty struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Doctor struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Specialty int    `json:"specialty"`
	Clinic    int    `json:"clinic"`
	Active    bool   `json:"active"`
}

// DoctorSchedule is a recurring weekly availability window.
// DayOfWeek uses the backend convention: 0=Monday .. 6=Sunday.
// StartTime/EndTime are clock strings, "HH:MM" or "HH:MM:SS".
type DoctorSchedule struct {
	ID        int    `json:"id"`
	Doctor    int    `json:"doctor"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Active    bool   `json:"active"`
}

// Appointment is a booked slot. AppointmentDate is the full timestamp
// ("2025-06-02T09:30:00"); the availability deriver only extracts the
// clock portion from it.
type Appointment struct {
	ID              int    `json:"id"`
	Clinic          int    `json:"clinic"`
	Doctor          int    `json:"doctor"`
	Patient         int    `json:"patient"`
	AppointmentDate string `json:"appointment_date"`
	Status          string `json:"status,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// AvailableDate is a calendar date the backend reports as open for a
// doctor. It is produced server-side, never derived locally.
type AvailableDate struct {
	ID        int    `json:"id,omitempty"`
	Doctor    int    `json:"doctor"`
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

// CreateAppointmentRequest is the POST /api/appointments/ body.
type CreateAppointmentRequest struct {
	Doctor          int    `json:"doctor"`
	AppointmentDate string `json:"appointment_date"`
	PatientName     string `json:"patient_name"`
	PatientEmail    string `json:"patient_email"`
	PatientPhone    string `json:"patient_phone"`
	Notes           string `json:"notes"`
}
