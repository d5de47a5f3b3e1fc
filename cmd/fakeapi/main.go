// fakeapi is a local stand-in for the remote clinics REST API. It serves
// the same endpoints from in-memory data seeded with gofakeit so the chat
// server and the simulator can run without the real services.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-chi/chi/v5"

	"github.com/consultorios/booking-chat/internal/clinics"
)

type store struct {
	mu           sync.RWMutex
	specialties  []clinics.Specialty
	doctors      []clinics.Doctor
	schedules    []clinics.DoctorSchedule
	appointments []clinics.Appointment
	nextApptID   int
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("fakeapi starting")

	port := getEnv("FAKEAPI_PORT", "8002")
	doctorCount := getInt("FAKEAPI_DOCTORS", 12)

	gofakeit.Seed(time.Now().UnixNano())

	st := seed(doctorCount)
	log.Printf("seeded: %d specialties, %d doctors, %d schedule windows",
		len(st.specialties), len(st.doctors), len(st.schedules))

	r := chi.NewRouter()
	r.Get("/api/specialties/", st.listSpecialties)
	r.Get("/api/doctors/", st.listDoctors)
	r.Get("/api/schedules/", st.listSchedules)
	r.Get("/api/appointments/", st.listAppointments)
	r.Post("/api/appointments/", st.createAppointment)
	r.Get("/api/available-dates/", st.listAvailableDates)

	log.Printf("listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("http server error: %v", err)
	}
}

func seed(doctorCount int) *store {
	st := &store{nextApptID: 1}

	st.specialties = []clinics.Specialty{
		{ID: 1, Name: "Cardiología", Description: "Diagnóstico y tratamiento de enfermedades del corazón"},
		{ID: 2, Name: "Pediatría", Description: "Atención médica de niños y adolescentes"},
		{ID: 3, Name: "Dermatología", Description: "Enfermedades de la piel"},
		{ID: 4, Name: "Neurología", Description: "Trastornos del sistema nervioso"},
		{ID: 5, Name: "Traumatología", Description: "Lesiones del aparato locomotor"},
		{ID: 6, Name: "Medicina General", Description: "Atención primaria y preventiva"},
	}

	scheduleID := 1
	for i := 0; i < doctorCount; i++ {
		doc := clinics.Doctor{
			ID:        i + 1,
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Specialty: st.specialties[i%len(st.specialties)].ID,
			Clinic:    1 + i%3,
			Active:    true,
		}
		st.doctors = append(st.doctors, doc)

		// Two weekday windows per doctor: mornings plus an afternoon
		// block on alternating days. day_of_week is 0=Monday.
		for day := 0; day < 5; day++ {
			if (day+i)%2 == 0 {
				st.schedules = append(st.schedules, clinics.DoctorSchedule{
					ID: scheduleID, Doctor: doc.ID, DayOfWeek: day,
					StartTime: "09:00:00", EndTime: "13:00:00", Active: true,
				})
				scheduleID++
			} else {
				st.schedules = append(st.schedules, clinics.DoctorSchedule{
					ID: scheduleID, Doctor: doc.ID, DayOfWeek: day,
					StartTime: "15:00:00", EndTime: "18:00:00", Active: true,
				})
				scheduleID++
			}
		}
	}

	return st
}

func (st *store) listSpecialties(w http.ResponseWriter, r *http.Request) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	writeJSON(w, http.StatusOK, st.specialties)
}

func (st *store) listDoctors(w http.ResponseWriter, r *http.Request) {
	specialtyID, _ := strconv.Atoi(r.URL.Query().Get("specialty"))

	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]clinics.Doctor, 0, len(st.doctors))
	for _, d := range st.doctors {
		if !d.Active {
			continue
		}
		if specialtyID != 0 && d.Specialty != specialtyID {
			continue
		}
		out = append(out, d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (st *store) listSchedules(w http.ResponseWriter, r *http.Request) {
	doctorID, _ := strconv.Atoi(r.URL.Query().Get("doctor"))

	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]clinics.DoctorSchedule, 0)
	for _, s := range st.schedules {
		if !s.Active {
			continue
		}
		if doctorID != 0 && s.Doctor != doctorID {
			continue
		}
		out = append(out, s)
	}
	writeJSON(w, http.StatusOK, out)
}

func (st *store) listAppointments(w http.ResponseWriter, r *http.Request) {
	doctorID, _ := strconv.Atoi(r.URL.Query().Get("doctor"))
	date := r.URL.Query().Get("date")

	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]clinics.Appointment, 0)
	for _, a := range st.appointments {
		if doctorID != 0 && a.Doctor != doctorID {
			continue
		}
		if date != "" && !hasDatePrefix(a.AppointmentDate, date) {
			continue
		}
		out = append(out, a)
	}
	writeJSON(w, http.StatusOK, out)
}

func (st *store) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req clinics.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Doctor == 0 || req.AppointmentDate == "" {
		http.Error(w, "doctor and appointment_date are required", http.StatusBadRequest)
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	appt := clinics.Appointment{
		ID:              st.nextApptID,
		Clinic:          1,
		Doctor:          req.Doctor,
		Patient:         gofakeit.Number(1, 9000),
		AppointmentDate: req.AppointmentDate,
		Status:          "programada",
		Notes:           req.Notes,
	}
	st.nextApptID++
	st.appointments = append(st.appointments, appt)

	log.Printf("appointment created: id=%d doctor=%d at=%s", appt.ID, appt.Doctor, appt.AppointmentDate)
	writeJSON(w, http.StatusCreated, appt)
}

// listAvailableDates reports the next 30 days on which the doctor has at
// least one schedule window.
func (st *store) listAvailableDates(w http.ResponseWriter, r *http.Request) {
	doctorID, _ := strconv.Atoi(r.URL.Query().Get("doctor"))

	st.mu.RLock()
	defer st.mu.RUnlock()

	workdays := make(map[int]bool)
	for _, s := range st.schedules {
		if s.Active && s.Doctor == doctorID {
			workdays[s.DayOfWeek] = true
		}
	}

	out := make([]clinics.AvailableDate, 0)
	id := 1
	day := time.Now()
	for i := 0; i < 30 && len(out) < 10; i++ {
		day = day.AddDate(0, 0, 1)
		raw := int(day.Weekday())
		adjusted := raw - 1
		if raw == 0 {
			adjusted = 6
		}
		if workdays[adjusted] {
			out = append(out, clinics.AvailableDate{
				ID:        id,
				Doctor:    doctorID,
				Date:      day.Format("2006-01-02"),
				Available: true,
			})
			id++
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func hasDatePrefix(timestamp, date string) bool {
	return len(timestamp) >= len(date) && timestamp[:len(date)] == date
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid integer for %s=%q, using default %d\n", key, v, def)
	}
	return def
}
