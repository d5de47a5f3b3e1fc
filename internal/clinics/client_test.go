package clinics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSpecialties(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/specialties/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Cardiología","description":"Corazón"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	specs, err := c.ListSpecialties(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "Cardiología", specs[0].Name)
}

func TestListSpecialties_EmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	specs, err := c.ListSpecialties(context.Background())
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestListSpecialties_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.ListSpecialties(context.Background())
	assert.ErrorIs(t, err, ErrAPIUnavailable)
}

func TestListSpecialties_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL, time.Second)
	_, err := c.ListSpecialties(context.Background())
	assert.ErrorIs(t, err, ErrAPIUnavailable)
}

func TestListDoctors_SpecialtyScoping(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":3,"first_name":"Juan","last_name":"Pérez","specialty":1,"clinic":1,"active":true}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)

	docs, err := c.ListDoctors(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "specialty=1", gotQuery)
	require.Len(t, docs, 1)
	assert.Equal(t, "Pérez", docs[0].LastName)

	_, err = c.ListDoctors(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "", gotQuery, "unscoped listing must not send a specialty filter")
}

func TestListSchedules_RequestsActiveOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/schedules/", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("doctor"))
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.ListSchedules(context.Background(), 7)
	require.NoError(t, err)
}

func TestCreateAppointment(t *testing.T) {
	var got CreateAppointmentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/appointments/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"clinic":1,"doctor":3,"patient":9,"appointment_date":"2025-06-02T09:00:00","status":"programada"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	created, err := c.CreateAppointment(context.Background(), CreateAppointmentRequest{
		Doctor:          3,
		AppointmentDate: "2025-06-02T09:00:00",
		PatientName:     "Usuario del Chat",
		PatientEmail:    "usuario@example.com",
		PatientPhone:    "123456789",
		Notes:           "Reservado a través del chatbot",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, created.ID)
	assert.Equal(t, 3, got.Doctor)
	assert.Equal(t, "2025-06-02T09:00:00", got.AppointmentDate)
	assert.Equal(t, "Usuario del Chat", got.PatientName)
}

func TestCreateAppointment_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conflict", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.CreateAppointment(context.Background(), CreateAppointmentRequest{Doctor: 1})
	assert.ErrorIs(t, err, ErrAPIUnavailable)
}
