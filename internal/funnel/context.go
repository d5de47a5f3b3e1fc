package funnel

import "github.com/consultorios/booking-chat/internal/clinics"

// SlotOption is one offered time slot held in the conversation context.
type SlotOption struct {
	ID         int    `json:"id"`
	DoctorID   int    `json:"doctor_id"`
	Fecha      string `json:"fecha"`
	Hora       string `json:"hora"`
	Disponible bool   `json:"disponible"`
}

// Context is the accumulated state of one booking conversation. It
// round-trips through every request/response pair, so the service itself
// stays stateless; the field names are the wire contract shared with the
// external conversational backend. Fields only accumulate as the funnel
// advances — nothing clears them except an explicit reset.
type Context struct {
	DoctorID            int          `json:"doctor_id,omitempty"`
	DoctorNombre        string       `json:"doctor_nombre,omitempty"`
	Fecha               string       `json:"fecha,omitempty"`
	Hora                string       `json:"hora,omitempty"`
	FechasDisponibles   []string     `json:"fechas_disponibles,omitempty"`
	HorariosDisponibles []SlotOption `json:"horarios_disponibles,omitempty"`
	ReservaConfirmada   bool         `json:"reserva_confirmada,omitempty"`

	// Candidate lists the resolver matches utterances against. The
	// original UI kept these in page state; here they travel with the
	// context because there is no server-side session.
	Especialidades []clinics.Specialty `json:"especialidades,omitempty"`
	Doctores       []clinics.Doctor    `json:"doctores,omitempty"`
}

// HasDoctor reports whether a doctor is pinned.
func (c Context) HasDoctor() bool {
	return c.DoctorID != 0
}

// DoctorByID looks a doctor up in the previously listed candidates.
func (c Context) DoctorByID(id int) (clinics.Doctor, bool) {
	for _, d := range c.Doctores {
		if d.ID == id {
			return d, true
		}
	}
	return clinics.Doctor{}, false
}

// SlotAvailable reports whether hora is in the currently offered set.
func (c Context) SlotAvailable(hora string) bool {
	for _, s := range c.HorariosDisponibles {
		if s.Hora == hora {
			return true
		}
	}
	return false
}

// FindSlotByHour returns the first offered slot starting at the given
// hour of day.
func (c Context) FindSlotByHour(hour int) (SlotOption, bool) {
	for _, s := range c.HorariosDisponibles {
		if h, _, ok := splitClock(s.Hora); ok && h == hour {
			return s, true
		}
	}
	return SlotOption{}, false
}
