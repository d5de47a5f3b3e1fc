package funnel

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/consultorios/booking-chat/internal/clinics"
	"github.com/consultorios/booking-chat/pkg/logging"
)

// Reply is one bot turn: the message plus the suggestion chips that keep
// the user with a next action. Every handled path, including every error
// path, produces both.
type Reply struct {
	Text        string
	Suggestions []string
}

// Greeting is the opening bot turn, also emitted after a reset.
func Greeting() Reply {
	return Reply{
		Text:        "Hola, soy tu asistente virtual. ¿En qué puedo ayudarte hoy?",
		Suggestions: []string{"Reservar una cita", "Ver especialidades", "Buscar doctor"},
	}
}

// ServiceUnavailableReply is the turn shown when neither the funnel nor
// the fallback backend could answer.
func ServiceUnavailableReply() Reply {
	return Reply{
		Text:        "Lo siento, no puedo procesar tu solicitud en este momento porque los servicios no están disponibles. Por favor, verifica tu conexión o intenta más tarde.",
		Suggestions: []string{"Reintentar", "Ver ayuda"},
	}
}

// Resolver maps one user utterance onto the booking funnel. Matching is
// keyword-based and runs through an ordered rule table; the order is a
// hard contract because later rules share vocabulary with earlier ones
// ("horario", "fecha"), so the first satisfied rule wins.
type Resolver struct {
	clinics *clinics.Client
	logger  *logging.Logger
	rules   []rule
}

type rule struct {
	name string
	fn   func(ctx context.Context, msg string, conv Context) (Reply, Context, bool)
}

func NewResolver(client *clinics.Client, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Resolver{clinics: client, logger: logger}
	r.rules = []rule{
		{"reset", r.tryReset},
		{"specialties", r.trySpecialties},
		{"doctors", r.tryDoctors},
		{"doctor_dates", r.tryDoctorDates},
		{"date", r.tryDate},
		{"time", r.tryTime},
	}
	return r
}

// Resolve evaluates the rule table against one utterance. It returns the
// bot reply, the advanced context, and whether the funnel handled the
// input; unhandled input is delegated to the fallback backend by the
// caller. The context threads through every rule, so lookups cached by a
// non-matching rule still round-trip to the client.
func (r *Resolver) Resolve(ctx context.Context, message string, conv Context) (Reply, Context, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))

	for _, rl := range r.rules {
		reply, next, ok := rl.fn(ctx, msg, conv)
		conv = next
		if ok {
			r.logger.Info("funnel: rule matched", "rule", rl.name)
			return reply, conv, true
		}
	}

	r.logger.Debug("funnel: no rule matched")
	return Reply{}, conv, false
}

func (r *Resolver) tryReset(_ context.Context, msg string, conv Context) (Reply, Context, bool) {
	if !strings.Contains(msg, "reiniciar") && !strings.Contains(msg, "empezar de nuevo") {
		return Reply{}, conv, false
	}
	return Greeting(), Context{}, true
}

func (r *Resolver) trySpecialties(ctx context.Context, msg string, conv Context) (Reply, Context, bool) {
	if !strings.Contains(msg, "especialidad") {
		return Reply{}, conv, false
	}

	// Always the full list from the API, never a cached subset.
	specs, err := r.clinics.ListSpecialties(ctx)
	if err != nil {
		r.logger.Error("funnel: list specialties", "error", err)
		return Reply{
			Text:        "Lo siento, no se pudieron cargar las especialidades. Por favor, verifica tu conexión e intenta nuevamente.",
			Suggestions: []string{"Reintentar"},
		}, conv, true
	}

	if len(specs) == 0 {
		return Reply{
			Text:        "Lo siento, no hay especialidades disponibles en este momento. Por favor, intenta más tarde.",
			Suggestions: []string{"Ver todos los doctores"},
		}, conv, true
	}

	conv.Especialidades = specs

	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}

	var suggestions []string
	for _, s := range specs[:minInt(4, len(specs))] {
		suggestions = append(suggestions, "Doctores en "+s.Name)
	}
	suggestions = append(suggestions, "Ver todos los doctores")

	return Reply{
		Text:        fmt.Sprintf("Las especialidades disponibles son: %s. ¿En cuál te gustaría reservar una cita?", strings.Join(names, ", ")),
		Suggestions: suggestions,
	}, conv, true
}

func (r *Resolver) tryDoctors(ctx context.Context, msg string, conv Context) (Reply, Context, bool) {
	// The original UI prefetched the specialty list when the chat
	// opened; load it lazily here so specialty names can match even on
	// the first utterance.
	if len(conv.Especialidades) == 0 {
		if specs, err := r.clinics.ListSpecialties(ctx); err == nil {
			conv.Especialidades = specs
		}
	}

	specialty, scoped := matchSpecialty(msg, conv.Especialidades)
	if !scoped && !strings.Contains(msg, "doctor") && !strings.Contains(msg, "médico") {
		return Reply{}, conv, false
	}

	var doctors []clinics.Doctor
	if scoped {
		var err error
		doctors, err = r.clinics.ListDoctors(ctx, specialty.ID)
		if err != nil {
			r.logger.Error("funnel: list doctors by specialty", "specialty_id", specialty.ID, "error", err)
			// Scoped fetch failed: retry unscoped and filter locally.
			all, allErr := r.clinics.ListDoctors(ctx, 0)
			if allErr != nil || len(all) == 0 {
				return Reply{
					Text:        "Lo siento, no se pudieron obtener los doctores para esta especialidad. Por favor, intenta nuevamente.",
					Suggestions: []string{"Ver especialidades"},
				}, conv, true
			}
			for _, d := range all {
				if d.Specialty == specialty.ID {
					doctors = append(doctors, d)
				}
			}
		}
		if len(doctors) == 0 {
			return Reply{
				Text:        fmt.Sprintf("Lo siento, no hay doctores disponibles para la especialidad de %s en este momento.", specialty.Name),
				Suggestions: []string{"Ver otras especialidades"},
			}, conv, true
		}
	} else {
		var err error
		doctors, err = r.clinics.ListDoctors(ctx, 0)
		if err != nil {
			r.logger.Error("funnel: list doctors", "error", err)
			return Reply{
				Text:        "Lo siento, hubo un error al obtener la información de los doctores. Por favor, intenta nuevamente.",
				Suggestions: []string{"Ver especialidades"},
			}, conv, true
		}
		if len(doctors) == 0 {
			return Reply{
				Text:        "Lo siento, no hay doctores disponibles en este momento.",
				Suggestions: []string{"Ver especialidades"},
			}, conv, true
		}
	}

	conv.Doctores = doctors

	names := make([]string, 0, len(doctors))
	for _, d := range doctors {
		names = append(names, d.FirstName+" "+d.LastName)
	}

	var suggestions []string
	for _, d := range doctors[:minInt(3, len(doctors))] {
		suggestions = append(suggestions, "Horarios para Dr. "+d.LastName)
	}
	suggestions = append(suggestions, "Ver especialidades")

	text := fmt.Sprintf("Doctores disponibles: %s. ¿Con cuál te gustaría agendar?", strings.Join(names, ", "))
	if scoped {
		text = fmt.Sprintf("Doctores disponibles en %s: %s. ¿Con cuál te gustaría agendar?", specialty.Name, strings.Join(names, ", "))
	}

	return Reply{Text: text, Suggestions: suggestions}, conv, true
}

func (r *Resolver) tryDoctorDates(ctx context.Context, msg string, conv Context) (Reply, Context, bool) {
	doctor, found := matchDoctor(msg, conv.Doctores)
	if !found {
		if !strings.Contains(msg, "horario") || !conv.HasDoctor() {
			return Reply{}, conv, false
		}
		doctor, found = conv.DoctorByID(conv.DoctorID)
		if !found {
			return Reply{}, conv, false
		}
	}

	fullName := doctor.FirstName + " " + doctor.LastName

	dates, err := r.clinics.ListAvailableDates(ctx, doctor.ID)
	if err != nil {
		r.logger.Error("funnel: list available dates", "doctor_id", doctor.ID, "error", err)
		return Reply{
			Text:        "Lo siento, hubo un error al obtener los horarios disponibles. Por favor, intenta nuevamente.",
			Suggestions: []string{"Ver doctores", "Ver especialidades"},
		}, conv, true
	}

	if len(dates) == 0 {
		return Reply{
			Text:        fmt.Sprintf("Lo siento, no hay fechas disponibles para %s en este momento.", fullName),
			Suggestions: []string{"Ver otro doctor", "Ver especialidades"},
		}, conv, true
	}

	conv.DoctorID = doctor.ID
	conv.DoctorNombre = fullName
	conv.FechasDisponibles = make([]string, 0, len(dates))
	for _, d := range dates {
		conv.FechasDisponibles = append(conv.FechasDisponibles, d.Date)
	}

	formatted := make([]string, 0, len(conv.FechasDisponibles))
	for _, d := range conv.FechasDisponibles {
		formatted = append(formatted, formatLongDate(d))
	}

	var suggestions []string
	for _, d := range conv.FechasDisponibles[:minInt(3, len(conv.FechasDisponibles))] {
		suggestions = append(suggestions, "Cita el "+formatShortDate(d))
	}
	suggestions = append(suggestions, "Ver otro doctor")

	return Reply{
		Text: fmt.Sprintf("¿Qué día te gustaría agendar tu cita con %s? Tenemos disponibilidad en los siguientes días: %s",
			fullName, strings.Join(formatted, ", ")),
		Suggestions: suggestions,
	}, conv, true
}

var (
	isoDateRe   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	dayNumberRe = regexp.MustCompile(`\b([1-9]|[12][0-9]|3[01])\b`)
	clockRe     = regexp.MustCompile(`\b([01]?[0-9]|2[0-3]):[0-5][0-9]\b`)
	hourRe      = regexp.MustCompile(`\b([0-9]|1[0-9]|2[0-3])\b`)
)

func (r *Resolver) tryDate(ctx context.Context, msg string, conv Context) (Reply, Context, bool) {
	selected := isoDateRe.FindString(msg)

	if selected == "" {
		dateish := strings.Contains(msg, "cita el") || strings.Contains(msg, "día") || strings.Contains(msg, "fecha")
		if !dateish || !conv.HasDoctor() || len(conv.FechasDisponibles) == 0 {
			return Reply{}, conv, false
		}

		selected = matchAvailableDate(msg, conv.FechasDisponibles)
		if selected == "" && strings.Contains(msg, "cita el") {
			// "Cita el ..." with nothing recognizable: offer the first open day.
			selected = conv.FechasDisponibles[0]
		}
		if selected == "" {
			return Reply{}, conv, false
		}
	}

	if !conv.HasDoctor() {
		return Reply{}, conv, false
	}

	slots, err := r.clinics.GetAvailableSlots(ctx, conv.DoctorID, selected)
	if err != nil {
		r.logger.Error("funnel: get available slots", "doctor_id", conv.DoctorID, "date", selected, "error", err)
		return Reply{
			Text:        "Lo siento, hubo un error al obtener los horarios para la fecha seleccionada. Por favor, intenta nuevamente.",
			Suggestions: []string{"Ver fechas disponibles", "Ver doctores"},
		}, conv, true
	}

	if len(slots) == 0 {
		return Reply{
			Text:        fmt.Sprintf("Lo siento, no hay horarios disponibles para la fecha %s. Por favor, elige otra fecha.", selected),
			Suggestions: []string{"Ver otras fechas"},
		}, conv, true
	}

	conv.Fecha = selected
	conv.HorariosDisponibles = make([]SlotOption, 0, len(slots))
	for i, hora := range slots {
		conv.HorariosDisponibles = append(conv.HorariosDisponibles, SlotOption{
			ID:         i + 1,
			DoctorID:   conv.DoctorID,
			Fecha:      selected,
			Hora:       hora,
			Disponible: true,
		})
	}

	var suggestions []string
	for _, hora := range slots[:minInt(5, len(slots))] {
		suggestions = append(suggestions, "Cita a las "+hora)
	}
	suggestions = append(suggestions, "Ver otra fecha")

	return Reply{
		Text: fmt.Sprintf("Para el %s con %s, tenemos los siguientes horarios disponibles: %s. ¿Qué horario prefieres?",
			formatLongDate(selected), conv.DoctorNombre, strings.Join(slots, ", ")),
		Suggestions: suggestions,
	}, conv, true
}

func (r *Resolver) tryTime(ctx context.Context, msg string, conv Context) (Reply, Context, bool) {
	selected := clockRe.FindString(msg)

	if selected == "" {
		timeish := strings.Contains(msg, "cita a las") || strings.Contains(msg, "horario") || strings.Contains(msg, " a las ")
		if !timeish || len(conv.HorariosDisponibles) == 0 {
			return Reply{}, conv, false
		}

		if m := hourRe.FindString(msg); m != "" {
			hour, _ := strconv.Atoi(m)
			if slot, ok := conv.FindSlotByHour(hour); ok {
				selected = slot.Hora
			}
		}
		if selected == "" && strings.Contains(msg, "cita a las") {
			selected = conv.HorariosDisponibles[0].Hora
		}
		if selected == "" {
			return Reply{}, conv, false
		}
	}

	if !conv.HasDoctor() || conv.Fecha == "" {
		return Reply{}, conv, false
	}

	// A time outside the offered set is rejected and the funnel does not
	// advance: hora stays unset.
	if !conv.SlotAvailable(selected) {
		return Reply{
			Text:        fmt.Sprintf("Lo siento, el horario %s no está disponible. Por favor, elige otro de los horarios disponibles.", selected),
			Suggestions: []string{"Ver horarios disponibles"},
		}, conv, true
	}

	conv.Hora = selected

	// No separate confirm step: a valid time books immediately.
	created, err := r.clinics.CreateAppointment(ctx, clinics.CreateAppointmentRequest{
		Doctor:          conv.DoctorID,
		AppointmentDate: fmt.Sprintf("%sT%s:00", conv.Fecha, selected),
		PatientName:     "Usuario del Chat",
		PatientEmail:    "usuario@example.com",
		PatientPhone:    "123456789",
		Notes:           "Reservado a través del chatbot",
	})
	if err != nil {
		r.logger.Error("funnel: create appointment", "doctor_id", conv.DoctorID, "date", conv.Fecha, "time", selected, "error", err)
		return Reply{
			Text:        "Lo siento, no se pudo completar la reserva. Por favor, intenta nuevamente o elige otro horario.",
			Suggestions: []string{"Ver horarios disponibles", "Ver otro doctor"},
		}, conv, true
	}

	conv.ReservaConfirmada = true
	r.logger.Info("funnel: appointment booked", "appointment_id", created.ID, "doctor_id", conv.DoctorID, "date", conv.Fecha, "time", selected)

	return Reply{
		Text: fmt.Sprintf("¡Perfecto! Tu cita ha sido reservada con %s para el %s a las %s. Te enviaremos un recordatorio 24 horas antes. ¿Puedo ayudarte con algo más?",
			conv.DoctorNombre, formatLongDate(conv.Fecha), selected),
		Suggestions: []string{"Ver mis citas", "Reservar otra cita", "No, gracias"},
	}, conv, true
}

// matchSpecialty finds a specialty mentioned in the utterance by plain
// substring, with one named exception: "pediatría"/"pediatria" also
// matches against specialty names and descriptions containing "pediatr".
func matchSpecialty(msg string, specs []clinics.Specialty) (clinics.Specialty, bool) {
	for _, s := range specs {
		if s.Name != "" && strings.Contains(msg, strings.ToLower(s.Name)) {
			return s, true
		}
	}

	if strings.Contains(msg, "pediatría") || strings.Contains(msg, "pediatria") {
		for _, s := range specs {
			if strings.Contains(strings.ToLower(s.Name), "pediatr") ||
				strings.Contains(strings.ToLower(s.Description), "pediatr") {
				return s, true
			}
		}
	}

	return clinics.Specialty{}, false
}

// matchDoctor finds a previously listed doctor mentioned by first or last
// name; "dr./dra." prefixes and phrases like "horarios para ..." need no
// special handling because the bare name substring covers them.
func matchDoctor(msg string, doctors []clinics.Doctor) (clinics.Doctor, bool) {
	for _, d := range doctors {
		first := strings.ToLower(d.FirstName)
		last := strings.ToLower(d.LastName)
		if (first != "" && strings.Contains(msg, first)) || (last != "" && strings.Contains(msg, last)) {
			return d, true
		}
	}
	return clinics.Doctor{}, false
}

// matchAvailableDate matches the utterance against each open date's month
// name, weekday name, or day-of-month number; the first date that
// matches wins.
func matchAvailableDate(msg string, dates []string) string {
	var monthTok, dayTok string
	for _, m := range monthNames {
		if strings.Contains(msg, m) {
			monthTok = m
			break
		}
	}
	for _, d := range dayNames {
		if strings.Contains(msg, d) {
			dayTok = d
			break
		}
	}

	dayNum := 0
	if m := dayNumberRe.FindString(msg); m != "" {
		dayNum, _ = strconv.Atoi(m)
	}

	for _, date := range dates {
		t, ok := parseISODate(date)
		if !ok {
			continue
		}
		if (monthTok != "" && monthName(t) == monthTok) ||
			(dayTok != "" && weekdayName(t) == dayTok) ||
			(dayNum != 0 && t.Day() == dayNum) {
			return date
		}
	}

	return ""
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
