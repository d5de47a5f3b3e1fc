package api

import "github.com/consultorios/booking-chat/internal/funnel"

// ChatRequest is one user turn. Contexto carries the whole conversation
// state; a missing or null context starts a fresh session.
type ChatRequest struct {
	Mensaje  string          `json:"mensaje"`
	Contexto *funnel.Context `json:"contexto,omitempty"`
}

// ChatResponse is one bot turn. ContextoActualizado must be sent back
// verbatim with the next request.
type ChatResponse struct {
	Respuesta           string         `json:"respuesta"`
	Sugerencias         []string       `json:"sugerencias,omitempty"`
	ContextoActualizado funnel.Context `json:"contexto_actualizado"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
