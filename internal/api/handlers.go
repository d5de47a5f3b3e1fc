package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/consultorios/booking-chat/internal/fallback"
	"github.com/consultorios/booking-chat/internal/funnel"
	"github.com/consultorios/booking-chat/pkg/logging"
)

// Fallback is the external conversational backend the funnel delegates
// unhandled utterances to.
type Fallback interface {
	Send(ctx context.Context, mensaje string, conv funnel.Context) (*fallback.Response, error)
}

func chatHandler(resolver *funnel.Resolver, fb Fallback, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		msg := strings.TrimSpace(req.Mensaje)
		if msg == "" {
			writeError(w, http.StatusBadRequest, "empty_message", "mensaje is required")
			return
		}

		var conv funnel.Context
		if req.Contexto != nil {
			conv = *req.Contexto
		}

		reply, next, handled := resolver.Resolve(r.Context(), msg, conv)
		if handled {
			writeJSON(w, http.StatusOK, ChatResponse{
				Respuesta:           reply.Text,
				Sugerencias:         reply.Suggestions,
				ContextoActualizado: next,
			})
			return
		}

		if fb == nil {
			// No backend configured: still answer with a next action.
			reply = funnel.ServiceUnavailableReply()
			writeJSON(w, http.StatusOK, ChatResponse{
				Respuesta:           reply.Text,
				Sugerencias:         reply.Suggestions,
				ContextoActualizado: next,
			})
			return
		}

		resp, err := fb.Send(r.Context(), msg, next)
		if err != nil {
			logger.Error("chat: fallback backend", "error", err, "request_id", GetRequestID(r.Context()))
			reply = funnel.ServiceUnavailableReply()
			writeJSON(w, http.StatusOK, ChatResponse{
				Respuesta:           reply.Text,
				Sugerencias:         reply.Suggestions,
				ContextoActualizado: next,
			})
			return
		}

		out := ChatResponse{
			Respuesta:           resp.Respuesta,
			Sugerencias:         resp.Sugerencias,
			ContextoActualizado: next,
		}
		if resp.ContextoActualizado != nil {
			out.ContextoActualizado = *resp.ContextoActualizado
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// greetingHandler returns the opening bot turn with an empty context so
// widgets can render the first message without hardcoding it.
func greetingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g := funnel.Greeting()
		writeJSON(w, http.StatusOK, ChatResponse{
			Respuesta:           g.Text,
			Sugerencias:         g.Suggestions,
			ContextoActualizado: funnel.Context{},
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
