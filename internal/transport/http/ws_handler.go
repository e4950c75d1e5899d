package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"strengths-service/internal/app"
	"strengths-service/internal/auth"
	"strengths-service/internal/domain"
	"strengths-service/internal/observability"
	"strengths-service/internal/questionnaire"
	"strengths-service/internal/scoring"
)

// WSHandler drives one questionnaire session per websocket connection.
type WSHandler struct {
	questionnaire *app.QuestionnaireService
	assessment    *app.AssessmentService
	upgrader      websocket.Upgrader
	opts          []questionnaire.Option
}

func NewWSHandler(q *app.QuestionnaireService, assessment *app.AssessmentService, opts ...questionnaire.Option) *WSHandler {
	return &WSHandler{
		questionnaire: q,
		assessment:    assessment,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		opts: opts,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Domain     string `json:"domain"`
	Value      int    `json:"value"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type completedPayload struct {
	Answered int            `json:"answered"`
	Total    int            `json:"total"`
	Report   scoring.Report `json:"report"`
}

type submittedPayload struct {
	TempID  string `json:"tempId,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs a questionnaire session.
// The connection's identity (if any) decides how the finalized answers are submitted.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context())
	identity, authenticated := auth.IdentityFrom(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	// Only this goroutine writes to conn; it stops on closeSignals so send is never closed.
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					logger.Warn("ws write error", "error", err)
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	enqueue := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		case <-writerDone:
		}
	}

	var current atomic.Pointer[questionnaire.Session]
	observer := func(ev questionnaire.Event) {
		enqueue(eventMessage(ev, current.Load()))
	}

	opts := append(append([]questionnaire.Option{}, h.opts...),
		questionnaire.WithObserver(observer),
		questionnaire.WithLogger(logger),
	)
	session, err := h.questionnaire.Start(r.Context(), opts...)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "failed to start questionnaire"}})
		close(closeSignals)
		<-writerDone
		logger.Error("questionnaire start failed", "error", err)
		return
	}
	current.Store(session)
	sessionLog := logger.With("session_id", session.ID(), "authenticated", authenticated)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				enqueue(errorMessage("invalid answer payload"))
				continue
			}
			if err := session.RecordAnswer(payload.QuestionID, payload.Domain, payload.Value); err != nil {
				if isClientStateError(err) {
					sessionLog.Debug("answer ignored", "error", err)
					continue
				}
				enqueue(errorMessage(err.Error()))
			}
		case "skip":
			if err := session.Advance(); err != nil {
				sessionLog.Debug("skip ignored", "error", err)
			}
		case "back":
			if !session.GoBack() {
				sessionLog.Debug("back ignored", "error", questionnaire.ErrEmptyHistory)
			}
		case "submit":
			h.submit(r.Context(), session, identity, authenticated, enqueue, sessionLog)
		default:
			enqueue(errorMessage("unsupported message type"))
		}
	}

	h.questionnaire.End(session.ID())
	close(closeSignals)
	<-writerDone
}

// submit hands the finalized answers to the gateway. The session stays
// completed until a submission succeeds so the client can retry.
func (h *WSHandler) submit(ctx context.Context, session *questionnaire.Session, identity domain.Identity, authenticated bool, enqueue func(outboundMessage[any]), log *slog.Logger) {
	responses, err := session.Responses()
	if err != nil {
		enqueue(errorMessage("questionnaire is not completed"))
		return
	}
	if session.State() == questionnaire.StateClosed {
		enqueue(errorMessage("responses already submitted"))
		return
	}

	var payload submittedPayload
	if authenticated {
		err = h.assessment.Submit(ctx, identity, responses)
		payload.Message = "Responses submitted successfully."
	} else {
		payload.TempID, err = h.assessment.SubmitAnonymous(ctx, responses)
	}
	if err != nil {
		log.Error("questionnaire submit failed", "error", err)
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			enqueue(errorMessage(ve.Message))
			return
		}
		enqueue(errorMessage("Failed to save responses."))
		return
	}

	session.Close()
	log.Info("questionnaire submitted", "responses", len(responses))
	enqueue(outboundMessage[any]{Type: "submitted", Payload: payload})
}

func eventMessage(ev questionnaire.Event, session *questionnaire.Session) outboundMessage[any] {
	switch ev.Type {
	case questionnaire.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{Remaining: ev.Snapshot.Remaining}}
	case questionnaire.EventCompleted:
		report := scoring.BuildReport(nil)
		if session != nil {
			if preview, err := session.Preview(); err == nil {
				report = preview
			}
		}
		return outboundMessage[any]{Type: "completed", Payload: completedPayload{
			Answered: ev.Snapshot.Answered,
			Total:    ev.Snapshot.Total,
			Report:   report,
		}}
	default:
		return outboundMessage[any]{Type: "question", Payload: ev.Snapshot}
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// isClientStateError reports transitions that are silently ignored.
func isClientStateError(err error) bool {
	return errors.Is(err, questionnaire.ErrNotActive) ||
		errors.Is(err, questionnaire.ErrEmptyQueue) ||
		errors.Is(err, questionnaire.ErrEmptyHistory)
}
