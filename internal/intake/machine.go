package intake

import "strings"

// DoneToken ends the evidence phase (case-insensitive, exact match).
const DoneToken = "done"

const (
	EvidencePrompt   = `Thank you, that covers the report details. Please attach any evidence (screenshots, logs, emails) using the upload button, then type "done" to submit the report.`
	EvidenceReminder = `Please upload evidence files or type "done" to submit the report.`
)

// RoleAssistant tags every outbound message.
const RoleAssistant = "assistant"

// Message is one outbound chat line.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Result is what a single event produced.
//
// Handled is false when the event was not an intake event at all (for example an
// answer while the session is inactive); the driver then treats it as ordinary
// conversation. Report is set only by the completion transition.
type Result struct {
	Handled  bool
	Messages []Message
	Report   *Report
}

// Machine is the intake reducer. It holds no session data: every transition
// receives the State it acts on, so one Machine serves any number of sessions.
type Machine struct {
	schema *Schema
	intn   IntN
}

type Option func(*Machine)

// WithIntN injects the acknowledgement picker.
func WithIntN(fn IntN) Option {
	return func(m *Machine) { m.intn = fn }
}

func NewMachine(schema *Schema, opts ...Option) *Machine {
	if schema == nil {
		schema = DefaultSchema()
	}
	m := &Machine{schema: schema}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Machine) Schema() *Schema { return m.schema }

// Begin discards whatever st held and starts a new intake at step 0.
func (m *Machine) Begin(st *State) Result {
	st.reset()
	st.Phase = PhaseQuestioning
	st.Answers = make(map[string]string, m.schema.Count())
	f, ok := m.schema.FieldAt(0)
	if !ok {
		return m.enterEvidence(st, nil)
	}
	return Result{Handled: true, Messages: []Message{say(f.Prompt)}}
}

// SubmitAnswer feeds free text into the machine.
func (m *Machine) SubmitAnswer(st *State, text string) Result {
	switch st.Phase {
	case PhaseQuestioning:
		return m.answer(st, text)
	case PhaseCollectingEvidence:
		if !strings.EqualFold(strings.TrimSpace(text), DoneToken) {
			return Result{Handled: true, Messages: []Message{say(EvidenceReminder)}}
		}
		return m.complete(st)
	default:
		return Result{}
	}
}

// SubmitChoice is the quick-choice channel; it is a no-op outside Questioning.
func (m *Machine) SubmitChoice(st *State, value string) Result {
	if st.Phase != PhaseQuestioning {
		return Result{}
	}
	return m.answer(st, value)
}

// SubmitAttachments records files as evidence when the evidence phase is open.
// Outside it the files are conversational only and Handled is false.
func (m *Machine) SubmitAttachments(st *State, files []Attachment) Result {
	if !Correlate(st, files) {
		return Result{}
	}
	return Result{Handled: true}
}

// CurrentField returns the field awaiting an answer, if any.
func (m *Machine) CurrentField(st *State) (Field, bool) {
	if st.Phase != PhaseQuestioning {
		return Field{}, false
	}
	return m.schema.FieldAt(st.Step)
}

func (m *Machine) answer(st *State, text string) Result {
	f, ok := m.schema.FieldAt(st.Step)
	if !ok {
		// schema/index mismatch: fall through to evidence instead of failing
		return m.enterEvidence(st, nil)
	}
	v := Validate(f, text)
	if !v.Accepted {
		return Result{Handled: true, Messages: []Message{say(v.Reason)}}
	}
	if st.Answers == nil {
		st.Answers = make(map[string]string, m.schema.Count())
	}
	st.Answers[f.Key] = text
	st.Step++

	msgs := []Message{say(m.acknowledge(f, strings.TrimSpace(text)))}
	next, ok := m.schema.FieldAt(st.Step)
	if !ok {
		return m.enterEvidence(st, msgs)
	}
	msgs = append(msgs, say(next.Prompt))
	return Result{Handled: true, Messages: msgs}
}

func (m *Machine) enterEvidence(st *State, msgs []Message) Result {
	st.Phase = PhaseCollectingEvidence
	st.Evidence = []EvidenceRecord{}
	return Result{Handled: true, Messages: append(msgs, say(EvidencePrompt))}
}

func (m *Machine) complete(st *State) Result {
	report := Assemble(m.schema, st)
	body, err := report.Indented()
	if err != nil {
		// only strings and ints reach the encoder
		body = "{}"
	}
	st.reset()
	st.Phase = PhaseComplete
	return Result{Handled: true, Messages: []Message{say(body)}, Report: report}
}

func say(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}
