package intake

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoFieldSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema([]Field{
		{Key: "name", Prompt: "What is your name?", MinLength: 3, MaxLength: 50, Required: true, Identity: true},
		{Key: "role", Prompt: "What is your role?", MinLength: 5, MaxLength: 40, Required: true, Picker: PickerRole},
	})
	require.NoError(t, err)
	return s
}

func texts(r Result) []string {
	out := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		out = append(out, m.Text)
	}
	return out
}

// validAnswer produces an answer accepted by f.
func validAnswer(f Field) string {
	switch f.Format {
	case FormatDate:
		return "2024-03-15"
	case FormatTime:
		return "14:30"
	}
	n := f.MinLength
	if n < 1 {
		n = 1
	}
	return strings.Repeat("x", n)
}

func answerAll(t *testing.T, m *Machine, st *State) {
	t.Helper()
	for st.Phase == PhaseQuestioning {
		f, ok := m.CurrentField(st)
		require.True(t, ok)
		r := m.SubmitAnswer(st, validAnswer(f))
		require.True(t, r.Handled)
	}
}

func TestEndToEnd(t *testing.T) {
	m := NewMachine(twoFieldSchema(t), WithIntN(func(int) int { return 0 }))
	var st State

	r := m.Begin(&st)
	assert.Equal(t, []string{"What is your name?"}, texts(r))
	assert.Equal(t, PhaseQuestioning, st.Phase)

	r = m.SubmitAnswer(&st, "Al")
	assert.True(t, r.Handled)
	assert.Equal(t, []string{"too short, minimum 3 characters."}, texts(r))
	assert.Equal(t, 0, st.Step)
	assert.Empty(t, st.Answers)

	r = m.SubmitAnswer(&st, "Alice")
	assert.Equal(t, []string{"Nice to meet you, Alice.", "What is your role?"}, texts(r))
	assert.Equal(t, "Alice", st.Answers["name"])
	assert.Equal(t, 1, st.Step)

	r = m.SubmitAnswer(&st, "Analyst")
	assert.Equal(t, []string{Acknowledgements[0], EvidencePrompt}, texts(r))
	assert.Equal(t, PhaseCollectingEvidence, st.Phase)
	assert.Contains(t, EvidencePrompt, `"done"`)

	r = m.SubmitAttachments(&st, []Attachment{{Name: "log.txt", Size: 120, MimeType: "text/plain"}})
	assert.True(t, r.Handled)
	assert.Empty(t, r.Messages)
	assert.Equal(t, []EvidenceRecord{{Name: "log.txt", Size: 120}}, st.Evidence)

	r = m.SubmitAnswer(&st, "done")
	require.Len(t, r.Messages, 1)
	require.NotNil(t, r.Report)
	assert.Equal(t, PhaseComplete, st.Phase)

	compact, err := r.Report.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Alice","role":"Analyst","evidence":[{"name":"log.txt","size":120}]}`, string(compact))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.Messages[0].Text), &got))
	assert.Equal(t, map[string]any{
		"name":     "Alice",
		"role":     "Analyst",
		"evidence": []any{map[string]any{"name": "log.txt", "size": float64(120)}},
	}, got)

	// complete behaves like inactive
	r = m.SubmitAnswer(&st, "hello")
	assert.False(t, r.Handled)
	r = m.SubmitChoice(&st, "Analyst")
	assert.False(t, r.Handled)
}

func TestEveryFieldRejectsShortAndAdvancesOnValid(t *testing.T) {
	m := NewMachine(DefaultSchema())
	var st State
	m.Begin(&st)
	for i := 0; i < m.Schema().Count(); i++ {
		f, ok := m.CurrentField(&st)
		require.True(t, ok)
		require.Equal(t, i, st.Step)

		if f.MinLength > 1 {
			r := m.SubmitAnswer(&st, strings.Repeat("x", f.MinLength-1))
			require.Len(t, r.Messages, 1)
			assert.Contains(t, r.Messages[0].Text, "too short")
			assert.Equal(t, i, st.Step, f.Key)
		}

		ans := validAnswer(f)
		m.SubmitAnswer(&st, ans)
		assert.Equal(t, i+1, st.Step, f.Key)
		assert.Equal(t, ans, st.Answers[f.Key])
		// answers hold exactly the fields before the current step
		assert.Len(t, st.Answers, i+1)
	}
	assert.Equal(t, PhaseCollectingEvidence, st.Phase)
}

func TestAcknowledgementMembership(t *testing.T) {
	m := NewMachine(DefaultSchema())
	var st State
	m.Begin(&st)
	m.SubmitAnswer(&st, "Alice Smith")
	r := m.SubmitAnswer(&st, "Analyst")
	require.Len(t, r.Messages, 2)
	assert.Contains(t, Acknowledgements, r.Messages[0].Text)
	for _, msg := range r.Messages {
		assert.Equal(t, RoleAssistant, msg.Role)
	}
}

func TestIdentityAckTrimsWhitespace(t *testing.T) {
	m := NewMachine(twoFieldSchema(t))
	var st State
	m.Begin(&st)
	r := m.SubmitAnswer(&st, " Bob ")
	assert.Equal(t, "Nice to meet you, Bob.", r.Messages[0].Text)
	assert.Equal(t, " Bob ", st.Answers["name"])
}

func TestSentinel(t *testing.T) {
	for _, in := range []string{"done", "DONE", "Done", "dOnE"} {
		m := NewMachine(twoFieldSchema(t))
		var st State
		m.Begin(&st)
		answerAll(t, m, &st)
		r := m.SubmitAnswer(&st, in)
		assert.Equal(t, PhaseComplete, st.Phase, in)
		assert.NotNil(t, r.Report, in)
	}

	m := NewMachine(twoFieldSchema(t))
	var st State
	m.Begin(&st)
	answerAll(t, m, &st)
	for _, in := range []string{"Done please", "not done", "d o n e", ""} {
		r := m.SubmitAnswer(&st, in)
		assert.Equal(t, []string{EvidenceReminder}, texts(r), in)
		assert.Nil(t, r.Report)
		assert.Equal(t, PhaseCollectingEvidence, st.Phase)
	}
}

func TestAttachmentsOutsideEvidencePhase(t *testing.T) {
	m := NewMachine(twoFieldSchema(t))
	var st State
	files := []Attachment{{Name: "a.png", Size: 10}}

	r := m.SubmitAttachments(&st, files)
	assert.False(t, r.Handled)
	assert.Empty(t, st.Evidence)

	m.Begin(&st)
	r = m.SubmitAttachments(&st, files)
	assert.False(t, r.Handled)
	assert.Empty(t, st.Evidence)
	assert.Equal(t, 0, st.Step)
}

func TestAttachmentsKeepOrder(t *testing.T) {
	m := NewMachine(twoFieldSchema(t))
	var st State
	m.Begin(&st)
	answerAll(t, m, &st)
	m.SubmitAttachments(&st, []Attachment{{Name: "a", Size: 1}, {Name: "b", Size: 2}})
	m.SubmitAttachments(&st, nil)
	m.SubmitAttachments(&st, []Attachment{{Name: "c", Size: 3}})
	assert.Equal(t, []EvidenceRecord{{"a", 1}, {"b", 2}, {"c", 3}}, st.Evidence)
	assert.Equal(t, PhaseCollectingEvidence, st.Phase)
}

func TestChoiceGuard(t *testing.T) {
	m := NewMachine(twoFieldSchema(t))
	var st State

	r := m.SubmitChoice(&st, "Analyst")
	assert.False(t, r.Handled)
	assert.Empty(t, r.Messages)
	assert.Equal(t, PhaseInactive, st.Phase)

	m.Begin(&st)
	m.SubmitChoice(&st, "Alice")
	r = m.SubmitChoice(&st, "Analyst")
	assert.True(t, r.Handled)
	assert.Equal(t, "Analyst", st.Answers["role"])
	assert.Equal(t, PhaseCollectingEvidence, st.Phase)

	r = m.SubmitChoice(&st, "done")
	assert.False(t, r.Handled)
	assert.Equal(t, PhaseCollectingEvidence, st.Phase)
}

func TestBeginDiscardsProgress(t *testing.T) {
	m := NewMachine(DefaultSchema())
	var st State
	m.Begin(&st)
	m.SubmitAnswer(&st, "Alice Smith")
	m.SubmitAnswer(&st, "Analyst")
	m.SubmitAnswer(&st, "2024-03-15")
	require.Equal(t, 3, st.Step)

	r := m.Begin(&st)
	assert.Equal(t, 0, st.Step)
	assert.Empty(t, st.Answers)
	assert.Empty(t, st.Evidence)
	assert.Equal(t, PhaseQuestioning, st.Phase)
	f, _ := m.Schema().FieldAt(0)
	assert.Equal(t, []string{f.Prompt}, texts(r))
}

func TestBeginFromEvidencePhaseDropsEvidence(t *testing.T) {
	m := NewMachine(twoFieldSchema(t))
	var st State
	m.Begin(&st)
	answerAll(t, m, &st)
	m.SubmitAttachments(&st, []Attachment{{Name: "x", Size: 1}})
	m.Begin(&st)
	assert.Empty(t, st.Evidence)
	assert.Equal(t, PhaseQuestioning, st.Phase)
}

func TestStepBeyondSchemaFallsBackToEvidence(t *testing.T) {
	m := NewMachine(twoFieldSchema(t))
	st := State{Phase: PhaseQuestioning, Step: 7, Answers: map[string]string{}}
	r := m.SubmitAnswer(&st, "anything")
	assert.Equal(t, []string{EvidencePrompt}, texts(r))
	assert.Equal(t, PhaseCollectingEvidence, st.Phase)
}

func TestInactiveAnswerIsNotHandled(t *testing.T) {
	m := NewMachine(nil)
	var st State
	r := m.SubmitAnswer(&st, "hello there")
	assert.False(t, r.Handled)
	assert.Equal(t, PhaseInactive, st.Phase)
}

func TestStatus(t *testing.T) {
	m := NewMachine(DefaultSchema())
	var st State
	assert.Equal(t, Status{Phase: PhaseInactive, Total: 9}, m.Status(&st))

	m.Begin(&st)
	assert.False(t, m.PickerRelevant(&st, PickerRole))
	m.SubmitAnswer(&st, "Alice Smith")
	assert.True(t, m.PickerRelevant(&st, PickerRole))
	s := m.Status(&st)
	assert.Equal(t, "role", s.Field)
	assert.Equal(t, PickerRole, s.Picker)
	assert.Contains(t, s.Options, "Analyst")

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"phase":"questioning"`)
}
