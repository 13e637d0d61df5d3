package intake

import "fmt"

// Phase is the machine's current mode.
type Phase int

const (
	PhaseInactive Phase = iota
	PhaseQuestioning
	PhaseCollectingEvidence
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseInactive:
		return "inactive"
	case PhaseQuestioning:
		return "questioning"
	case PhaseCollectingEvidence:
		return "collecting_evidence"
	case PhaseComplete:
		return "complete"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText lets phases appear by name in JSON status payloads.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for _, c := range []Phase{PhaseInactive, PhaseQuestioning, PhaseCollectingEvidence, PhaseComplete} {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// EvidenceRecord is what survives of an attachment in the report.
type EvidenceRecord struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Attachment is a file handed over by the upload collaborator.
type Attachment struct {
	Name     string
	Size     int64
	MimeType string
}

// State is one intake session. The zero value is an inactive session.
// It is owned by whoever drives the Machine and is only mutated by Machine methods.
type State struct {
	Phase    Phase
	Step     int
	Answers  map[string]string
	Evidence []EvidenceRecord
}

// Active reports whether intake-specific transitions apply.
func (s *State) Active() bool {
	return s.Phase == PhaseQuestioning || s.Phase == PhaseCollectingEvidence
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	out := &State{Phase: s.Phase, Step: s.Step}
	if s.Answers != nil {
		out.Answers = make(map[string]string, len(s.Answers))
		for k, v := range s.Answers {
			out.Answers[k] = v
		}
	}
	out.Evidence = append([]EvidenceRecord(nil), s.Evidence...)
	return out
}

func (s *State) reset() {
	s.Phase = PhaseInactive
	s.Step = 0
	s.Answers = nil
	s.Evidence = nil
}
