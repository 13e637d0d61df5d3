package intake

// Status is the read-only view the chat UI may use to decide which pickers to show.
type Status struct {
	Phase   Phase    `json:"phase"`
	Step    int      `json:"step"`
	Total   int      `json:"total"`
	Field   string   `json:"field,omitempty"`
	Picker  Picker   `json:"picker,omitempty"`
	Options []string `json:"options,omitempty"`
	// Evidence is the number of files recorded so far.
	Evidence int `json:"evidence"`
}

func (m *Machine) Status(st *State) Status {
	out := Status{
		Phase:    st.Phase,
		Step:     st.Step,
		Total:    m.schema.Count(),
		Evidence: len(st.Evidence),
	}
	if f, ok := m.CurrentField(st); ok {
		out.Field = f.Key
		out.Picker = f.Picker
		out.Options = f.Options
	}
	return out
}

// PickerRelevant reports whether the given picker applies to the current question.
func (m *Machine) PickerRelevant(st *State, p Picker) bool {
	f, ok := m.CurrentField(st)
	return ok && p != PickerNone && f.Picker == p
}
