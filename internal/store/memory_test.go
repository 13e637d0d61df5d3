package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyber-assist-backend/internal/intake"
)

func TestHistoryTrim(t *testing.T) {
	ms, err := NewMemoryStore(8, 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		ms.Append("s1", Message{Role: "user", Content: fmt.Sprint(i)})
	}
	got := ms.Get("s1")
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].Content)

	got[0].Content = "mutated"
	assert.Equal(t, "2", ms.Get("s1")[0].Content)

	ms.Set("s1", []Message{{Role: "assistant", Content: "x"}})
	assert.Len(t, ms.Get("s1"), 1)
	assert.Empty(t, ms.Get("other"))
}

func TestIntakeIsPerSession(t *testing.T) {
	ms, err := NewMemoryStore(8, 10)
	require.NoError(t, err)
	m := intake.NewMachine(nil)

	ms.WithIntake("a", func(st *intake.State) { m.Begin(st) })
	assert.Equal(t, intake.PhaseQuestioning, ms.Intake("a").Phase)
	assert.Equal(t, intake.PhaseInactive, ms.Intake("b").Phase)

	snap := ms.Intake("a")
	snap.Answers["name"] = "tamper"
	assert.Empty(t, ms.Intake("a").Answers)
}

func TestEvictionDropsOldestSession(t *testing.T) {
	ms, err := NewMemoryStore(2, 10)
	require.NoError(t, err)
	m := intake.NewMachine(nil)
	ms.WithIntake("a", func(st *intake.State) { m.Begin(st) })
	ms.Append("b", Message{Content: "hi"})
	ms.Append("c", Message{Content: "hi"})

	assert.Equal(t, 2, ms.Len())
	assert.Equal(t, intake.PhaseInactive, ms.Intake("a").Phase)

	ms.Drop("c")
	assert.Empty(t, ms.Get("c"))
}

func TestWithIntakeSerializes(t *testing.T) {
	ms, err := NewMemoryStore(8, 10)
	require.NoError(t, err)
	m := intake.NewMachine(nil)
	ms.WithIntake("s", func(st *intake.State) { m.Begin(st) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ms.WithIntake("s", func(st *intake.State) { m.SubmitAnswer(st, "x") })
		}()
	}
	wg.Wait()
	st := ms.Intake("s")
	assert.Equal(t, 0, st.Step)
	assert.Equal(t, intake.PhaseQuestioning, st.Phase)
}
