package runs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfmelo/gestorpme/internal/importer"
)

func TestRunLifecycle(t *testing.T) {
	tr := NewTracker()

	id := tr.Begin(KindDocument, "extrato.pdf")
	run, err := tr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)

	tr.Complete(id, importer.Summary{Created: 12, Warnings: 1})
	run, err = tr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 12, run.Summary.Created)
	require.NotNil(t, run.CompletedAt)
}

func TestFailedRunKeepsError(t *testing.T) {
	tr := NewTracker()

	id := tr.Begin(KindConvert, "notas.pdf")
	tr.Fail(id, errors.New("resposta do modelo irrecuperável"))

	run, err := tr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Contains(t, run.Error, "irrecuperável")
}

func TestListNewestFirst(t *testing.T) {
	tr := NewTracker()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	i := 0
	tr.now = func() time.Time { i++; return base.Add(time.Duration(i) * time.Minute) }

	tr.Begin(KindDelimited, "antigo.csv")
	tr.Begin(KindDelimited, "recente.csv")

	list := tr.List()
	require.Len(t, list, 2)
	assert.Equal(t, "recente.csv", list[0].FileName)
}

func TestGetUnknownRun(t *testing.T) {
	tr := NewTracker()
	_, err := tr.Get("nope")
	assert.Error(t, err)
}
