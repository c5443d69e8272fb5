package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	in := Input{
		Image:    []byte("img"),
		MIMEType: "image/jpeg",
		Filename: "IMG_1.jpg",
		GPS:      "37.8,-122.2",
		Metadata: map[string]string{"heading": "270"},
	}
	state := NewState(in)

	assert.NotEmpty(t, state.RunID)
	assert.Equal(t, "IMG_1.jpg", state.Filename)
	assert.True(t, state.HasGPS())
	assert.False(t, state.Failed())
	assert.Nil(t, state.FinalResult)

	other := NewState(in)
	assert.NotEqual(t, state.RunID, other.RunID)
}

func TestApplyMergesNonNilFields(t *testing.T) {
	state := NewState(Input{})

	class := ClassFood
	label := "food seafood"
	state.Apply(&Delta{
		Classification: &class,
		RawLabel:       &label,
		Usage:          []UsageEntry{{Stage: "classify"}},
	})

	assert.Equal(t, ClassFood, state.Classification)
	assert.Equal(t, "food seafood", state.RawLabel)
	require.Len(t, state.Usage, 1)

	// A delta that touches other fields leaves earlier writes intact.
	best := &RestaurantCandidate{POICandidate: POICandidate{Name: "Viaggio"}}
	state.Apply(&Delta{
		BestRestaurant: best,
		Usage:          []UsageEntry{{Stage: "match"}},
	})

	assert.Equal(t, ClassFood, state.Classification)
	assert.Equal(t, best, state.BestRestaurant)
	require.Len(t, state.Usage, 2)
	assert.Equal(t, "classify", state.Usage[0].Stage)
	assert.Equal(t, "match", state.Usage[1].Stage)
}

func TestApplyLastWriteWins(t *testing.T) {
	state := NewState(Input{})

	first := ClassScenery
	second := ClassFood
	state.Apply(&Delta{Classification: &first})
	state.Apply(&Delta{Classification: &second})
	assert.Equal(t, ClassFood, state.Classification)

	r1 := &FinalResult{Caption: "one"}
	r2 := &FinalResult{Caption: "two"}
	state.Apply(&Delta{FinalResult: r1})
	state.Apply(&Delta{FinalResult: r2})
	assert.Equal(t, "two", state.FinalResult.Caption)
}

func TestApplyNilDelta(t *testing.T) {
	state := NewState(Input{})
	state.Apply(nil)
	assert.Empty(t, state.Usage)
}

func TestFailed(t *testing.T) {
	state := NewState(Input{})
	assert.False(t, state.Failed())

	msg := "identify: boom"
	state.Apply(&Delta{Error: &msg})
	assert.True(t, state.Failed())
	assert.Equal(t, "identify: boom", state.Error)
}

func TestModelFor(t *testing.T) {
	state := NewState(Input{ModelOverrides: map[string]string{
		"classify": "override-model",
		"describe": "",
	}})

	assert.Equal(t, "override-model", state.ModelFor("classify", "default"))
	assert.Equal(t, "default", state.ModelFor("describe", "default"))
	assert.Equal(t, "default", state.ModelFor("valuate", "default"))
}
