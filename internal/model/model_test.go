package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestGoalIsComplete(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		goal Goal
		want bool
	}{
		{"target reached", Goal{Target: 10, Current: 10, EndDate: "2099-01-01"}, true},
		{"target overshot", Goal{Target: 10, Current: 12.5, EndDate: "2099-01-01"}, true},
		{"end date passed", Goal{Target: 10, Current: 1, EndDate: "2024-06-14"}, true},
		{"in progress", Goal{Target: 10, Current: 1, EndDate: "2024-06-30"}, false},
		{"ends later today counts as active", Goal{Target: 10, Current: 1, EndDate: "2024-06-16"}, false},
		{"unparsable end date is never expired", Goal{Target: 10, Current: 1, EndDate: "soon"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.goal.IsComplete(now))
		})
	}
}

func TestProfileMerge(t *testing.T) {
	base := &ProfileData{Height: ptr(180.0), Weight: ptr(80.0), Age: ptr(30.0), Gender: ptr("male")}

	merged := base.Merge(ProfileData{Weight: ptr(78.5)})

	require.NotNil(t, merged)
	assert.Equal(t, 180.0, *merged.Height)
	assert.Equal(t, 78.5, *merged.Weight)
	assert.Equal(t, 30.0, *merged.Age)
	assert.Equal(t, "male", *merged.Gender)
	assert.Equal(t, 80.0, *base.Weight, "Merge must not modify the receiver")
}

func TestProfileMerge_NilReceiver(t *testing.T) {
	var p *ProfileData
	merged := p.Merge(ProfileData{Age: ptr(41.0)})

	require.NotNil(t, merged)
	assert.Nil(t, merged.Height)
	assert.Equal(t, 41.0, *merged.Age)
}

func TestValidUsername(t *testing.T) {
	valid := []string{"alice", "Bob_99", "first.last", "a-b"}
	invalid := []string{"", ".", "..", "../etc", "a/b", `a\b`, "with space", string(make([]byte, MaxUsernameLength+1))}

	for _, name := range valid {
		assert.True(t, ValidUsername(name), "expected %q to be valid", name)
	}
	for _, name := range invalid {
		assert.False(t, ValidUsername(name), "expected %q to be invalid", name)
	}
}

func TestMealTypeOrder(t *testing.T) {
	assert.Less(t, MealBreakfast.Order(), MealLunch.Order())
	assert.Less(t, MealLunch.Order(), MealDinner.Order())
	assert.Less(t, MealDinner.Order(), MealSnack.Order())
	assert.Equal(t, 4, MealType("brunch").Order())
	assert.False(t, MealType("brunch").Valid())
}

func TestSaveRequestJSONShape(t *testing.T) {
	body := `{"username":"alice","profileData":{"height":170},"workouts":[{"id":"w1","date":"2024-01-02","type":"gym","duration":45}],"meals":[],"goals":[]}`

	var req SaveRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "alice", req.Username)
	require.NotNil(t, req.ProfileData)
	assert.Equal(t, 170.0, *req.ProfileData.Height)
	assert.Nil(t, req.ProfileData.Weight)
	require.Len(t, req.Workouts, 1)
	assert.Equal(t, WorkoutGym, req.Workouts[0].Type)
}

func TestUserDataNormalize(t *testing.T) {
	var d UserData
	d.Normalize()

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"profileData":null,"workouts":[],"meals":[],"goals":[]}`, string(out))
}
