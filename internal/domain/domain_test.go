package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseWorkPreference(t *testing.T) {
	// 未填写视为不限
	pref, err := ParseWorkPreference(nil)
	require.NoError(t, err)
	assert.Equal(t, PreferenceUnspecified, pref.Kind)

	pref, err = ParseWorkPreference(strPtr(""))
	require.NoError(t, err)
	assert.Equal(t, PreferenceUnspecified, pref.Kind)

	pref, err = ParseWorkPreference(strPtr("max"))
	require.NoError(t, err)
	assert.Equal(t, PreferenceMax, pref.Kind)

	pref, err = ParseWorkPreference(strPtr("15"))
	require.NoError(t, err)
	assert.Equal(t, PreferenceExact, pref.Kind)
	assert.Equal(t, int32(15), pref.Days)

	for _, invalid := range []string{"0", "24", "-1", "abc", "MAX"} {
		_, err := ParseWorkPreference(strPtr(invalid))
		assert.Error(t, err, "输入 %q 应当被拒绝", invalid)
	}
}

func TestOffPeriodsMergesHalfDays(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)

	sr := &ShiftRequest{DaysOff: []DayOff{
		{Date: day, Period: PeriodAM},
		{Date: day, Period: PeriodPM},
		{Date: nextDay, Period: PeriodAllDay},
	}}

	periods := sr.OffPeriods()

	// 同一天 am + pm 等价于全天休
	assert.True(t, periods[day][PeriodAM])
	assert.True(t, periods[day][PeriodPM])
	assert.True(t, periods[nextDay][PeriodAM])
	assert.True(t, periods[nextDay][PeriodPM])
}

func TestScheduleStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ScheduleStatus
		allowed  bool
	}{
		{StatusDraft, StatusConfirmed, true},
		{StatusPreview, StatusConfirmed, true},
		{StatusConfirmed, StatusPublished, true},
		{StatusDraft, StatusPublished, false},
		{StatusPreview, StatusPublished, false},
		{StatusConfirmed, StatusDraft, false},
		{StatusPublished, StatusConfirmed, false},
		{StatusPublished, StatusPublished, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestScheduleStatusEditable(t *testing.T) {
	// 只有 draft / preview 允许原地改写分配
	assert.True(t, StatusDraft.Editable())
	assert.True(t, StatusPreview.Editable())
	assert.False(t, StatusConfirmed.Editable())
	assert.False(t, StatusPublished.Editable())
}

func TestCanAdopt(t *testing.T) {
	assert.True(t, CanAdopt(ModificationPending, false))
	// 源版本已被别的提案取代时不能再批准，避免同月出现两个已确认版本
	assert.False(t, CanAdopt(ModificationPending, true))
	assert.False(t, CanAdopt(ModificationApproved, false))
	assert.False(t, CanAdopt(ModificationRejected, false))
}

func TestModificationStatusTerminal(t *testing.T) {
	assert.False(t, ModificationPending.Terminal())
	assert.True(t, ModificationApproved.Terminal())
	assert.True(t, ModificationRejected.Terminal())
}

func TestShiftAssignmentSetters(t *testing.T) {
	a := &ShiftAssignment{}

	a.SetWork(3, WorkMorningHalf)
	require.NotNil(t, a.JobTypeID)
	assert.Equal(t, int64(3), *a.JobTypeID)
	assert.Equal(t, 0.5, a.HeadcountValue)
	assert.True(t, a.IsWorking())

	a.SetOff()
	assert.Nil(t, a.JobTypeID)
	assert.Equal(t, 0.0, a.HeadcountValue)
	assert.False(t, a.IsWorking())
}
