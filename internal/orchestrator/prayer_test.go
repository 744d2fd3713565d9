package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/internal/orchestrator"
	apperrors "github.com/smhassan90/salaahManager/pkg/errors"
)

func prayerTime(list []domain.PrayerTime, name string) string {
	for _, p := range list {
		if p.Name == name {
			return p.Time
		}
	}
	return ""
}

func TestUpdatePrayerTime_RejectsInvalidTimeBeforeNetwork(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	for _, in := range []string{"25:00", "5:15", "05:60", "", "0515", "05:15:00"} {
		err := f.o.UpdatePrayerTime(context.Background(), "", "Fajr", in)

		var actionErr *orchestrator.ActionError
		require.ErrorAs(t, err, &actionErr, "input %q", in)
		assert.Equal(t, orchestrator.KindValidation, actionErr.Kind)
		assert.ErrorIs(t, err, domain.ErrInvalidTime)
		assert.NotEmpty(t, actionErr.Message)
	}
	f.prayers.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
	assert.Equal(t, "05:00", prayerTime(f.o.Snapshot().DefaultPrayerTimes(), domain.PrayerFajr))
}

func TestUpdatePrayerTime_PatchesOnlyMatchingEntry(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.prayers.On("CreateOrUpdate", mock.Anything, api.PrayerTimeInput{
		MasjidID:      "m1",
		PrayerName:    domain.PrayerFajr,
		PrayerTime:    "05:15",
		EffectiveDate: testToday,
	}).Return(domain.PrayerTime{ID: "p1", Name: "Fajr", Time: "05:15:00"}, nil)

	require.NoError(t, f.o.UpdatePrayerTime(context.Background(), "", "Fajr", "05:15"))

	times := f.o.Snapshot().DefaultPrayerTimes()
	require.Len(t, times, 6)
	assert.Equal(t, "05:15", prayerTime(times, domain.PrayerFajr))
	assert.Equal(t, "13:30", prayerTime(times, domain.PrayerJummah))
	assert.Equal(t, domain.UnsetTime, prayerTime(times, domain.PrayerAsr))
	f.prayers.AssertNumberOfCalls(t, "Today", 1)
	f.prayers.AssertExpectations(t)
}

func TestUpdatePrayerTime_CanonicalisesName(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.prayers.On("CreateOrUpdate", mock.Anything, mock.MatchedBy(func(in api.PrayerTimeInput) bool {
		return in.PrayerName == domain.PrayerJummah
	})).Return(domain.PrayerTime{}, nil)

	require.NoError(t, f.o.UpdatePrayerTime(context.Background(), "m1", " jumma ", "13:45"))

	assert.Equal(t, "13:45", prayerTime(f.o.Snapshot().DefaultPrayerTimes(), domain.PrayerJummah))
}

func TestUpdatePrayerTime_UnknownPrayer(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	err := f.o.UpdatePrayerTime(context.Background(), "", "Tahajjud", "03:00")

	assert.ErrorIs(t, err, orchestrator.ErrUnknownPrayer)
	assert.Equal(t, orchestrator.KindValidation, orchestrator.KindOf(err))
	f.prayers.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
}

func TestUpdatePrayerTime_PermissionFlagIsSticky(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.prayers.On("CreateOrUpdate", mock.Anything, mock.Anything).
		Return(domain.PrayerTime{}, apperrors.Forbidden("Only imams can edit prayer times")).Once()
	f.prayers.On("CreateOrUpdate", mock.Anything, mock.Anything).
		Return(domain.PrayerTime{}, apperrors.Internal(errors.New("db down"))).Once()
	f.prayers.On("CreateOrUpdate", mock.Anything, mock.Anything).
		Return(domain.PrayerTime{}, nil).Once()

	err := f.o.UpdatePrayerTime(context.Background(), "", "Asr", "15:30")
	assert.Equal(t, orchestrator.KindAuthorization, orchestrator.KindOf(err))
	assert.True(t, f.o.Snapshot().PrayerTimePermissionError)

	err = f.o.UpdatePrayerTime(context.Background(), "", "Asr", "15:30")
	assert.Equal(t, orchestrator.KindUnexpected, orchestrator.KindOf(err))
	assert.True(t, f.o.Snapshot().PrayerTimePermissionError)

	require.NoError(t, f.o.UpdatePrayerTime(context.Background(), "", "Asr", "15:30"))
	s := f.o.Snapshot()
	assert.False(t, s.PrayerTimePermissionError)
	assert.Equal(t, "15:30", prayerTime(s.DefaultPrayerTimes(), domain.PrayerAsr))
}

func TestUpdatePrayerTime_PermissionByMessage(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.prayers.On("CreateOrUpdate", mock.Anything, mock.Anything).
		Return(domain.PrayerTime{}, apperrors.InvalidInput("You do not have permission to update prayer times"))

	err := f.o.UpdatePrayerTime(context.Background(), "", "Maghrib", "18:05")

	assert.Equal(t, orchestrator.KindAuthorization, orchestrator.KindOf(err))
	assert.True(t, f.o.Snapshot().PrayerTimePermissionError)
}

func TestUpdatePrayerTime_OtherFailuresDoNotSetFlag(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.prayers.On("CreateOrUpdate", mock.Anything, mock.Anything).
		Return(domain.PrayerTime{}, apperrors.Network(errors.New("reset"), false))

	err := f.o.UpdatePrayerTime(context.Background(), "", "Isha", "20:00")

	var actionErr *orchestrator.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, orchestrator.KindNetwork, actionErr.Kind)
	assert.False(t, f.o.Snapshot().PrayerTimePermissionError)
}

func TestLogout_ClearsPermissionFlags(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.prayers.On("CreateOrUpdate", mock.Anything, mock.Anything).
		Return(domain.PrayerTime{}, apperrors.Forbidden("forbidden"))
	f.events.On("Delete", mock.Anything, "e1").Return(apperrors.Forbidden("forbidden"))
	f.auth.On("Logout", mock.Anything).Return(nil)

	_ = f.o.UpdatePrayerTime(context.Background(), "", "Fajr", "05:10")
	_ = f.o.DeleteEvent(context.Background(), "e1")
	s := f.o.Snapshot()
	require.True(t, s.PrayerTimePermissionError)
	require.True(t, s.EventPermissionError)

	require.NoError(t, f.o.Logout(context.Background()))

	s = f.o.Snapshot()
	assert.False(t, s.PrayerTimePermissionError)
	assert.False(t, s.EventPermissionError)
}

func TestBulkUpdatePrayerTimes(t *testing.T) {
	t.Run("one bad entry stops the request", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)

		err := f.o.BulkUpdatePrayerTimes(context.Background(), "", []orchestrator.PrayerUpdate{
			{Prayer: "Fajr", Time: "05:10"},
			{Prayer: "Dhuhr", Time: "24:00"},
		})

		assert.ErrorIs(t, err, domain.ErrInvalidTime)
		f.prayers.AssertNotCalled(t, "BulkUpdate", mock.Anything, mock.Anything)
	})

	t.Run("success patches every entry", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		f.prayers.On("BulkUpdate", mock.Anything, api.BulkPrayerTimesInput{
			MasjidID:      "m1",
			EffectiveDate: testToday,
			PrayerTimes: []api.PrayerTimeEntry{
				{PrayerName: domain.PrayerDhuhr, PrayerTime: "13:10"},
				{PrayerName: domain.PrayerJummah, PrayerTime: "13:40"},
			},
		}).Return([]domain.PrayerTime{}, nil)

		require.NoError(t, f.o.BulkUpdatePrayerTimes(context.Background(), "", []orchestrator.PrayerUpdate{
			{Prayer: "zuhr", Time: "13:10"},
			{Prayer: "Juma", Time: "13:40"},
		}))

		times := f.o.Snapshot().DefaultPrayerTimes()
		assert.Equal(t, "13:10", prayerTime(times, domain.PrayerDhuhr))
		assert.Equal(t, "13:40", prayerTime(times, domain.PrayerJummah))
		assert.Equal(t, "05:00", prayerTime(times, domain.PrayerFajr))
		f.prayers.AssertExpectations(t)
	})

	t.Run("authorization failure sets the flag", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		f.prayers.On("BulkUpdate", mock.Anything, mock.Anything).Return(nil, apperrors.Forbidden("nope"))

		err := f.o.BulkUpdatePrayerTimes(context.Background(), "", []orchestrator.PrayerUpdate{{Prayer: "Asr", Time: "16:00"}})

		assert.Equal(t, orchestrator.KindAuthorization, orchestrator.KindOf(err))
		assert.True(t, f.o.Snapshot().PrayerTimePermissionError)
	})
}
