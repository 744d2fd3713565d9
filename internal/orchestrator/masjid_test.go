package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/internal/orchestrator"
	apperrors "github.com/smhassan90/salaahManager/pkg/errors"
)

func TestSetDefaultMasjid_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	var during orchestrator.State
	f.masajids.On("SetDefault", mock.Anything, "m2").
		Run(func(mock.Arguments) { during = f.o.Snapshot() }).
		Return(apperrors.Internal(errors.New("db down")))

	err := f.o.SetDefaultMasjid(context.Background(), "m2")

	require.Error(t, err)
	assert.Equal(t, orchestrator.KindUnexpected, orchestrator.KindOf(err))

	assert.Equal(t, "m2", defaultID(during))
	assert.False(t, during.Masajids[0].IsDefault)
	assert.True(t, during.Masajids[1].IsDefault)

	after := f.o.Snapshot()
	assert.Equal(t, "m1", defaultID(after))
	assert.True(t, after.Masajids[0].IsDefault)
	assert.False(t, after.Masajids[1].IsDefault)

	stored, err := f.store.DefaultMasjidID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m1", stored)
}

func TestSetDefaultMasjid_SuccessRefetches(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.masajids.On("SetDefault", mock.Anything, "m2").Return(nil)

	require.NoError(t, f.o.SetDefaultMasjid(context.Background(), "m2"))

	s := f.o.Snapshot()
	assert.Equal(t, "m2", defaultID(s))
	assert.Len(t, s.DefaultPrayerTimes(), 6)
	assert.Len(t, s.Questions, 2)

	stored, err := f.store.DefaultMasjidID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m2", stored)

	f.prayers.AssertCalled(t, "Today", mock.Anything, "m2")
	f.questions.AssertCalled(t, "ListByMasjid", mock.Anything, "m2", mock.Anything)
	f.notifications.AssertCalled(t, "ListByMasjid", mock.Anything, "m2", mock.Anything)
	f.events.AssertCalled(t, "ListByMasjid", mock.Anything, "m2", mock.Anything)
}

func TestSetDefaultMasjid_UnknownMasjid(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	err := f.o.SetDefaultMasjid(context.Background(), "m9")

	assert.ErrorIs(t, err, orchestrator.ErrUnknownMasjid)
	assert.Equal(t, orchestrator.KindValidation, orchestrator.KindOf(err))
	assert.Equal(t, "m1", defaultID(f.o.Snapshot()))
	f.masajids.AssertNotCalled(t, "SetDefault", mock.Anything, mock.Anything)
}

func TestSetDefaultMasjid_SupersededCompletionIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.cacheSession(t)
	f.users.On("MyMasajids", mock.Anything).Return(memberships("m1", "m1", "m2", "m3"), nil)
	f.stubMasjidData()
	require.NoError(t, f.o.Bootstrap(context.Background()))

	started := make(chan struct{})
	release := make(chan struct{})
	f.masajids.On("SetDefault", mock.Anything, "m2").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(apperrors.Internal(errors.New("db down")))
	f.masajids.On("SetDefault", mock.Anything, "m3").Return(nil)

	var wg sync.WaitGroup
	var staleErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		staleErr = f.o.SetDefaultMasjid(context.Background(), "m2")
	}()
	<-started

	require.NoError(t, f.o.SetDefaultMasjid(context.Background(), "m3"))
	close(release)
	wg.Wait()

	require.Error(t, staleErr)
	assert.Equal(t, orchestrator.KindUnexpected, orchestrator.KindOf(staleErr))
	s := f.o.Snapshot()
	assert.Equal(t, "m3", defaultID(s))
	assert.Equal(t, 1, countDefaults(s.Masajids))
	f.prayers.AssertNotCalled(t, "Today", mock.Anything, "m2")
}

func TestSetDefaultMasjid_OverlappingFailuresRevertToAcceptedDefault(t *testing.T) {
	f := newFixture(t)
	f.cacheSession(t)
	f.users.On("MyMasajids", mock.Anything).Return(memberships("m1", "m1", "m2", "m3"), nil)
	f.stubMasjidData()
	require.NoError(t, f.o.Bootstrap(context.Background()))

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	secondStarted := make(chan struct{})
	releaseSecond := make(chan struct{})
	f.masajids.On("SetDefault", mock.Anything, "m2").
		Run(func(mock.Arguments) {
			close(firstStarted)
			<-releaseFirst
		}).
		Return(apperrors.Internal(errors.New("db down")))
	f.masajids.On("SetDefault", mock.Anything, "m3").
		Run(func(mock.Arguments) {
			close(secondStarted)
			<-releaseSecond
		}).
		Return(apperrors.Forbidden("You do not have permission"))

	var wg sync.WaitGroup
	var firstErr, secondErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		firstErr = f.o.SetDefaultMasjid(context.Background(), "m2")
	}()
	<-firstStarted
	go func() {
		defer wg.Done()
		secondErr = f.o.SetDefaultMasjid(context.Background(), "m3")
	}()
	<-secondStarted

	close(releaseFirst)
	close(releaseSecond)
	wg.Wait()

	require.Error(t, firstErr)
	assert.Equal(t, orchestrator.KindUnexpected, orchestrator.KindOf(firstErr))
	require.Error(t, secondErr)
	assert.Equal(t, orchestrator.KindAuthorization, orchestrator.KindOf(secondErr))

	s := f.o.Snapshot()
	assert.Equal(t, "m1", defaultID(s))
	assert.Equal(t, 1, countDefaults(s.Masajids))
}

func TestSetDefaultMasjid_SingleDefaultThroughout(t *testing.T) {
	f := newFixture(t)
	f.cacheSession(t)
	f.users.On("MyMasajids", mock.Anything).Return(memberships("", "m1", "m2", "m3"), nil)
	f.masajids.On("SetDefault", mock.Anything, "m1").Return(nil)
	f.masajids.On("SetDefault", mock.Anything, "m2").Return(nil)
	f.masajids.On("SetDefault", mock.Anything, "m3").Return(apperrors.Forbidden("You do not have permission"))
	f.stubMasjidData()
	rec := &recorder{}
	f.o.Subscribe(rec.listen)

	require.NoError(t, f.o.Bootstrap(context.Background()))
	require.NoError(t, f.o.SetDefaultMasjid(context.Background(), "m2"))
	err := f.o.SetDefaultMasjid(context.Background(), "m3")
	assert.Equal(t, orchestrator.KindAuthorization, orchestrator.KindOf(err))
	require.NoError(t, f.o.SetDefaultMasjid(context.Background(), "m2"))

	for i, s := range rec.all() {
		if len(s.Masajids) == 0 {
			continue
		}
		assert.Equal(t, 1, countDefaults(s.Masajids), "snapshot %d", i)
	}
	assert.Equal(t, "m2", defaultID(f.o.Snapshot()))
}

func TestRefreshNotifications_ReadStateSurvivesRefetch(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	require.NoError(t, f.o.MarkNotificationRead(context.Background(), "n1"))
	require.NoError(t, f.o.RefreshNotifications(context.Background()))

	s := f.o.Snapshot()
	require.Len(t, s.Notifications, 2)
	assert.Equal(t, "n1", s.Notifications[0].ID)
	assert.True(t, s.Notifications[0].IsRead)
	assert.Equal(t, "n2", s.Notifications[1].ID)
	assert.False(t, s.Notifications[1].IsRead)
	assert.Equal(t, 1, f.o.UnreadCount())
}

func TestRefresh_RequiresDefaultMasjid(t *testing.T) {
	f := newFixture(t)

	for name, fn := range map[string]func(context.Context) error{
		"questions":     f.o.RefreshQuestions,
		"notifications": f.o.RefreshNotifications,
		"events":        f.o.RefreshEvents,
		"masjid data":   f.o.RefreshMasjidData,
	} {
		t.Run(name, func(t *testing.T) {
			err := fn(context.Background())
			assert.ErrorIs(t, err, orchestrator.ErrNoDefaultMasjid)
			assert.Equal(t, orchestrator.KindValidation, orchestrator.KindOf(err))
		})
	}
}

func TestRefreshPrayerTimes_OtherMasjid(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	require.NoError(t, f.o.RefreshPrayerTimes(context.Background(), "m2"))

	s := f.o.Snapshot()
	assert.Len(t, s.PrayerTimes["m2"], 6)
	assert.Equal(t, "m2", s.PrayerTimes["m2"][0].MasjidID)
}

func TestRefreshEvents_Failure(t *testing.T) {
	f := newFixture(t)
	f.cacheSession(t)
	f.users.On("MyMasajids", mock.Anything).Return(memberships("m1", "m1"), nil)
	f.prayers.On("Today", mock.Anything, mock.Anything).Return([]domain.PrayerTime{}, nil)
	f.questions.On("ListByMasjid", mock.Anything, mock.Anything, mock.Anything).Return(&api.Page[domain.Question]{}, nil)
	f.notifications.On("ListByMasjid", mock.Anything, mock.Anything, mock.Anything).Return(&api.Page[domain.Notification]{}, nil)
	f.events.On("ListByMasjid", mock.Anything, mock.Anything, mock.Anything).Return(&api.Page[domain.Event]{
		Items: []domain.Event{{ID: "e1"}},
	}, nil).Once()
	f.events.On("ListByMasjid", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.TooManyRequests("")).Once()
	require.NoError(t, f.o.Bootstrap(context.Background()))

	err := f.o.RefreshEvents(context.Background())

	var actionErr *orchestrator.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, orchestrator.KindRateLimited, actionErr.Kind)
	assert.Equal(t, "refresh events", actionErr.Action)
	assert.Len(t, f.o.Snapshot().Events, 1)
}

func TestHandlePushNotification(t *testing.T) {
	t.Run("signed out is a no-op", func(t *testing.T) {
		f := newFixture(t)
		f.o.HandlePushNotification(context.Background())
		f.notifications.AssertNotCalled(t, "ListByMasjid", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signed in refetches notifications", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		f.o.HandlePushNotification(context.Background())
		f.notifications.AssertNumberOfCalls(t, "ListByMasjid", 2)
	})
}
