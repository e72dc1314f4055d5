package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"skillswap/internal/infrastructure/lock"
	"skillswap/internal/model"
	"skillswap/internal/repository"
	"skillswap/internal/testutil"
)

func newEscrowFixture(t *testing.T, seekerBalance, cost int64) (*EscrowService, *gorm.DB, *model.Skill) {
	t.Helper()
	db := testutil.NewTestDB(t)
	testutil.SeedUser(t, db, "seeker", seekerBalance)
	testutil.SeedUser(t, db, "provider", 0)
	skill := testutil.SeedSkill(t, db, "provider", cost)
	return NewEscrowService(db, lock.NewLocalLocker(), testConfig()), db, skill
}

func TestEscrowService_BookInsufficientBalance(t *testing.T) {
	svc, db, skill := newEscrowFixture(t, 50, 70)

	_, err := svc.Book(context.Background(), "seeker", skill.ID)
	assert.ErrorIs(t, err, repository.ErrBalanceNotEnough)

	seeker := testutil.LoadUser(t, db, "seeker")
	assert.Equal(t, int64(50), seeker.SCBalance)
	assert.Zero(t, seeker.SCHeld)

	var sessions int64
	require.NoError(t, db.Model(&model.Session{}).Count(&sessions).Error)
	assert.Zero(t, sessions)
	assert.Empty(t, testutil.Transactions(t, db, "seeker"))
}

func TestEscrowService_BookHoldsCost(t *testing.T) {
	svc, db, skill := newEscrowFixture(t, 100, 30)

	session, err := svc.Book(context.Background(), "seeker", skill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusPending, session.Status)
	assert.Equal(t, int64(30), session.SCHeldInEscrow)
	assert.Equal(t, "provider", session.ProviderID)

	seeker := testutil.LoadUser(t, db, "seeker")
	assert.Equal(t, int64(70), seeker.SCBalance)
	assert.Equal(t, int64(30), seeker.SCHeld)

	rows := testutil.Transactions(t, db, "seeker")
	require.Len(t, rows, 1)
	assert.Equal(t, model.TxTypeEscrowHold, rows[0].TxType)
	assert.Equal(t, int64(-30), rows[0].Amount)
	assert.Equal(t, session.ID, rows[0].Reference)
}

func TestEscrowService_BookOwnSkill(t *testing.T) {
	svc, _, skill := newEscrowFixture(t, 100, 30)

	_, err := svc.Book(context.Background(), "provider", skill.ID)
	assert.ErrorIs(t, err, ErrSelfBooking)

	_, err = svc.Book(context.Background(), "seeker", 404)
	assert.ErrorIs(t, err, repository.ErrSkillNotFound)
}

func TestEscrowService_ReleaseOnlyOnce(t *testing.T) {
	svc, db, skill := newEscrowFixture(t, 100, 40)
	ctx := context.Background()

	session, err := svc.Book(ctx, "seeker", skill.ID)
	require.NoError(t, err)

	res, err := svc.Release(ctx, ReleaseRequest{SessionID: session.ID, ReviewerID: "seeker", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.True(t, res.ReviewSaved)
	assert.Equal(t, model.SessionStatusCompleted, res.Session.Status)
	assert.NotNil(t, res.Session.CompletedAt)

	_, err = svc.Release(ctx, ReleaseRequest{SessionID: session.ID, ReviewerID: "seeker", Rating: 5})
	assert.ErrorIs(t, err, ErrSessionNotPending)

	seeker := testutil.LoadUser(t, db, "seeker")
	provider := testutil.LoadUser(t, db, "provider")
	assert.Equal(t, int64(60), seeker.SCBalance)
	assert.Zero(t, seeker.SCHeld)
	assert.Equal(t, int64(40), provider.SCBalance)

	rows := testutil.Transactions(t, db, "provider")
	require.Len(t, rows, 1)
	assert.Equal(t, model.TxTypeEscrowRelease, rows[0].TxType)
	assert.Equal(t, int64(40), rows[0].Amount)
}

func TestEscrowService_ConcurrentReleaseFiresOnce(t *testing.T) {
	svc, db, skill := newEscrowFixture(t, 100, 40)
	ctx := context.Background()

	session, err := svc.Book(ctx, "seeker", skill.ID)
	require.NoError(t, err)

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Release(ctx, ReleaseRequest{SessionID: session.ID, ReviewerID: "seeker", Rating: 4})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrSessionNotPending)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(40), testutil.LoadUser(t, db, "provider").SCBalance)
}

func TestEscrowService_ReleaseRules(t *testing.T) {
	svc, _, skill := newEscrowFixture(t, 100, 40)
	ctx := context.Background()

	session, err := svc.Book(ctx, "seeker", skill.ID)
	require.NoError(t, err)

	_, err = svc.Release(ctx, ReleaseRequest{SessionID: session.ID, ReviewerID: "provider", Rating: 5})
	assert.ErrorIs(t, err, ErrNotSeeker)

	_, err = svc.Release(ctx, ReleaseRequest{SessionID: session.ID, ReviewerID: "seeker", Rating: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.Release(ctx, ReleaseRequest{SessionID: "missing", ReviewerID: "seeker", Rating: 3})
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestEscrowService_ReviewFailureKeepsRelease(t *testing.T) {
	svc, db, skill := newEscrowFixture(t, 100, 40)
	ctx := context.Background()

	session, err := svc.Book(ctx, "seeker", skill.ID)
	require.NoError(t, err)

	// occupy the session's review slot so the post-commit insert fails
	require.NoError(t, db.Create(&model.Review{SessionID: session.ID, ReviewerID: "x", RevieweeID: "y", Rating: 1}).Error)

	res, err := svc.Release(ctx, ReleaseRequest{SessionID: session.ID, ReviewerID: "seeker", Rating: 5})
	require.NoError(t, err)
	assert.False(t, res.ReviewSaved)
	assert.Equal(t, model.SessionStatusCompleted, res.Session.Status)
	assert.Equal(t, int64(40), testutil.LoadUser(t, db, "provider").SCBalance)
}

func TestEscrowService_CancelRefunds(t *testing.T) {
	svc, db, skill := newEscrowFixture(t, 100, 40)
	ctx := context.Background()

	session, err := svc.Book(ctx, "seeker", skill.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, session.ID, "stranger")
	assert.ErrorIs(t, err, ErrNotSessionParty)

	cancelled, err := svc.Cancel(ctx, session.ID, "provider")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCancelled, cancelled.Status)

	seeker := testutil.LoadUser(t, db, "seeker")
	assert.Equal(t, int64(100), seeker.SCBalance)
	assert.Zero(t, seeker.SCHeld)

	_, err = svc.Cancel(ctx, session.ID, "seeker")
	assert.ErrorIs(t, err, ErrSessionNotPending)

	_, err = svc.Release(ctx, ReleaseRequest{SessionID: session.ID, ReviewerID: "seeker", Rating: 5})
	assert.ErrorIs(t, err, ErrSessionNotPending)

	rows := testutil.Transactions(t, db, "seeker")
	require.Len(t, rows, 2)
	assert.Equal(t, model.TxTypeEscrowRefund, rows[1].TxType)
	assert.Equal(t, int64(40), rows[1].Amount)
}

func TestEscrowService_GetSessionParticipantsOnly(t *testing.T) {
	svc, _, skill := newEscrowFixture(t, 100, 40)
	ctx := context.Background()

	session, err := svc.Book(ctx, "seeker", skill.ID)
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, session.ID, "provider")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = svc.GetSession(ctx, session.ID, "stranger")
	assert.ErrorIs(t, err, ErrNotSessionParty)

	list, err := svc.ListSessions(ctx, "seeker", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
