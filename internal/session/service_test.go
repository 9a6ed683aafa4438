package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := NewService(NewMemoryStore(), Config{
		TokenTTL:     10 * time.Second,
		LateCutoff:   10 * time.Minute,
		DedupeWindow: 60 * time.Second,
	})
	svc.now = clock.Now
	return svc, clock
}

func TestStartCreatesActiveSession(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	require.True(t, sess.Active)
	require.Equal(t, "CS101", sess.CourseID)
	require.Equal(t, clock.t, sess.StartedAt)
	require.Nil(t, sess.EndedAt)
	require.Empty(t, sess.Attendees)

	// No uniqueness across courseId: a second concurrent session is fine.
	_, err = svc.Start(ctx, "CS101")
	require.NoError(t, err)
}

func TestStartRequiresCourseID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Start(context.Background(), "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmitScanRequiresInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SubmitScan(ctx, "", "sometoken")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.SubmitScan(ctx, "stu-1", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestEndSession(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	ended, err := svc.End(ctx, sess.ID)
	require.NoError(t, err)
	require.False(t, ended.Active)
	require.NotNil(t, ended.EndedAt)
	firstEnd := *ended.EndedAt

	// Ending again is rejected and the original end time survives.
	clock.Advance(5 * time.Minute)
	_, err = svc.End(ctx, sess.ID)
	require.ErrorIs(t, err, ErrAlreadyEnded)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, firstEnd, *got.EndedAt)
}

func TestEndUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.End(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIssueToken(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)

	tok, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, tok.Value, 32) // 16 random bytes hex-encoded
	require.Equal(t, clock.t.Add(10*time.Second).Unix(), tok.ExpiresAt)

	tok2, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	require.NotEqual(t, tok.Value, tok2.Value)
}

func TestIssueTokenEndedSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	_, err = svc.End(ctx, sess.ID)
	require.NoError(t, err)

	_, err = svc.IssueToken(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotActive)
}

func TestScanPresent(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	tok, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)

	outcome, err := svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)
	require.Equal(t, StatusPresent, outcome.Status)
	require.False(t, outcome.Duplicate)
	require.Equal(t, clock.t, outcome.RecordedAt)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendees, 1)
	require.Len(t, got.Scans, 1)
	require.Equal(t, tok.Value, got.Scans[0].Token)
}

func TestScanUnknownTokenAlwaysFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	_, err = svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)

	_, err = svc.SubmitScan(ctx, "stu-1", "deadbeef")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestScanRotatedTokenRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	old, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	_, err = svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)

	// The old token dies the moment a new one is issued, well before expiry.
	_, err = svc.SubmitScan(ctx, "stu-1", old.Value)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestScanTokenExpiryBoundary(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	tok, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)

	// Still valid at exactly the expiry second.
	clock.Advance(10 * time.Second)
	outcome, err := svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)
	require.Equal(t, StatusPresent, outcome.Status)

	// One second past expiry is rejected.
	clock.Advance(time.Second)
	_, err = svc.SubmitScan(ctx, "stu-2", tok.Value)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestScanEndedSessionRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	tok, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	_, err = svc.End(ctx, sess.ID)
	require.NoError(t, err)

	_, err = svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestScanLateCutoffBoundary(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)

	// Exactly at the cutoff is still present.
	clock.Advance(10 * time.Minute)
	tok, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	outcome, err := svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)
	require.Equal(t, StatusPresent, outcome.Status)

	// One second past the cutoff is late.
	clock.Advance(time.Second)
	tok, err = svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	outcome, err = svc.SubmitScan(ctx, "stu-2", tok.Value)
	require.NoError(t, err)
	require.Equal(t, StatusLate, outcome.Status)
}

func TestScanDuplicateWithinWindow(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	tok, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)

	first, err := svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	clock.Advance(5 * time.Second)
	second, err := svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.RecordedAt, second.RecordedAt)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendees, 1)
	require.Len(t, got.Scans, 1)
}

func TestScanOutsideDedupeWindowRecordsAgain(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	tok, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	_, err = svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	tok2, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	outcome, err := svc.SubmitScan(ctx, "stu-1", tok2.Value)
	require.NoError(t, err)
	require.False(t, outcome.Duplicate)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendees, 2)
	require.Len(t, got.Scans, 2)
}

func TestScanDedupeIsPerStudent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	tok, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)

	_, err = svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)
	outcome, err := svc.SubmitScan(ctx, "stu-2", tok.Value)
	require.NoError(t, err)
	require.False(t, outcome.Duplicate)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendees, 2)
}

func TestSummary(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)

	tok, err := svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	_, err = svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)
	tok, err = svc.IssueToken(ctx, sess.ID)
	require.NoError(t, err)
	_, err = svc.SubmitScan(ctx, "stu-2", tok.Value)
	require.NoError(t, err)

	sum, err := svc.Summary(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Present)
	require.Equal(t, 1, sum.Late)
	require.Equal(t, 0, sum.Absent) // no roster, absent is a placeholder
	require.Len(t, sum.List, 2)
	require.True(t, sum.Active)
	require.Equal(t, sess.StartedAt, sum.StartedAt)
}

func TestSummaryUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Summary(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStudentHistory(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	first, err := svc.Start(ctx, "CS101")
	require.NoError(t, err)
	tok, err := svc.IssueToken(ctx, first.ID)
	require.NoError(t, err)
	_, err = svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	second, err := svc.Start(ctx, "CS202")
	require.NoError(t, err)
	tok, err = svc.IssueToken(ctx, second.ID)
	require.NoError(t, err)
	_, err = svc.SubmitScan(ctx, "stu-1", tok.Value)
	require.NoError(t, err)

	records, err := svc.StudentHistory(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "CS202", records[0].CourseID) // newest first
	require.Equal(t, "CS101", records[1].CourseID)
}
