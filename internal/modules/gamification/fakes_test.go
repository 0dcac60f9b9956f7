package gamification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	aggtest "github.com/yungbote/dojoquest-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/apierr"
	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// fakeStore backs every repo fake. snapshot/restore emulate a rollback when
// wired to the injected tx runner.
type fakeStore struct {
	mu sync.Mutex

	clubs        map[uuid.UUID]*types.Club
	students     map[uuid.UUID]*types.Student
	studentOrder []uuid.UUID
	ledger       []*types.XPTransaction
	submissions  map[uuid.UUID]*types.ChallengeSubmission
	subOrder     []uuid.UUID
	daily        map[string]*types.DailyChallenge
	habitLogs    []*types.HabitLog
	familyLogs   []*types.FamilyLog

	failApply error
	saved     *fakeStore
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clubs:       map[uuid.UUID]*types.Club{},
		students:    map[uuid.UUID]*types.Student{},
		submissions: map[uuid.UUID]*types.ChallengeSubmission{},
		daily:       map[string]*types.DailyChallenge{},
	}
}

func (s *fakeStore) snapshot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := newFakeStore()
	for k, v := range s.students {
		row := *v
		cp.students[k] = &row
	}
	for k, v := range s.submissions {
		row := *v
		cp.submissions[k] = &row
	}
	for k, v := range s.daily {
		cp.daily[k] = v
	}
	cp.studentOrder = append([]uuid.UUID(nil), s.studentOrder...)
	cp.subOrder = append([]uuid.UUID(nil), s.subOrder...)
	cp.ledger = append([]*types.XPTransaction(nil), s.ledger...)
	cp.habitLogs = append([]*types.HabitLog(nil), s.habitLogs...)
	cp.familyLogs = append([]*types.FamilyLog(nil), s.familyLogs...)
	s.saved = cp
}

func (s *fakeStore) restore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return
	}
	s.students, s.studentOrder = s.saved.students, s.saved.studentOrder
	s.submissions, s.subOrder = s.saved.submissions, s.saved.subOrder
	s.daily = s.saved.daily
	s.ledger = s.saved.ledger
	s.habitLogs, s.familyLogs = s.saved.habitLogs, s.saved.familyLogs
	s.saved = nil
}

func (s *fakeStore) addClub(premium bool) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.clubs[id] = &types.Club{ID: id, Name: "Dojo " + id.String()[:4], PremiumVideoProof: premium, CoachEmail: "coach@example.com"}
	return id
}

func (s *fakeStore) addStudent(clubID uuid.UUID, totalXP int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	row := &types.Student{ID: id, Belt: "white", TotalXP: totalXP, CreatedAt: testNow}
	if clubID != uuid.Nil {
		c := clubID
		row.ClubID = &c
	}
	s.students[id] = row
	s.studentOrder = append(s.studentOrder, id)
	return id
}

func (s *fakeStore) balance(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.students[id]; ok {
		return st.TotalXP
	}
	return -1
}

func (s *fakeStore) ledgerFor(id uuid.UUID) []*types.XPTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*types.XPTransaction
	for _, e := range s.ledger {
		if e.StudentID == id {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeStore) submissionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submissions)
}

type fakeStudents struct{ s *fakeStore }

func (f fakeStudents) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Student, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	st, ok := f.s.students[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (f fakeStudents) EnsureExists(dbc dbctx.Context, row *types.Student) (*types.Student, error) {
	f.s.mu.Lock()
	if _, ok := f.s.students[row.ID]; !ok {
		cp := *row
		cp.CreatedAt = testNow
		f.s.students[row.ID] = &cp
		f.s.studentOrder = append(f.s.studentOrder, row.ID)
	}
	f.s.mu.Unlock()
	return f.GetByID(dbc, row.ID)
}

func (f fakeStudents) ListByClub(_ dbctx.Context, clubID uuid.UUID) ([]*types.Student, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*types.Student
	for _, id := range f.s.studentOrder {
		st := f.s.students[id]
		if st.ClubID != nil && *st.ClubID == clubID {
			cp := *st
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeClubs struct{ s *fakeStore }

func (f fakeClubs) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Club, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.clubs[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type fakeLedger struct{ s *fakeStore }

func (f fakeLedger) Apply(_ dbctx.Context, e *types.XPTransaction) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failApply; err != nil {
		f.s.failApply = nil
		return 0, err
	}
	st, ok := f.s.students[e.StudentID]
	if !ok {
		return 0, repos.ErrStudentNotFound
	}
	if st.TotalXP+e.Amount < 0 {
		return 0, repos.ErrInsufficientXP
	}
	st.TotalXP += e.Amount
	cp := *e
	cp.CreatedAt = testNow
	f.s.ledger = append(f.s.ledger, &cp)
	return st.TotalXP, nil
}

func (f fakeLedger) ListByStudent(_ dbctx.Context, studentID uuid.UUID, limit int) ([]*types.XPTransaction, error) {
	all := f.s.ledgerFor(studentID)
	out := make([]*types.XPTransaction, 0, len(all))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (f fakeLedger) SumEarnedSinceByClub(_ dbctx.Context, clubID uuid.UUID, since time.Time) (map[uuid.UUID]int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := map[uuid.UUID]int64{}
	for _, e := range f.s.ledger {
		st := f.s.students[e.StudentID]
		if st == nil || st.ClubID == nil || *st.ClubID != clubID {
			continue
		}
		if e.Direction == gamedomain.DirectionEarn && !e.CreatedAt.Before(since) {
			out[e.StudentID] += e.Amount
		}
	}
	return out, nil
}

type fakeSubmissions struct{ s *fakeStore }

func (f fakeSubmissions) Create(_ dbctx.Context, row *types.ChallengeSubmission) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if row.Mode == gamedomain.ModeQuiz {
		for _, existing := range f.s.submissions {
			if existing.Mode == gamedomain.ModeQuiz && existing.StudentID == row.StudentID && existing.Day == row.Day {
				return fmt.Errorf("create submission: %w", repos.ErrDuplicate)
			}
		}
	}
	cp := *row
	cp.CreatedAt = testNow
	f.s.submissions[row.ID] = &cp
	f.s.subOrder = append(f.s.subOrder, row.ID)
	return nil
}

func (f fakeSubmissions) GetByID(_ dbctx.Context, id uuid.UUID) (*types.ChallengeSubmission, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	row, ok := f.s.submissions[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f fakeSubmissions) CountByStudentKeyModeDay(_ dbctx.Context, studentID uuid.UUID, key, mode, day string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, row := range f.s.submissions {
		if row.StudentID == studentID && row.ChallengeKey == key && row.Mode == mode && row.Day == day {
			n++
		}
	}
	return n, nil
}

func (f fakeSubmissions) CountByStudentModeDay(_ dbctx.Context, studentID uuid.UUID, mode, day string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, row := range f.s.submissions {
		if row.StudentID == studentID && row.Mode == mode && row.Day == day {
			n++
		}
	}
	return n, nil
}

func (f fakeSubmissions) TransitionStatus(_ dbctx.Context, id uuid.UUID, from []string, updates map[string]any) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	row, ok := f.s.submissions[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, st := range from {
		if row.Status == st {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	row.Status = updates["status"].(string)
	if v, ok := updates["verified_by"].(uuid.UUID); ok {
		row.VerifiedBy = &v
	}
	if v, ok := updates["verifier_notes"].(string); ok {
		row.VerifierNotes = v
	}
	if v, ok := updates["resolved_at"].(time.Time); ok {
		row.ResolvedAt = &v
	}
	return true, nil
}

func (f fakeSubmissions) SetPvpScore(_ dbctx.Context, id uuid.UUID, role types.PvpRole, score int) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	row, ok := f.s.submissions[id]
	if !ok || row.Mode != gamedomain.ModePvp || row.Status != gamedomain.StatusActive {
		return false, nil
	}
	v := score
	if role == gamedomain.PvpRoleOpponent {
		if row.OpponentScore != nil {
			return false, nil
		}
		row.OpponentScore = &v
	} else {
		if row.ChallengerScore != nil {
			return false, nil
		}
		row.ChallengerScore = &v
	}
	return true, nil
}

func (f fakeSubmissions) ResolvePvp(_ dbctx.Context, id uuid.UUID, winnerID *uuid.UUID, at time.Time, xpPaid int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	row, ok := f.s.submissions[id]
	if !ok || row.Status != gamedomain.StatusActive || row.ChallengerScore == nil || row.OpponentScore == nil {
		return false, nil
	}
	row.Status = gamedomain.StatusCompleted
	row.WinnerID = winnerID
	row.ResolvedAt = &at
	row.XPAmount = xpPaid
	return true, nil
}

func (f fakeSubmissions) CountPaidPvpForPair(_ dbctx.Context, a, b uuid.UUID, from, to time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, row := range f.s.submissions {
		if row.Mode != gamedomain.ModePvp || row.Status != gamedomain.StatusCompleted || row.XPAmount <= 0 {
			continue
		}
		if row.ResolvedAt == nil || row.ResolvedAt.Before(from) || !row.ResolvedAt.Before(to) || row.OpponentID == nil {
			continue
		}
		if (row.StudentID == a && *row.OpponentID == b) || (row.StudentID == b && *row.OpponentID == a) {
			n++
		}
	}
	return n, nil
}

func (f fakeSubmissions) ListPendingVideo(_ dbctx.Context, clubID *uuid.UUID, limit int) ([]*types.ChallengeSubmission, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*types.ChallengeSubmission
	for _, id := range f.s.subOrder {
		row := f.s.submissions[id]
		if row.Mode != gamedomain.ModeSoloVideo || row.Status != gamedomain.StatusPending {
			continue
		}
		if clubID != nil {
			st := f.s.students[row.StudentID]
			if st == nil || st.ClubID == nil || *st.ClubID != *clubID {
				continue
			}
		}
		cp := *row
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f fakeSubmissions) ListPvpForStudent(_ dbctx.Context, studentID uuid.UUID, limit int) ([]*types.ChallengeSubmission, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*types.ChallengeSubmission
	for _, id := range f.s.subOrder {
		row := f.s.submissions[id]
		if row.Mode == gamedomain.ModePvp && (row.StudentID == studentID || (row.OpponentID != nil && *row.OpponentID == studentID)) {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeDaily struct{ s *fakeStore }

func (f fakeDaily) GetByKey(_ dbctx.Context, date, cohort string) (*types.DailyChallenge, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	row, ok := f.s.daily[date+"|"+cohort]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f fakeDaily) GetByID(_ dbctx.Context, id uuid.UUID) (*types.DailyChallenge, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, row := range f.s.daily {
		if row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeDaily) CreateIfAbsent(_ dbctx.Context, row *types.DailyChallenge) (*types.DailyChallenge, bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	key := row.ChallengeDate + "|" + row.Cohort
	if existing, ok := f.s.daily[key]; ok {
		cp := *existing
		return &cp, false, nil
	}
	cp := *row
	f.s.daily[key] = &cp
	out := cp
	return &out, true, nil
}

type fakeHabitLogs struct{ s *fakeStore }

func (f fakeHabitLogs) Create(_ dbctx.Context, row *types.HabitLog) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, l := range f.s.habitLogs {
		if l.StudentID == row.StudentID && l.HabitKey == row.HabitKey && l.Day == row.Day {
			return fmt.Errorf("create habit log: %w", repos.ErrDuplicate)
		}
	}
	cp := *row
	f.s.habitLogs = append(f.s.habitLogs, &cp)
	return nil
}

func (f fakeHabitLogs) Exists(_ dbctx.Context, studentID uuid.UUID, habitKey, day string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, l := range f.s.habitLogs {
		if l.StudentID == studentID && l.HabitKey == habitKey && l.Day == day {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeHabitLogs) ListByStudentDay(_ dbctx.Context, studentID uuid.UUID, day string) ([]*types.HabitLog, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*types.HabitLog
	for _, l := range f.s.habitLogs {
		if l.StudentID == studentID && l.Day == day {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeHabitLogs) SumXPByStudentDay(dbc dbctx.Context, studentID uuid.UUID, day string) (int64, error) {
	logs, _ := f.ListByStudentDay(dbc, studentID, day)
	var sum int64
	for _, l := range logs {
		sum += l.XPAwarded
	}
	return sum, nil
}

type fakeFamilyLogs struct{ s *fakeStore }

func (f fakeFamilyLogs) Create(_ dbctx.Context, row *types.FamilyLog) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, l := range f.s.familyLogs {
		if l.StudentID == row.StudentID && l.ChallengeKey == row.ChallengeKey && l.Day == row.Day {
			return fmt.Errorf("create family log: %w", repos.ErrDuplicate)
		}
	}
	cp := *row
	f.s.familyLogs = append(f.s.familyLogs, &cp)
	return nil
}

func (f fakeFamilyLogs) Exists(_ dbctx.Context, studentID uuid.UUID, key, day string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, l := range f.s.familyLogs {
		if l.StudentID == studentID && l.ChallengeKey == key && l.Day == day {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeFamilyLogs) ListByStudentDay(_ dbctx.Context, studentID uuid.UUID, day string) ([]*types.FamilyLog, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*types.FamilyLog
	for _, l := range f.s.familyLogs {
		if l.StudentID == studentID && l.Day == day {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeGenerator struct {
	calls atomic.Int32
	mu    sync.Mutex
	out   *services.GeneratedChallenge
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, _ services.ChallengeRequest) (*services.GeneratedChallenge, error) {
	g.calls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	cp := *g.out
	return &cp, nil
}

func (g *fakeGenerator) set(out *services.GeneratedChallenge, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out, g.err = out, err
}

func sampleGenerated() *services.GeneratedChallenge {
	return &services.GeneratedChallenge{
		Title:         "Stance Check",
		Description:   "Know your stances.",
		Question:      "Which stance is wide and low?",
		Options:       []string{"Front stance", "Horse stance", "Cat stance"},
		CorrectOption: 1,
		Explanation:   "Horse stance keeps your feet wide and your hips low.",
	}
}

type fakeCache struct {
	mu   sync.Mutex
	rows map[string]*types.DailyChallenge
}

func (c *fakeCache) Get(_ context.Context, date, cohort string) (*types.DailyChallenge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[date+"|"+cohort]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (c *fakeCache) Set(_ context.Context, row *types.DailyChallenge) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rows == nil {
		c.rows = map[string]*types.DailyChallenge{}
	}
	cp := *row
	c.rows[row.ChallengeDate+"|"+row.Cohort] = &cp
	return nil
}

type fakeEntitlement struct{ s *fakeStore }

func (e fakeEntitlement) HasVideoProof(_ context.Context, st *types.Student) (bool, error) {
	if st.PremiumVideoProof {
		return true, nil
	}
	if st.ClubID == nil {
		return false, nil
	}
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	c := e.s.clubs[*st.ClubID]
	return c != nil && c.PremiumVideoProof, nil
}

type fakeVideos struct {
	mu      sync.Mutex
	saved   []string
	removed []string
}

func (v *fakeVideos) Save(_ context.Context, studentID uuid.UUID, key, filename string, body io.Reader) (services.StoredVideo, error) {
	objectKey, err := services.VideoKey(studentID, key, filename)
	if err != nil {
		return services.StoredVideo{}, err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return services.StoredVideo{}, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.saved = append(v.saved, objectKey)
	return services.StoredVideo{Key: objectKey, URL: "https://cdn.example.com/" + objectKey}, nil
}

func (v *fakeVideos) Remove(_ context.Context, key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.removed = append(v.removed, key)
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []services.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note services.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notes))
	for _, note := range n.notes {
		out = append(out, string(note.Event))
	}
	return out
}

type harness struct {
	u        Usecases
	store    *fakeStore
	gen      *fakeGenerator
	cache    *fakeCache
	videos   *fakeVideos
	notifier *recordingNotifier
	tx       *aggtest.InjectedTxRunner
	hooks    *aggtest.HooksRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newFakeStore()
	h := &harness{
		store:    store,
		gen:      &fakeGenerator{out: sampleGenerated()},
		cache:    &fakeCache{},
		videos:   &fakeVideos{},
		notifier: &recordingNotifier{},
		tx:       &aggtest.InjectedTxRunner{},
		hooks:    &aggtest.HooksRecorder{},
	}
	h.u = New(UsecasesDeps{
		Log:         logger.Nop(),
		Tx:          h.tx,
		Hooks:       h.hooks,
		Clock:       fixedClock{t: testNow},
		Students:    fakeStudents{store},
		Clubs:       fakeClubs{store},
		Ledger:      fakeLedger{store},
		Submissions: fakeSubmissions{store},
		Daily:       fakeDaily{store},
		HabitLogs:   fakeHabitLogs{store},
		FamilyLogs:  fakeFamilyLogs{store},
		DailyCache:  h.cache,
		Generator:   h.gen,
		Entitlement: fakeEntitlement{store},
		Videos:      h.videos,
		Notify:      h.notifier,
	})
	return h
}

// withRollback makes a failed write body restore the store.
func (h *harness) withRollback() {
	h.tx.OnBegin = h.store.snapshot
	h.tx.OnRollback = h.store.restore
}

func student(id uuid.UUID) Actor { return Actor{ID: id, Role: ctxutil.RoleStudent} }

func coach(clubID uuid.UUID) Actor {
	return Actor{ID: uuid.New(), Role: ctxutil.RoleCoach, ClubID: clubID}
}

func admin() Actor { return Actor{ID: uuid.New(), Role: ctxutil.RoleAdmin} }

func requireAPIErr(t *testing.T, err error, status int, code string) *apierr.Error {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %T %v", err, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("expected %d %s, got %d %s (%v)", status, code, ae.Status, ae.Code, ae.Err)
	}
	return ae
}
