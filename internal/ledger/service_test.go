package ledger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/hitoshi/norskgolf/internal/model"
	"github.com/hitoshi/norskgolf/internal/repository"
)

// --- インメモリのフェイク ---

type memLedger struct {
	users   map[int64]*model.User
	courses map[int64]*model.Course
	played  map[[2]int64]*model.PlayedCourse
	rounds  map[int64]*model.Round
	nextID  int64

	// createRaced がtrueの場合、PlayedCourse作成時に先行リクエストが作成済みだった状況を再現する。
	createRaced bool
	// failPlayedCreate がtrueの場合、ラウンド作成後にプレー済み作成が失敗する。
	failPlayedCreate bool
}

func newMemLedger() *memLedger {
	return &memLedger{
		users:   map[int64]*model.User{1: {ID: 1, Username: "ola"}, 2: {ID: 2, Username: "kari"}},
		courses: map[int64]*model.Course{},
		played:  map[[2]int64]*model.PlayedCourse{},
		rounds:  map[int64]*model.Round{},
		nextID:  100,
	}
}

func (m *memLedger) addCourse(id int64, name, extID string) {
	ext := extID
	m.courses[id] = &model.Course{ID: id, Name: name, ExternalID: &ext}
}

func (m *memLedger) id() int64 {
	m.nextID++
	return m.nextID
}

type memUsers struct{ m *memLedger }

func (u memUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return u.m.users[id], nil
}
func (u memUsers) FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	return nil, nil
}
func (u memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (u memUsers) SearchByUsername(ctx context.Context, query string, limit int) ([]*model.User, error) {
	return nil, nil
}

type memCourses struct{ m *memLedger }

func (c memCourses) FindAll(ctx context.Context) ([]*model.Course, error) {
	var out []*model.Course
	for _, course := range c.m.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
func (c memCourses) FindByID(ctx context.Context, id int64) (*model.Course, error) {
	return c.m.courses[id], nil
}
func (c memCourses) FindByExternalID(ctx context.Context, externalID string) (*model.Course, error) {
	for _, course := range c.m.courses {
		if course.ExternalID != nil && *course.ExternalID == externalID {
			return course, nil
		}
	}
	return nil, nil
}
func (c memCourses) FindPlayedByUser(ctx context.Context, userID int64) ([]*model.Course, error) {
	var out []*model.Course
	for key := range c.m.played {
		if key[0] == userID {
			out = append(out, c.m.courses[key[1]])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
func (c memCourses) Upsert(ctx context.Context, course *model.Course) error { return nil }
func (c memCourses) Count(ctx context.Context) (int, error)                 { return len(c.m.courses), nil }

type memPlayed struct{ m *memLedger }

func (p memPlayed) Exists(ctx context.Context, userID, courseID int64) (bool, error) {
	if p.m.createRaced {
		return false, nil
	}
	_, ok := p.m.played[[2]int64{userID, courseID}]
	return ok, nil
}
func (p memPlayed) Create(ctx context.Context, userID, courseID int64) (bool, error) {
	if p.m.failPlayedCreate {
		return false, errors.New("disk full")
	}
	key := [2]int64{userID, courseID}
	if _, ok := p.m.played[key]; ok {
		return false, nil
	}
	p.m.played[key] = &model.PlayedCourse{ID: p.m.id(), UserID: userID, CourseID: courseID}
	return true, nil
}
func (p memPlayed) Delete(ctx context.Context, userID, courseID int64) error {
	delete(p.m.played, [2]int64{userID, courseID})
	return nil
}
func (p memPlayed) FindByUser(ctx context.Context, userID int64) ([]*model.PlayedCourse, error) {
	var out []*model.PlayedCourse
	for key, pc := range p.m.played {
		if key[0] == userID {
			out = append(out, pc)
		}
	}
	return out, nil
}
func (p memPlayed) CountByUser(ctx context.Context, userID int64) (int, error) {
	list, _ := p.FindByUser(ctx, userID)
	return len(list), nil
}

type memRounds struct{ m *memLedger }

func (r memRounds) Create(ctx context.Context, round *model.Round) error {
	round.ID = r.m.id()
	copied := *round
	r.m.rounds[round.ID] = &copied
	return nil
}
func (r memRounds) FindByID(ctx context.Context, id int64) (*model.Round, error) {
	return r.m.rounds[id], nil
}
func (r memRounds) Delete(ctx context.Context, id int64) error {
	delete(r.m.rounds, id)
	return nil
}
func (r memRounds) FindByUser(ctx context.Context, userID int64) ([]*model.RoundWithCourse, error) {
	var out []*model.RoundWithCourse
	for _, round := range r.m.rounds {
		if round.UserID == userID {
			out = append(out, &model.RoundWithCourse{Round: *round, CourseName: r.m.courses[round.CourseID].Name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
func (r memRounds) ExistsByUserAndCourse(ctx context.Context, userID, courseID int64) (bool, error) {
	for _, round := range r.m.rounds {
		if round.UserID == userID && round.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}
func (r memRounds) CountByUser(ctx context.Context, userID int64) (int, error) {
	list, _ := r.FindByUser(ctx, userID)
	return len(list), nil
}

// memTx はfnの失敗時に状態を巻き戻すフェイクのトランザクション。
type memTx struct {
	m     *memLedger
	calls int
}

func (t *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context, stores repository.LedgerStores) error) error {
	t.calls++
	playedSnap := make(map[[2]int64]*model.PlayedCourse, len(t.m.played))
	for k, v := range t.m.played {
		playedSnap[k] = v
	}
	roundSnap := make(map[int64]*model.Round, len(t.m.rounds))
	for k, v := range t.m.rounds {
		roundSnap[k] = v
	}

	err := fn(ctx, repository.LedgerStores{
		Courses:       memCourses{t.m},
		Rounds:        memRounds{t.m},
		PlayedCourses: memPlayed{t.m},
	})
	if err != nil {
		t.m.played = playedSnap
		t.m.rounds = roundSnap
	}
	return err
}

type spyMetrics struct {
	logged     int
	deleted    int
	suppressed map[string]int
}

func (s *spyMetrics) RecordImport(source, outcome string)                       {}
func (s *spyMetrics) RecordCoursesImported(count int)                           {}
func (s *spyMetrics) RecordElementsSkipped(reason string, count int)            {}
func (s *spyMetrics) RecordSourceLatency(source string, duration time.Duration) {}
func (s *spyMetrics) RecordRoundLogged()                                        { s.logged++ }
func (s *spyMetrics) RecordRoundDeleted()                                       { s.deleted++ }
func (s *spyMetrics) RecordHTTPStatus(statusCode int)                           {}
func (s *spyMetrics) RecordDuplicateSuppressed(entity string) {
	if s.suppressed == nil {
		s.suppressed = map[string]int{}
	}
	s.suppressed[entity]++
}

func newTestService(m *memLedger) (*Service, *memTx, *spyMetrics) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tx := &memTx{m: m}
	spy := &spyMetrics{}
	svc := NewService(memUsers{m}, memCourses{m}, memPlayed{m}, memRounds{m}, tx, spy, logger)
	return svc, tx, spy
}

func date(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func requireAPIError(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返されるべきです: %v", err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

// --- テスト ---

// TestService_LogRound_CreatesPlayedCourse はプレー済み記録が無い状態でラウンドを記録すると
// プレー済み記録がちょうど1件作成されることを検証する。
func TestService_LogRound_CreatesPlayedCourse(t *testing.T) {
	m := newMemLedger()
	m.addCourse(10, "Oslo Golfklubb", "way/1")
	svc, tx, spy := newTestService(m)

	summary, err := svc.LogRound(context.Background(), 1, RoundInput{CourseID: 10, Date: date("2024-06-01"), Score: 82})
	if err != nil {
		t.Fatalf("LogRound returned error: %v", err)
	}
	if summary.CourseName != "Oslo Golfklubb" {
		t.Errorf("CourseName = %q, want %q", summary.CourseName, "Oslo Golfklubb")
	}
	if summary.ID == 0 {
		t.Error("ラウンドIDが採番されるべきです")
	}
	if len(m.played) != 1 {
		t.Fatalf("プレー済み記録は1件であるべきです: got %d", len(m.played))
	}
	if _, ok := m.played[[2]int64{1, 10}]; !ok {
		t.Error("(1, 10) のプレー済み記録が作成されるべきです")
	}
	if tx.calls != 1 {
		t.Errorf("トランザクションは1回であるべきです: got %d", tx.calls)
	}
	if spy.logged != 1 {
		t.Errorf("RecordRoundLogged = %d, want 1", spy.logged)
	}
}

// TestService_LogRound_SecondRoundKeepsSinglePlayedCourse は同じコースの2回目のラウンドで
// プレー済み記録が増えないことを検証する。
func TestService_LogRound_SecondRoundKeepsSinglePlayedCourse(t *testing.T) {
	m := newMemLedger()
	m.addCourse(10, "Oslo Golfklubb", "way/1")
	svc, _, _ := newTestService(m)

	for _, d := range []string{"2024-06-01", "2024-06-08"} {
		if _, err := svc.LogRound(context.Background(), 1, RoundInput{CourseID: 10, Date: date(d), Score: 80}); err != nil {
			t.Fatalf("LogRound returned error: %v", err)
		}
	}
	if len(m.rounds) != 2 {
		t.Errorf("ラウンドは2件であるべきです: got %d", len(m.rounds))
	}
	if len(m.played) != 1 {
		t.Errorf("プレー済み記録は1件であるべきです: got %d", len(m.played))
	}
}

// TestService_LogRound_ConcurrentDuplicateIsSuppressed は先行リクエストが作成済みの場合に
// エラーにならず重複抑止として記録されることを検証する。
func TestService_LogRound_ConcurrentDuplicateIsSuppressed(t *testing.T) {
	m := newMemLedger()
	m.addCourse(10, "Oslo Golfklubb", "way/1")
	m.played[[2]int64{1, 10}] = &model.PlayedCourse{ID: 1, UserID: 1, CourseID: 10}
	m.createRaced = true
	svc, _, spy := newTestService(m)

	if _, err := svc.LogRound(context.Background(), 1, RoundInput{CourseID: 10, Date: date("2024-06-01"), Score: 80}); err != nil {
		t.Fatalf("重複作成はエラーにならないべきです: %v", err)
	}
	if spy.suppressed["played_course"] != 1 {
		t.Errorf("RecordDuplicateSuppressed(played_course) = %d, want 1", spy.suppressed["played_course"])
	}
	if len(m.played) != 1 {
		t.Errorf("プレー済み記録は1件のままであるべきです: got %d", len(m.played))
	}
}

// TestService_LogRound_RollsBackOnPlayedCourseFailure はプレー済み作成の失敗時に
// ラウンドも保存されないことを検証する。
func TestService_LogRound_RollsBackOnPlayedCourseFailure(t *testing.T) {
	m := newMemLedger()
	m.addCourse(10, "Oslo Golfklubb", "way/1")
	m.failPlayedCreate = true
	svc, _, spy := newTestService(m)

	_, err := svc.LogRound(context.Background(), 1, RoundInput{CourseID: 10, Date: date("2024-06-01"), Score: 80})
	if err == nil {
		t.Fatal("エラーが返されるべきです")
	}
	if len(m.rounds) != 0 {
		t.Errorf("ラウンドはロールバックされるべきです: got %d", len(m.rounds))
	}
	if spy.logged != 0 {
		t.Errorf("失敗時はRecordRoundLoggedを呼ぶべきではありません: got %d", spy.logged)
	}
}

// TestService_LogRound_Validation は入力値と参照先の検証を確認する。
func TestService_LogRound_Validation(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		input  RoundInput
		code   string
	}{
		{"スコアが0", 1, RoundInput{CourseID: 10, Date: date("2024-06-01"), Score: 0}, model.ErrCodeInvalidRound},
		{"スコアが負", 1, RoundInput{CourseID: 10, Date: date("2024-06-01"), Score: -3}, model.ErrCodeInvalidRound},
		{"日付なし", 1, RoundInput{CourseID: 10, Score: 80}, model.ErrCodeInvalidRound},
		{"存在しないユーザー", 99, RoundInput{CourseID: 10, Date: date("2024-06-01"), Score: 80}, model.ErrCodeUserNotFound},
		{"存在しないコース", 1, RoundInput{CourseID: 77, Date: date("2024-06-01"), Score: 80}, model.ErrCodeCourseNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMemLedger()
			m.addCourse(10, "Oslo Golfklubb", "way/1")
			svc, tx, _ := newTestService(m)

			_, err := svc.LogRound(context.Background(), tt.userID, tt.input)
			requireAPIError(t, err, tt.code)
			if tx.calls != 0 {
				t.Errorf("検証失敗時はトランザクションを開始すべきではありません: got %d", tx.calls)
			}
			if len(m.rounds) != 0 || len(m.played) != 0 {
				t.Error("検証失敗時は書き込みが発生すべきではありません")
			}
		})
	}
}

// TestService_DeleteRound_UnmarksOnlyWhenLast は2件のラウンドのうち1件目の削除では
// プレー済み記録が残り、2件目の削除で消えることを検証する。
func TestService_DeleteRound_UnmarksOnlyWhenLast(t *testing.T) {
	m := newMemLedger()
	m.addCourse(10, "Oslo Golfklubb", "way/1")
	svc, _, spy := newTestService(m)
	ctx := context.Background()

	first, err := svc.LogRound(ctx, 1, RoundInput{CourseID: 10, Date: date("2024-06-01"), Score: 80})
	if err != nil {
		t.Fatalf("LogRound returned error: %v", err)
	}
	second, err := svc.LogRound(ctx, 1, RoundInput{CourseID: 10, Date: date("2024-06-02"), Score: 78})
	if err != nil {
		t.Fatalf("LogRound returned error: %v", err)
	}

	if err := svc.DeleteRound(ctx, 1, first.ID); err != nil {
		t.Fatalf("DeleteRound returned error: %v", err)
	}
	if _, ok := m.played[[2]int64{1, 10}]; !ok {
		t.Fatal("ラウンドが残っている間はプレー済み記録が残るべきです")
	}

	if err := svc.DeleteRound(ctx, 1, second.ID); err != nil {
		t.Fatalf("DeleteRound returned error: %v", err)
	}
	if _, ok := m.played[[2]int64{1, 10}]; ok {
		t.Error("最後のラウンド削除でプレー済み記録が削除されるべきです")
	}
	if spy.deleted != 2 {
		t.Errorf("RecordRoundDeleted = %d, want 2", spy.deleted)
	}
}

// TestService_DeleteRound_OtherUsersRound は他ユーザーのラウンドが削除できないことを検証する。
func TestService_DeleteRound_OtherUsersRound(t *testing.T) {
	m := newMemLedger()
	m.addCourse(10, "Oslo Golfklubb", "way/1")
	svc, _, _ := newTestService(m)
	ctx := context.Background()

	round, err := svc.LogRound(ctx, 2, RoundInput{CourseID: 10, Date: date("2024-06-01"), Score: 90})
	if err != nil {
		t.Fatalf("LogRound returned error: %v", err)
	}

	err = svc.DeleteRound(ctx, 1, round.ID)
	requireAPIError(t, err, model.ErrCodeForbidden)
	if _, ok := m.rounds[round.ID]; !ok {
		t.Error("ラウンドは削除されるべきではありません")
	}
	if _, ok := m.played[[2]int64{2, 10}]; !ok {
		t.Error("プレー済み記録は削除されるべきではありません")
	}
}

// TestService_DeleteRound_NotFound は存在しないラウンドの削除を検証する。
func TestService_DeleteRound_NotFound(t *testing.T) {
	m := newMemLedger()
	svc, _, _ := newTestService(m)

	err := svc.DeleteRound(context.Background(), 1, 12345)
	requireAPIError(t, err, model.ErrCodeRoundNotFound)
}

// TestService_MarkPlayed は手動でのプレー済み登録が冪等であることを検証する。
func TestService_MarkPlayed(t *testing.T) {
	m := newMemLedger()
	m.addCourse(10, "Oslo Golfklubb", "way/1")
	m.addCourse(11, "Bergen Golfklubb", "way/2")
	svc, _, _ := newTestService(m)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		views, err := svc.MarkPlayed(ctx, 1, 1, "way/2")
		if err != nil {
			t.Fatalf("MarkPlayed returned error: %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("プレー済みコースは1件であるべきです: got %d", len(views))
		}
		if views[0].Name != "Bergen Golfklubb" || !views[0].Played {
			t.Errorf("views[0] = %+v", views[0])
		}
	}
	if len(m.played) != 1 {
		t.Errorf("プレー済み記録は1件であるべきです: got %d", len(m.played))
	}
	if len(m.rounds) != 0 {
		t.Errorf("ラウンドは作成されるべきではありません: got %d", len(m.rounds))
	}
}

// TestService_MarkPlayed_Errors はプレー済み登録のエラー条件を検証する。
func TestService_MarkPlayed_Errors(t *testing.T) {
	tests := []struct {
		name    string
		actorID int64
		userID  int64
		extID   string
		code    string
	}{
		{"他ユーザー", 2, 1, "way/1", model.ErrCodeForbidden},
		{"存在しないユーザー", 99, 99, "way/1", model.ErrCodeUserNotFound},
		{"存在しないコース", 1, 1, "way/404", model.ErrCodeCourseNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMemLedger()
			m.addCourse(10, "Oslo Golfklubb", "way/1")
			svc, _, _ := newTestService(m)

			_, err := svc.MarkPlayed(context.Background(), tt.actorID, tt.userID, tt.extID)
			requireAPIError(t, err, tt.code)
			if len(m.played) != 0 {
				t.Error("エラー時はプレー済み記録が作成されるべきではありません")
			}
		})
	}
}

// TestService_ListCourses はプレー済みフラグが呼び出しユーザー基準で付与されることを検証する。
func TestService_ListCourses(t *testing.T) {
	m := newMemLedger()
	m.addCourse(10, "Oslo Golfklubb", "way/1")
	m.addCourse(11, "Bergen Golfklubb", "way/2")
	m.played[[2]int64{1, 10}] = &model.PlayedCourse{ID: 1, UserID: 1, CourseID: 10}
	m.played[[2]int64{2, 11}] = &model.PlayedCourse{ID: 2, UserID: 2, CourseID: 11}
	svc, _, _ := newTestService(m)

	views, err := svc.ListCourses(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListCourses returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("コースは2件であるべきです: got %d", len(views))
	}
	got := map[string]bool{}
	for _, v := range views {
		got[v.Name] = v.Played
	}
	if !got["Oslo Golfklubb"] {
		t.Error("Oslo Golfklubb はプレー済みであるべきです")
	}
	if got["Bergen Golfklubb"] {
		t.Error("Bergen Golfklubb は未プレーであるべきです")
	}
	if views[0].Region != model.UnknownRegion {
		t.Errorf("地域未設定のコースは %q であるべきです: got %q", model.UnknownRegion, views[0].Region)
	}
}

// TestService_ListRounds はラウンドが日付の降順、同日はIDの降順で返ることを検証する。
func TestService_ListRounds(t *testing.T) {
	m := newMemLedger()
	m.addCourse(10, "Oslo Golfklubb", "way/1")
	svc, _, _ := newTestService(m)
	ctx := context.Background()

	var ids []int64
	for _, d := range []string{"2024-05-01", "2024-06-01", "2024-06-01"} {
		s, err := svc.LogRound(ctx, 1, RoundInput{CourseID: 10, Date: date(d), Score: 85})
		if err != nil {
			t.Fatalf("LogRound returned error: %v", err)
		}
		ids = append(ids, s.ID)
	}

	rounds, err := svc.ListRounds(ctx, 1)
	if err != nil {
		t.Fatalf("ListRounds returned error: %v", err)
	}
	want := []int64{ids[2], ids[1], ids[0]}
	if len(rounds) != len(want) {
		t.Fatalf("len(rounds) = %d, want %d", len(rounds), len(want))
	}
	for i, r := range rounds {
		if r.ID != want[i] {
			t.Errorf("rounds[%d].ID = %d, want %d", i, r.ID, want[i])
		}
	}
}
