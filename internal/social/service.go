// Package social はフレンド関係とフレンドのリーダーボードを提供する。
package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hitoshi/norskgolf/internal/model"
	"github.com/hitoshi/norskgolf/internal/repository"
)

// リーダーボードとフレンド申請で使うステータス値
const (
	StatusAccepted      = "ACCEPTED"
	StatusMe            = "ME"
	StatusPendingAction = "PENDING_ACTION"
)

// ユーザー検索で返す関係ステータス
const (
	RelationNone     = "NONE"
	RelationFriends  = "FRIENDS"
	RelationSent     = "SENT"
	RelationReceived = "RECEIVED"
)

// フレンド申請への応答種別
const (
	ActionAccept = "ACCEPT"
	ActionReject = "REJECT"
)

// SelfSuffix はリーダーボード上の自分の表示名に付与する接尾辞。
const SelfSuffix = " (You)"

// SearchLimit はユーザー検索で返す最大件数。
const SearchLimit = 20

// FriendEntry はリーダーボードの1行を表す。
type FriendEntry struct {
	ID           int64
	DisplayName  string
	Status       string
	FriendshipID *int64 // 自分の行はnil
	TotalCourses int
	TotalRounds  int
	Avatar       string
}

// FriendRequest は受信したフレンド申請を表す。
type FriendRequest struct {
	FriendID     int64
	DisplayName  string
	Status       string
	FriendshipID int64
}

// SearchResult はユーザー検索の1件を表す。
type SearchResult struct {
	ID          int64
	DisplayName string
	Status      string
}

// Service はフレンド関係のサービス層。
type Service struct {
	userRepo       repository.UserRepository
	friendshipRepo repository.FriendshipRepository
	playedRepo     repository.PlayedCourseRepository
	roundRepo      repository.RoundRepository
	logger         *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	friendshipRepo repository.FriendshipRepository,
	playedRepo repository.PlayedCourseRepository,
	roundRepo repository.RoundRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
		playedRepo:     playedRepo,
		roundRepo:      roundRepo,
		logger:         logger,
	}
}

// Leaderboard は承認済みフレンドと自分をプレー済みコース数の降順で返す。
// 自分の行は末尾に追加してから全体を安定ソートするため、同数の場合はフレンドが先に並ぶ。
func (s *Service) Leaderboard(ctx context.Context, userID int64) ([]FriendEntry, error) {
	me, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if me == nil {
		return nil, model.NewUserNotFoundError()
	}

	friendships, err := s.friendshipRepo.FindAllAccepted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フレンド一覧の取得に失敗しました: %w", err)
	}

	friendIDs := make([]int64, len(friendships))
	for i, f := range friendships {
		friendIDs[i] = f.OtherParty(userID)
	}
	users, err := s.userRepo.FindByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("フレンドの取得に失敗しました: %w", err)
	}

	entries := make([]FriendEntry, 0, len(friendships)+1)
	for _, f := range friendships {
		friend, ok := users[f.OtherParty(userID)]
		if !ok {
			s.logger.Warn("friend user not found",
				slog.Int64("friendship_id", f.ID),
				slog.Int64("user_id", f.OtherParty(userID)),
			)
			continue
		}

		courses, rounds, err := s.totals(ctx, friend.ID)
		if err != nil {
			return nil, err
		}
		friendshipID := f.ID
		entries = append(entries, FriendEntry{
			ID:           friend.ID,
			DisplayName:  friend.DisplayName(),
			Status:       StatusAccepted,
			FriendshipID: &friendshipID,
			TotalCourses: courses,
			TotalRounds:  rounds,
			Avatar:       friend.Avatar,
		})
	}

	courses, rounds, err := s.totals(ctx, me.ID)
	if err != nil {
		return nil, err
	}
	entries = append(entries, FriendEntry{
		ID:           me.ID,
		DisplayName:  me.DisplayName() + SelfSuffix,
		Status:       StatusMe,
		TotalCourses: courses,
		TotalRounds:  rounds,
		Avatar:       me.Avatar,
	})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalCourses > entries[j].TotalCourses
	})

	return entries, nil
}

// PendingRequests はユーザーが受信した承認待ちのフレンド申請を返す。
func (s *Service) PendingRequests(ctx context.Context, userID int64) ([]FriendRequest, error) {
	pending, err := s.friendshipRepo.FindPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フレンド申請の取得に失敗しました: %w", err)
	}

	requesterIDs := make([]int64, len(pending))
	for i, f := range pending {
		requesterIDs[i] = f.RequesterID
	}
	users, err := s.userRepo.FindByIDs(ctx, requesterIDs)
	if err != nil {
		return nil, fmt.Errorf("申請者の取得に失敗しました: %w", err)
	}

	requests := make([]FriendRequest, 0, len(pending))
	for _, f := range pending {
		requester, ok := users[f.RequesterID]
		if !ok {
			continue
		}
		requests = append(requests, FriendRequest{
			FriendID:     requester.ID,
			DisplayName:  requester.DisplayName(),
			Status:       StatusPendingAction,
			FriendshipID: f.ID,
		})
	}
	return requests, nil
}

// SendRequest はフレンド申請を送信する。
func (s *Service) SendRequest(ctx context.Context, senderID, receiverID int64) error {
	if senderID == receiverID {
		return model.NewCannotAddSelfError()
	}

	receiver, err := s.userRepo.FindByID(ctx, receiverID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if receiver == nil {
		return model.NewUserNotFoundError()
	}

	existing, err := s.friendshipRepo.FindRelationship(ctx, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("フレンド関係の確認に失敗しました: %w", err)
	}
	if existing != nil {
		return model.NewRelationshipExistsError()
	}

	friendship := &model.Friendship{
		RequesterID: senderID,
		ReceiverID:  receiverID,
		Status:      model.FriendshipPending,
	}
	if err := s.friendshipRepo.Create(ctx, friendship); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.NewRelationshipExistsError()
		}
		return fmt.Errorf("フレンド申請の作成に失敗しました: %w", err)
	}

	s.logger.Info("friend request sent",
		slog.Int64("friendship_id", friendship.ID),
		slog.Int64("requester_id", senderID),
		slog.Int64("receiver_id", receiverID),
	)
	return nil
}

// Respond はフレンド申請を承認または拒否する。受信者のみ応答できる。
// 拒否した申請は削除される。
func (s *Service) Respond(ctx context.Context, userID, friendshipID int64, action string) error {
	friendship, err := s.friendshipRepo.FindByID(ctx, friendshipID)
	if err != nil {
		return fmt.Errorf("フレンド申請の取得に失敗しました: %w", err)
	}
	if friendship == nil {
		return model.NewFriendshipNotFoundError(friendshipID)
	}
	if friendship.ReceiverID != userID {
		return model.NewForbiddenError("自分宛ての申請のみ応答できます")
	}

	switch strings.ToUpper(action) {
	case ActionAccept:
		if err := s.friendshipRepo.UpdateStatus(ctx, friendshipID, model.FriendshipAccepted); err != nil {
			return fmt.Errorf("フレンド申請の承認に失敗しました: %w", err)
		}
	case ActionReject:
		if err := s.friendshipRepo.Delete(ctx, friendshipID); err != nil {
			return fmt.Errorf("フレンド申請の削除に失敗しました: %w", err)
		}
	default:
		return model.NewInvalidActionError(action)
	}

	s.logger.Info("friend request answered",
		slog.Int64("friendship_id", friendshipID),
		slog.String("action", strings.ToUpper(action)),
	)
	return nil
}

// Search はユーザーを検索し、呼び出しユーザーとの関係ステータスを付けて返す。
// "@" を含むクエリはメールアドレスの完全一致を優先し、見つからなければユーザー名の部分一致で検索する。
func (s *Service) Search(ctx context.Context, userID int64, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewInvalidRequestError("検索語が指定されていません")
	}

	var matches []*model.User
	if strings.Contains(query, "@") {
		user, err := s.userRepo.FindByEmail(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
		}
		if user != nil {
			matches = append(matches, user)
		}
	}
	if len(matches) == 0 {
		users, err := s.userRepo.SearchByUsername(ctx, query, SearchLimit)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
		}
		matches = users
	}

	results := make([]SearchResult, 0, len(matches))
	for _, u := range matches {
		if u.ID == userID {
			continue
		}
		status, err := s.relation(ctx, userID, u.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			ID:          u.ID,
			DisplayName: u.DisplayName(),
			Status:      status,
		})
	}
	return results, nil
}

func (s *Service) relation(ctx context.Context, me, other int64) (string, error) {
	f, err := s.friendshipRepo.FindRelationship(ctx, me, other)
	if err != nil {
		return "", fmt.Errorf("フレンド関係の確認に失敗しました: %w", err)
	}
	switch {
	case f == nil:
		return RelationNone, nil
	case f.Status == model.FriendshipAccepted:
		return RelationFriends, nil
	case f.RequesterID == me:
		return RelationSent, nil
	default:
		return RelationReceived, nil
	}
}

func (s *Service) totals(ctx context.Context, userID int64) (courses, rounds int, err error) {
	courses, err = s.playedRepo.CountByUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("プレー済みコース数の取得に失敗しました: %w", err)
	}
	rounds, err = s.roundRepo.CountByUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("ラウンド数の取得に失敗しました: %w", err)
	}
	return courses, rounds, nil
}
