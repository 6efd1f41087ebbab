package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/norskgolf/internal/model"
)

// FriendServiceInterface はフレンドハンドラーが必要とするサービスインターフェース。
type FriendServiceInterface interface {
	// Leaderboard はフレンドと自分をプレー済みコース数の降順で返す。
	Leaderboard(ctx context.Context, userID int64) ([]friendEntryResponse, error)
	// PendingRequests は自分宛ての承認待ち申請を返す。
	PendingRequests(ctx context.Context, userID int64) ([]friendRequestResponse, error)
	// SendRequest はフレンド申請を送信する。
	SendRequest(ctx context.Context, senderID, receiverID int64) error
	// Respond は申請を承認または拒否する。
	Respond(ctx context.Context, userID, friendshipID int64, action string) error
	// Search はユーザー名またはメールアドレスでユーザーを検索する。
	Search(ctx context.Context, userID int64, query string) ([]searchResultResponse, error)
}

// FriendHandler はフレンド関連のHTTPハンドラー。
type FriendHandler struct {
	service FriendServiceInterface
}

// NewFriendHandler はFriendHandlerを生成する。
func NewFriendHandler(service FriendServiceInterface) *FriendHandler {
	return &FriendHandler{service: service}
}

// friendEntryResponse はリーダーボードの1行のAPIレスポンス。
// 自分の行のfriendshipIdはnullになる。
type friendEntryResponse struct {
	ID           int64  `json:"id"`
	DisplayName  string `json:"displayName"`
	Status       string `json:"status"`
	FriendshipID *int64 `json:"friendshipId"`
	TotalCourses int    `json:"totalCourses"`
	TotalRounds  int    `json:"totalRounds"`
	Avatar       string `json:"avatar"`
}

// friendRequestResponse は受信したフレンド申請のAPIレスポンス。
type friendRequestResponse struct {
	FriendID     int64  `json:"friendId"`
	DisplayName  string `json:"displayName"`
	Status       string `json:"status"`
	FriendshipID int64  `json:"friendshipId"`
}

// searchResultResponse はユーザー検索結果のAPIレスポンス。
type searchResultResponse struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
}

// statusResponse は更新系エンドポイントの簡易レスポンス。
type statusResponse struct {
	Status string `json:"status"`
}

// Leaderboard はフレンドのリーダーボードを取得する。
// GET /api/friends
func (h *FriendHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Leaderboard(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// PendingRequests は承認待ちのフレンド申請を取得する。
// GET /api/friends/requests
func (h *FriendHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	requests, err := h.service.PendingRequests(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// SendRequest はフレンド申請を送信する。
// POST /api/friends/request/{receiverId}
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	receiverID, err := int64URLParam(r, "receiverId")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.SendRequest(r.Context(), userID, receiverID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, statusResponse{Status: string(model.FriendshipPending)})
}

// Respond はフレンド申請に応答する。
// POST /api/friends/respond/{friendshipId}?action=ACCEPT|REJECT
func (h *FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	friendshipID, err := int64URLParam(r, "friendshipId")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	action := r.URL.Query().Get("action")
	if err := h.service.Respond(r.Context(), userID, friendshipID, action); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: strings.ToUpper(action)})
}

// Search はユーザーを検索する。
// GET /api/friends/search?query=
func (h *FriendHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	results, err := h.service.Search(r.Context(), userID, r.URL.Query().Get("query"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}
