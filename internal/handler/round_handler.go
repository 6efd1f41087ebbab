package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/norskgolf/internal/model"
)

// RoundServiceInterface はラウンドハンドラーが必要とするサービスインターフェース。
type RoundServiceInterface interface {
	// LogRound はラウンドを記録し、対応するコースをプレー済みにする。
	LogRound(ctx context.Context, userID, courseID int64, date time.Time, score int) (*roundResponse, error)
	// ListRounds はユーザーのラウンド一覧を新しい順に返す。
	ListRounds(ctx context.Context, userID int64) ([]roundResponse, error)
	// DeleteRound はラウンドを削除する。最後のラウンドであればプレー済みも解除する。
	DeleteRound(ctx context.Context, userID, roundID int64) error
}

// RoundHandler はラウンド記録のHTTPハンドラー。
type RoundHandler struct {
	service RoundServiceInterface
}

// NewRoundHandler はRoundHandlerを生成する。
func NewRoundHandler(service RoundServiceInterface) *RoundHandler {
	return &RoundHandler{
		service: service,
	}
}

// roundResponse はラウンド情報のAPIレスポンス。
type roundResponse struct {
	ID         int64  `json:"id"`
	CourseID   int64  `json:"courseId"`
	CourseName string `json:"courseName"`
	Date       string `json:"date"`
	Score      int    `json:"score"`
}

// roundLogRequest はラウンド記録リクエストのボディ。
type roundLogRequest struct {
	CourseID int64  `json:"courseId"`
	Date     string `json:"date"`
	Score    int    `json:"score"`
}

// LogRound はラウンドを記録する。
// POST /api/rounds
func (h *RoundHandler) LogRound(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req roundLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	if req.CourseID <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("courseId は必須です"))
		return
	}

	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRoundError("日付の形式が不正です"))
		return
	}

	round, err := h.service.LogRound(r.Context(), userID, req.CourseID, date, req.Score)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, round)
}

// ListRounds はラウンド一覧を取得する。
// GET /api/rounds
func (h *RoundHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	rounds, err := h.service.ListRounds(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rounds)
}

// DeleteRound はラウンドを削除する。
// DELETE /api/rounds/{roundId}
func (h *RoundHandler) DeleteRound(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	roundID, err := int64URLParam(r, "roundId")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.DeleteRound(r.Context(), userID, roundID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
