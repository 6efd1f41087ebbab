package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/norskgolf/internal/model"
)

// CourseServiceInterface はコースハンドラーが必要とするサービスインターフェース。
type CourseServiceInterface interface {
	// ListCourses は全コースをユーザーのプレー済みフラグ付きで返す。
	ListCourses(ctx context.Context, userID int64) ([]courseResponse, error)
	// ListPlayedCourses は指定ユーザーのプレー済みコースを返す。
	ListPlayedCourses(ctx context.Context, userID int64) ([]courseResponse, error)
	// MarkPlayed はラウンドを記録せずにコースをプレー済みにする。
	MarkPlayed(ctx context.Context, actorID, userID int64, courseExternalID string) ([]courseResponse, error)
}

// CourseHandler はコース関連のHTTPハンドラー。
type CourseHandler struct {
	service CourseServiceInterface
}

// NewCourseHandler はCourseHandlerを生成する。
func NewCourseHandler(service CourseServiceInterface) *CourseHandler {
	return &CourseHandler{
		service: service,
	}
}

// courseResponse はコース情報のAPIレスポンス。
type courseResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	ExternalID *string `json:"externalId,omitempty"`
	Region     string  `json:"region"`
	Played     bool    `json:"played"`
}

// markPlayedRequest はプレー済み登録リクエストのボディ。
type markPlayedRequest struct {
	CourseExternalID string `json:"courseExternalId"`
}

// ListCourses はコース一覧を取得する。
// GET /api/courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	courses, err := h.service.ListCourses(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, courses)
}

// ListPlayedCourses は指定ユーザーのプレー済みコース一覧を取得する。
// GET /api/users/{userId}/played-courses
func (h *CourseHandler) ListPlayedCourses(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	targetID, err := int64URLParam(r, "userId")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	courses, err := h.service.ListPlayedCourses(r.Context(), targetID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, courses)
}

// MarkPlayed はコースをプレー済みとして登録する。
// POST /api/users/{userId}/mark-played
func (h *CourseHandler) MarkPlayed(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	targetID, err := int64URLParam(r, "userId")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req markPlayedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	req.CourseExternalID = strings.TrimSpace(req.CourseExternalID)
	if req.CourseExternalID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("courseExternalId は必須です"))
		return
	}

	courses, err := h.service.MarkPlayed(r.Context(), actorID, targetID, req.CourseExternalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, courses)
}
