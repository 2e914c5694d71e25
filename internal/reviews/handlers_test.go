package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/database/dbtest"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

type stubAuthenticator struct{ userID uuid.UUID }

func (s stubAuthenticator) Authenticate(context.Context, string) (auth.Principal, error) {
	return auth.Principal{UserID: s.userID, UserType: auth.UserTypeBuyer}, nil
}

func newTestRouter(repo Repository, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewReviewHandler(NewReviewUseCase(repo, nil))
	handler.RegisterRoutes(r.Group("/api"), auth.NewMiddleware(stubAuthenticator{userID: userID}))
	return r
}

func send(r http.Handler, method, path, body string, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authenticated {
		req.Header.Set("Authorization", "Bearer token")
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) httpx.Response {
	t.Helper()
	var resp httpx.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestListForProductHandler_Public(t *testing.T) {
	repo := new(MockRepository)
	productID := uuid.New()
	f := ProductFilter{ProductID: productID, SortBy: "rating", Page: httpx.Page{Page: 2, Limit: 5}}
	repo.On("ListForProduct", mock.Anything, f).Return([]Review{{ID: uuid.New(), Rating: 5}}, int64(6), nil)

	w := send(newTestRouter(repo, uuid.New()), http.MethodGet,
		"/api/reviews/products/"+productID.String()+"?sort_by=rating&page=2&limit=5", "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pagination":{"page":2,"limit":5,"total":6,"pages":2}`)
	repo.AssertExpectations(t)
}

func TestListForProductHandler_InvalidSort(t *testing.T) {
	repo := new(MockRepository)

	w := send(newTestRouter(repo, uuid.New()), http.MethodGet,
		"/api/reviews/products/"+uuid.NewString()+"?sort_by=email", "", false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "sort_by", decode(t, w).Errors[0].Field)
}

func TestCreateReviewHandler_RequiresAuth(t *testing.T) {
	repo := new(MockRepository)

	w := send(newTestRouter(repo, uuid.New()), http.MethodPost, "/api/reviews",
		`{"product_id":"`+uuid.NewString()+`","rating":4}`, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	repo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestCreateReviewHandler_RatingValidation(t *testing.T) {
	repo := new(MockRepository)

	w := send(newTestRouter(repo, uuid.New()), http.MethodPost, "/api/reviews",
		`{"product_id":"`+uuid.NewString()+`","rating":9}`, true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "rating", resp.Errors[0].Field)
	repo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestDeleteReviewHandler_NotOwner(t *testing.T) {
	repo := new(MockRepository)
	userID, reviewID := uuid.New(), uuid.New()
	tx := dbtest.NewMockTx()
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetOwned", mock.Anything, tx, userID, reviewID).Return(nil, ErrReviewNotEditable)

	w := send(newTestRouter(repo, userID), http.MethodDelete, "/api/reviews/"+reviewID.String(), "", true)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Review not found or you do not have permission to delete it", decode(t, w).Message)
}
