package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedfinder/pkg/logger"
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func samplePosts() []*entity.Post {
	return []*entity.Post{
		{
			ID:          "post-1",
			UserID:      "user-1",
			UserName:    "alice",
			UserEmail:   "alice@example.com",
			MediaURL:    "https://cdn.test/a.png",
			MediaType:   entity.MediaImage,
			ContentText: "sunset",
			Privacy:     entity.PrivacyPublic,
			CreatedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestPublicPosts(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.Discard())

	router := setupTestRouter()
	router.GET("/posts/public", handler.PublicPosts)

	mockUseCase.On("PublicPosts", mock.Anything).Return(samplePosts(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/public", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	items := response["items"].([]interface{})
	require.Len(t, items, 1)
	row := items[0].(map[string]interface{})
	assert.Equal(t, "post-1", row["post_id"])
	assert.Equal(t, "alice", row["user_name"])
	assert.Equal(t, "public", row["privacy"])
}

func TestSearchPosts(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.Discard())

	router := setupTestRouter()
	router.GET("/posts/search", handler.SearchPosts)

	mockUseCase.On("Search", mock.Anything, "sun", "", 5).Return(samplePosts(), nil)
	mockUseCase.On("Search", mock.Anything, "", "", 0).Return(nil, usecase.ErrEmptyQuery)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/search?q=sun&limit=5", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/posts/search?limit=abc", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockUseCase.AssertExpectations(t)
}

func TestSearchPosts_PassesViewer(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.Discard())

	router := setupTestRouter()
	router.GET("/posts/search", asUser("viewer-1", handler.SearchPosts))

	mockUseCase.On("Search", mock.Anything, "sun", "viewer-1", 0).Return([]*entity.Post{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/search?q=sun", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestDeleteAdminPost_MalformedID(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.Discard())

	router := setupTestRouter()
	router.DELETE("/admin/posts/:id", asUser("admin-1", handler.DeleteAdminPost))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/admin/posts/post-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockUseCase.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserPosts_PassesViewer(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.Discard())

	router := setupTestRouter()
	router.GET("/posts/user/:id", asUser("viewer-1", handler.UserPosts))

	mockUseCase.On("UserPosts", mock.Anything, aliceID, "viewer-1").Return([]*entity.Post{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/user/"+aliceID, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"items":[]}`, w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/posts/user/user-1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	mockUseCase.AssertExpectations(t)
	mockUseCase.AssertNumberOfCalls(t, "UserPosts", 1)
}

func TestCreatePost(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.Discard())

	router := setupTestRouter()
	router.POST("/posts", asUser("user-1", handler.CreatePost))

	in := usecase.CreatePostInput{
		MediaURL:    "https://cdn.test/a.png",
		MediaType:   "image",
		ContentText: "sunset",
		Privacy:     "public",
	}
	mockUseCase.On("CreatePost", mock.Anything, "user-1", in).Return(samplePosts()[0], nil)

	body, _ := json.Marshal(map[string]string{
		"media_url":    "https://cdn.test/a.png",
		"media_type":   "image",
		"content_text": "sunset",
		"privacy":      "public",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Post created", response["message"])
	assert.Equal(t, "post-1", response["post"].(map[string]interface{})["post_id"])
	mockUseCase.AssertExpectations(t)
}

func TestCreatePost_Rejected(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.Discard())

	router := setupTestRouter()
	router.POST("/posts", asUser("user-1", handler.CreatePost))

	mockUseCase.On("CreatePost", mock.Anything, "user-1", mock.Anything).Return(nil, usecase.ErrMediaURL)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts", bytes.NewBufferString(`{"media_url":"javascript:alert(1)"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Invalid media URL.", response["message"])
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUpload(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.Discard())

	router := setupTestRouter()
	router.POST("/upload", asUser("user-1", handler.Upload))

	mockUseCase.On("Upload", mock.Anything, "user-1", "cat.png", mock.Anything, mock.Anything).
		Return("https://cdn.test/media/user-1/x.png", nil)

	body, contentType := multipartBody(t, "file", "cat.png", []byte("\x89PNG\r\n\x1a\n"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "https://cdn.test/media/user-1/x.png", response["media_url"])
	mockUseCase.AssertExpectations(t)
}

func TestUpload_Failures(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		err        error
		wantStatus int
	}{
		{"no file", "", nil, http.StatusBadRequest},
		{"invalid file", "file", usecase.ValidationError("Invalid file: file type not allowed"), http.StatusBadRequest},
		{"storage missing", "file", usecase.ErrStorageUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUseCase := new(MockPostUseCase)
			handler := NewPostHandler(mockUseCase, logger.Discard())

			router := setupTestRouter()
			router.POST("/upload", asUser("user-1", handler.Upload))

			if tt.err != nil {
				mockUseCase.On("Upload", mock.Anything, "user-1", mock.Anything, mock.Anything, mock.Anything).Return("", tt.err)
			}

			body, contentType := multipartBody(t, tt.field, "run.exe", []byte("MZ\x90\x00"))
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/upload", body)
			req.Header.Set("Content-Type", contentType)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			mockUseCase.AssertExpectations(t)
		})
	}
}

func TestAdminPosts(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.Discard())

	router := setupTestRouter()
	router.GET("/admin/posts", asUser("admin-1", handler.AdminPosts))

	mockUseCase.On("AdminPosts", mock.Anything, 10).Return(samplePosts(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/admin/posts?limit=10", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response["posts"], 1)
}

func TestDeleteAdminPost(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"deleted", nil, http.StatusOK},
		{"missing", usecase.ErrNotFound, http.StatusNotFound},
		{"not admin", usecase.ErrForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUseCase := new(MockPostUseCase)
			handler := NewPostHandler(mockUseCase, logger.Discard())

			router := setupTestRouter()
			router.DELETE("/admin/posts/:id", asUser("admin-1", handler.DeleteAdminPost))

			mockUseCase.On("DeletePost", mock.Anything, "admin-1", postID).Return(tt.err)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("DELETE", "/admin/posts/"+postID, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			mockUseCase.AssertExpectations(t)
		})
	}
}
