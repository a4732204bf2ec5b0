package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventreg/backend/internal/config"
	"github.com/eventreg/backend/internal/database"
	"github.com/eventreg/backend/internal/services/submission"
)

// MockSubmissionStore is a mock implementation of the SubmissionStore interface
type MockSubmissionStore struct {
	mock.Mock
}

func (m *MockSubmissionStore) Create(ctx context.Context, draft submission.Draft) (*database.Submission, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Submission), args.Error(1)
}

func (m *MockSubmissionStore) FindByID(ctx context.Context, id uuid.UUID) (*database.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Submission), args.Error(1)
}

func (m *MockSubmissionStore) FindByReferenceID(ctx context.Context, referenceID string) (*database.Submission, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Submission), args.Error(1)
}

func (m *MockSubmissionStore) List(ctx context.Context, params submission.ListParams) ([]database.Submission, int64, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]database.Submission), args.Get(1).(int64), args.Error(2)
}

func testRegistrationConfig() config.RegistrationConfig {
	return config.RegistrationConfig{
		FeeAmount:        12000,
		MaxReceiptBytes:  5 << 20,
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "application/pdf"},
	}
}

func storedSubmission() *database.Submission {
	return &database.Submission{
		ID:          uuid.New(),
		ReferenceID: "REF1750000000000ABCDE",
		FirstName:   "Ama",
		LastName:    "Mensah",
		Email:       "ama@example.com",
		Status:      database.StatusPending,
		SubmittedAt: time.Now().UTC(),
		FullName:    "Ama Mensah",
	}
}

type receiptFile struct {
	name     string
	mimeType string
	content  []byte
}

func buildMultipartRequest(t *testing.T, fields map[string]string, receipt *receiptFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	if receipt != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="receipt"; filename="`+receipt.name+`"`)
		header.Set("Content-Type", receipt.mimeType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(receipt.content)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func defaultFields() map[string]string {
	return map[string]string{
		"firstName":   "Ama",
		"lastName":    "Mensah",
		"phoneNumber": "+233201234567",
		"email":       "ama@example.com",
	}
}

func performCreate(store SubmissionStore, req *http.Request) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewSubmissionHandler(store, testRegistrationConfig())
	router.POST("/api/submissions", handler.Create)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateSubmissionSuccess(t *testing.T) {
	store := new(MockSubmissionStore)
	sub := storedSubmission()
	store.On("Create", mock.Anything, mock.MatchedBy(func(d submission.Draft) bool {
		return d.FirstName == "Ama" && d.Amount == 12000 && d.ReceiptMimeType == "image/png"
	})).Return(sub, nil)

	req := buildMultipartRequest(t, defaultFields(), &receiptFile{
		name: "receipt.png", mimeType: "image/png", content: []byte("fake image bytes"),
	})
	w := performCreate(store, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, sub.ReferenceID, resp["reference_id"])
	store.AssertExpectations(t)
}

func TestCreateSubmissionMissingReceipt(t *testing.T) {
	store := new(MockSubmissionStore)

	req := buildMultipartRequest(t, defaultFields(), nil)
	w := performCreate(store, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Receipt file is required")
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateSubmissionBadMimeType(t *testing.T) {
	store := new(MockSubmissionStore)

	req := buildMultipartRequest(t, defaultFields(), &receiptFile{
		name: "receipt.gif", mimeType: "image/gif", content: []byte("gif bytes"),
	})
	w := performCreate(store, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid file type")
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateSubmissionDuplicateEmail(t *testing.T) {
	store := new(MockSubmissionStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil, &submission.DuplicateEmailError{
		Email:               "ama@example.com",
		ExistingReferenceID: "REF1750000000000ABCDE",
	})

	req := buildMultipartRequest(t, defaultFields(), &receiptFile{
		name: "receipt.png", mimeType: "image/png", content: []byte("fake image bytes"),
	})
	w := performCreate(store, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "REF1750000000000ABCDE", resp["existing_reference_id"])
}

func TestCreateSubmissionValidationError(t *testing.T) {
	store := new(MockSubmissionStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil, &submission.ValidationError{
		Field: "phone_number", Message: "must be 10-15 digits, optionally starting with +",
	})

	fields := defaultFields()
	fields["phoneNumber"] = "123"
	req := buildMultipartRequest(t, fields, &receiptFile{
		name: "receipt.png", mimeType: "image/png", content: []byte("fake image bytes"),
	})
	w := performCreate(store, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "phone_number")
}

func TestCreateSubmissionStorageUnavailable(t *testing.T) {
	store := new(MockSubmissionStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil, submission.ErrStorageUnavailable)

	req := buildMultipartRequest(t, defaultFields(), &receiptFile{
		name: "receipt.png", mimeType: "image/png", content: []byte("fake image bytes"),
	})
	w := performCreate(store, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusReturnsPublicView(t *testing.T) {
	store := new(MockSubmissionStore)
	sub := storedSubmission()
	sub.ReceiptImage = "c2VjcmV0"
	store.On("FindByReferenceID", mock.Anything, sub.ReferenceID).Return(sub, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewSubmissionHandler(store, testRegistrationConfig())
	router.GET("/api/submissions/status/:referenceId", handler.Status)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/submissions/status/"+sub.ReferenceID, nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, sub.ReferenceID, resp["reference_id"])
	assert.Equal(t, "pending", resp["status"])
	assert.Equal(t, "Ama Mensah", resp["full_name"])
	// The public view must never leak the receipt payload.
	assert.NotContains(t, w.Body.String(), "c2VjcmV0")
}

func TestStatusNotFound(t *testing.T) {
	store := new(MockSubmissionStore)
	store.On("FindByReferenceID", mock.Anything, "REF404").Return(nil, submission.ErrNotFound)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewSubmissionHandler(store, testRegistrationConfig())
	router.GET("/api/submissions/status/:referenceId", handler.Status)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/submissions/status/REF404", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
