package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kkkiio/coffee-clock/internal/analysis"
	"github.com/kkkiio/coffee-clock/internal/handlers"
	"github.com/kkkiio/coffee-clock/internal/middleware"
)

type fakeSubmitter struct {
	jobID     uuid.UUID
	err       error
	gotUser   uuid.UUID
	gotImage  []byte
	gotMime   string
	callCount int
}

func (f *fakeSubmitter) Submit(ctx context.Context, userID uuid.UUID, image []byte, mimeType string) (uuid.UUID, error) {
	f.callCount++
	f.gotUser = userID
	f.gotImage = image
	f.gotMime = mimeType
	return f.jobID, f.err
}

func scanRouter(submitter handlers.Submitter, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewScanHandler(submitter, nil, nil, nil, time.Millisecond, 3, zap.NewNop())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID.String())
	})
	router.POST("/scans", handler.SubmitScan)
	return router
}

func multipartImage(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestSubmitScan_Accepted(t *testing.T) {
	jobID := uuid.New()
	userID := uuid.New()
	submitter := &fakeSubmitter{jobID: jobID}
	router := scanRouter(submitter, userID)

	body, contentType := multipartImage(t, "image", "drink.jpg", "image/jpeg", []byte("jpeg bytes"))
	req, _ := http.NewRequest("POST", "/scans", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), jobID.String())
	assert.Contains(t, w.Body.String(), "pending")
	assert.Equal(t, userID, submitter.gotUser)
	assert.Equal(t, []byte("jpeg bytes"), submitter.gotImage)
	assert.Equal(t, "image/jpeg", submitter.gotMime)
}

func TestSubmitScan_MissingFile(t *testing.T) {
	submitter := &fakeSubmitter{jobID: uuid.New()}
	router := scanRouter(submitter, uuid.New())

	req, _ := http.NewRequest("POST", "/scans", bytes.NewBufferString("not multipart"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, submitter.callCount)
}

func TestSubmitScan_OversizedImageRejected(t *testing.T) {
	submitter := &fakeSubmitter{err: analysis.ErrImageTooLarge}
	router := scanRouter(submitter, uuid.New())

	body, contentType := multipartImage(t, "image", "huge.jpg", "image/jpeg", []byte("too big"))
	req, _ := http.NewRequest("POST", "/scans", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid image")
}

func TestSubmitScan_TriggerFailureIsBadGateway(t *testing.T) {
	submitter := &fakeSubmitter{jobID: uuid.New(), err: analysis.ErrSubmission}
	router := scanRouter(submitter, uuid.New())

	body, contentType := multipartImage(t, "image", "drink.jpg", "image/jpeg", []byte("jpeg bytes"))
	req, _ := http.NewRequest("POST", "/scans", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "failed to start analysis")
}

func TestSubmitScan_AlternateFieldName(t *testing.T) {
	submitter := &fakeSubmitter{jobID: uuid.New()}
	router := scanRouter(submitter, uuid.New())

	body, contentType := multipartImage(t, "photo", "drink.png", "image/png", []byte("png bytes"))
	req, _ := http.NewRequest("POST", "/scans", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "image/png", submitter.gotMime)
}
