package httpapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/johnrirwin/autolot/internal/images"
	"github.com/johnrirwin/autolot/internal/models"
)

func pngBytes() []byte {
	return append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 512)...)
}

func uploadPhoto(t *testing.T, ts *testServer, field string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "car.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sell/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "198.51.100.7:52100"

	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func TestPhotoAPI_UploadAndClaim(t *testing.T) {
	ts := newTestServer(t)

	w := uploadPhoto(t, ts, "image", pngBytes())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var result models.PhotoUploadResult
	decodeBody(t, w, &result)
	if result.Status != models.ImageModerationApproved || result.UploadID == "" {
		t.Fatalf("result = %+v, want approved with an upload id", result)
	}
	if result.ExpiresAt == nil {
		t.Error("approved upload should carry an expiry")
	}

	sell := models.SellRequest{
		Brand:         "BMW",
		Model:         "X5",
		Year:          2021,
		Mileage:       30000,
		Condition:     models.ConditionFair,
		ExteriorColor: "Grey",
		Transmission:  "Automatic",
		FuelType:      "Hybrid",
		Description:   "Minor scratches on the rear bumper.",
		Name:          "Sam Seller",
		Email:         "sam@example.com",
		Phone:         "5559876543",
		PhotoIDs:      []string{result.UploadID},
	}
	w = ts.do(t, http.MethodPost, "/api/sell", sell)
	if w.Code != http.StatusCreated {
		t.Fatalf("sell status = %d, body %s", w.Code, w.Body.String())
	}
	var conf models.SellConfirmation
	decodeBody(t, w, &conf)
	if conf.PhotoCount != 1 {
		t.Errorf("PhotoCount = %d, want 1", conf.PhotoCount)
	}
}

func TestPhotoAPI_Rejections(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		field string
		data  []byte
	}{
		{"wrong field", "file", pngBytes()},
		{"not an image", "image", []byte("just some text, definitely not a picture")},
		{"too large", "image", append(pngBytes(), make([]byte, images.MaxPhotoBytes)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := uploadPhoto(t, ts, tt.field, tt.data)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var result models.PhotoUploadResult
			decodeBody(t, w, &result)
			if result.UploadID != "" {
				t.Errorf("rejected upload got an id: %+v", result)
			}
		})
	}

	if n := ts.moderator.Calls(); n != 0 {
		t.Errorf("moderator called %d times for invalid uploads", n)
	}
}

func TestPhotoAPI_ModerationRejected(t *testing.T) {
	ts := newTestServer(t)
	ts.moderator.Decision = &models.ModerationDecision{
		Status: models.ImageModerationRejected,
		Reason: "Photo not allowed: Violence",
	}

	w := uploadPhoto(t, ts, "image", pngBytes())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var result models.PhotoUploadResult
	decodeBody(t, w, &result)
	if result.Status != models.ImageModerationRejected || result.UploadID != "" {
		t.Errorf("result = %+v, want rejected without id", result)
	}
}
