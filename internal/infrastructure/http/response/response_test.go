package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ritmoapp/ritmo/internal/domain"
	"github.com/ritmoapp/ritmo/internal/infrastructure/http/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unencodableType fails during JSON marshaling, standing in for types with
// custom MarshalJSON that can error at runtime.
type unencodableType struct {
	BadField chan int `json:"bad_field"`
}

func (u unencodableType) MarshalJSON() ([]byte, error) {
	_, err := json.Marshal(u.BadField)
	return nil, err
}

func decodeError(t *testing.T, res *http.Response) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestOK_Success(t *testing.T) {
	w := httptest.NewRecorder()
	response.OK(w, map[string]any{"id": "123", "items": []string{"a", "b"}})

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var data map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&data))
	assert.Equal(t, "123", data["id"])
}

func TestOK_EncodingFailureReturns500(t *testing.T) {
	w := httptest.NewRecorder()
	response.OK(w, unencodableType{})

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	body := decodeError(t, res)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "failed to encode response", body.Error.Message)
}

func TestCreated_EncodingFailureReturns500(t *testing.T) {
	w := httptest.NewRecorder()
	response.Created(w, unencodableType{})

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, res).Error.Code)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	response.NoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Result().StatusCode)
}

func TestValidationError_IncludesFieldDetail(t *testing.T) {
	w := httptest.NewRecorder()
	response.ValidationError(w, "importance", "must be between 1 and 10")

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	body := decodeError(t, res)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "importance", body.Error.Details[0].Field)
}

func TestFromDomainError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", domain.ErrInvalidImportance, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"no recurrence", domain.ErrRecurrenceRequired, http.StatusBadRequest, "INVALID_REQUEST"},
		{"task not found", domain.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"occurrence not found", domain.ErrOccurrenceNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already resolved", domain.ErrOccurrenceAlreadyResolved, http.StatusConflict, "CONFLICT"},
		{"unknown", assert.AnError, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			response.FromDomainError(w, r, tc.err)

			res := w.Result()
			defer res.Body.Close()

			assert.Equal(t, tc.wantStatus, res.StatusCode)
			assert.Equal(t, tc.wantCode, decodeError(t, res).Error.Code)
		})
	}
}
