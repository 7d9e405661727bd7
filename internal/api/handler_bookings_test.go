package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-booking-backend/internal/model"
)

func bookingBody(classID int64, name, email string) map[string]interface{} {
	return map[string]interface{}{"class_id": classID, "client_name": name, "client_email": email}
}

func TestCreateBooking_Created(t *testing.T) {
	ts := newTestServer(t, nil)
	class := ts.addClass(t, "Yoga", testNow.Add(24*time.Hour), 2, 2)

	w := ts.do(http.MethodPost, "/bookings/book", bookingBody(class.ID, " Alice ", "Alice@Example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.ID)
	assert.Equal(t, class.ID, resp.ClassID)
	assert.Equal(t, "Alice", resp.ClientName)
	assert.Equal(t, "alice@example.com", resp.ClientEmail)
	assert.Equal(t, "2030-05-21T11:30:00+05:30", resp.ScheduledAt)
	assert.Equal(t, "2030-05-20T11:30:00+05:30", resp.BookingTime)
	assert.Equal(t, "confirmed", resp.Status)

	w = ts.do(http.MethodPost, "/bookings/book?time_zone=UTC", bookingBody(class.ID, "Bob", "bob@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2030-05-21T06:00:00Z", resp.ScheduledAt)
}

func TestCreateBooking_BusinessErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	open := ts.addClass(t, "Open", testNow.Add(time.Hour), 1, 1)
	full := ts.addClass(t, "Full", testNow.Add(time.Hour), 5, 0)
	past := ts.addClass(t, "Past", testNow.Add(-time.Minute), 5, 5)

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings/book", bookingBody(open.ID, "A", "a@example.com")).Code)

	testCases := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantDetail string
	}{
		{"Unknown class", bookingBody(999, "A", "a@example.com"), http.StatusNotFound, "Class with id 999 not found"},
		{"Class started", bookingBody(past.ID, "A", "a@example.com"), http.StatusConflict, "Class is already over"},
		{"Duplicate", bookingBody(open.ID, "A", "A@example.com"), http.StatusConflict, "You already have a booking for this class"},
		{"Last slot taken", bookingBody(open.ID, "B", "b@example.com"), http.StatusConflict, "No available slots for this class"},
		{"Full class", bookingBody(full.ID, "B", "b@example.com"), http.StatusConflict, "No available slots for this class"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, "/bookings/book", tc.body)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantDetail, detailOf(t, w))
		})
	}

	var count int64
	require.NoError(t, ts.db.Model(&model.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateBooking_Validation(t *testing.T) {
	ts := newTestServer(t, nil)
	class := ts.addClass(t, "Yoga", testNow.Add(24*time.Hour), 5, 5)

	testCases := []struct {
		name       string
		body       interface{}
		wantDetail string
	}{
		{"Missing name", map[string]interface{}{"class_id": class.ID, "client_email": "a@example.com"}, "Client_name field required"},
		{"Blank name", bookingBody(class.ID, "   ", "a@example.com"), "Client name cannot be empty"},
		{"Long name", bookingBody(class.ID, strings.Repeat("x", 101), "a@example.com"), "Client_name should have at most 100 characters"},
		{"Bad email", bookingBody(class.ID, "A", "not-an-email"), "Client_email is not a valid email address"},
		{"Missing class id", map[string]interface{}{"client_name": "A", "client_email": "a@example.com"}, "Class_id field required"},
		{"Zero class id", bookingBody(0, "A", "a@example.com"), "Class_id should be greater than or equal to 1"},
		{"Class id type", `{"class_id":"abc","client_name":"A","client_email":"a@example.com"}`, "Class_id should be a valid integer"},
		{"Truncated body", `{"class_id":`, "Invalid JSON body"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, "/bookings/book", tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, tc.wantDetail, detailOf(t, w))
		})
	}

	got, err := ts.store.GetClass(t.Context(), class.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.AvailableSlots)
}

func TestCreateBooking_InvalidTimeZone(t *testing.T) {
	ts := newTestServer(t, nil)
	class := ts.addClass(t, "Yoga", testNow.Add(24*time.Hour), 5, 5)

	w := ts.do(http.MethodPost, "/bookings/book?time_zone=Mars/Base", bookingBody(class.ID, "A", "a@example.com"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid timezone: Mars/Base", detailOf(t, w))
}

func TestCreateBooking_StoreFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	require.NoError(t, ts.sqlDB.Close())

	w := ts.do(http.MethodPost, "/bookings/book", bookingBody(1, "A", "a@example.com"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to create booking", detailOf(t, w))
}

func TestGetBookings(t *testing.T) {
	ts := newTestServer(t, nil)
	yoga := ts.addClass(t, "Yoga", testNow.Add(24*time.Hour), 5, 5)
	hiit := ts.addClass(t, "HIIT", testNow.Add(48*time.Hour), 5, 5)

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings/book", bookingBody(yoga.ID, "Alice", "alice@example.com")).Code)
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings/book", bookingBody(hiit.ID, "Alice", "alice@example.com")).Code)
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/bookings/book", bookingBody(hiit.ID, "Bob", "bob@example.com")).Code)

	w := ts.do(http.MethodGet, "/bookings?email=ALICE@example.com&time_zone=UTC", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []BookingDetailsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	// Equal booking times fall back to id order, newest first.
	assert.Equal(t, "HIIT", list[0].ClassName)
	assert.Equal(t, "Yoga", list[1].ClassName)
	assert.Equal(t, "Test Instructor", list[1].Instructor)
	assert.Equal(t, "2030-05-21T06:00:00Z", list[1].ScheduledAt)
	assert.Equal(t, "2030-05-20T06:00:00Z", list[1].BookingTime)
	assert.Equal(t, "alice@example.com", list[1].ClientEmail)
	assert.Equal(t, "confirmed", list[1].Status)
}

func TestGetBookings_Errors(t *testing.T) {
	ts := newTestServer(t, nil)

	testCases := []struct {
		name       string
		path       string
		wantStatus int
		wantDetail string
	}{
		{"Missing email", "/bookings", http.StatusUnprocessableEntity, "Email field required"},
		{"Invalid email", "/bookings?email=nope", http.StatusUnprocessableEntity, "Email is not a valid email address"},
		{"Invalid zone", "/bookings?email=a@example.com&time_zone=Nowhere", http.StatusBadRequest, "Invalid timezone: Nowhere"},
		{"No bookings", "/bookings?email=a@example.com", http.StatusNotFound, "No bookings found for a@example.com"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(http.MethodGet, tc.path, nil)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantDetail, detailOf(t, w))
		})
	}
}
