package service

import (
	"context"
	"sync"
	"time"

	"campusbook/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) CreateBooking(ctx context.Context, booking *models.Booking, campusID int64, campusCode string) error {
	args := m.Called(ctx, booking, campusID, campusCode)
	return args.Error(0)
}

func (m *mockBookingRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetBookingByCode(ctx context.Context, code string) (*models.Booking, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) CountOverlapping(ctx context.Context, facilityID int64, date time.Time, start, end string) (int, error) {
	args := m.Called(ctx, facilityID, date, start, end)
	return args.Int(0), args.Error(1)
}

func (m *mockBookingRepo) UpdateBookingStatusIfCurrent(ctx context.Context, id int64, fromStatus, toStatus string, actorID int64) error {
	args := m.Called(ctx, id, fromStatus, toStatus, actorID)
	return args.Error(0)
}

func (m *mockBookingRepo) GetBookingsByFacilityDate(ctx context.Context, facilityID int64, date time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, facilityID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) AdvanceApprovedToInUse(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBookingRepo) AdvanceInUseToCompleted(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockReferenceStore struct {
	mock.Mock
}

func (m *mockReferenceStore) GetFacility(ctx context.Context, id int64) (*models.Facility, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Facility), args.Error(1)
}

func (m *mockReferenceStore) GetCampus(ctx context.Context, id int64) (*models.Campus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campus), args.Error(1)
}

func (m *mockReferenceStore) ListFacilities(ctx context.Context) ([]*models.Facility, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Facility), args.Error(1)
}

func (m *mockReferenceStore) ListCampuses(ctx context.Context) ([]*models.Campus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Campus), args.Error(1)
}

func (m *mockReferenceStore) ListHolidays(ctx context.Context) ([]*models.Holiday, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Holiday), args.Error(1)
}

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserDirectory) GetUserByContact(ctx context.Context, contact string) (*models.User, error) {
	args := m.Called(ctx, contact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserDirectory) ListAdmins(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockUserDirectory) UpdateUserCampus(ctx context.Context, id int64, campusID int64) error {
	args := m.Called(ctx, id, campusID)
	return args.Error(0)
}

type mockChangeRequestRepo struct {
	mock.Mock
}

func (m *mockChangeRequestRepo) CreateChangeRequest(ctx context.Context, req *models.CampusChangeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockChangeRequestRepo) GetChangeRequest(ctx context.Context, id int64) (*models.CampusChangeRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CampusChangeRequest), args.Error(1)
}

func (m *mockChangeRequestRepo) HasPendingChangeRequest(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockChangeRequestRepo) ReviewChangeRequestIfPending(ctx context.Context, id int64, reviewerID int64, status, comment string) error {
	args := m.Called(ctx, id, reviewerID, status, comment)
	return args.Error(0)
}

func (m *mockChangeRequestRepo) ListPendingChangeRequests(ctx context.Context) ([]*models.CampusChangeRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CampusChangeRequest), args.Error(1)
}

type mockIssueRepo struct {
	mock.Mock
}

func (m *mockIssueRepo) CreateIssue(ctx context.Context, issue *models.FacilityIssueReport) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}

func (m *mockIssueRepo) GetIssue(ctx context.Context, id int64) (*models.FacilityIssueReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FacilityIssueReport), args.Error(1)
}

func (m *mockIssueRepo) UpdateIssueStatusIfCurrent(ctx context.Context, id int64, fromStatus, toStatus string, adminResponse string, newFacilityID int64) error {
	args := m.Called(ctx, id, fromStatus, toStatus, adminResponse, newFacilityID)
	return args.Error(0)
}

func (m *mockIssueRepo) ListIssuesByStatus(ctx context.Context, status string) ([]*models.FacilityIssueReport, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FacilityIssueReport), args.Error(1)
}

// recordingPublisher собирает опубликованные события.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishJSON(eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type notifyCall struct {
	UserID int64
	Type   string
}

// recordingNotifier собирает поставленные в очередь уведомления.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *recordingNotifier) Enqueue(ctx context.Context, userID int64, notifyType string, booking *models.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{UserID: userID, Type: notifyType})
	return nil
}

func (n *recordingNotifier) enqueued() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifyCall(nil), n.calls...)
}
