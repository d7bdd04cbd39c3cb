package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityAction represents the kind of admin activity being logged
type ActivityAction string

const (
	ActivitySessionOpened ActivityAction = "session_opened"
	ActivitySessionClosed ActivityAction = "session_closed"
	ActivityRoleSwitched  ActivityAction = "role_switched"
	ActivityAccessDenied  ActivityAction = "access_denied"
)

// ActivityLog is one entry of the flat admin activity log
type ActivityLog struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	AdminID   uuid.UUID       `json:"admin_id" db:"admin_id"`
	Subject   string          `json:"sub" db:"subject"`
	Action    ActivityAction  `json:"action" db:"action"`
	Role      Role            `json:"role" db:"role"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress string          `json:"ip_address" db:"ip_address"`
	UserAgent string          `json:"user_agent" db:"user_agent"`
	RequestID string          `json:"request_id" db:"request_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// NewActivityLog creates an entry for user performing action
func NewActivityLog(user *AdminUser, action ActivityAction) *ActivityLog {
	return &ActivityLog{
		ID:        uuid.New(),
		AdminID:   user.ID,
		Subject:   user.Subject,
		Action:    action,
		Role:      user.Role,
		Timestamp: time.Now().UTC(),
	}
}

// WithDetails sets the details
func (a *ActivityLog) WithDetails(details interface{}) *ActivityLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *ActivityLog) WithRequest(requestID, ipAddress, userAgent string) *ActivityLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}
