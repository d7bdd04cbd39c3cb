package models

import "time"

// RolePreferenceKey is the preference key remembering the selected admin role
const RolePreferenceKey = "admin_role_preference"

// Preference is a persisted key/value pair scoped to an admin subject
type Preference struct {
	Subject   string    `json:"sub" db:"subject"`
	Key       string    `json:"key" db:"pref_key"`
	Value     string    `json:"value" db:"pref_value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Preference model
func (Preference) TableName() string {
	return "admin_preferences"
}
