package model

// A User represents a database record.
//
// Authentication is delegated to an external identity provider so no credential
// is ever stored here. A user record is provisioned the first time a valid token
// for its subject is seen.
type User struct {
	Base `msgpack:",inline" storm:"inline"`

	// SubjectID is the identity provider's stable identifier for this user.
	SubjectID   string `json:"-"            msgpack:"subject_id" storm:"unique"`
	Email       string `json:"email"        msgpack:"email"      storm:"index"`
	DisplayName string `json:"display_name" msgpack:"display_name"`
}
