package model

import "strings"

// StudentRecord is one roster entry.  The roster lets a family identify
// itself by a contact key (usually an email address) instead of typing the
// student's grade and class every session.  Keys are not required to be
// unique – one guardian may appear with several children – and imports
// dedup on contact key + student name + grade, so a student re-registered
// under a new grade gets a fresh record instead of being silently dropped.
//
// Fields:
//  ContactKey    – primary contact key, matched case-insensitively.
//  AltContactKey – optional secondary contact key.
//  Name          – student name.
//  Grade         – canonical grade of the student.
//  ClassName     – canonical class of the student.
//  GuardianLabel – free-text guardian description shown in the UI.
type StudentRecord struct {
	ContactKey    string `json:"contactKey"`
	AltContactKey string `json:"altContactKey,omitempty"`
	Name          string `json:"name"`
	Grade         string `json:"grade"`
	ClassName     string `json:"className"`
	GuardianLabel string `json:"guardianLabel,omitempty"`
}

// DedupKey returns the key used to detect duplicate roster entries:
// lowercase contact key, student name and grade joined together.
func (s StudentRecord) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(s.ContactKey)) +
		"|" + strings.ToLower(strings.TrimSpace(s.Name)) +
		"|" + strings.ToLower(strings.TrimSpace(s.Grade))
}

// MatchesIdentity reports whether the record is identified by the given
// contact key and student name, ignoring case and surrounding whitespace.
func (s StudentRecord) MatchesIdentity(contactKey, name string) bool {
	return strings.EqualFold(strings.TrimSpace(s.ContactKey), strings.TrimSpace(contactKey)) &&
		strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name))
}

// MatchesContactKey reports whether key matches either contact key field.
// Matching is case-insensitive and ignores surrounding whitespace.
func (s StudentRecord) MatchesContactKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return false
	}
	if strings.ToLower(strings.TrimSpace(s.ContactKey)) == k {
		return true
	}
	return s.AltContactKey != "" && strings.ToLower(strings.TrimSpace(s.AltContactKey)) == k
}
