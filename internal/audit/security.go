// Package audit records security events and record access decisions.
package audit

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType names a security event.
type EventType string

const (
	EventLoginSuccess       EventType = "LOGIN_SUCCESS"
	EventLoginFailure       EventType = "LOGIN_FAILURE"
	EventSignupSuccess      EventType = "SIGNUP_SUCCESS"
	EventLogout             EventType = "LOGOUT"
	EventApprovalChanged    EventType = "APPROVAL_CHANGED"
	EventAssignmentChanged  EventType = "ASSIGNMENT_CHANGED"
	EventUnauthorizedAccess EventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  EventType = "RATE_LIMIT_EXCEEDED"
	EventIntegrityAlarm     EventType = "INTEGRITY_ALARM"
)

// Security writes security events through zerolog.
type Security struct {
	logger zerolog.Logger
}

// NewSecurity returns a security event logger tagged with component=security.
func NewSecurity(logger zerolog.Logger) *Security {
	return &Security{logger: logger.With().Str("component", "security").Logger()}
}

// sanitize strips characters that could forge log lines and caps length.
func sanitize(value string) string {
	value = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(value)
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

func (s *Security) event(level zerolog.Level, typ EventType) *zerolog.Event {
	return s.logger.WithLevel(level).Str("event", string(typ))
}

func (s *Security) LoginSuccess(userID uuid.UUID, role, ip string) {
	s.event(zerolog.InfoLevel, EventLoginSuccess).
		Str("user_id", userID.String()).
		Str("role", role).
		Str("ip", sanitize(ip)).
		Msg("login succeeded")
}

func (s *Security) LoginFailure(email, ip, reason string) {
	s.event(zerolog.WarnLevel, EventLoginFailure).
		Str("email", sanitize(email)).
		Str("ip", sanitize(ip)).
		Str("reason", sanitize(reason)).
		Msg("login failed")
}

func (s *Security) SignupSuccess(userID uuid.UUID, role string) {
	s.event(zerolog.InfoLevel, EventSignupSuccess).
		Str("user_id", userID.String()).
		Str("role", role).
		Msg("account registered")
}

func (s *Security) Logout(userID uuid.UUID) {
	s.event(zerolog.InfoLevel, EventLogout).
		Str("user_id", userID.String()).
		Msg("logged out")
}

func (s *Security) ApprovalChanged(actorID, targetID uuid.UUID, status string) {
	s.event(zerolog.InfoLevel, EventApprovalChanged).
		Str("actor_id", actorID.String()).
		Str("target_id", targetID.String()).
		Str("status", status).
		Msg("approval status changed")
}

func (s *Security) AssignmentChanged(doctorID, patientID uuid.UUID, action string) {
	s.event(zerolog.InfoLevel, EventAssignmentChanged).
		Str("doctor_id", doctorID.String()).
		Str("patient_id", patientID.String()).
		Str("action", action).
		Msg("assignment changed")
}

func (s *Security) UnauthorizedAccess(actorID uuid.UUID, role, target, reason string) {
	s.event(zerolog.WarnLevel, EventUnauthorizedAccess).
		Str("actor_id", actorID.String()).
		Str("role", role).
		Str("target", sanitize(target)).
		Str("reason", reason).
		Msg("access denied")
}

func (s *Security) RateLimitExceeded(ip, path string) {
	s.event(zerolog.WarnLevel, EventRateLimitExceeded).
		Str("ip", sanitize(ip)).
		Str("path", sanitize(path)).
		Msg("rate limit exceeded")
}

// IntegrityAlarm reports a record that failed to decrypt.
func (s *Security) IntegrityAlarm(recordID uuid.UUID, err error) {
	s.event(zerolog.ErrorLevel, EventIntegrityAlarm).
		Str("record_id", recordID.String()).
		Err(err).
		Msg("record failed integrity check")
}
