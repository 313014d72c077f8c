package models

import "fmt"

// Capability is a permission checked at the HTTP boundary.
type Capability string

const (
	CapabilityViewSchedule   Capability = "view_schedule"
	CapabilitySubmitRequest  Capability = "submit_request"
	CapabilityReviewRequest  Capability = "review_request"
	CapabilityManageSchedule Capability = "manage_schedule"
)

// Actor is the authenticated caller. The concrete type is one of AdminActor,
// TeacherActor or StudentActor.
type Actor interface {
	UserID() string
	Role() UserRole
	Can(Capability) bool
	actor()
}

// AdminActor may manage schedules and review requests.
type AdminActor struct {
	ID string
}

func (a AdminActor) UserID() string { return a.ID }
func (a AdminActor) Role() UserRole { return RoleAdmin }
func (a AdminActor) Can(c Capability) bool {
	switch c {
	case CapabilityViewSchedule, CapabilityReviewRequest, CapabilityManageSchedule, CapabilitySubmitRequest:
		return true
	}
	return false
}
func (AdminActor) actor() {}

// TeacherActor may view schedules and submit requests for their own classes.
type TeacherActor struct {
	ID        string
	TeacherID string
}

func (t TeacherActor) UserID() string { return t.ID }
func (t TeacherActor) Role() UserRole { return RoleTeacher }
func (t TeacherActor) Can(c Capability) bool {
	return c == CapabilityViewSchedule || c == CapabilitySubmitRequest
}
func (TeacherActor) actor() {}

// StudentActor may only view schedules.
type StudentActor struct {
	ID string
}

func (s StudentActor) UserID() string { return s.ID }
func (s StudentActor) Role() UserRole { return RoleStudent }
func (s StudentActor) Can(c Capability) bool {
	return c == CapabilityViewSchedule
}
func (StudentActor) actor() {}

// ActorFromClaims builds the actor matching the token role.
func ActorFromClaims(claims *JWTClaims) (Actor, error) {
	if claims == nil || claims.UserID == "" {
		return nil, fmt.Errorf("missing subject")
	}
	switch claims.Role {
	case RoleAdmin:
		return AdminActor{ID: claims.UserID}, nil
	case RoleTeacher:
		if claims.TeacherID == "" {
			return nil, fmt.Errorf("teacher token without teacher_id")
		}
		return TeacherActor{ID: claims.UserID, TeacherID: claims.TeacherID}, nil
	case RoleStudent:
		return StudentActor{ID: claims.UserID}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}
}
