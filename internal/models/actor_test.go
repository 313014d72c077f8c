package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorCapabilities(t *testing.T) {
	admin := AdminActor{ID: "u1"}
	teacher := TeacherActor{ID: "u2", TeacherID: "t2"}
	student := StudentActor{ID: "u3"}

	assert.True(t, admin.Can(CapabilityReviewRequest))
	assert.True(t, admin.Can(CapabilityManageSchedule))
	assert.True(t, teacher.Can(CapabilitySubmitRequest))
	assert.False(t, teacher.Can(CapabilityReviewRequest))
	assert.True(t, student.Can(CapabilityViewSchedule))
	assert.False(t, student.Can(CapabilitySubmitRequest))
}

func TestActorFromClaims(t *testing.T) {
	actor, err := ActorFromClaims(&JWTClaims{UserID: "u2", Role: RoleTeacher, TeacherID: "t2"})
	require.NoError(t, err)
	teacher, ok := actor.(TeacherActor)
	require.True(t, ok)
	assert.Equal(t, "t2", teacher.TeacherID)

	_, err = ActorFromClaims(&JWTClaims{UserID: "u2", Role: RoleTeacher})
	assert.Error(t, err)
	_, err = ActorFromClaims(&JWTClaims{UserID: "u9", Role: "SUPERUSER"})
	assert.Error(t, err)
	_, err = ActorFromClaims(nil)
	assert.Error(t, err)
}

func TestSlotClaimLockKeys(t *testing.T) {
	room := "R101"
	claim := SlotClaim{RoomID: &room, TeacherID: "T1", DayOfWeek: 3, TimeSlotID: "S1"}
	assert.Equal(t, []string{"room:R101:3:S1", "teacher:T1:3:S1"}, claim.LockKeys())

	claim.RoomID = nil
	assert.Equal(t, []string{"teacher:T1:3:S1"}, claim.LockKeys())
}
