package accounts_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accounts "github.com/OscarMF24/api-restful-codeigniter4"
)

func TestStateMachineSoftDelete(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	user := activeUser(1, "5613298400", accounts.RoleBasic)

	deleted := *user
	deleted.Status = accounts.UserStatusDeleted
	deleted.DeletedAt = &now

	users := new(MockUsers)
	users.On("UpdateStatus", mock.Anything, int64(1), accounts.UserStatusDeleted, mock.Anything).
		Return(&deleted, nil)

	sink := &CapturingSink{}
	sm := accounts.NewUserStateMachine(users,
		accounts.WithStateMachineClock(func() time.Time { return now }),
		accounts.WithStateMachineActivitySink(sink),
	)

	actor := accounts.ActorRef{ID: "5613298400", Type: "user"}
	result, err := sm.Transition(context.Background(), actor, user, accounts.UserStatusDeleted)
	require.NoError(t, err)

	assert.Equal(t, accounts.UserStatusDeleted, result.Status)
	require.NotNil(t, result.DeletedAt)
	assert.Equal(t, now, *result.DeletedAt)

	events := sink.EventsOfType(accounts.ActivityEventUserStatusChanged)
	require.Len(t, events, 1)
	assert.Equal(t, accounts.UserStatusActive, events[0].FromStatus)
	assert.Equal(t, accounts.UserStatusDeleted, events[0].ToStatus)
	assert.Equal(t, int64(1), events[0].UserID)
	assert.Equal(t, actor, events[0].Actor)

	users.AssertExpectations(t)
}

func TestStateMachineRestore(t *testing.T) {
	deletedAt := time.Now().Add(-time.Hour)
	user := activeUser(2, "5587654321", accounts.RoleBasic)
	user.Status = accounts.UserStatusDeleted
	user.DeletedAt = &deletedAt

	restored := *user
	restored.Status = accounts.UserStatusActive
	restored.DeletedAt = nil

	users := new(MockUsers)
	users.On("UpdateStatus", mock.Anything, int64(2), accounts.UserStatusActive, mock.Anything).
		Return(&restored, nil)

	sm := accounts.NewUserStateMachine(users)

	result, err := sm.Transition(context.Background(), accounts.ActorRef{Type: "system"}, user, accounts.UserStatusActive)
	require.NoError(t, err)

	assert.Equal(t, accounts.UserStatusActive, result.Status)
	assert.Nil(t, result.DeletedAt)

	users.AssertExpectations(t)
}

func TestStateMachineRejectsSelfTransition(t *testing.T) {
	users := new(MockUsers)
	sm := accounts.NewUserStateMachine(users)

	// deleting an already deleted user
	deletedAt := time.Now()
	user := activeUser(3, "5611111111", accounts.RoleBasic)
	user.Status = accounts.UserStatusDeleted
	user.DeletedAt = &deletedAt

	_, err := sm.Transition(context.Background(), accounts.ActorRef{}, user, accounts.UserStatusDeleted)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, goerrors.CodeConflict, richErr.Code)

	// restoring an active user
	active := activeUser(4, "5622222222", accounts.RoleBasic)
	_, err = sm.Transition(context.Background(), accounts.ActorRef{}, active, accounts.UserStatusActive)
	require.Error(t, err)
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, goerrors.CodeConflict, richErr.Code)

	// the repository is never hit for invalid transitions
	users.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStateMachineNilUser(t *testing.T) {
	sm := accounts.NewUserStateMachine(new(MockUsers))

	_, err := sm.Transition(context.Background(), accounts.ActorRef{}, nil, accounts.UserStatusDeleted)
	assert.Error(t, err)
}

func TestStateMachineDerivesStatusFromDeletedAt(t *testing.T) {
	sm := accounts.NewUserStateMachine(new(MockUsers))

	deletedAt := time.Now()
	user := &accounts.User{ID: 5, Phone: "5633333333", DeletedAt: &deletedAt}

	assert.Equal(t, accounts.UserStatusDeleted, sm.CurrentStatus(user))

	user.DeletedAt = nil
	user.Status = ""
	assert.Equal(t, accounts.UserStatusActive, sm.CurrentStatus(user))
}

func TestStateMachineSinkFailureDoesNotBlock(t *testing.T) {
	now := time.Now()
	user := activeUser(6, "5644444444", accounts.RoleBasic)

	deleted := *user
	deleted.Status = accounts.UserStatusDeleted
	deleted.DeletedAt = &now

	users := new(MockUsers)
	users.On("UpdateStatus", mock.Anything, int64(6), accounts.UserStatusDeleted, mock.Anything).
		Return(&deleted, nil)

	sink := &CapturingSink{Err: assert.AnError}
	sm := accounts.NewUserStateMachine(users, accounts.WithStateMachineActivitySink(sink))

	_, err := sm.Transition(context.Background(), accounts.ActorRef{}, user, accounts.UserStatusDeleted)
	assert.NoError(t, err)
	assert.Len(t, sink.Events, 1)
}
