package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeTeamNotFound, "team not found")
	wrapped := fmt.Errorf("get team: %w", Wrap(CodeTeamNotFound, "team missing", stderrors.New("sql: no rows")))

	if !stderrors.Is(wrapped, sentinel) {
		t.Fatal("expected wrapped error to match sentinel by code")
	}

	other := New(CodeDocumentNotFound, "document not found")
	if stderrors.Is(wrapped, other) {
		t.Fatal("expected different codes not to match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(CodeUnknown, "wrapped", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeUserNotProvisioned, http.StatusConflict},
		{CodeNotATeamMember, http.StatusForbidden},
		{CodeInsufficientRole, http.StatusForbidden},
		{CodeNotTeamCreator, http.StatusForbidden},
		{CodeCannotRemoveCreator, http.StatusForbidden},
		{CodeTeamNotFound, http.StatusNotFound},
		{CodeDocumentNotFound, http.StatusNotFound},
		{CodeMemberNotFound, http.StatusNotFound},
		{CodeInviteNotFound, http.StatusNotFound},
		{CodeAlreadyMember, http.StatusConflict},
		{CodeDuplicateInvite, http.StatusConflict},
		{CodeInviteNotPending, http.StatusConflict},
		{CodeTeamNameEmpty, http.StatusBadRequest},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !CodeUserNotProvisioned.Retryable() {
		t.Fatal("expected USER_NOT_PROVISIONED to be retryable")
	}
	if CodeTeamNotFound.Retryable() {
		t.Fatal("expected TEAM_NOT_FOUND not to be retryable")
	}
}
