package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func SignupCodeKey(requestID uuid.UUID) string {
	return fmt.Sprintf("signup:code:%s", requestID)
}

func ApprovalLockKey(requestID uuid.UUID) string {
	return fmt.Sprintf("approve:lock:%s", requestID)
}

func ProvisioningPhaseKey(requestID uuid.UUID) string {
	return fmt.Sprintf("provision:phase:%s", requestID)
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
