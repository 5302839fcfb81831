package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventBatchMinted.Category())
	assert.Equal(t, CategoryCompliance, EventBatchTransferred.Category())
	assert.Equal(t, CategorySecurity, EventMintRejected.Category())
	assert.Equal(t, CategorySecurity, EventAuthorityConfigured.Category())
	assert.Equal(t, CategoryOperations, EventBatchVerified.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}
