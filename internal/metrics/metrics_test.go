package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCredit(t *testing.T) {
	applied := testutil.ToFloat64(CreditsTotal.WithLabelValues("webhook", "applied"))
	dup := testutil.ToFloat64(CreditsTotal.WithLabelValues("webhook", "duplicate"))
	sc := testutil.ToFloat64(CreditedSCTotal)

	RecordCredit("webhook", true, 50)
	RecordCredit("webhook", false, 50)

	assert.Equal(t, applied+1, testutil.ToFloat64(CreditsTotal.WithLabelValues("webhook", "applied")))
	assert.Equal(t, dup+1, testutil.ToFloat64(CreditsTotal.WithLabelValues("webhook", "duplicate")))
	assert.Equal(t, sc+50, testutil.ToFloat64(CreditedSCTotal))
}

func TestRecordEscrow(t *testing.T) {
	ok := testutil.ToFloat64(EscrowOperationsTotal.WithLabelValues("release", "ok"))
	failed := testutil.ToFloat64(EscrowOperationsTotal.WithLabelValues("release", "error"))

	RecordEscrow("release", nil)
	RecordEscrow("release", errors.New("boom"))

	assert.Equal(t, ok+1, testutil.ToFloat64(EscrowOperationsTotal.WithLabelValues("release", "ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(EscrowOperationsTotal.WithLabelValues("release", "error")))
}

func TestRecordRateLimitAndWebhook(t *testing.T) {
	before := testutil.ToFloat64(RateLimitRejectionsTotal.WithLabelValues("order"))
	RecordRateLimitRejection("order")
	assert.Equal(t, before+1, testutil.ToFloat64(RateLimitRejectionsTotal.WithLabelValues("order")))

	w := testutil.ToFloat64(WebhookEventsTotal.WithLabelValues(WebhookIgnored))
	RecordWebhook(WebhookIgnored)
	assert.Equal(t, w+1, testutil.ToFloat64(WebhookEventsTotal.WithLabelValues(WebhookIgnored)))
}
