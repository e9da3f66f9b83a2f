package webhook

import "strings"

// Event types the booking timeline records, in normalized form.
const (
	topicIntentSucceeded = "payment_intent_succeeded"
	topicIntentFailed    = "payment_intent_payment_failed"
	topicChargeRefunded  = "charge_refunded"
)

var topicSeparators = strings.NewReplacer("/", "_", ".", "_", "-", "_")

// NormalizeTopic folds a processor event type into the form used for dispatch and metric
// labels: "payment_intent.succeeded" becomes "payment_intent_succeeded". Runs of separators
// collapse to one.
func NormalizeTopic(eventType string) string {
	t := topicSeparators.Replace(strings.ToLower(strings.TrimSpace(eventType)))
	parts := strings.FieldsFunc(t, func(r rune) bool { return r == '_' })
	return strings.Join(parts, "_")
}

func handledTopic(topic string) bool {
	switch topic {
	case topicIntentSucceeded, topicIntentFailed, topicChargeRefunded:
		return true
	}
	return false
}
