package evaluation

import "time"

// Observer receives evaluation telemetry. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveEvaluation(module ModuleType, tier FeedbackTier, backend SimilarityBackend, duration time.Duration)
	ObserveFallback(reason string)
	ObserveAutoHelp(module ModuleType)
}

// NopObserver discards all telemetry.
type NopObserver struct{}

func (NopObserver) ObserveEvaluation(ModuleType, FeedbackTier, SimilarityBackend, time.Duration) {}
func (NopObserver) ObserveFallback(string) {}
func (NopObserver) ObserveAutoHelp(ModuleType) {}
