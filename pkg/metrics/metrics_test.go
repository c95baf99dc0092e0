package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// gathered returns the value of the first sample of every family on reg,
// keyed by family name. Counters, gauges and histogram sample counts are
// all reported as float64.
func gathered(reg *prometheus.Registry) map[string]float64 {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		out[mf.GetName()] = total
	}
	return out
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created and enabled", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordPairScored(97, 0.2)

			Convey("Then the names use the namespace and subsystem", func() {
				values := gathered(registry)
				So(values["test_unit_pairs_scored_total"], ShouldEqual, 1)
			})
		})

		Convey("When registering twice on one registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then the duplicate registration panics", func() {
				So(func() { _ = NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		Convey("When a dataset is loaded and rejected", func() {
			manager.RecordDatasetLoaded(3, 2, 1)
			manager.RecordDatasetRejected("missing_fields")
			manager.UpdateActiveSessions(4)

			Convey("Then ingestion metrics reflect it", func() {
				values := gathered(registry)
				So(values["loftmatch_scorer_datasets_loaded_total"], ShouldEqual, 1)
				So(values["loftmatch_scorer_individuals_loaded_total"], ShouldEqual, 6)
				So(values["loftmatch_scorer_datasets_rejected_total"], ShouldEqual, 1)
				So(values["loftmatch_scorer_active_sessions"], ShouldEqual, 4)
			})
		})

		Convey("When pairs are scored", func() {
			manager.RecordPairScored(97, 0.3)
			manager.RecordPairScored(42.5, 0.1)
			manager.RecordScoringError("invalid_record")

			Convey("Then scoring metrics reflect it", func() {
				values := gathered(registry)
				So(values["loftmatch_scorer_pairs_scored_total"], ShouldEqual, 2)
				So(values["loftmatch_scorer_compatibility_score"], ShouldEqual, 2)
				So(values["loftmatch_scorer_scoring_latency_milliseconds"], ShouldEqual, 2)
				So(values["loftmatch_scorer_scoring_errors_total"], ShouldEqual, 1)
			})
		})

		Convey("When match batches run", func() {
			manager.UpdateQueueLength(3)
			manager.RecordQueueRejected()
			manager.RecordMatchBatch(12)

			Convey("Then queue and batch metrics reflect it", func() {
				values := gathered(registry)
				So(values["loftmatch_scorer_queue_length"], ShouldEqual, 3)
				So(values["loftmatch_scorer_queue_rejected_total"], ShouldEqual, 1)
				So(values["loftmatch_scorer_match_batches_total"], ShouldEqual, 1)
				So(values["loftmatch_scorer_match_batch_pairs"], ShouldEqual, 1)
			})
		})

		Convey("When HTTP and system metrics are recorded", func() {
			manager.RecordHTTPRequest("/stats", "GET", "200", 1.5)
			manager.UpdateSystem(2048, 7)

			Convey("Then they are exported", func() {
				values := gathered(registry)
				So(values["loftmatch_scorer_http_requests_total"], ShouldEqual, 1)
				So(values["loftmatch_scorer_http_request_duration_milliseconds"], ShouldEqual, 1)
				So(values["loftmatch_scorer_system_memory_bytes"], ShouldEqual, 2048)
				So(values["loftmatch_scorer_system_goroutines"], ShouldEqual, 7)
			})
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry), WithMetricsEnabled(false))

		Convey("When recording", func() {
			manager.RecordDatasetLoaded(1, 1, 0)
			manager.RecordPairScored(50, 1)
			manager.RecordScoringError("x")

			Convey("Then nothing is counted", func() {
				values := gathered(registry)
				So(values["loftmatch_scorer_datasets_loaded_total"], ShouldEqual, 0)
				So(values["loftmatch_scorer_pairs_scored_total"], ShouldEqual, 0)
			})
		})
	})
}

func TestMetricsGlobal(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then package helpers record on the shared registry", func() {
			So(Default(), ShouldNotBeNil)
			So(GetRegistry(), ShouldNotBeNil)
			So(func() {
				RecordHTTPRequest("/healthz", "GET", "200", 0.1)
				UpdateSystemMetrics(1, 1)
			}, ShouldNotPanic)
			So(gathered(GetRegistry())["loftmatch_scorer_http_requests_total"], ShouldBeGreaterThanOrEqualTo, 1)
		})
	})
}

func TestMetricsOptionsValidation(t *testing.T) {
	Convey("Given invalid option values", t, func() {
		manager := NewManager(
			WithPrometheusRegistry(prometheus.NewRegistry()),
			WithNamespace(""),
			WithSubsystem(""),
			WithHistogramBuckets(nil),
			WithCustomLabels(nil),
			WithPrometheusRegistry(nil),
		)

		Convey("Then defaults are kept", func() {
			So(manager.namespace, ShouldEqual, "loftmatch")
			So(manager.subsystem, ShouldEqual, "scorer")
			So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			So(manager.customLabels, ShouldNotBeNil)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					manager.RecordPairScored(float64(j), 0.01)
				}
			}()
		}
		wg.Wait()

		Convey("Then no observation is lost", func() {
			So(gathered(registry)["loftmatch_scorer_pairs_scored_total"], ShouldEqual, 1000)
		})
	})
}
