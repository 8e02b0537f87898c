package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then defaults apply", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "octagon")
				So(manager.subsystem, ShouldEqual, "predictor")
				So(manager.histogramBuckets, ShouldResemble, defaultBuckets)
			})
		})

		Convey("When creating with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.predictions.WithLabelValues("winner", OutcomeOK).Inc()

			Convey("Then collectors carry the custom names and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() != "test_unit_predictions_total" {
						continue
					}
					found = true
					labels := f.GetMetric()[0].GetLabel()
					var env string
					for _, l := range labels {
						if l.GetName() == "env" {
							env = l.GetValue()
						}
					}
					So(env, ShouldEqual, "test")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "octagon")
				So(manager.subsystem, ShouldEqual, "predictor")
				So(manager.histogramBuckets, ShouldResemble, defaultBuckets)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording predictions", func() {
			before := testutil.ToFloat64(globalManager.predictions.WithLabelValues("winner", OutcomeOK))
			RecordPrediction("winner", OutcomeOK, 3*time.Millisecond)

			Convey("Then the counter increments", func() {
				So(testutil.ToFloat64(globalManager.predictions.WithLabelValues("winner", OutcomeOK)), ShouldEqual, before+1)
			})
		})

		Convey("When a job fails with a kind", func() {
			kind := errors.New("upstream")
			before := testutil.ToFloat64(globalManager.jobErrors.WithLabelValues("predict", "upstream"))
			RecordJobError("predict", kind)

			Convey("Then the error kind becomes the label", func() {
				So(testutil.ToFloat64(globalManager.jobErrors.WithLabelValues("predict", "upstream")), ShouldEqual, before+1)
			})
		})

		Convey("When a job fails without a kind", func() {
			before := testutil.ToFloat64(globalManager.jobErrors.WithLabelValues("predict", OutcomeOther))
			RecordJobError("predict", nil)

			Convey("Then it is labelled other", func() {
				So(testutil.ToFloat64(globalManager.jobErrors.WithLabelValues("predict", OutcomeOther)), ShouldEqual, before+1)
			})
		})

		Convey("When publishing gauges", func() {
			UpdateDataset(10, 20, 3)
			UpdateQueueSize(4)
			UpdateQueueCapacity(64)
			UpdateWorkerCount(2)
			UpdateWorkersBusy(1)
			UpdateModelFeatures("winner", 42)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.fighters), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.bouts), ShouldEqual, 20)
				So(testutil.ToFloat64(globalManager.officials), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.workersBusy), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.modelsLoaded.WithLabelValues("winner")), ShouldEqual, 42)
			})
		})

		Convey("When recording queue and http events", func() {
			So(func() {
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueRejected("full")
				ObserveQueueWait(time.Millisecond)
				ObserveJobLatency("predict", time.Millisecond)
				RecordJobRejected("predict")
				RecordJobAbandoned("predict")
				RecordExplanation(OutcomeOK)
				RecordSchemaMismatch("winner")
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 1.5)
				RecordRateLimited("/predict")
				RecordErrorByEndpoint("/predict", "POST", "invalid_input")
				UpdateSystemMetrics()
			}, ShouldNotPanic)
		})

		Convey("When a queue wait is observed", func() {
			waitSamples := func() uint64 {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				for _, f := range families {
					if f.GetName() == "octagon_predictor_queue_wait_milliseconds" {
						return f.GetMetric()[0].GetHistogram().GetSampleCount()
					}
				}
				return 0
			}
			before := waitSamples()
			ObserveQueueWait(3 * time.Millisecond)

			Convey("Then the unlabelled histogram counts it", func() {
				So(waitSamples(), ShouldEqual, before+1)
			})
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then only service metrics are exposed", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(f.GetName(), ShouldStartWith, "octagon_predictor_")
				}
			})
		})
	})
}
