package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithRegistry(registry), WithNamespace("test"))

		Convey("When saves are observed", func() {
			m.ObserveSave("shots", time.Millisecond, nil)
			m.ObserveSave("shots", time.Millisecond, errors.New("disk full"))
			m.ObserveSave("customParameters", time.Millisecond, nil)

			Convey("Then results are counted per collection", func() {
				So(testutil.ToFloat64(m.saves.WithLabelValues("shots", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.saves.WithLabelValues("shots", "error")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.saves.WithLabelValues("customParameters", "ok")), ShouldEqual, 1)
			})
		})

		Convey("When sizes are set", func() {
			m.SetSizes(12, 3)

			Convey("Then the gauges follow", func() {
				So(testutil.ToFloat64(m.shots), ShouldEqual, 12)
				So(testutil.ToFloat64(m.parameters), ShouldEqual, 3)
			})
		})

		Convey("When the handler is scraped", func() {
			m.ObserveRequest("GET /api/shots", http.StatusOK, 5*time.Millisecond)
			m.ObserveImport(false)
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then it exposes the namespaced series", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				body := rec.Body.String()
				So(strings.Contains(body, `test_http_requests_total{code="200",route="GET /api/shots"} 1`), ShouldBeTrue)
				So(strings.Contains(body, `test_imports_total{result="error"} 1`), ShouldBeTrue)
			})
		})
	})

	Convey("Given a manager with custom buckets", t, func() {
		m := NewManager(WithHistogramBuckets(LocalBuckets))
		m.ObserveSave("shots", 2*time.Millisecond, nil)

		Convey("Then the save histogram uses them", func() {
			families, err := m.Registry().Gather()
			So(err, ShouldBeNil)
			var buckets int
			for _, f := range families {
				if f.GetName() == "shottrack_storage_save_duration_seconds" {
					buckets = len(f.GetMetric()[0].GetHistogram().GetBucket())
				}
			}
			So(buckets, ShouldEqual, len(LocalBuckets))
			So(LocalBuckets[0], ShouldEqual, 0.0005)
		})
	})

	Convey("Given a nil manager", t, func() {
		var m *Manager

		Convey("Then recording is a no-op", func() {
			So(func() {
				m.ObserveRequest("GET /", http.StatusOK, time.Millisecond)
				m.ObserveSave("shots", time.Millisecond, nil)
				m.ObserveImport(true)
				m.SetSizes(1, 1)
			}, ShouldNotPanic)
		})
	})
}
