package feedback

import "github.com/prometheus/client_golang/prometheus"

func DeliveriesMetric(result string) prometheus.Counter {
	return deliveriesMetric.WithLabelValues(result)
}
