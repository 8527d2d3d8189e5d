package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics counts authentication outcomes.
type AuthMetrics struct {
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	logouts   prometheus.Counter
}

// NewAuthMetrics registers the auth counters with reg.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_auth_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_auth_refreshes_total",
			Help: "Token refresh attempts by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_auth_logouts_total",
			Help: "Successful logouts.",
		}),
	}
	reg.MustRegister(m.logins, m.refreshes, m.logouts)
	return m
}

func (m *AuthMetrics) login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *AuthMetrics) refresh(result string) {
	if m != nil {
		m.refreshes.WithLabelValues(result).Inc()
	}
}

func (m *AuthMetrics) logout() {
	if m != nil {
		m.logouts.Inc()
	}
}
