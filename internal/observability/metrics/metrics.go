package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by provider and outcome.",
		},
		[]string{"provider", "result"},
	)

	SessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sessions_created_total",
			Help: "Sessions created.",
		},
	)

	RefreshRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_refresh_rotations_total",
			Help: "Successful refresh token rotations.",
		},
	)

	RefreshReuseDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_refresh_reuse_detected_total",
			Help: "Refresh token replays that triggered family revocation.",
		},
	)

	CSRFRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_csrf_rejections_total",
			Help: "Requests rejected by the CSRF double-submit check.",
		},
	)

	SweepDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sweep_deleted_total",
			Help: "Rows removed by the expiry sweeper.",
		},
		[]string{"store"},
	)
)
