package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minesweeper_games_started_total",
		Help: "Number of game sessions created.",
	})

	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minesweeper_games_finished_total",
		Help: "Number of finished game sessions by result.",
	}, []string{"result"})

	AIMoves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minesweeper_ai_moves_total",
		Help: "Moves chosen by the inference agent, by kind (safe or random).",
	}, []string{"kind"})

	Deductions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minesweeper_deductions_total",
		Help: "Cells the inference agent proved safe or mined.",
	}, []string{"kind"})

	KnowledgeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "minesweeper_knowledge_sentences",
		Help:    "Sentences held by the agent after an update.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "minesweeper_websocket_connections",
		Help: "Open game websocket connections.",
	})
)
