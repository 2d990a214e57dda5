package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts registration activity. A nil *Metrics records nothing.
type Metrics struct {
	scoresEntered   prometheus.Counter
	rssItems        prometheus.Counter
	scoreboardCache *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		scoresEntered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_entered_total",
			Help:      "Problem scores entered for contestants.",
		}),
		rssItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rss_items_total",
			Help:      "Items added to the scores feed.",
		}),
		scoreboardCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoreboard_cache_total",
			Help:      "Scoreboard cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.scoresEntered, m.rssItems, m.scoreboardCache)
	return m
}

func (m *Metrics) addScores(n int) {
	if m != nil {
		m.scoresEntered.Add(float64(n))
	}
}

func (m *Metrics) rssItem() {
	if m != nil {
		m.rssItems.Inc()
	}
}

func (m *Metrics) scoreboardLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.scoreboardCache.WithLabelValues("hit").Inc()
	} else {
		m.scoreboardCache.WithLabelValues("miss").Inc()
	}
}
