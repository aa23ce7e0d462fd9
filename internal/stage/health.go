package stage

// Health is one named readiness check in the daemon's health report: the
// jobs store ping and the process stage's dependency checks each produce
// one, and the API aggregates them into healthy/degraded/unhealthy.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a passing check.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a failing check; detail says what is broken.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
