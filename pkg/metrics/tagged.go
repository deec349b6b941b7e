package metrics

// Tagged envolve um Provider acrescentando tags fixas (service, backend...)
// a todas as métricas enviadas.
type Tagged struct {
	provider Provider
	tags     []string
}

// WithTags cria um Provider que sempre envia as tags informadas.
func WithTags(p Provider, tags ...string) *Tagged {
	return &Tagged{provider: p, tags: tags}
}

func (t *Tagged) Count(name string, value float64, tags []string) error {
	return t.provider.Count(name, value, t.merge(tags))
}

func (t *Tagged) Gauge(name string, value float64, tags []string) error {
	return t.provider.Gauge(name, value, t.merge(tags))
}

func (t *Tagged) Histogram(name string, value float64, tags []string) error {
	return t.provider.Histogram(name, value, t.merge(tags))
}

func (t *Tagged) merge(tags []string) []string {
	out := make([]string, 0, len(t.tags)+len(tags))
	out = append(out, t.tags...)
	return append(out, tags...)
}
